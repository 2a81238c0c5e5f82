package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lumenshop/storefront/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "sf"
	pingTimeout      = 2 * time.Second
)

// store 进程内共享的 Redis 连接，未启用时所有读写退化为空操作
type store struct {
	mu     sync.RWMutex
	client *redis.Client
	prefix string
}

var shared = &store{prefix: defaultKeyPrefix}

// InitRedis 按配置建立连接并探活；探活失败时返回错误但保留客户端，后续请求仍可重试
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		shared.swap(nil, defaultKeyPrefix)
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if old := shared.swap(client, prefix); old != nil {
		_ = old.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// Close 关闭连接
func Close() error {
	old := shared.swap(nil, defaultKeyPrefix)
	if old == nil {
		return nil
	}
	return old.Close()
}

// Enabled 是否已配置 Redis
func Enabled() bool {
	return Client() != nil
}

// Client 当前客户端，未启用时为 nil
func Client() *redis.Client {
	shared.mu.RLock()
	defer shared.mu.RUnlock()
	return shared.client
}

// Key 拼接带前缀的键
func Key(parts ...string) string {
	shared.mu.RLock()
	prefix := shared.prefix
	shared.mu.RUnlock()
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, prefix)
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	return strings.Join(segments, ":")
}

// GetJSON 读取并解码缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	client := Client()
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 编码写入缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	client := Client()
	if client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, Key(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, keys ...string) error {
	client := Client()
	if client == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, Key(key))
	}
	return client.Del(ctx, full...).Err()
}

func (s *store) swap(client *redis.Client, prefix string) *redis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.client
	s.client = client
	s.prefix = prefix
	return old
}

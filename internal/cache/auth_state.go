package cache

import (
	"context"
	"strings"
	"time"
)

const authStateCacheTTL = 10 * time.Minute

// UserAuthState 用户鉴权快照，仅用于服务端 Redis 缓存
type UserAuthState struct {
	UID          string `json:"uid"`
	TokenVersion uint64 `json:"token_version"`
	UpdatedAt    int64  `json:"updated_at"`
}

func userAuthStateKey(uid string) string {
	return "auth:user:" + strings.TrimSpace(uid)
}

// NewUserAuthState 构建鉴权快照
func NewUserAuthState(uid string, tokenVersion uint64) *UserAuthState {
	return &UserAuthState{
		UID:          uid,
		TokenVersion: tokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetUserAuthState 获取用户鉴权快照
func GetUserAuthState(ctx context.Context, uid string) (*UserAuthState, bool, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, false, nil
	}
	var state UserAuthState
	hit, err := GetJSON(ctx, userAuthStateKey(uid), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetUserAuthState 写入用户鉴权快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || strings.TrimSpace(state.UID) == "" {
		return nil
	}
	return SetJSON(ctx, userAuthStateKey(state.UID), state, authStateCacheTTL)
}

// DelUserAuthState 删除用户鉴权快照
func DelUserAuthState(ctx context.Context, uid string) error {
	if strings.TrimSpace(uid) == "" {
		return nil
	}
	return Del(ctx, userAuthStateKey(uid))
}

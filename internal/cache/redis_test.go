package cache

import (
	"context"
	"testing"
	"time"

	"github.com/lumenshop/storefront/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	ctx := context.Background()
	if Enabled() {
		t.Fatalf("cache should be disabled")
	}
	if err := SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatalf("set on disabled cache failed: %v", err)
	}
	var dest map[string]int
	hit, err := GetJSON(ctx, "k", &dest)
	if err != nil || hit {
		t.Fatalf("expected miss without error, got hit=%v err=%v", hit, err)
	}
	if err := Del(ctx, "k"); err != nil {
		t.Fatalf("del on disabled cache failed: %v", err)
	}
}

func TestKeySkipsEmptySegments(t *testing.T) {
	if err := Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if got := Key("product", " ", "p-1"); got != "sf:product:p-1" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key(); got != "sf" {
		t.Fatalf("unexpected bare key %q", got)
	}
}

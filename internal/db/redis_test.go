package db

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClient_Disabled(t *testing.T) {
	rdb, err := NewRedisClient(RedisOpts{})
	if err != nil || rdb != nil {
		t.Fatalf("got %v, %v; want nil client without error", rdb, err)
	}
}

func TestNewRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(RedisOpts{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rdb.Close()
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisClient(RedisOpts{Addr: addr}); err == nil {
		t.Fatal("expected ping error")
	}
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseStore(t *testing.T, s CredentialStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil || got != "" {
		t.Fatalf("empty store: got %q, %v", got, err)
	}
	if err := s.Save(ctx, "tok-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := s.Load(ctx); got != "tok-1" {
		t.Fatalf("got %q, want tok-1", got)
	}
	if err := s.Save(ctx, "tok-2"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := s.Load(ctx); got != "tok-2" {
		t.Fatalf("got %q, want tok-2", got)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := s.Load(ctx); got != "" {
		t.Fatalf("got %q after clear", got)
	}
	// clearing twice is fine
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	s, _ := NewFileStore(path)
	if err := s.Save(context.Background(), "secret"); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("got mode %v, want 0600", fi.Mode().Perm())
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisStore(rdb, "")
	exerciseStore(t, s)

	_ = s.Save(context.Background(), "shared")
	if v, _ := mr.Get("rfmdash:auth_token"); v != "shared" {
		t.Fatalf("got %q under default key", v)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(""))
}

func TestNew_Drivers(t *testing.T) {
	if _, err := New(Opts{Driver: "redis"}); err == nil {
		t.Fatal("expected error for redis driver without client")
	}
	if _, err := New(Opts{Driver: "etcd"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	s, err := New(Opts{Driver: "file", Path: filepath.Join(t.TempDir(), "c.yaml")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Fatalf("got %T", s)
	}
}

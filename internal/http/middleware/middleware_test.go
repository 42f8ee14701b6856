package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmehdipour/rfm-dashboard/internal/model"
	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type stubSession struct {
	initialized bool
	identity    *model.Identity
}

func (s stubSession) Initialized() bool         { return s.initialized }
func (s stubSession) Authenticated() bool       { return s.identity != nil }
func (s stubSession) Identity() *model.Identity { return s.identity }

func newTestEcho(sess Session, rl RateLimitConfig) *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", ReadyMiddleware(sess), AuthMiddleware(sess), RateLimitMiddleware(rl))
	g.GET("/ping", func(c echo.Context) error {
		name, _ := UsernameFromCtx(c)
		return c.String(http.StatusOK, name)
	})
	return e
}

func get(e *echo.Echo) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	return rec
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name string
		sess stubSession
		want int
	}{
		{"initializing", stubSession{}, http.StatusServiceUnavailable},
		{"anonymous", stubSession{initialized: true}, http.StatusUnauthorized},
		{"authenticated", stubSession{initialized: true, identity: &model.Identity{Username: "ann"}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestEcho(tt.sess, RateLimitConfig{}))
			if rec.Code != tt.want {
				t.Fatalf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimit_PerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sess := stubSession{initialized: true, identity: &model.Identity{Username: "ann"}}
	e := newTestEcho(sess, RateLimitConfig{Redis: rdb, RPS: 2, RetryAfterHint: true})

	limited := 0
	for i := 0; i < 5; i++ {
		rec := get(e)
		if rec.Code == http.StatusTooManyRequests {
			limited++
			if rec.Header().Get("Retry-After") == "" {
				t.Fatal("missing Retry-After hint")
			}
		}
	}
	// the five requests may straddle a one-second window boundary
	if limited < 1 {
		t.Fatal("expected at least one request to be rate limited")
	}
	if keys := mr.Keys(); len(keys) == 0 || keys[0][:len("rl:user:ann:")] != "rl:user:ann:" {
		t.Fatalf("unexpected redis keys %v", keys)
	}
}

func TestRateLimit_InProcessWithoutRedis(t *testing.T) {
	sess := stubSession{initialized: true, identity: &model.Identity{Username: "ann"}}
	e := newTestEcho(sess, RateLimitConfig{RPS: 1})

	if rec := get(e); rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d", rec.Code)
	}
	if rec := get(e); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("burst of one exceeded: got %d", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	sess := stubSession{initialized: true, identity: &model.Identity{Username: "ann"}}
	e := newTestEcho(sess, RateLimitConfig{})
	for i := 0; i < 3; i++ {
		if rec := get(e); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, rec.Code)
		}
	}
}

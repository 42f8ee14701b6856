package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmehdipour/rfm-dashboard/internal/config"
	"github.com/jmehdipour/rfm-dashboard/internal/dashboard"
	"github.com/jmehdipour/rfm-dashboard/internal/db"
	"github.com/jmehdipour/rfm-dashboard/internal/gateway"
	"github.com/jmehdipour/rfm-dashboard/internal/session"
	"github.com/jmehdipour/rfm-dashboard/internal/store"
	"github.com/redis/go-redis/v9"
)

var errNotLoggedIn = errors.New("not logged in: run `rfmdash login` first")

// app is the wired client: one gateway, one session and one dashboard.
type app struct {
	rdb  *redis.Client
	gw   *gateway.Client
	sess *session.Manager
	dash *dashboard.Orchestrator
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	rdb, err := db.NewRedisClient(db.RedisOpts{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	st, err := store.New(store.Opts{
		Driver:   cfg.Store.Driver,
		Path:     cfg.Store.Path,
		Redis:    rdb,
		RedisKey: cfg.Store.RedisKey,
	})
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	gw := gateway.New(gateway.Options{
		BaseURL:       cfg.Gateway.BaseURL,
		AuthScheme:    cfg.Gateway.AuthScheme,
		TimeoutMs:     cfg.Gateway.TimeoutMs,
		FailThreshold: cfg.Gateway.Breaker.FailThreshold,
		OpenForMs:     cfg.Gateway.Breaker.OpenForMs,
	})
	sess := session.New(ctx, gw, st, session.Options{RemoteLogoutPath: cfg.Session.RemoteLogoutPath})

	return &app{
		rdb:  rdb,
		gw:   gw,
		sess: sess,
		dash: dashboard.New(gw, sess),
	}, nil
}

// initSession resolves the persisted credential and, when authRequired,
// fails unless it produced an authenticated session.
func (a *app) initSession(ctx context.Context, authRequired bool) error {
	if err := a.sess.Init(ctx); err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	if authRequired && !a.sess.Authenticated() {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}

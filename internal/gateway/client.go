package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jmehdipour/rfm-dashboard/internal/logger"
	"github.com/jmehdipour/rfm-dashboard/internal/metrics"
	"github.com/jmehdipour/rfm-dashboard/internal/util"
	"go.uber.org/zap"
)

type Options struct {
	BaseURL       string // e.g. http://127.0.0.1:8000/api
	AuthScheme    string // "Token" (default) | "Bearer"
	TimeoutMs     int    // default 15000
	FailThreshold int    // breaker, default 5
	OpenForMs     int    // breaker, default 10000
	HTTPClient    *http.Client
}

// Client is the typed client of the remote analytics service. The
// authorization header is process-wide state owned by whoever calls
// SetAuthToken; every other caller only reads it.
type Client struct {
	baseURL string
	scheme  string
	client  *http.Client
	br      *Breaker

	mu             sync.RWMutex
	token          string
	onUnauthorized func(token string)
}

func New(opts Options) *Client {
	if opts.TimeoutMs <= 0 {
		opts.TimeoutMs = 15000
	}
	if strings.TrimSpace(opts.AuthScheme) == "" {
		opts.AuthScheme = "Token"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: time.Duration(opts.TimeoutMs) * time.Millisecond}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		scheme:  opts.AuthScheme,
		client:  hc,
		br:      NewBreaker(opts.FailThreshold, time.Duration(opts.OpenForMs)*time.Millisecond),
	}
}

// SetAuthToken attaches (non-empty) or detaches (empty) the authorization header.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registers fn to be called with the token that was rejected
// whenever an authenticated call answers 401.
func (c *Client) OnUnauthorized(fn func(token string)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	authToken   string // overrides the attached token when set
}

// do sends req and returns the raw response on 2xx; callers close the body.
func (c *Client) do(ctx context.Context, req request) (*http.Response, error) {
	if !c.br.TryAcquire() {
		metrics.GatewayRequestsTotal.WithLabelValues(req.op, "circuit_open").Inc()
		return nil, &Error{Kind: ErrTransient, Op: req.op, Err: ErrCircuitOpen}
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		c.br.OnSuccess()
		return nil, &Error{Kind: ErrProtocol, Op: req.op, Err: err}
	}

	reqID := util.NewRequestID()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	token := req.authToken
	if token == "" {
		c.mu.RLock()
		token = c.token
		c.mu.RUnlock()
	}
	if token != "" {
		httpReq.Header.Set("Authorization", c.scheme+" "+token)
	}

	start := time.Now()
	res, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			// caller gave up; says nothing about service health
			c.br.OnSuccess()
			return nil, ctx.Err()
		}
		c.br.OnFailure()
		metrics.GatewayRequestsTotal.WithLabelValues(req.op, "transient").Inc()
		logger.Log.Warn("gateway request failed",
			zap.String("op", req.op), zap.String("request_id", reqID), zap.Error(err))
		return nil, &Error{Kind: ErrTransient, Op: req.op, Err: err}
	}

	logger.Log.Debug("gateway request",
		zap.String("op", req.op),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", res.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("took", time.Since(start)))

	if res.StatusCode/100 == 2 {
		c.br.OnSuccess()
		metrics.GatewayRequestsTotal.WithLabelValues(req.op, "ok").Inc()
		return res, nil
	}

	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	msg, fields := parseErrorBody(body)

	kind := kindForStatus(res.StatusCode)
	if errors.Is(kind, ErrTransient) {
		c.br.OnFailure()
	} else {
		c.br.OnSuccess()
	}
	metrics.GatewayRequestsTotal.WithLabelValues(req.op, outcomeLabel(kind)).Inc()

	if res.StatusCode == http.StatusUnauthorized && token != "" && req.authToken == "" {
		c.mu.RLock()
		hook := c.onUnauthorized
		c.mu.RUnlock()
		if hook != nil {
			hook(token)
		}
	}

	return nil, &Error{
		Kind:    kind,
		Op:      req.op,
		Status:  res.StatusCode,
		Message: msg,
		Fields:  fields,
	}
}

// getJSON issues a GET and decodes the 2xx body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	res, err := c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return decode(op, res, out)
}

// postJSON marshals in, POSTs it and decodes the 2xx body into out (when non-nil).
func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}
	res, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(b),
		contentType: "application/json",
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	return decode(op, res, out)
}

func decode(op string, res *http.Response, out any) error {
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(op, "protocol").Inc()
		return protocolError(op, res.StatusCode, err)
	}
	return nil
}

func outcomeLabel(kind error) string {
	switch {
	case errors.Is(kind, ErrAuthentication):
		return "authentication"
	case errors.Is(kind, ErrValidation):
		return "validation"
	case errors.Is(kind, ErrNotFound):
		return "not_found"
	case errors.Is(kind, ErrTransient):
		return "transient"
	default:
		return "protocol"
	}
}

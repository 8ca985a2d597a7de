package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"online_judge/internal/platform/metrics"
)

// Handle is one live connection to the queue backend.
type Handle interface {
	// Connected reports local state only; it must not touch the network.
	Connected() bool
	RPush(ctx context.Context, queue string, payload []byte) error
	Close() error
}

// Dialer opens a new Handle.
type Dialer func(ctx context.Context) (Handle, error)

var errClientClosed = errors.New("queue client closed")

// Client pushes judge jobs to named lists. It owns at most one Handle, opened lazily
// and replaced after any failure. Push never returns an error; it reports ok/fail.
type Client struct {
	mu      sync.Mutex
	handle  Handle
	closed  bool
	dial    Dialer
	timeout time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewClient(dial Dialer, timeout time.Duration, log zerolog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		dial:    dial,
		timeout: timeout,
		log:     log.With().Str("component", "queue").Logger(),
		metrics: m,
	}
}

// Push appends payload as JSON to the tail of the queue list.
// A false result means the job is not guaranteed to be delivered.
func (c *Client) Push(ctx context.Context, queue string, payload interface{}) bool {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ok := c.push(ctx, queue, payload)
	c.metrics.ObserveDispatch(queue, ok)
	return ok
}

func (c *Client) push(ctx context.Context, queue string, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Str("queue", queue).Msg("failed to encode judge job")
		c.reset()
		return false
	}

	h, err := c.acquire(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("queue", queue).Msg("failed to connect to judge queue")
		return false
	}

	if err := h.RPush(ctx, queue, data); err != nil {
		c.log.Error().Err(err).Str("queue", queue).Msg("failed to push judge job")
		c.discard(h)
		return false
	}
	return true
}

func (c *Client) acquire(ctx context.Context) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errClientClosed
	}
	if c.handle != nil && c.handle.Connected() {
		return c.handle, nil
	}
	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}

	h, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveReconnect()
	c.handle = h
	return h, nil
}

// discard tears h down unless another caller already replaced it.
func (c *Client) discard(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != h {
		return
	}
	c.handle = nil
	if err := h.Close(); err != nil {
		c.log.Debug().Err(err).Msg("closing failed queue handle")
	}
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}
}

// Close drops the handle; later pushes fail.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.handle == nil {
		return nil
	}
	err := c.handle.Close()
	c.handle = nil
	return err
}

type redisHandle struct {
	rdb    *redis.Client
	closed atomic.Bool
}

func (h *redisHandle) Connected() bool {
	return !h.closed.Load()
}

func (h *redisHandle) RPush(ctx context.Context, queue string, payload []byte) error {
	return h.rdb.RPush(ctx, queue, payload).Err()
}

func (h *redisHandle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.rdb.Close()
}

// RedisDialer opens a dedicated redis client per handle and pings it before use.
func RedisDialer(opts redis.Options) Dialer {
	return func(ctx context.Context) (Handle, error) {
		o := opts
		rdb := redis.NewClient(&o)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, err
		}
		return &redisHandle{rdb: rdb}, nil
	}
}

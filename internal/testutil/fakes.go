package testutil

import (
	"context"
	"database/sql"
	"sync"
)

// Transactor runs fn without a transaction; the in-memory stores ignore tx.
type Transactor struct {
	mu    sync.Mutex
	Calls int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	t.mu.Lock()
	t.Calls++
	t.mu.Unlock()
	return fn(ctx, nil)
}

// Push is one recorded queue push.
type Push struct {
	Queue   string
	Payload interface{}
}

// Pusher records pushes and answers with Fail for the queues listed there.
type Pusher struct {
	mu     sync.Mutex
	Pushes []Push
	Fail   map[string]bool
}

func (p *Pusher) Push(_ context.Context, queue string, payload interface{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Pushes = append(p.Pushes, Push{Queue: queue, Payload: payload})
	return !p.Fail[queue]
}

func (p *Pusher) Recorded() []Push {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Push(nil), p.Pushes...)
}

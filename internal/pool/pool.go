// Package pool bounds concurrent use of database connections. Waiters are served in
// arrival order, give up after a fixed acquisition timeout, and leave the queue as soon
// as their own context ends.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrUnavailable is returned when no connection could be leased within the
// acquisition timeout, or when opening one failed.
var ErrUnavailable = errors.New("pool: connection unavailable")

// Defaults applied by New to zero-valued Config fields.
const (
	DefaultMaxSize        = 10
	DefaultAcquireTimeout = 5 * time.Second
	DefaultIdleTimeout    = 10 * time.Minute
)

// Config is fixed at construction.
type Config struct {
	MaxSize        int
	AcquireTimeout time.Duration
	// IdleTimeout is not enforced by the gate itself; backends read it when they
	// configure their own connection reaping.
	IdleTimeout time.Duration
}

// WithDefaults fills zero-valued fields with the package defaults.
func (c Config) WithDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	return c
}

// OpenFunc obtains one connection from the backend together with the function that
// returns it.
type OpenFunc[C any] func(ctx context.Context) (C, func(), error)

// Stats is a point-in-time snapshot.
type Stats struct {
	MaxSize         int
	InUse           int64
	Waiting         int64
	AcquireTimeouts uint64
	Acquired        uint64
}

// Pool gates an OpenFunc behind MaxSize exclusive leases.
type Pool[C any] struct {
	cfg  Config
	sem  *semaphore.Weighted
	open OpenFunc[C]

	inUse    atomic.Int64
	waiting  atomic.Int64
	timeouts atomic.Uint64
	acquired atomic.Uint64
}

// New builds a pool over open.
func New[C any](cfg Config, open OpenFunc[C]) *Pool[C] {
	cfg = cfg.WithDefaults()
	return &Pool[C]{
		cfg:  cfg,
		sem:  semaphore.NewWeighted(int64(cfg.MaxSize)),
		open: open,
	}
}

// Config returns the effective configuration.
func (p *Pool[C]) Config() Config { return p.cfg }

// Acquire waits for a free slot and opens a connection in it. The returned lease must
// be released exactly once; extra Release calls are ignored.
func (p *Pool[C]) Acquire(ctx context.Context) (*Lease[C], error) {
	actx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	p.waiting.Add(1)
	err := p.sem.Acquire(actx, 1)
	p.waiting.Add(-1)
	if err != nil {
		return nil, p.acquireErr(ctx, err)
	}

	conn, release, err := p.open(actx)
	if err != nil {
		p.sem.Release(1)
		return nil, p.acquireErr(ctx, err)
	}

	p.inUse.Add(1)
	p.acquired.Add(1)
	return &Lease[C]{pool: p, conn: conn, release: release}, nil
}

func (p *Pool[C]) acquireErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		p.timeouts.Add(1)
		return fmt.Errorf("%w: no connection within %s", ErrUnavailable, p.cfg.AcquireTimeout)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// InUse is the number of leases currently held.
func (p *Pool[C]) InUse() int64 { return p.inUse.Load() }

// Stats returns counters for metrics.
func (p *Pool[C]) Stats() Stats {
	return Stats{
		MaxSize:         p.cfg.MaxSize,
		InUse:           p.inUse.Load(),
		Waiting:         p.waiting.Load(),
		AcquireTimeouts: p.timeouts.Load(),
		Acquired:        p.acquired.Load(),
	}
}

// Lease is exclusive use of one connection.
type Lease[C any] struct {
	pool    *Pool[C]
	conn    C
	release func()
	once    sync.Once
}

// Conn returns the leased connection. It must not be used after Release.
func (l *Lease[C]) Conn() C { return l.conn }

// Release returns the connection and frees the slot.
func (l *Lease[C]) Release() {
	l.once.Do(func() {
		if l.release != nil {
			l.release()
		}
		l.pool.inUse.Add(-1)
		l.pool.sem.Release(1)
	})
}

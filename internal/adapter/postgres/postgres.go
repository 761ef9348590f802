// Package postgres implements the domain store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"hyperlocal/internal/adapter/postgres/migrations"
	"hyperlocal/internal/domain"
	"hyperlocal/internal/pool"
)

const connectTimeout = 5 * time.Second

// DB owns the pgx connection pool and the lease gate in front of it.
type DB struct {
	pgx  *pgxpool.Pool
	gate *pool.Pool[*pgxpool.Conn]
}

// Open connects to PostgreSQL, pings, and runs migrations. It fails when the
// database cannot be reached within a few seconds.
func Open(ctx context.Context, url string, cfg pool.Config) (*DB, error) {
	pc, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg = cfg.WithDefaults()
	pc.MaxConns = int32(cfg.MaxSize)
	pc.MaxConnIdleTime = cfg.IdleTimeout

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := migrate(ctx, url); err != nil {
		p.Close()
		return nil, err
	}

	d := &DB{pgx: p}
	d.gate = pool.New(cfg, d.open)
	return d, nil
}

func migrate(ctx context.Context, url string) error {
	s, err := sql.Open("postgres", url)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer s.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := goose.UpContext(ctx, s, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (d *DB) open(ctx context.Context) (*pgxpool.Conn, func(), error) {
	c, err := d.pgx.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Release, nil
}

// Close closes every pooled connection.
func (d *DB) Close() {
	d.pgx.Close()
}

// Pool exposes the lease gate for metrics.
func (d *DB) Pool() *pool.Pool[*pgxpool.Conn] { return d.gate }

// Lease acquires one pooled connection for exclusive use.
func (d *DB) Lease(ctx context.Context) (domain.Conn, error) {
	l, err := d.gate.Acquire(ctx)
	if err != nil {
		if errors.Is(err, pool.ErrUnavailable) {
			return nil, domain.DBUnavailable(err)
		}
		return nil, err
	}
	return &Conn{lease: l, c: l.Conn()}, nil
}

// Conn runs every repository on one leased connection.
type Conn struct {
	lease *pool.Lease[*pgxpool.Conn]
	c     *pgxpool.Conn
}

var _ domain.Conn = (*Conn)(nil)

func (c *Conn) Users() domain.UserRepository                 { return c }
func (c *Conn) Catalog() domain.CatalogRepository            { return c }
func (c *Conn) Carts() domain.CartRepository                 { return c }
func (c *Conn) Orders() domain.OrderRepository               { return c }
func (c *Conn) Withdrawals() domain.WithdrawalRepository     { return c }
func (c *Conn) SystemUpdates() domain.SystemUpdateRepository { return c }

// Release returns the connection to the pool.
func (c *Conn) Release() { c.lease.Release() }

// Package pool shares client connections between goroutines. A Conn only
// runs one database selection at a time, so callers that need different
// databases or want to avoid head of line blocking borrow their own.
package pool

import (
	"context"
	"errors"
	"time"

	commonspool "github.com/jolestar/go-commons-pool/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/redwire/client"
	"github.com/luma/redwire/redis"
)

var ErrForeignConn = errors.New("pool: connection was not borrowed from this pool")

type Options struct {
	Client client.Options

	// MaxActive caps the connections open at once. Defaults to 8
	MaxActive int

	// MaxIdle caps the connections kept open while unused. Defaults to MaxActive
	MaxIdle int

	// IdleTimeout closes connections unused for this long. Zero keeps them
	IdleTimeout time.Duration

	Log *zap.Logger
}

type Pool struct {
	objects *commonspool.ObjectPool
	log     *zap.Logger
}

func New(ctx context.Context, options Options) *Pool {
	if options.Log == nil {
		options.Log = zap.NewNop()
	}

	if options.Client.Log == nil {
		options.Client.Log = options.Log.Named("conn")
	}

	if options.MaxActive <= 0 {
		options.MaxActive = 8
	}

	if options.MaxIdle <= 0 {
		options.MaxIdle = options.MaxActive
	}

	config := commonspool.NewDefaultPoolConfig()
	config.MaxTotal = options.MaxActive
	config.MaxIdle = options.MaxIdle
	config.TestOnBorrow = true
	config.TestOnReturn = true

	if options.IdleTimeout > 0 {
		config.MinEvictableIdleTime = options.IdleTimeout
		config.TimeBetweenEvictionRuns = options.IdleTimeout / 2
	}

	factory := &connFactory{options: options.Client, log: options.Log}

	return &Pool{
		objects: commonspool.NewObjectPool(ctx, factory, config),
		log:     options.Log,
	}
}

// Get borrows a connection, dialing a new one when none is idle. It blocks
// while MaxActive connections are borrowed, until one is returned or ctx is done.
// The connection starts on the database configured in Options.Client.
func (p *Pool) Get(ctx context.Context) (*redis.Redis, error) {
	obj, err := p.objects.BorrowObject(ctx)
	if err != nil {
		return nil, err
	}

	return redis.New(obj.(*client.Conn), p.log), nil
}

// Put returns a connection to the pool. Closed connections are discarded.
func (p *Pool) Put(ctx context.Context, r *redis.Redis) error {
	conn, ok := r.Conn().(*client.Conn)
	if !ok {
		return ErrForeignConn
	}

	if conn.Closed() {
		p.log.Debug("Discarding closed connection", zap.Error(conn.Err()))
		return p.objects.InvalidateObject(ctx, conn)
	}

	return p.objects.ReturnObject(ctx, conn)
}

// With borrows a connection for the duration of fn.
func (p *Pool) With(ctx context.Context, fn func(r *redis.Redis) error) (err error) {
	r, err := p.Get(ctx)
	if err != nil {
		return err
	}

	defer func() {
		err = multierr.Append(err, p.Put(ctx, r))
	}()

	return fn(r)
}

// Active returns the number of borrowed connections.
func (p *Pool) Active() int {
	return p.objects.GetNumActive()
}

func (p *Pool) Idle() int {
	return p.objects.GetNumIdle()
}

// Close closes the idle connections and stops lending new ones. Borrowed
// connections are closed when they are returned.
func (p *Pool) Close(ctx context.Context) {
	p.objects.Close(ctx)
}

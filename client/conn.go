package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/luma/redwire/protocol"
)

// Conn owns a single duplex stream to a Redis server.
//
// RESP replies carry no request ID, the server answers in the order requests
// were received. Conn keeps a FIFO of pending futures that is appended to in
// the same critical section that queues the encoded request, so the order
// frames hit the wire is always the order futures are resolved in.
//
// Conn is safe for concurrent use. Send never waits for a reply, so many
// requests can be in flight at once.
type Conn struct {
	opts Options
	conn net.Conn

	mu       sync.Mutex
	pending  []*Future
	outbox   [][]byte
	closed   bool
	closeErr error

	// wake has a buffer of one, a pending wake-up is enough for any number of Sends
	wake       chan struct{}
	done       chan struct{}
	loopWaiter sync.WaitGroup

	db int64

	log *zap.Logger
}

// Dial connects to the server described by options, authenticates and selects
// the configured database.
func Dial(ctx context.Context, options Options) (*Conn, error) {
	opts := options.withDefaults()

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, opts.Network, opts.Addr)
	if err != nil {
		return nil, err
	}

	c := NewConn(conn, opts)

	if opts.Password != "" {
		reply, err := c.Do(ctx, protocol.NewRequest(protocol.AUTH, []byte(opts.Password)))
		if err == nil {
			err = expectOK(reply)
		}

		if err != nil {
			c.Close()
			return nil, fmt.Errorf("Failed to authenticate: %w", err)
		}
	}

	if opts.DB != 0 {
		if err := c.Select(ctx, opts.DB); err != nil {
			c.Close()
			return nil, fmt.Errorf("Failed to select db %d: %w", opts.DB, err)
		}
	}

	c.log.Debug("Connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))

	return c, nil
}

// NewConn takes ownership of an established stream and starts its read and
// write loops. Options.DB and Options.Password are not sent, they describe
// state the caller has already established on conn.
func NewConn(conn net.Conn, options Options) *Conn {
	opts := options.withDefaults()

	c := &Conn{
		opts: opts,
		conn: conn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		db:   int64(opts.DB),
		log:  opts.Log,
	}

	c.loopWaiter.Add(2)

	go func() {
		defer c.loopWaiter.Done()
		c.readLoop()
	}()

	go func() {
		defer c.loopWaiter.Done()
		c.writeLoop()
	}()

	return c
}

// Send queues req and returns a future for its reply. It does not wait for
// the request to be written.
//
// Once the connection is closed Send returns an already failed future and
// does no I/O.
func (c *Conn) Send(req protocol.Request) *Future {
	return c.send(newFuture(req))
}

func (c *Conn) send(f *Future) *Future {
	frame, err := protocol.EncodeRequest(f.req)
	if err != nil {
		f.resolve(nil, err)
		return f
	}

	c.mu.Lock()
	if c.closed {
		err := c.closeErr
		c.mu.Unlock()

		f.resolve(nil, err)
		return f
	}

	c.pending = append(c.pending, f)
	c.outbox = append(c.outbox, frame)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}

	return f
}

// Do sends req and waits for its reply. Error replies from the server are
// returned as a protocol.Error reply, not as a Go error.
func (c *Conn) Do(ctx context.Context, req protocol.Request) (protocol.Reply, error) {
	return c.Send(req).Wait(ctx)
}

// Select changes the connection's database. DB reflects the change once the
// server has acknowledged it, even if ctx gives up waiting first.
func (c *Conn) Select(ctx context.Context, db int) error {
	f := newFuture(protocol.NewRequest(protocol.SELECT, []byte(strconv.Itoa(db))))
	f.onResolve = func(reply protocol.Reply, err error) {
		if err == nil && expectOK(reply) == nil {
			atomic.StoreInt64(&c.db, int64(db))
		}
	}

	reply, err := c.send(f).Wait(ctx)
	if err != nil {
		return err
	}

	return expectOK(reply)
}

// DB returns the index of the currently selected database.
func (c *Conn) DB() int {
	return int(atomic.LoadInt64(&c.db))
}

func (c *Conn) Addr() string {
	return c.opts.Addr
}

// Pending returns the number of requests waiting for a reply.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// Closed returns true once the connection can no longer be used.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// Err returns the reason the connection closed, or nil while it is open.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeErr
}

// Close closes the stream, fails every pending request with
// ErrConnectionClosed and waits for the read and write loops to exit. It is
// safe to call more than once.
func (c *Conn) Close() error {
	err := c.fail(nil)
	c.loopWaiter.Wait()

	return err
}

func (c *Conn) fail(cause error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	closeErr := &ClosedError{Cause: cause}

	c.closed = true
	c.closeErr = closeErr
	pending := c.pending
	c.pending = nil
	c.outbox = nil
	c.mu.Unlock()

	close(c.done)
	err := c.conn.Close()

	for _, f := range pending {
		f.resolve(nil, closeErr)
	}

	if cause != nil {
		c.log.Warn("Connection failed",
			zap.String("addr", c.opts.Addr),
			zap.Int("pending", len(pending)),
			zap.Error(cause))
	}

	return err
}

func (c *Conn) readLoop() {
	log := c.log.Named("readLoop")
	r := protocol.NewReader(c.conn)

	for {
		reply, err := r.ReadReply()
		if err != nil {
			if c.Closed() {
				log.Debug("Connection closed, exiting...")
				return
			}

			c.fail(fmt.Errorf("Failed to read reply: %w", err))
			return
		}

		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			c.fail(ErrUnexpectedReply)
			return
		}

		f := c.pending[0]
		c.pending[0] = nil
		c.pending = c.pending[1:]
		c.mu.Unlock()

		f.resolve(reply, nil)
	}
}

func (c *Conn) writeLoop() {
	log := c.log.Named("writeLoop")
	w := bufio.NewWriterSize(c.conn, c.opts.WriteBufferSize)

	var batch [][]byte

	for {
		select {
		case <-c.done:
			log.Debug("Connection closed, exiting...")
			return

		case <-c.wake:
		}

		c.mu.Lock()
		batch, c.outbox = c.outbox, batch[:0]
		c.mu.Unlock()

		for i, frame := range batch {
			if _, err := w.Write(frame); err != nil {
				c.fail(fmt.Errorf("Failed to write request: %w", err))
				return
			}

			batch[i] = nil
		}

		// Flush once the outbox is drained so pipelined requests share a write
		if err := w.Flush(); err != nil {
			c.fail(fmt.Errorf("Failed to write request: %w", err))
			return
		}
	}
}

func expectOK(reply protocol.Reply) error {
	switch r := reply.(type) {
	case protocol.Status:
		if r == "OK" {
			return nil
		}

	case protocol.Error:
		return r
	}

	return fmt.Errorf("Expected OK, got %s reply: %w", kindOf(reply), errUnexpectedReplyType)
}

var errUnexpectedReplyType = errors.New("Unexpected reply type")

func kindOf(reply protocol.Reply) string {
	if reply == nil {
		return "no"
	}

	return reply.Kind().String()
}

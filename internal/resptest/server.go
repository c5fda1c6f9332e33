// Package resptest runs an in-process RESP server for tests. Every request is
// recorded and answered by a Handler.
package resptest

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/redwire/protocol"
)

type Server struct {
	cancel     context.CancelFunc
	stopWaiter sync.WaitGroup

	addr      string
	reuseport bool
	listener  net.Listener
	handler   Handler

	mu          sync.Mutex
	activeConns map[*serverConn]struct{}
	requests    []protocol.Request

	log *zap.Logger
}

func NewServer(options Options) *Server {
	host := options.Host
	if host == "" {
		host = "127.0.0.1"
	}

	handler := options.Handler
	if handler == nil {
		handler = NewMux()
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Server{
		addr:        net.JoinHostPort(host, strconv.Itoa(options.Port)),
		reuseport:   options.Reuseport,
		handler:     handler,
		activeConns: make(map[*serverConn]struct{}),
		log:         log,
	}
}

// Start listens and begins accepting connections in the background. Once
// Start returns, Addr is dialable.
func (s *Server) Start(parentCtx context.Context) error {
	var (
		listener net.Listener
		err      error
	)

	if s.reuseport {
		listener, err = reuseport.Listen("tcp", s.addr)
	} else {
		listener, err = net.Listen("tcp", s.addr)
	}

	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel
	s.listener = listener
	s.addr = listener.Addr().String()

	s.log.Info("Listening", zap.String("addr", s.addr))

	s.stopWaiter.Add(1)
	go func() {
		defer s.stopWaiter.Done()

		if err := s.acceptLoop(ctx); err != nil {
			s.log.Error("Failed to accept", zap.Error(err))
		}
	}()

	return nil
}

func (s *Server) Addr() string {
	return s.addr
}

// Requests returns every request received so far, in arrival order.
func (s *Server) Requests() []protocol.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]protocol.Request(nil), s.requests...)
}

// DropConnections closes every client connection without stopping the server.
func (s *Server) DropConnections() (err error) {
	s.mu.Lock()
	conns := make([]*serverConn, 0, len(s.activeConns))
	for conn := range s.activeConns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		err = multierr.Append(err, conn.Close())
	}

	return err
}

// Close stops accepting, closes every connection and waits for their loops
// to exit.
func (s *Server) Close() error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()

	err := multierr.Combine(s.listener.Close(), s.DropConnections())
	s.stopWaiter.Wait()

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, net.ErrClosed) {
		return nil
	}

	return err
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				// The listener was closed while we were waiting for new connections
				// that's fine.
				return nil
			}

			return err
		}

		sc := newServerConn(ctx, conn, s, s.log.Named("conn"))
		s.addConn(sc)

		s.stopWaiter.Add(1)
		go func() {
			defer s.stopWaiter.Done()
			defer s.removeConn(sc)

			sc.Start()
		}()
	}
}

func (s *Server) serve(req protocol.Request) protocol.Reply {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	return s.handler.ServeRESP(req)
}

func (s *Server) addConn(conn *serverConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeConns[conn] = struct{}{}
}

func (s *Server) removeConn(conn *serverConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.activeConns, conn)
}

type serverConn struct {
	ctx        context.Context
	cancel     context.CancelFunc
	loopWaiter sync.WaitGroup
	closeOnce  sync.Once

	conn   net.Conn
	server *Server

	writeQueue chan []byte

	log *zap.Logger
}

func newServerConn(parentCtx context.Context, conn net.Conn, server *Server, log *zap.Logger) *serverConn {
	ctx, cancel := context.WithCancel(parentCtx)

	return &serverConn{
		ctx:        ctx,
		cancel:     cancel,
		conn:       conn,
		server:     server,
		writeQueue: make(chan []byte, 127),
		log:        log,
	}
}

func (c *serverConn) Start() {
	c.loopWaiter.Add(2)

	go func() {
		defer c.loopWaiter.Done()
		c.readLoop()
	}()

	go func() {
		defer c.loopWaiter.Done()
		c.writeLoop()
	}()

	c.loopWaiter.Wait()
}

func (c *serverConn) Close() (err error) {
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})

	return err
}

func (c *serverConn) readLoop() {
	log := c.log.Named("readLoop")
	defer c.Close()

	r := protocol.NewReader(c.conn)

	for {
		req, err := r.ReadRequest()
		if err != nil {
			if !errors.Is(err, io.EOF) && c.ctx.Err() == nil {
				log.Warn("Failed to read client request", zap.Error(err))
			}
			return
		}

		reply := c.server.serve(req)
		if reply == nil {
			continue
		}

		var b []byte
		if raw, ok := reply.(Raw); ok {
			b = raw
		} else if b, err = protocol.AppendReply(nil, reply); err != nil {
			log.Error("Failed to encode reply", zap.String("request", req.String()), zap.Error(err))
			return
		}

		select {
		case c.writeQueue <- b:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *serverConn) writeLoop() {
	log := c.log.Named("writeLoop")

	for {
		select {
		case <-c.ctx.Done():
			return

		case data := <-c.writeQueue:
			if _, err := c.conn.Write(data); err != nil {
				if c.ctx.Err() == nil {
					log.Warn("Failed to write from write queue", zap.Error(err))
				}
				return
			}
		}
	}
}

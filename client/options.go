package client

import (
	"time"

	"go.uber.org/zap"
)

type Options struct {
	// Network is "tcp" or "unix". Defaults to "tcp"
	Network string

	// Addr is host:port for tcp, or a socket path for unix
	Addr string

	// DB is selected right after connecting when non-zero
	DB int

	// Password is sent with AUTH right after connecting when set
	Password string

	// DialTimeout bounds establishing the connection only. Requests have no
	// implicit timeout, bound them with a context instead.
	DialTimeout time.Duration

	// WriteBufferSize is the size of the buffer frames are batched into
	// before being flushed to the socket
	WriteBufferSize int

	Log *zap.Logger
}

func (o *Options) withDefaults() Options {
	opts := *o

	if opts.Network == "" {
		opts.Network = "tcp"
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	if opts.WriteBufferSize <= 0 {
		opts.WriteBufferSize = 16 * 1024
	}

	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	return opts
}

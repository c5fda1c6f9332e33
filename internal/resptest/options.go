package resptest

import "go.uber.org/zap"

type Options struct {
	// Host to listen on. Defaults to 127.0.0.1
	Host string

	// Port to listen on. Zero picks a free port
	Port int

	// Reuseport controls setting SO_REUSEPORT
	Reuseport bool

	Handler Handler

	Log *zap.Logger
}

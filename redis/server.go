package redis

import (
	"context"
	"errors"

	"github.com/luma/redwire/protocol"
)

// Ping returns the server's PONG, or message echoed back when given.
func (r *Redis) Ping(ctx context.Context, message ...string) ([]byte, error) {
	a := newArgs(protocol.PING)
	if len(message) > 1 {
		a.fail(valueError(a.cmd, "at most one message, got %d", len(message)))
	}

	for _, m := range message {
		a.lit(m)
	}

	return r.doBytes(ctx, a)
}

func (r *Redis) Echo(ctx context.Context, message interface{}, opts ...ReadOption) ([]byte, error) {
	return r.doBytes(ctx, newArgs(protocol.ECHO).value("message", message), opts...)
}

// Select changes the database of the connection. DB reports the new index
// once the server has acknowledged it.
func (r *Redis) Select(ctx context.Context, db int) error {
	if db < 0 {
		return valueError(protocol.SELECT, "db must be greater equal 0, got %d", db)
	}

	err := r.conn.Select(ctx, db)

	var reply protocol.Error
	if errors.As(err, &reply) {
		return &CommandError{Kind: ServerReply, Command: protocol.SELECT, Detail: string(reply)}
	}

	return err
}

// FlushDB removes every key of the selected database.
func (r *Redis) FlushDB(ctx context.Context) error {
	return r.doOK(ctx, newArgs(protocol.FLUSHDB))
}

// FlushAll removes every key of every database.
func (r *Redis) FlushAll(ctx context.Context) error {
	return r.doOK(ctx, newArgs(protocol.FLUSHALL))
}

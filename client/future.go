package client

import (
	"context"

	"github.com/luma/redwire/protocol"
)

// Future is the handle for the reply to a single request. It is resolved
// exactly once, either with the reply or with an error.
type Future struct {
	req  protocol.Request
	done chan struct{}

	// onResolve runs before done is closed, whether or not anyone is waiting
	onResolve func(protocol.Reply, error)

	reply protocol.Reply
	err   error
}

func newFuture(req protocol.Request) *Future {
	return &Future{req: req, done: make(chan struct{})}
}

func (f *Future) resolve(reply protocol.Reply, err error) {
	f.reply = reply
	f.err = err

	if f.onResolve != nil {
		f.onResolve(reply, err)
	}

	close(f.done)
}

// Done is closed once the future has been resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Request returns the request this future will receive the reply for.
func (f *Future) Request() protocol.Request {
	return f.req
}

// Wait suspends the caller until the reply arrives or ctx is done.
//
// Giving up on a reply does not un-send the request. The connection still
// reads and discards the reply when it arrives so that later replies are
// matched with the right requests.
func (f *Future) Wait(ctx context.Context) (protocol.Reply, error) {
	select {
	case <-f.done:
		return f.reply, f.err

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

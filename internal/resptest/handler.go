package resptest

import (
	"sync"

	"github.com/luma/redwire/protocol"
)

// Handler answers a single request. Returning nil sends nothing back, which
// leaves the client waiting for a reply.
type Handler interface {
	ServeRESP(req protocol.Request) protocol.Reply
}

type HandlerFunc func(req protocol.Request) protocol.Reply

func (f HandlerFunc) ServeRESP(req protocol.Request) protocol.Reply {
	return f(req)
}

// Raw is written to the client verbatim. It lets tests send malformed frames.
type Raw []byte

func (Raw) Kind() protocol.Kind { return 0 }

// Mux routes requests by command. Commands without a route get an
// "ERR unknown command" reply.
type Mux struct {
	mu     sync.Mutex
	routes map[protocol.Command]Handler
}

func NewMux() *Mux {
	return &Mux{routes: make(map[protocol.Command]Handler)}
}

func (m *Mux) Handle(cmd protocol.Command, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.routes[cmd] = h
}

func (m *Mux) HandleFunc(cmd protocol.Command, f func(req protocol.Request) protocol.Reply) {
	m.Handle(cmd, HandlerFunc(f))
}

// Reply routes cmd to a fixed reply.
func (m *Mux) Reply(cmd protocol.Command, reply protocol.Reply) {
	m.HandleFunc(cmd, func(protocol.Request) protocol.Reply { return reply })
}

func (m *Mux) ServeRESP(req protocol.Request) protocol.Reply {
	m.mu.Lock()
	h, ok := m.routes[req.Command()]
	m.mu.Unlock()

	if !ok {
		return protocol.Error("ERR unknown command '" + string(req[0]) + "'")
	}

	return h.ServeRESP(req)
}

// Sequence answers each request with the next reply in order, then with
// "ERR no more replies".
func Sequence(replies ...protocol.Reply) Handler {
	var (
		mu   sync.Mutex
		next int
	)

	return HandlerFunc(func(protocol.Request) protocol.Reply {
		mu.Lock()
		defer mu.Unlock()

		if next >= len(replies) {
			return protocol.Error("ERR no more replies")
		}

		reply := replies[next]
		next++
		return reply
	})
}

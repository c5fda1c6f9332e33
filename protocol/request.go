package protocol

import (
	"strconv"
	"strings"
)

// Request is an ordered argument vector. Argument 0 is the command verb and
// every argument is sent as a bulk string.
type Request [][]byte

// NewRequest builds a request for cmd followed by args.
func NewRequest(cmd Command, args ...[]byte) Request {
	req := make(Request, 0, len(args)+1)
	req = append(req, cmd.Bytes())
	return append(req, args...)
}

// Command returns the upper-cased verb of the request, or "" for an empty request.
func (r Request) Command() Command {
	if len(r) == 0 {
		return ""
	}

	return Command(strings.ToUpper(string(r[0])))
}

// Args returns the arguments following the verb.
func (r Request) Args() [][]byte {
	if len(r) < 2 {
		return nil
	}

	return r[1:]
}

// String renders the request for logs, quoting each argument.
func (r Request) String() string {
	parts := make([]string, len(r))
	for i, arg := range r {
		parts[i] = strconv.Quote(string(arg))
	}

	return strings.Join(parts, " ")
}

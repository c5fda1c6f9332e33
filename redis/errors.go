package redis

import (
	"errors"
	"fmt"

	"github.com/luma/redwire/protocol"
)

// ErrorKind classifies a CommandError.
type ErrorKind int

const (
	// ArgumentType means an argument has the wrong kind, e.g. a nil key. It is
	// always detected before anything is sent.
	ArgumentType ErrorKind = iota + 1

	// ArgumentValue means an argument is well typed but invalid, e.g. a
	// negative timeout or renaming a key to itself. Detected before anything
	// is sent.
	ArgumentValue

	// ServerReply means the server answered with an error reply.
	ServerReply
)

func (k ErrorKind) String() string {
	switch k {
	case ArgumentType:
		return "argument type"
	case ArgumentValue:
		return "argument value"
	case ServerReply:
		return "server reply"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	ErrArgumentType  = errors.New("invalid argument type")
	ErrArgumentValue = errors.New("invalid argument value")
	ErrServerReply   = errors.New("server replied with an error")

	// ErrNil is returned by commands with a scalar result when the server
	// replied with nil, e.g. OBJECT REFCOUNT on a missing key.
	ErrNil = errors.New("redis: nil reply")

	ErrUnexpectedReply = errors.New("redis: unexpected reply")
)

// CommandError is returned for invalid arguments and for error replies.
// Use errors.Is with ErrArgumentType, ErrArgumentValue or ErrServerReply to
// tell them apart.
type CommandError struct {
	Kind    ErrorKind
	Command protocol.Command

	// Detail is the server's message verbatim for ServerReply errors
	Detail string
}

func (e *CommandError) Error() string {
	if e.Kind == ServerReply || e.Command == "" {
		return e.Detail
	}

	return fmt.Sprintf("%s: %s", e.Command, e.Detail)
}

func (e *CommandError) Is(target error) bool {
	switch target {
	case ErrArgumentType:
		return e.Kind == ArgumentType
	case ErrArgumentValue:
		return e.Kind == ArgumentValue
	case ErrServerReply:
		return e.Kind == ServerReply
	default:
		return false
	}
}

func typeError(cmd protocol.Command, format string, args ...interface{}) error {
	return &CommandError{Kind: ArgumentType, Command: cmd, Detail: fmt.Sprintf(format, args...)}
}

func valueError(cmd protocol.Command, format string, args ...interface{}) error {
	return &CommandError{Kind: ArgumentValue, Command: cmd, Detail: fmt.Sprintf(format, args...)}
}

func unexpected(cmd protocol.Command, reply protocol.Reply) error {
	kind := "no"
	if reply != nil {
		kind = reply.Kind().String()
	}

	return fmt.Errorf("%w to %s: %s reply", ErrUnexpectedReply, cmd, kind)
}

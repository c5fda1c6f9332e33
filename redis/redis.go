// Package redis exposes Redis commands on top of a single connection.
//
// Every command validates its arguments before anything is sent: a nil key,
// a non-numeric timeout and similar mistakes return a CommandError of kind
// ArgumentType or ArgumentValue without touching the connection. Error
// replies from the server come back as a CommandError of kind ServerReply
// carrying the server's message verbatim.
package redis

import (
	"context"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/luma/redwire/client"
	"github.com/luma/redwire/protocol"
)

// Conn is the connection a Redis issues commands on. *client.Conn
// implements it.
type Conn interface {
	Do(ctx context.Context, req protocol.Request) (protocol.Reply, error)
	Select(ctx context.Context, db int) error
	DB() int
	Close() error
}

type Redis struct {
	conn Conn
	log  *zap.Logger
}

var _ Conn = (*client.Conn)(nil)

func New(conn Conn, log *zap.Logger) *Redis {
	if log == nil {
		log = zap.NewNop()
	}

	return &Redis{conn: conn, log: log}
}

// Dial opens a connection and wraps it.
func Dial(ctx context.Context, options client.Options) (*Redis, error) {
	conn, err := client.Dial(ctx, options)
	if err != nil {
		return nil, err
	}

	return New(conn, options.Log), nil
}

// Conn returns the underlying connection.
func (r *Redis) Conn() Conn {
	return r.conn
}

// DB returns the index of the database the connection has selected.
func (r *Redis) DB() int {
	return r.conn.DB()
}

func (r *Redis) Close() error {
	return r.conn.Close()
}

// Execute sends an arbitrary command. Arguments may be strings, []byte or
// numbers; a nil argument is an ArgumentType error. SELECT goes through
// Select so that DB stays accurate.
func (r *Redis) Execute(ctx context.Context, command string, arguments ...interface{}) (protocol.Reply, error) {
	if strings.EqualFold(command, string(protocol.SELECT)) {
		return r.executeSelect(ctx, arguments)
	}

	a := newArgs(protocol.Command(command)).values("args", arguments)
	return r.do(ctx, a)
}

func (r *Redis) executeSelect(ctx context.Context, arguments []interface{}) (protocol.Reply, error) {
	if len(arguments) != 1 {
		return nil, valueError(protocol.SELECT, "expected a single database index, got %d arguments", len(arguments))
	}

	var (
		index int64
		err   error
	)

	switch v := arguments[0].(type) {
	case string:
		index, err = strconv.ParseInt(v, 10, 64)
	case []byte:
		index, err = strconv.ParseInt(string(v), 10, 64)
	default:
		n, ok := asInt(v)
		if !ok {
			return nil, typeError(protocol.SELECT, "db must be an integer, got %T", v)
		}
		index = n
	}

	if err != nil || index > math.MaxInt32 {
		return nil, valueError(protocol.SELECT, "db must be a database index, got %v", arguments[0])
	}

	if err := r.Select(ctx, int(index)); err != nil {
		return nil, err
	}

	return protocol.Status("OK"), nil
}

// do sends the request built by a, unless building it failed. A top level
// error reply is turned into a ServerReply CommandError.
func (r *Redis) do(ctx context.Context, a *args) (protocol.Reply, error) {
	if a.err != nil {
		return nil, a.err
	}

	reply, err := r.conn.Do(ctx, a.req)
	if err != nil {
		return nil, err
	}

	if e, ok := reply.(protocol.Error); ok {
		r.log.Debug("Server replied with an error",
			zap.String("command", string(a.cmd)),
			zap.String("error", string(e)))

		return nil, &CommandError{Kind: ServerReply, Command: a.cmd, Detail: string(e)}
	}

	return reply, nil
}

func (r *Redis) doInt(ctx context.Context, a *args) (int64, error) {
	reply, err := r.do(ctx, a)
	if err != nil {
		return 0, err
	}

	switch v := reply.(type) {
	case protocol.Integer:
		return int64(v), nil
	case protocol.Bulk:
		if v == nil {
			return 0, ErrNil
		}
	}

	return 0, unexpected(a.cmd, reply)
}

// doBool maps an integer reply to a bool: 0 is false, anything else true.
func (r *Redis) doBool(ctx context.Context, a *args) (bool, error) {
	n, err := r.doInt(ctx, a)
	if err != nil {
		return false, err
	}

	return n != 0, nil
}

func (r *Redis) doOK(ctx context.Context, a *args) error {
	reply, err := r.do(ctx, a)
	if err != nil {
		return err
	}

	if s, ok := reply.(protocol.Status); ok && s == "OK" {
		return nil
	}

	return unexpected(a.cmd, reply)
}

func (r *Redis) doStatus(ctx context.Context, a *args) (string, error) {
	reply, err := r.do(ctx, a)
	if err != nil {
		return "", err
	}

	if s, ok := reply.(protocol.Status); ok {
		return string(s), nil
	}

	return "", unexpected(a.cmd, reply)
}

// doBytes returns a bulk or status reply as bytes. A nil bulk is returned as nil.
func (r *Redis) doBytes(ctx context.Context, a *args, opts ...ReadOption) ([]byte, error) {
	o := newReadOptions(opts)
	reply, err := r.do(ctx, a.fail(o.err))
	if err != nil {
		return nil, err
	}

	var b []byte
	switch v := reply.(type) {
	case protocol.Bulk:
		b = v
	case protocol.Status:
		b = []byte(v)
	default:
		return nil, unexpected(a.cmd, reply)
	}

	if b == nil {
		return nil, nil
	}

	return o.decode(b)
}

func (r *Redis) doBytesSlice(ctx context.Context, a *args, opts ...ReadOption) ([][]byte, error) {
	o := newReadOptions(opts)
	reply, err := r.do(ctx, a.fail(o.err))
	if err != nil {
		return nil, err
	}

	items, err := bulkSlice(a.cmd, reply)
	if err != nil {
		return nil, err
	}

	return o.decodeAll(items)
}

// bulkSlice converts an array of bulk strings. Nil elements stay nil.
func bulkSlice(cmd protocol.Command, reply protocol.Reply) ([][]byte, error) {
	arr, ok := reply.(protocol.Array)
	if !ok {
		return nil, unexpected(cmd, reply)
	}

	if arr == nil {
		return nil, nil
	}

	items := make([][]byte, len(arr))
	for i, elem := range arr {
		bulk, ok := elem.(protocol.Bulk)
		if !ok {
			return nil, unexpected(cmd, elem)
		}

		items[i] = bulk
	}

	return items, nil
}

package protocol

import "fmt"

// Kind identifies which variant of Reply a value is.
type Kind int

const (
	KindStatus Kind = iota + 1
	KindError
	KindInteger
	KindBulk
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulk:
		return "bulk"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reply is a single decoded RESP frame. It is always exactly one of Status,
// Error, Integer, Bulk or Array.
type Reply interface {
	Kind() Kind
}

// Status is a `+` simple string reply.
type Status string

// Error is a `-` error reply. The message is kept verbatim, including the
// leading error code (e.g. "ERR no such key").
type Error string

// Integer is a `:` reply.
type Integer int64

// Bulk is a `$` reply. A nil Bulk is the nil bulk string (`$-1`); an empty,
// non-nil Bulk is the empty string (`$0`).
type Bulk []byte

// Array is a `*` reply. A nil Array is the nil array (`*-1`).
type Array []Reply

func (Status) Kind() Kind  { return KindStatus }
func (Error) Kind() Kind   { return KindError }
func (Integer) Kind() Kind { return KindInteger }
func (Bulk) Kind() Kind    { return KindBulk }
func (Array) Kind() Kind   { return KindArray }

func (e Error) Error() string {
	return string(e)
}

// IsNil reports whether reply is a nil bulk string or a nil array.
func IsNil(reply Reply) bool {
	switch r := reply.(type) {
	case Bulk:
		return r == nil
	case Array:
		return r == nil
	case nil:
		return true
	default:
		return false
	}
}

var _ Reply = Status("")
var _ Reply = Error("")
var _ Reply = Integer(0)
var _ Reply = Bulk(nil)
var _ Reply = Array(nil)
var _ error = Error("")

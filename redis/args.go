package redis

import (
	"bytes"
	"math"
	"strconv"

	"github.com/luma/redwire/protocol"
)

// args builds a request, stopping at the first invalid argument. Nothing is
// sent unless err is nil once the request is complete.
type args struct {
	cmd protocol.Command
	req protocol.Request
	err error
}

func newArgs(cmd protocol.Command, literals ...string) *args {
	a := &args{cmd: cmd, req: protocol.NewRequest(cmd)}
	for _, lit := range literals {
		a.lit(lit)
	}

	return a
}

// key appends a key argument, which must be a string or a non-nil []byte.
func (a *args) key(name string, key interface{}) *args {
	if a.err != nil {
		return a
	}

	switch k := key.(type) {
	case string:
		a.req = append(a.req, []byte(k))
	case []byte:
		if k == nil {
			a.err = typeError(a.cmd, "%s must not be nil", name)
			return a
		}
		a.req = append(a.req, k)
	case nil:
		a.err = typeError(a.cmd, "%s must not be nil", name)
	default:
		a.err = typeError(a.cmd, "%s must be a string or []byte, got %T", name, key)
	}

	return a
}

// keys validates every key before appending any of them.
func (a *args) keys(name string, keys []interface{}) *args {
	for _, key := range keys {
		a.key(name, key)
	}

	return a
}

// value appends a string, []byte or number.
func (a *args) value(name string, value interface{}) *args {
	if a.err != nil {
		return a
	}

	b, err := formatValue(a.cmd, name, value)
	if err != nil {
		a.err = err
		return a
	}

	a.req = append(a.req, b)
	return a
}

func (a *args) values(name string, values []interface{}) *args {
	for _, v := range values {
		a.value(name, v)
	}

	return a
}

func (a *args) lit(s string) *args {
	if a.err == nil {
		a.req = append(a.req, []byte(s))
	}

	return a
}

func (a *args) int(n int64) *args {
	if a.err == nil {
		a.req = append(a.req, strconv.AppendInt(nil, n, 10))
	}

	return a
}

func (a *args) fail(err error) *args {
	if a.err == nil {
		a.err = err
	}

	return a
}

// sameArgs reports whether the arguments at i and j serialise to the same bytes.
func (a *args) sameArgs(i, j int) bool {
	return a.err == nil && bytes.Equal(a.req[i], a.req[j])
}

func formatValue(cmd protocol.Command, name string, value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		if v == nil {
			return nil, typeError(cmd, "%s must not contain nil", name)
		}
		return v, nil
	case float64:
		return formatFloat(cmd, name, v)
	case float32:
		return formatFloat(cmd, name, float64(v))
	case nil:
		return nil, typeError(cmd, "%s must not contain nil", name)
	}

	if n, ok := asInt(value); ok {
		return strconv.AppendInt(nil, n, 10), nil
	}

	if u, ok := value.(uint64); ok {
		return strconv.AppendUint(nil, u, 10), nil
	}

	return nil, typeError(cmd, "%s must be a string, []byte or number, got %T", name, value)
}

func formatFloat(cmd protocol.Command, name string, f float64) ([]byte, error) {
	if math.IsNaN(f) {
		return nil, valueError(cmd, "%s must not be NaN", name)
	}

	switch {
	case math.IsInf(f, 1):
		return []byte("+inf"), nil
	case math.IsInf(f, -1):
		return []byte("-inf"), nil
	}

	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// asInt converts any Go integer type that fits in an int64.
func asInt(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	}

	return 0, false
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}

	return 0, false
}

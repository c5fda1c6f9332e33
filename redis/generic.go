package redis

import (
	"context"
	"math"

	"github.com/luma/redwire/protocol"
)

// Delete removes the given keys and returns how many existed.
func (r *Redis) Delete(ctx context.Context, key interface{}, keys ...interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.DEL).key("key", key).keys("key", keys))
}

// Unlink is Delete with the memory reclaimed asynchronously by the server.
func (r *Redis) Unlink(ctx context.Context, key interface{}, keys ...interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.UNLINK).key("key", key).keys("key", keys))
}

// Touch updates the last access time of the keys and returns how many exist.
func (r *Redis) Touch(ctx context.Context, key interface{}, keys ...interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.TOUCH).key("key", key).keys("key", keys))
}

// Dump returns the serialised value of key, or nil if it does not exist.
func (r *Redis) Dump(ctx context.Context, key interface{}) ([]byte, error) {
	return r.doBytes(ctx, newArgs(protocol.DUMP).key("key", key))
}

func (r *Redis) Exists(ctx context.Context, key interface{}) (bool, error) {
	return r.doBool(ctx, newArgs(protocol.EXISTS).key("key", key))
}

// ExistsCount returns how many of the keys exist. A key given twice counts twice.
func (r *Redis) ExistsCount(ctx context.Context, key interface{}, keys ...interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.EXISTS).key("key", key).keys("key", keys))
}

// Expire sets a timeout on key in seconds. Integer timeouts are sent with
// EXPIRE; fractional ones are converted to milliseconds and sent with PEXPIRE.
// A zero or negative timeout deletes the key.
func (r *Redis) Expire(ctx context.Context, key interface{}, timeout interface{}) (bool, error) {
	if seconds, ok := asFloat(timeout); ok {
		a := newArgs(protocol.PEXPIRE).key("key", key)
		return r.doBool(ctx, millisArg(a, "timeout", seconds))
	}

	a := newArgs(protocol.EXPIRE).key("key", key)
	return r.doBool(ctx, intArg(a, "timeout", timeout))
}

// ExpireAt sets key to expire at a unix timestamp in seconds. Fractional
// timestamps are sent with PEXPIREAT in milliseconds.
func (r *Redis) ExpireAt(ctx context.Context, key interface{}, timestamp interface{}) (bool, error) {
	if seconds, ok := asFloat(timestamp); ok {
		a := newArgs(protocol.PEXPIREAT).key("key", key)
		return r.doBool(ctx, millisArg(a, "timestamp", seconds))
	}

	a := newArgs(protocol.EXPIREAT).key("key", key)
	return r.doBool(ctx, intArg(a, "timestamp", timestamp))
}

// PExpire sets a timeout on key in milliseconds. The timeout must be an integer.
func (r *Redis) PExpire(ctx context.Context, key interface{}, timeout interface{}) (bool, error) {
	a := newArgs(protocol.PEXPIRE).key("key", key)
	return r.doBool(ctx, intArg(a, "timeout", timeout))
}

// PExpireAt sets key to expire at a unix timestamp in milliseconds. The
// timestamp must be an integer.
func (r *Redis) PExpireAt(ctx context.Context, key interface{}, timestamp interface{}) (bool, error) {
	a := newArgs(protocol.PEXPIREAT).key("key", key)
	return r.doBool(ctx, intArg(a, "timestamp", timestamp))
}

// Persist removes the timeout from key.
func (r *Redis) Persist(ctx context.Context, key interface{}) (bool, error) {
	return r.doBool(ctx, newArgs(protocol.PERSIST).key("key", key))
}

// TTL returns the remaining time to live of key in seconds, -1 when the key
// has no timeout and -2 when it does not exist.
func (r *Redis) TTL(ctx context.Context, key interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.TTL).key("key", key))
}

// PTTL is TTL in milliseconds.
func (r *Redis) PTTL(ctx context.Context, key interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.PTTL).key("key", key))
}

// Keys returns all keys matching pattern.
func (r *Redis) Keys(ctx context.Context, pattern interface{}, opts ...ReadOption) ([][]byte, error) {
	return r.doBytesSlice(ctx, newArgs(protocol.KEYS).key("pattern", pattern), opts...)
}

// RandomKey returns a random key, or nil when the database is empty.
func (r *Redis) RandomKey(ctx context.Context, opts ...ReadOption) ([]byte, error) {
	return r.doBytes(ctx, newArgs(protocol.RANDOMKEY), opts...)
}

type MigrateOptions struct {
	// Copy leaves the key on the source instance
	Copy bool

	// Replace overwrites the key on the destination instance
	Replace bool
}

// Migrate atomically moves key to the database destDB of another instance.
// timeout is the maximum idle time of the transfer in milliseconds.
//
// It returns false when key does not exist on the source instance.
func (r *Redis) Migrate(ctx context.Context, host string, port int, key interface{}, destDB, timeout int, opts MigrateOptions) (bool, error) {
	a := newArgs(protocol.MIGRATE)

	switch {
	case host == "":
		a.fail(valueError(a.cmd, "got empty host"))
	case port <= 0 || port > 65535:
		a.fail(valueError(a.cmd, "port must be between 1 and 65535, got %d", port))
	case destDB < 0:
		a.fail(valueError(a.cmd, "dest_db must be greater equal 0, got %d", destDB))
	case timeout < 0:
		a.fail(valueError(a.cmd, "timeout must be greater equal 0, got %d", timeout))
	}

	a.lit(host).int(int64(port)).key("key", key).int(int64(destDB)).int(int64(timeout))

	if opts.Copy {
		a.lit("COPY")
	}

	if opts.Replace {
		a.lit("REPLACE")
	}

	status, err := r.doStatus(ctx, a)
	if err != nil {
		return false, err
	}

	return status == "OK", nil
}

// Move moves key to another database of the same instance. db must be
// non-negative and differ from the connection's selected database.
func (r *Redis) Move(ctx context.Context, key interface{}, db int) (bool, error) {
	a := newArgs(protocol.MOVE).key("key", key)

	switch {
	case db < 0:
		a.fail(valueError(a.cmd, "db must be greater equal 0, got %d", db))
	case db == r.conn.DB():
		a.fail(valueError(a.cmd, "db %d is already selected", db))
	}

	return r.doBool(ctx, a.int(int64(db)))
}

// ObjectRefcount returns the number of references to the value of key, or
// ErrNil if key does not exist.
func (r *Redis) ObjectRefcount(ctx context.Context, key interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.OBJECT, "REFCOUNT").key("key", key))
}

// ObjectEncoding returns the internal encoding of the value of key, or nil if
// key does not exist.
func (r *Redis) ObjectEncoding(ctx context.Context, key interface{}) ([]byte, error) {
	return r.doBytes(ctx, newArgs(protocol.OBJECT, "ENCODING").key("key", key))
}

// ObjectIdletime returns the seconds since key was last accessed, or ErrNil if
// key does not exist.
func (r *Redis) ObjectIdletime(ctx context.Context, key interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.OBJECT, "IDLETIME").key("key", key))
}

// Rename renames key to newkey. Renaming a key to itself is rejected without
// asking the server.
func (r *Redis) Rename(ctx context.Context, key, newkey interface{}) (bool, error) {
	a := newArgs(protocol.RENAME).key("key", key).key("newkey", newkey)
	if a.sameArgs(1, 2) {
		a.fail(valueError(a.cmd, "key and newkey are the same"))
	}

	if err := r.doOK(ctx, a); err != nil {
		return false, err
	}

	return true, nil
}

// RenameNX renames key to newkey only if newkey does not exist yet.
func (r *Redis) RenameNX(ctx context.Context, key, newkey interface{}) (bool, error) {
	a := newArgs(protocol.RENAMENX).key("key", key).key("newkey", newkey)
	if a.sameArgs(1, 2) {
		a.fail(valueError(a.cmd, "key and newkey are the same"))
	}

	return r.doBool(ctx, a)
}

type RestoreOptions struct {
	// Replace overwrites an existing key
	Replace bool
}

// Restore creates key from a value produced by Dump. ttl is in milliseconds,
// zero means no expiry.
func (r *Redis) Restore(ctx context.Context, key interface{}, ttl int64, data []byte, opts RestoreOptions) error {
	a := newArgs(protocol.RESTORE).key("key", key)

	switch {
	case ttl < 0:
		a.fail(valueError(a.cmd, "ttl must be greater equal 0, got %d", ttl))
	case data == nil:
		a.fail(typeError(a.cmd, "data must not be nil"))
	}

	a.int(ttl).value("data", data)

	if opts.Replace {
		a.lit("REPLACE")
	}

	return r.doOK(ctx, a)
}

// Type returns the type of the value stored at key, "none" if it does not exist.
func (r *Redis) Type(ctx context.Context, key interface{}) (string, error) {
	return r.doStatus(ctx, newArgs(protocol.TYPE).key("key", key))
}

// intArg appends value, which must be a Go integer.
func intArg(a *args, name string, value interface{}) *args {
	n, ok := asInt(value)
	if !ok {
		return a.fail(typeError(a.cmd, "%s must be an integer, got %T", name, value))
	}

	return a.int(n)
}

// millisArg appends seconds converted to whole milliseconds.
func millisArg(a *args, name string, seconds float64) *args {
	ms := seconds * 1000
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return a.fail(valueError(a.cmd, "%s must be finite, got %v", name, seconds))
	}

	// float64(math.MaxInt64) rounds up to 2^63 which does not fit
	if ms >= math.MaxInt64 || ms < math.MinInt64 {
		return a.fail(valueError(a.cmd, "%s is out of range, got %v", name, seconds))
	}

	return a.int(int64(ms))
}

package redis

import (
	"context"

	"github.com/luma/redwire/protocol"
)

func (r *Redis) Set(ctx context.Context, key interface{}, value interface{}) error {
	return r.doOK(ctx, newArgs(protocol.SET).key("key", key).value("value", value))
}

// Get returns the string at key, or nil if it does not exist.
func (r *Redis) Get(ctx context.Context, key interface{}, opts ...ReadOption) ([]byte, error) {
	return r.doBytes(ctx, newArgs(protocol.GET).key("key", key), opts...)
}

func (r *Redis) Incr(ctx context.Context, key interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.INCR).key("key", key))
}

// RPush appends values to the list at key and returns the new length.
func (r *Redis) RPush(ctx context.Context, key interface{}, value interface{}, values ...interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.RPUSH).key("key", key).value("value", value).values("value", values))
}

func (r *Redis) LRange(ctx context.Context, key interface{}, start, stop int64, opts ...ReadOption) ([][]byte, error) {
	return r.doBytesSlice(ctx, newArgs(protocol.LRANGE).key("key", key).int(start).int(stop), opts...)
}

// HSet sets field in the hash at key and returns 1 if the field is new.
func (r *Redis) HSet(ctx context.Context, key interface{}, field interface{}, value interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.HSET).key("key", key).key("field", field).value("value", value))
}

// SAdd adds members to the set at key and returns how many were new.
func (r *Redis) SAdd(ctx context.Context, key interface{}, member interface{}, members ...interface{}) (int64, error) {
	return r.doInt(ctx, newArgs(protocol.SADD).key("key", key).value("member", member).values("member", members))
}

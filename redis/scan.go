package redis

import (
	"context"
	"strconv"

	"github.com/luma/redwire/protocol"
)

// Cursor is the opaque position of a SCAN-style iteration. The zero value and
// StartCursor both start a new iteration; the server returns StartCursor when
// the iteration is complete.
type Cursor string

const StartCursor Cursor = "0"

// IsStart reports whether c is the start token.
func (c Cursor) IsStart() bool {
	return c == "" || c == StartCursor
}

func (c Cursor) bytes() []byte {
	if c == "" {
		return []byte(StartCursor)
	}

	return []byte(c)
}

type ScanOptions struct {
	// Match only returns elements matching this glob pattern
	Match string

	// Count hints how much work the server should do per call. It is only a
	// hint: a call may return more or fewer elements. Zero leaves it to the server.
	Count int64

	// Type restricts SCAN to keys of this type. Ignored by SSCAN, HSCAN and ZSCAN.
	Type string
}

type FieldValue struct {
	Field []byte
	Value []byte
}

type ScoredMember struct {
	Member []byte
	Score  float64
}

// Scan returns one page of keys from the current database and the cursor to
// pass to the next call. The iteration is complete when the returned cursor
// is the start token, not when a page is empty or short.
func (r *Redis) Scan(ctx context.Context, cursor Cursor, opts ScanOptions) (Cursor, [][]byte, error) {
	return r.scan(ctx, newArgs(protocol.SCAN), cursor, opts)
}

// SScan is Scan over the members of the set at key.
func (r *Redis) SScan(ctx context.Context, key interface{}, cursor Cursor, opts ScanOptions) (Cursor, [][]byte, error) {
	return r.scan(ctx, newArgs(protocol.SSCAN).key("key", key), cursor, opts)
}

// HScan is Scan over the fields and values of the hash at key.
func (r *Redis) HScan(ctx context.Context, key interface{}, cursor Cursor, opts ScanOptions) (Cursor, []FieldValue, error) {
	a := newArgs(protocol.HSCAN).key("key", key)

	next, items, err := r.scan(ctx, a, cursor, opts)
	if err != nil {
		return "", nil, err
	}

	if len(items)%2 != 0 {
		return "", nil, unexpected(a.cmd, protocol.Array(nil))
	}

	pairs := make([]FieldValue, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		pairs = append(pairs, FieldValue{Field: items[i], Value: items[i+1]})
	}

	return next, pairs, nil
}

// ZScan is Scan over the members and scores of the sorted set at key.
func (r *Redis) ZScan(ctx context.Context, key interface{}, cursor Cursor, opts ScanOptions) (Cursor, []ScoredMember, error) {
	a := newArgs(protocol.ZSCAN).key("key", key)

	next, items, err := r.scan(ctx, a, cursor, opts)
	if err != nil {
		return "", nil, err
	}

	if len(items)%2 != 0 {
		return "", nil, unexpected(a.cmd, protocol.Array(nil))
	}

	members := make([]ScoredMember, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		score, err := strconv.ParseFloat(string(items[i+1]), 64)
		if err != nil {
			return "", nil, unexpected(a.cmd, protocol.Bulk(items[i+1]))
		}

		members = append(members, ScoredMember{Member: items[i], Score: score})
	}

	return next, members, nil
}

// scan appends the cursor and options to a, which already holds the command
// and key, and splits the [cursor, [items...]] reply.
func (r *Redis) scan(ctx context.Context, a *args, cursor Cursor, opts ScanOptions) (Cursor, [][]byte, error) {
	a.lit(string(cursor.bytes()))

	if opts.Match != "" {
		a.lit("MATCH").lit(opts.Match)
	}

	// Count is passed through as given, the server rejects values it does not accept.
	if opts.Count != 0 {
		a.lit("COUNT").int(opts.Count)
	}

	if opts.Type != "" && a.cmd == protocol.SCAN {
		a.lit("TYPE").lit(opts.Type)
	}

	reply, err := r.do(ctx, a)
	if err != nil {
		return "", nil, err
	}

	arr, ok := reply.(protocol.Array)
	if !ok || len(arr) != 2 {
		return "", nil, unexpected(a.cmd, reply)
	}

	next, ok := arr[0].(protocol.Bulk)
	if !ok || next == nil {
		return "", nil, unexpected(a.cmd, arr[0])
	}

	items, err := bulkSlice(a.cmd, arr[1])
	if err != nil {
		return "", nil, err
	}

	return Cursor(next), items, nil
}

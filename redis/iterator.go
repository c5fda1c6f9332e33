package redis

import (
	"context"

	"github.com/luma/redwire/protocol"
)

type pageFunc func(ctx context.Context, cursor Cursor) (Cursor, [][]byte, error)

// ScanIterator walks a SCAN-style iteration lazily, fetching a page whenever
// the previous one is used up:
//
//	iter := r.ScanIter(redis.ScanOptions{Match: "user:*"})
//	for iter.Next(ctx) {
//		key := iter.Val()
//	}
//	if err := iter.Err(); err != nil {
//		...
//	}
//
// It stops after the page for which the server returned the start cursor.
// Elements added or removed while iterating may be missed or returned more
// than once; elements present for the whole iteration are returned at least once.
type ScanIterator struct {
	fetch pageFunc

	cursor  Cursor
	started bool

	page [][]byte
	pos  int
	val  []byte
	err  error
}

func newScanIterator(fetch pageFunc) *ScanIterator {
	return &ScanIterator{fetch: fetch, cursor: StartCursor}
}

// Next advances to the next element, fetching pages as needed. It returns
// false when the iteration is complete or an error occurred.
func (it *ScanIterator) Next(ctx context.Context) bool {
	for {
		if it.err != nil {
			return false
		}

		if it.pos < len(it.page) {
			it.val = it.page[it.pos]
			it.pos++
			return true
		}

		if it.started && it.cursor.IsStart() {
			it.val = nil
			return false
		}

		cursor, page, err := it.fetch(ctx, it.cursor)
		if err != nil {
			it.err = err
			return false
		}

		it.started = true
		it.cursor = cursor
		it.page = page
		it.pos = 0
	}
}

// Val returns the current element.
func (it *ScanIterator) Val() []byte {
	return it.val
}

func (it *ScanIterator) Err() error {
	return it.err
}

// Cursor returns the cursor the server returned with the most recent page.
// Passing it to the matching single-page call resumes after that page.
func (it *ScanIterator) Cursor() Cursor {
	return it.cursor
}

// ScanIter iterates over the keys of the current database.
func (r *Redis) ScanIter(opts ScanOptions) *ScanIterator {
	return newScanIterator(func(ctx context.Context, cursor Cursor) (Cursor, [][]byte, error) {
		return r.scan(ctx, newArgs(protocol.SCAN), cursor, opts)
	})
}

// SScanIter iterates over the members of the set at key.
func (r *Redis) SScanIter(key interface{}, opts ScanOptions) *ScanIterator {
	return r.keyScanIter(protocol.SSCAN, key, opts)
}

// HScanIter iterates over the hash at key, yielding each field followed by
// its value.
func (r *Redis) HScanIter(key interface{}, opts ScanOptions) *ScanIterator {
	return r.keyScanIter(protocol.HSCAN, key, opts)
}

// ZScanIter iterates over the sorted set at key, yielding each member
// followed by its score.
func (r *Redis) ZScanIter(key interface{}, opts ScanOptions) *ScanIterator {
	return r.keyScanIter(protocol.ZSCAN, key, opts)
}

func (r *Redis) keyScanIter(cmd protocol.Command, key interface{}, opts ScanOptions) *ScanIterator {
	return newScanIterator(func(ctx context.Context, cursor Cursor) (Cursor, [][]byte, error) {
		return r.scan(ctx, newArgs(cmd).key("key", key), cursor, opts)
	})
}

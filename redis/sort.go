package redis

import (
	"context"
	"strings"

	"github.com/luma/redwire/protocol"
)

// NoSort as SortOptions.By skips sorting. Combined with Get it fetches
// external keys in the original order of the list, set or sorted set.
const NoSort = "nosort"

type SortOptions struct {
	// By sorts by the values of external keys. `*` in the pattern is replaced
	// by each element, and `pattern->field` reads a hash field instead of a
	// string key.
	By string

	// Offset and Count limit the result. They are sent when either is non-zero.
	// A zero Count with a non-zero Offset returns everything after Offset.
	Offset int64
	Count  int64

	// Get returns the values of external keys instead of the elements, one
	// per pattern per element, in the same pattern syntax as By. "#" returns
	// the element itself.
	Get []string

	// Order is "ASC", "DESC" or empty for the server default (ascending)
	Order string

	// Alpha sorts lexicographically instead of numerically
	Alpha bool
}

// Sort returns the sorted elements of the list, set or sorted set at key.
// Elements whose Get pattern matches no key are nil.
func (r *Redis) Sort(ctx context.Context, key interface{}, opts SortOptions) ([][]byte, error) {
	a := newArgs(protocol.SORT).key("key", key)
	sortArgs(a, opts)

	return r.doBytesSlice(ctx, a)
}

// SortStore stores the sorted result as a list at dest and returns its length.
func (r *Redis) SortStore(ctx context.Context, key interface{}, dest interface{}, opts SortOptions) (int64, error) {
	a := newArgs(protocol.SORT).key("key", key)
	sortArgs(a, opts)
	a.lit("STORE").key("dest", dest)

	return r.doInt(ctx, a)
}

func sortArgs(a *args, opts SortOptions) {
	if opts.By != "" {
		a.lit("BY").lit(opts.By)
	}

	if opts.Offset != 0 || opts.Count != 0 {
		count := opts.Count
		if count == 0 {
			count = -1
		}

		a.lit("LIMIT").int(opts.Offset).int(count)
	}

	for _, pattern := range opts.Get {
		if pattern == "" {
			a.fail(valueError(a.cmd, "get pattern must not be empty"))
		}

		a.lit("GET").lit(pattern)
	}

	switch order := strings.ToUpper(opts.Order); order {
	case "":
	case "ASC", "DESC":
		a.lit(order)
	default:
		a.fail(valueError(a.cmd, "order must be ASC or DESC, got %q", opts.Order))
	}

	if opts.Alpha {
		a.lit("ALPHA")
	}
}

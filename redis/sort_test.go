package redis_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/redwire/protocol"
	"github.com/luma/redwire/redis"
)

var _ = Describe("Sort", func() {
	var (
		ctx  context.Context
		conn *recorder
		r    *redis.Redis
	)

	BeforeEach(func() {
		ctx = context.Background()
		conn = &recorder{}
		r = redis.New(conn, nil)
	})

	It("sorts with no options", func() {
		conn.queue(bulks("1", "2", "3", "4"))

		Expect(r.Sort(ctx, "a", redis.SortOptions{})).To(Equal(byteSlices("1", "2", "3", "4")))
		Expect(conn.last()).To(Equal("SORT a"))
	})

	It("limits the result", func() {
		conn.queue(bulks("3", "4"))

		Expect(r.Sort(ctx, "a", redis.SortOptions{Offset: 2, Count: 2})).To(Equal(byteSlices("3", "4")))
		Expect(conn.last()).To(Equal("SORT a LIMIT 2 2"))
	})

	It("returns everything past an offset when no count is given", func() {
		conn.queue(bulks("3", "4", "5"))

		Expect(r.Sort(ctx, "a", redis.SortOptions{Offset: 2})).To(Equal(byteSlices("3", "4", "5")))
		Expect(conn.last()).To(Equal("SORT a LIMIT 2 -1"))
	})

	It("sorts descending and alphabetically", func() {
		conn.queue(bulks("d", "c", "b", "a"))

		Expect(r.Sort(ctx, "a", redis.SortOptions{Order: "desc", Alpha: true})).To(Equal(byteSlices("d", "c", "b", "a")))
		Expect(conn.last()).To(Equal("SORT a DESC ALPHA"))
	})

	It("sorts by external keys", func() {
		conn.queue(bulks("3", "1", "2"))

		Expect(r.Sort(ctx, "a", redis.SortOptions{By: "weight_*"})).To(Equal(byteSlices("3", "1", "2")))
		Expect(conn.last()).To(Equal("SORT a BY weight_*"))
	})

	It("skips sorting with nosort", func() {
		conn.queue(bulks("v1", "v2"))

		_, err := r.Sort(ctx, "a", redis.SortOptions{By: redis.NoSort, Get: []string{"data_*"}})
		Expect(err).To(Succeed())
		Expect(conn.last()).To(Equal("SORT a BY nosort GET data_*"))
	})

	It("fetches external keys and hash fields, nil where missing", func() {
		reply := protocol.Array{
			protocol.Bulk("1"), protocol.Bulk("o1"), protocol.Bulk(nil),
			protocol.Bulk("2"), protocol.Bulk("o2"), protocol.Bulk("f2"),
		}
		conn.queue(reply)

		got, err := r.Sort(ctx, "a", redis.SortOptions{Get: []string{"#", "object_*", "hash_*->field"}})
		Expect(err).To(Succeed())
		Expect(got).To(HaveLen(6))
		Expect(got[2]).To(BeNil())
		Expect(got[5]).To(Equal([]byte("f2")))
		Expect(conn.last()).To(Equal("SORT a GET # GET object_* GET hash_*->field"))
	})

	It("stores the result and returns its length", func() {
		conn.queue(protocol.Integer(4))

		Expect(r.SortStore(ctx, "a", "sorted", redis.SortOptions{Order: "ASC"})).To(Equal(int64(4)))
		Expect(conn.last()).To(Equal("SORT a ASC STORE sorted"))
	})

	It("rejects an unknown order without sending anything", func() {
		_, err := r.Sort(ctx, "a", redis.SortOptions{Order: "sideways"})

		Expect(errors.Is(err, redis.ErrArgumentValue)).To(BeTrue())
		Expect(conn.requests).To(BeEmpty())
	})

	It("rejects an empty get pattern", func() {
		_, err := r.Sort(ctx, "a", redis.SortOptions{Get: []string{""}})

		Expect(errors.Is(err, redis.ErrArgumentValue)).To(BeTrue())
		Expect(conn.requests).To(BeEmpty())
	})

	It("surfaces server errors", func() {
		conn.queue(protocol.Error("ERR One or more scores can't be converted into double"))

		_, err := r.Sort(ctx, "words", redis.SortOptions{})
		Expect(errors.Is(err, redis.ErrServerReply)).To(BeTrue())
		Expect(err).To(MatchError("ERR One or more scores can't be converted into double"))
	})
})

package redis_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/luma/redwire/protocol"
	"github.com/luma/redwire/redis"
)

var _ = Describe("Generic commands", func() {
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

	expectNotSent := func(err error, kind error) {
		Expect(errors.Is(err, kind)).To(BeTrue(), "got %v", err)
		Expect(conn.requests).To(BeEmpty())
	}

	table.DescribeTable("rejects a nil key without sending anything",
		func(call func(r *redis.Redis, key interface{}) error) {
			conn := &recorder{}
			err := call(redis.New(conn, nil), nil)

			Expect(errors.Is(err, redis.ErrArgumentType)).To(BeTrue(), "got %v", err)
			Expect(conn.requests).To(BeEmpty())

			err = call(redis.New(conn, nil), []byte(nil))
			Expect(errors.Is(err, redis.ErrArgumentType)).To(BeTrue(), "got %v", err)

			err = call(redis.New(conn, nil), 42)
			Expect(errors.Is(err, redis.ErrArgumentType)).To(BeTrue(), "got %v", err)
			Expect(conn.requests).To(BeEmpty())
		},
		table.Entry("Delete", func(r *redis.Redis, key interface{}) error {
			_, err := r.Delete(context.Background(), key)
			return err
		}),
		table.Entry("Dump", func(r *redis.Redis, key interface{}) error {
			_, err := r.Dump(context.Background(), key)
			return err
		}),
		table.Entry("Exists", func(r *redis.Redis, key interface{}) error {
			_, err := r.Exists(context.Background(), key)
			return err
		}),
		table.Entry("Expire", func(r *redis.Redis, key interface{}) error {
			_, err := r.Expire(context.Background(), key, 10)
			return err
		}),
		table.Entry("Expire with a float", func(r *redis.Redis, key interface{}) error {
			_, err := r.Expire(context.Background(), key, 1.5)
			return err
		}),
		table.Entry("ExpireAt", func(r *redis.Redis, key interface{}) error {
			_, err := r.ExpireAt(context.Background(), key, 123)
			return err
		}),
		table.Entry("PExpire", func(r *redis.Redis, key interface{}) error {
			_, err := r.PExpire(context.Background(), key, 0)
			return err
		}),
		table.Entry("PExpireAt", func(r *redis.Redis, key interface{}) error {
			_, err := r.PExpireAt(context.Background(), key, 1234)
			return err
		}),
		table.Entry("Persist", func(r *redis.Redis, key interface{}) error {
			_, err := r.Persist(context.Background(), key)
			return err
		}),
		table.Entry("TTL", func(r *redis.Redis, key interface{}) error {
			_, err := r.TTL(context.Background(), key)
			return err
		}),
		table.Entry("PTTL", func(r *redis.Redis, key interface{}) error {
			_, err := r.PTTL(context.Background(), key)
			return err
		}),
		table.Entry("Keys", func(r *redis.Redis, key interface{}) error {
			_, err := r.Keys(context.Background(), key)
			return err
		}),
		table.Entry("Migrate", func(r *redis.Redis, key interface{}) error {
			_, err := r.Migrate(context.Background(), "host", 1234, key, 1, 23, redis.MigrateOptions{})
			return err
		}),
		table.Entry("Move", func(r *redis.Redis, key interface{}) error {
			_, err := r.Move(context.Background(), key, 1)
			return err
		}),
		table.Entry("ObjectRefcount", func(r *redis.Redis, key interface{}) error {
			_, err := r.ObjectRefcount(context.Background(), key)
			return err
		}),
		table.Entry("ObjectEncoding", func(r *redis.Redis, key interface{}) error {
			_, err := r.ObjectEncoding(context.Background(), key)
			return err
		}),
		table.Entry("ObjectIdletime", func(r *redis.Redis, key interface{}) error {
			_, err := r.ObjectIdletime(context.Background(), key)
			return err
		}),
		table.Entry("Rename source", func(r *redis.Redis, key interface{}) error {
			_, err := r.Rename(context.Background(), key, "bar")
			return err
		}),
		table.Entry("Rename destination", func(r *redis.Redis, key interface{}) error {
			_, err := r.Rename(context.Background(), "foo", key)
			return err
		}),
		table.Entry("RenameNX source", func(r *redis.Redis, key interface{}) error {
			_, err := r.RenameNX(context.Background(), key, "foo")
			return err
		}),
		table.Entry("RenameNX destination", func(r *redis.Redis, key interface{}) error {
			_, err := r.RenameNX(context.Background(), "foo", key)
			return err
		}),
		table.Entry("Restore", func(r *redis.Redis, key interface{}) error {
			return r.Restore(context.Background(), key, 0, []byte("payload"), redis.RestoreOptions{})
		}),
		table.Entry("Type", func(r *redis.Redis, key interface{}) error {
			_, err := r.Type(context.Background(), key)
			return err
		}),
		table.Entry("SScan", func(r *redis.Redis, key interface{}) error {
			_, _, err := r.SScan(context.Background(), key, redis.StartCursor, redis.ScanOptions{})
			return err
		}),
		table.Entry("Sort", func(r *redis.Redis, key interface{}) error {
			_, err := r.Sort(context.Background(), key, redis.SortOptions{})
			return err
		}),
		table.Entry("SortStore destination", func(r *redis.Redis, key interface{}) error {
			_, err := r.SortStore(context.Background(), "a", key, redis.SortOptions{})
			return err
		}),
	)

	Describe("Delete", func() {
		It("returns the number of keys removed", func() {
			conn.queue(protocol.Integer(1))

			Expect(r.Delete(ctx, "my-key", "non-existent-key")).To(Equal(int64(1)))
			Expect(conn.last()).To(Equal("DEL my-key non-existent-key"))
		})

		It("fails atomically when any key is nil", func() {
			_, err := r.Delete(ctx, "my-key", "my-key", nil)
			expectNotSent(err, redis.ErrArgumentType)
		})
	})

	Describe("Dump", func() {
		It("returns the serialised value", func() {
			conn.queue(protocol.Bulk("\x00\xc0{\t\x00"))

			Expect(r.Dump(ctx, "my-key")).To(Equal([]byte("\x00\xc0{\t\x00")))
		})

		It("returns nil for a missing key", func() {
			conn.queue(protocol.Bulk(nil))

			Expect(r.Dump(ctx, "non-existent-key")).To(BeNil())
		})
	})

	Describe("Exists", func() {
		It("maps the integer reply to a bool", func() {
			conn.queue(protocol.Integer(1), protocol.Integer(0))

			Expect(r.Exists(ctx, "my-key")).To(BeTrue())
			Expect(r.Exists(ctx, "non-existent-key")).To(BeFalse())
		})

		It("counts existing keys", func() {
			conn.queue(protocol.Integer(2))

			Expect(r.ExistsCount(ctx, "a", []byte("b"))).To(Equal(int64(2)))
			Expect(conn.last()).To(Equal("EXISTS a b"))
		})
	})

	Describe("Expire", func() {
		It("sends integer timeouts in seconds", func() {
			conn.queue(protocol.Integer(1), protocol.Integer(0))

			Expect(r.Expire(ctx, "my-key", 10)).To(BeTrue())
			Expect(conn.last()).To(Equal("EXPIRE my-key 10"))

			Expect(r.Expire(ctx, "other-key", int64(1000))).To(BeFalse())
		})

		It("passes negative timeouts through to the server", func() {
			conn.queue(protocol.Integer(1))

			Expect(r.Expire(ctx, "my-key", -1)).To(BeTrue())
			Expect(conn.last()).To(Equal("EXPIRE my-key -1"))
		})

		It("sends fractional timeouts in milliseconds", func() {
			conn.queue(protocol.Integer(1), protocol.Integer(1))

			Expect(r.Expire(ctx, "my-key", 10.0)).To(BeTrue())
			Expect(conn.last()).To(Equal("PEXPIRE my-key 10000"))

			Expect(r.Expire(ctx, "my-key", 0.25)).To(BeTrue())
			Expect(conn.last()).To(Equal("PEXPIRE my-key 250"))
		})

		It("rejects non-numeric timeouts", func() {
			_, err := r.Expire(ctx, "my-key", "timeout")
			expectNotSent(err, redis.ErrArgumentType)

			_, err = r.Expire(ctx, "my-key", nil)
			expectNotSent(err, redis.ErrArgumentType)
		})

		It("rejects fractional timeouts that have no millisecond value", func() {
			for _, timeout := range []float64{nan(), inf(1), inf(-1), 1e300, -1e300, 9.3e15} {
				_, err := r.Expire(ctx, "my-key", timeout)
				expectNotSent(err, redis.ErrArgumentValue)
			}
		})
	})

	Describe("ExpireAt", func() {
		It("sends integer timestamps in seconds", func() {
			conn.queue(protocol.Integer(1))

			Expect(r.ExpireAt(ctx, "my-key", 1700000000)).To(BeTrue())
			Expect(conn.last()).To(Equal("EXPIREAT my-key 1700000000"))
		})

		It("sends fractional timestamps in milliseconds", func() {
			conn.queue(protocol.Integer(1))

			Expect(r.ExpireAt(ctx, "my-key", 1700000000.5)).To(BeTrue())
			Expect(conn.last()).To(Equal("PEXPIREAT my-key 1700000000500"))
		})

		It("rejects non-numeric timestamps", func() {
			_, err := r.ExpireAt(ctx, "my-key", "timestamp")
			expectNotSent(err, redis.ErrArgumentType)
		})

		It("rejects fractional timestamps that have no millisecond value", func() {
			for _, timestamp := range []float64{nan(), inf(1), inf(-1), 1e300} {
				_, err := r.ExpireAt(ctx, "my-key", timestamp)
				expectNotSent(err, redis.ErrArgumentValue)
			}
		})
	})

	Describe("PExpire and PExpireAt", func() {
		It("send integer milliseconds", func() {
			conn.queue(protocol.Integer(1), protocol.Integer(1))

			Expect(r.PExpire(ctx, "my-key", 100)).To(BeTrue())
			Expect(conn.last()).To(Equal("PEXPIRE my-key 100"))

			Expect(r.PExpireAt(ctx, "my-key", int64(1700000000500))).To(BeTrue())
			Expect(conn.last()).To(Equal("PEXPIREAT my-key 1700000000500"))
		})

		It("reject floats as there is no finer resolution", func() {
			_, err := r.PExpire(ctx, "my-key", 1.0)
			expectNotSent(err, redis.ErrArgumentType)

			_, err = r.PExpireAt(ctx, "key", 1000.0)
			expectNotSent(err, redis.ErrArgumentType)

			_, err = r.PExpireAt(ctx, "key", "timestamp")
			expectNotSent(err, redis.ErrArgumentType)
		})
	})

	Describe("TTL and PTTL", func() {
		It("return the raw server values", func() {
			conn.queue(protocol.Integer(-1), protocol.Integer(-2), protocol.Integer(498))

			Expect(r.TTL(ctx, "key")).To(Equal(int64(-1)))
			Expect(r.TTL(ctx, "non-existent-key")).To(Equal(int64(-2)))
			Expect(r.PTTL(ctx, "key")).To(Equal(int64(498)))
			Expect(conn.last()).To(Equal("PTTL key"))
		})
	})

	Describe("Persist", func() {
		It("maps the integer reply to a bool", func() {
			conn.queue(protocol.Integer(1))

			Expect(r.Persist(ctx, "my-key")).To(BeTrue())
			Expect(conn.last()).To(Equal("PERSIST my-key"))
		})
	})

	Describe("Keys", func() {
		It("returns raw bytes by default", func() {
			conn.queue(bulks("my-key-1", "my-key-ab"))

			Expect(r.Keys(ctx, "my-key-*")).To(Equal(byteSlices("my-key-1", "my-key-ab")))
			Expect(conn.last()).To(Equal("KEYS my-key-*"))
		})

		It("returns an empty result for no matches", func() {
			conn.queue(protocol.Array{})

			Expect(r.Keys(ctx, "*pattern*")).To(BeEmpty())
		})

		It("decodes text when an encoding is given", func() {
			conn.queue(bulks("caf\xe9"), bulks("café"))

			keys, err := r.Keys(ctx, "*", redis.WithEncoding("iso-8859-1"))
			Expect(err).To(Succeed())
			Expect(string(keys[0])).To(Equal("café"))

			keys, err = r.Keys(ctx, "*", redis.WithEncoding("utf-8"))
			Expect(err).To(Succeed())
			Expect(string(keys[0])).To(Equal("café"))
		})

		It("fails when the bytes are not valid in the encoding", func() {
			conn.queue(bulks("caf\xe9"))

			_, err := r.Keys(ctx, "*", redis.WithEncoding("utf-8"))
			Expect(err).To(MatchError(redis.ErrInvalidText))
		})

		It("rejects unknown encodings before sending anything", func() {
			_, err := r.Keys(ctx, "*", redis.WithEncoding("not-a-charset"))
			expectNotSent(err, redis.ErrArgumentValue)

			_, err = r.RandomKey(ctx, redis.WithEncoding("not-a-charset"))
			expectNotSent(err, redis.ErrArgumentValue)
		})

		It("accepts a custom decoder", func() {
			conn.queue(bulks("abc"))

			upper := redis.TextDecoderFunc(func(b []byte) ([]byte, error) {
				return []byte("<" + string(b) + ">"), nil
			})

			Expect(r.Keys(ctx, "*", redis.WithDecoder(upper))).To(Equal(byteSlices("<abc>")))
		})
	})

	Describe("RandomKey", func() {
		It("returns a key or nil for an empty database", func() {
			conn.queue(protocol.Bulk("key:1"), protocol.Bulk("key:2"), protocol.Bulk(nil))

			Expect(r.RandomKey(ctx)).To(Equal([]byte("key:1")))
			Expect(r.RandomKey(ctx, redis.WithEncoding("utf-8"))).To(Equal([]byte("key:2")))
			Expect(r.RandomKey(ctx)).To(BeNil())
		})
	})

	Describe("Migrate", func() {
		It("sends the full argument vector", func() {
			conn.queue(protocol.Status("OK"))

			ok, err := r.Migrate(ctx, "localhost", 6380, "my-key", 2, 1000, redis.MigrateOptions{Copy: true, Replace: true})
			Expect(err).To(Succeed())
			Expect(ok).To(BeTrue())
			Expect(conn.last()).To(Equal("MIGRATE localhost 6380 my-key 2 1000 COPY REPLACE"))
		})

		It("returns false when the key does not exist", func() {
			conn.queue(protocol.Status("NOKEY"))

			Expect(r.Migrate(ctx, "localhost", 6380, "my-key", 2, 1000, redis.MigrateOptions{})).To(BeFalse())
		})

		It("validates arguments before contacting anyone", func() {
			_, err := r.Migrate(ctx, "", 123, "key", 1, 123, redis.MigrateOptions{})
			expectNotSent(err, redis.ErrArgumentValue)
			Expect(err).To(MatchError(ContainSubstring("got empty host")))

			_, err = r.Migrate(ctx, "host", 6379, "key", -1, 1000, redis.MigrateOptions{})
			expectNotSent(err, redis.ErrArgumentValue)
			Expect(err).To(MatchError(ContainSubstring("dest_db must be greater equal 0")))

			_, err = r.Migrate(ctx, "host", 6379, "key", 1, -1000, redis.MigrateOptions{})
			expectNotSent(err, redis.ErrArgumentValue)
			Expect(err).To(MatchError(ContainSubstring("timeout must be greater equal 0")))

			_, err = r.Migrate(ctx, "host", 0, "key", 1, 1000, redis.MigrateOptions{})
			expectNotSent(err, redis.ErrArgumentValue)

			_, err = r.Migrate(ctx, "host", 1234, nil, 1, 123, redis.MigrateOptions{})
			expectNotSent(err, redis.ErrArgumentType)
		})
	})

	Describe("Move", func() {
		It("moves the key to another db", func() {
			conn.queue(protocol.Integer(1))

			Expect(r.DB()).To(Equal(0))
			Expect(r.Move(ctx, "my-key", 1)).To(BeTrue())
			Expect(conn.last()).To(Equal("MOVE my-key 1"))
		})

		It("rejects a negative db", func() {
			_, err := r.Move(ctx, "my-key", -1)
			expectNotSent(err, redis.ErrArgumentValue)
		})

		It("rejects the db that is already selected", func() {
			conn.db = 3

			_, err := r.Move(ctx, "my-key", 3)
			expectNotSent(err, redis.ErrArgumentValue)
		})
	})

	Describe("OBJECT", func() {
		It("returns the refcount or ErrNil", func() {
			conn.queue(protocol.Integer(1), protocol.Bulk(nil))

			Expect(r.ObjectRefcount(ctx, "foo")).To(Equal(int64(1)))
			Expect(conn.last()).To(Equal("OBJECT REFCOUNT foo"))

			_, err := r.ObjectRefcount(ctx, "non-existent-key")
			Expect(err).To(MatchError(redis.ErrNil))
		})

		It("returns the encoding or nil", func() {
			conn.queue(protocol.Bulk("embstr"), protocol.Bulk(nil))

			Expect(r.ObjectEncoding(ctx, "foo")).To(Equal([]byte("embstr")))
			Expect(r.ObjectEncoding(ctx, "non-existent-key")).To(BeNil())
		})

		It("returns the idle time or ErrNil", func() {
			conn.queue(protocol.Integer(0), protocol.Bulk(nil))

			Expect(r.ObjectIdletime(ctx, "foo")).To(Equal(int64(0)))
			Expect(conn.last()).To(Equal("OBJECT IDLETIME foo"))

			_, err := r.ObjectIdletime(ctx, "non-existent-key")
			Expect(err).To(MatchError(redis.ErrNil))
		})
	})

	Describe("Rename", func() {
		It("renames a key", func() {
			conn.queue(protocol.Status("OK"))

			Expect(r.Rename(ctx, "foo", "bar")).To(BeTrue())
			Expect(conn.last()).To(Equal("RENAME foo bar"))
		})

		It("surfaces server errors verbatim", func() {
			conn.queue(protocol.Error("ERR no such key"))

			_, err := r.Rename(ctx, "foo", "bar")
			Expect(errors.Is(err, redis.ErrServerReply)).To(BeTrue())
			Expect(err).To(MatchError("ERR no such key"))

			var cmdErr *redis.CommandError
			Expect(errors.As(err, &cmdErr)).To(BeTrue())
			Expect(cmdErr.Command).To(Equal(protocol.RENAME))
		})

		It("rejects renaming a key to itself without a round trip", func() {
			_, err := r.Rename(ctx, "foo", "foo")
			expectNotSent(err, redis.ErrArgumentValue)

			_, err = r.Rename(ctx, "bar", []byte("bar"))
			expectNotSent(err, redis.ErrArgumentValue)
		})
	})

	Describe("RenameNX", func() {
		It("maps the integer reply to a bool", func() {
			conn.queue(protocol.Integer(1), protocol.Integer(0))

			Expect(r.RenameNX(ctx, "foo", "bar")).To(BeTrue())
			Expect(r.RenameNX(ctx, "foo", "bar")).To(BeFalse())
			Expect(conn.last()).To(Equal("RENAMENX foo bar"))
		})

		It("surfaces server errors verbatim", func() {
			conn.queue(protocol.Error("ERR no such key"))

			_, err := r.RenameNX(ctx, "baz", "foo")
			Expect(err).To(MatchError(MatchRegexp("ERR no such key")))
		})

		It("rejects renaming a key to itself without a round trip", func() {
			_, err := r.RenameNX(ctx, "foo", "foo")
			expectNotSent(err, redis.ErrArgumentValue)
		})
	})

	Describe("Restore", func() {
		It("restores a dumped value", func() {
			conn.queue(protocol.Status("OK"))

			Expect(r.Restore(ctx, "key", 0, []byte("payload"), redis.RestoreOptions{Replace: true})).To(Succeed())
			Expect(conn.last()).To(Equal("RESTORE key 0 payload REPLACE"))
		})

		It("validates ttl and data", func() {
			err := r.Restore(ctx, "key", -1, []byte("payload"), redis.RestoreOptions{})
			expectNotSent(err, redis.ErrArgumentValue)

			err = r.Restore(ctx, "key", 0, nil, redis.RestoreOptions{})
			expectNotSent(err, redis.ErrArgumentType)
		})
	})

	Describe("Type", func() {
		It("returns the status reply as a string", func() {
			conn.queue(protocol.Status("string"), protocol.Status("none"))

			Expect(r.Type(ctx, "key")).To(Equal("string"))
			Expect(r.Type(ctx, "non-existent-key")).To(Equal("none"))
		})
	})

	Describe("unexpected replies", func() {
		It("reports a reply of the wrong type", func() {
			conn.queue(protocol.Status("OK"))

			_, err := r.Exists(ctx, "key")
			Expect(err).To(MatchError(redis.ErrUnexpectedReply))
		})
	})
})

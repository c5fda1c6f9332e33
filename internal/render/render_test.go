package render_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/redwire/internal/render"
	"github.com/luma/redwire/protocol"
)

var _ = Describe("render", func() {
	Describe("Reply()", func() {
		It("renders scalars", func() {
			Expect(render.Reply(protocol.Integer(-3))).To(MatchJSON(`-3`))
			Expect(render.Reply(protocol.Bulk("bar"))).To(MatchJSON(`"bar"`))
			Expect(render.Reply(protocol.Bulk(`say "hi"`))).To(MatchJSON(`"say \"hi\""`))
			Expect(render.Reply(protocol.Bulk(nil))).To(MatchJSON(`null`))
			Expect(render.Reply(protocol.Status("OK"))).To(MatchJSON(`{"status":"OK"}`))
			Expect(render.Reply(protocol.Error("ERR no such key"))).To(MatchJSON(`{"error":"ERR no such key"}`))
		})

		It("renders binary bulk strings as base64", func() {
			Expect(render.Reply(protocol.Bulk("\xff\x00"))).To(MatchJSON(`{"base64":"/wA="}`))
		})

		It("renders nested arrays", func() {
			reply := protocol.Array{
				protocol.Bulk("17"),
				protocol.Array{protocol.Bulk("a"), protocol.Bulk(nil), protocol.Integer(2)},
				protocol.Array(nil),
				protocol.Array{},
			}

			Expect(render.Reply(reply)).To(MatchJSON(`["17", ["a", null, 2], null, []]`))
		})

		It("wraps replies in a document", func() {
			Expect(render.Document(protocol.Integer(1))).To(MatchJSON(`{"reply": 1}`))
		})
	})

	Describe("Keys()", func() {
		It("renders keys with and without a cursor", func() {
			keys := [][]byte{[]byte("a"), []byte("b")}

			Expect(render.Keys("", keys)).To(MatchJSON(`{"keys": ["a", "b"]}`))
			Expect(render.Keys("17", keys)).To(MatchJSON(`{"cursor": "17", "keys": ["a", "b"]}`))
			Expect(render.Keys("0", nil)).To(MatchJSON(`{"cursor": "0", "keys": []}`))
		})
	})

	Describe("Args()", func() {
		It("reads the command and its arguments", func() {
			cmd, args, err := render.Args([]byte(`{"args": ["SET", "key", 10, 1.5, "x"]}`))

			Expect(err).To(Succeed())
			Expect(cmd).To(Equal("SET"))
			Expect(args).To(Equal([]interface{}{"key", int64(10), 1.5, "x"}))
		})

		It("rejects bodies without a usable args array", func() {
			_, _, err := render.Args([]byte(`{"args": [`))
			Expect(err).To(MatchError(render.ErrInvalidJSON))

			_, _, err = render.Args([]byte(`{"argv": ["PING"]}`))
			Expect(err).To(MatchError(render.ErrNoArgs))

			_, _, err = render.Args([]byte(`{"args": []}`))
			Expect(err).To(MatchError(render.ErrNoArgs))

			_, _, err = render.Args([]byte(`{"args": [1]}`))
			Expect(err).To(HaveOccurred())

			_, _, err = render.Args([]byte(`{"args": ["GET", null]}`))
			Expect(err).To(MatchError(ContainSubstring("argument 1")))
		})
	})
})

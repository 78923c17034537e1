/*
MIT License

Copyright (c) 2019 Nicolas JUHEL
*/

package connctx_test

import (
	"context"
	"testing"

	libctx "github.com/nabbar/httpedge/connctx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConnCtx(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "connctx suite")
}

type connKey struct{ id int }

var _ = Describe("Config[T] connection map", func() {
	It("stores and loads values keyed by connection", func() {
		c := libctx.New[connKey](context.Background())
		k := connKey{id: 1}

		c.Store(k, "session-data")
		v, ok := c.Load(k)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("session-data"))
	})

	It("falls through to the parent context for unrelated keys", func() {
		type strKey string
		parent := context.WithValue(context.Background(), strKey("trace"), "abc")
		c := libctx.New[connKey](parent)

		Expect(c.Value(strKey("trace"))).To(Equal("abc"))
	})

	It("drains on Clean and stops storing after the context errors", func() {
		ctx, cancel := context.WithCancel(context.Background())
		c := libctx.New[connKey](ctx)
		c.Store(connKey{id: 2}, "v")
		cancel()

		c.Store(connKey{id: 3}, "v2")
		_, ok := c.Load(connKey{id: 3})
		Expect(ok).To(BeFalse())
		_, ok = c.Load(connKey{id: 2})
		Expect(ok).To(BeFalse())
	})

	It("merges another map's entries", func() {
		a := libctx.New[connKey](context.Background())
		b := libctx.New[connKey](context.Background())
		b.Store(connKey{id: 9}, "from-b")

		Expect(a.Merge(b)).To(BeTrue())
		v, ok := a.Load(connKey{id: 9})
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("from-b"))
	})
})

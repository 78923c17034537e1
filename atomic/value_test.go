/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 */

package atomic_test

import (
	"testing"

	libatm "github.com/nabbar/httpedge/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAtomic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "atomic suite")
}

var _ = Describe("Value[T]", func() {
	It("round-trips Store/Load", func() {
		v := libatm.NewValue[int]()
		v.Store(42)
		Expect(v.Load()).To(Equal(42))
	})

	It("falls back to the configured default load value", func() {
		v := libatm.NewValueDefault[string]("none", "")
		Expect(v.Load()).To(Equal("none"))
	})

	It("swaps and compare-and-swaps", func() {
		v := libatm.NewValue[int]()
		v.Store(1)
		old := v.Swap(2)
		Expect(old).To(Equal(1))
		Expect(v.CompareAndSwap(2, 3)).To(BeTrue())
		Expect(v.Load()).To(Equal(3))
	})
})

var _ = Describe("MapTyped[K,V]", func() {
	It("stores and loads typed values", func() {
		m := libatm.NewMapTyped[string, int]()
		m.Store("a", 1)
		v, ok := m.Load("a")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1))
	})

	It("does not see entries stored in a separate untyped map", func() {
		raw := libatm.NewMapAny[string]()
		raw.Store("bad", "not-an-int")

		typed := libatm.NewMapTyped[string, int]()
		_, ok := typed.Load("bad")
		Expect(ok).To(BeFalse())
	})
})

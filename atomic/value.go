/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package atomic

import (
	"reflect"
	"sync/atomic"
)

// val is the internal implementation of Value[T]. Unlike a plain
// atomic.Value, which boxes T into an any and needs a type assertion on
// every read, val keeps three atomic.Pointer[T] slots -- the live value plus
// the configured load/store fallbacks -- so the stored type is fixed at
// compile time and a nil pointer, not a failed assertion, is what "unset"
// looks like.
type val[T any] struct {
	cur     *atomic.Pointer[T]
	onLoad  *atomic.Pointer[T]
	onStore *atomic.Pointer[T]
}

func newVal[T any]() *val[T] {
	return &val[T]{
		cur:     new(atomic.Pointer[T]),
		onLoad:  new(atomic.Pointer[T]),
		onStore: new(atomic.Pointer[T]),
	}
}

// SetDefaultLoad configures the value Load falls back to when nothing has
// been stored yet.
func (o *val[T]) SetDefaultLoad(def T) {
	o.onLoad.Store(&def)
}

// SetDefaultStore configures the value substituted for an empty argument to
// Store, Swap, or CompareAndSwap.
func (o *val[T]) SetDefaultStore(def T) {
	o.onStore.Store(&def)
}

func deref[T any](p *atomic.Pointer[T]) T {
	if v := p.Load(); v != nil {
		return *v
	}
	var zero T
	return zero
}

// Load returns the current value, or the configured load fallback if
// nothing has been stored yet.
func (o *val[T]) Load() (value T) {
	if v := o.cur.Load(); v != nil {
		return *v
	}
	return deref(o.onLoad)
}

// Store sets the value, substituting the configured store fallback for an
// empty argument.
func (o *val[T]) Store(value T) {
	if IsEmpty[T](value) {
		value = deref(o.onStore)
	}
	o.cur.Store(&value)
}

// Swap stores new and returns whatever was previously held, or the load
// fallback if nothing had been stored yet.
func (o *val[T]) Swap(new T) (old T) {
	if IsEmpty[T](new) {
		new = deref(o.onStore)
	}

	prev := o.cur.Swap(&new)
	if prev == nil {
		return deref(o.onLoad)
	}
	return *prev
}

// CompareAndSwap stores new in place of old, retrying on concurrent
// interference from other writers, and reports whether the swap took hold.
// atomic.Pointer's own CompareAndSwap is identity-based, so this compares by
// value first and only then attempts the pointer swap -- a classic
// optimistic-retry CAS loop, not a single hardware instruction.
func (o *val[T]) CompareAndSwap(old, new T) (swapped bool) {
	if IsEmpty[T](old) {
		old = deref(o.onStore)
	}
	if IsEmpty[T](new) {
		new = deref(o.onStore)
	}

	for {
		cur := o.cur.Load()
		var curVal T
		if cur != nil {
			curVal = *cur
		}
		if !reflect.DeepEqual(curVal, old) {
			return false
		}
		if o.cur.CompareAndSwap(cur, &new) {
			return true
		}
	}
}

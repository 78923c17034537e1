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

// mt is the internal implementation of MapTyped[K, V], layered on top of a
// Map[K] that only this instance ever writes to. Because nothing else can
// have stored a non-V value under one of its keys, recovering V back out of
// the any the underlying Map hands back can never fail on type -- the only
// way Load et al. report "not found" for a present key is the zero-value
// convention Cast[V] applies (see cast.go), which this type inherits
// directly rather than re-deriving.
type mt[K comparable, V any] struct {
	backing Map[K]
}

func (o *mt[K, V]) unbox(raw any, present bool) (value V, ok bool) {
	if !present {
		return value, false
	}
	return Cast[V](raw)
}

func (o *mt[K, V]) Load(key K) (value V, ok bool) {
	return o.unbox(o.backing.Load(key))
}

func (o *mt[K, V]) Store(key K, value V) {
	o.backing.Store(key, value)
}

func (o *mt[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	return o.unbox(o.backing.LoadOrStore(key, value))
}

func (o *mt[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	return o.unbox(o.backing.LoadAndDelete(key))
}

func (o *mt[K, V]) Delete(key K) {
	o.backing.Delete(key)
}

func (o *mt[K, V]) Swap(key K, value V) (previous V, loaded bool) {
	return o.unbox(o.backing.Swap(key, value))
}

func (o *mt[K, V]) CompareAndSwap(key K, old, new V) bool {
	return o.backing.CompareAndSwap(key, old, new)
}

func (o *mt[K, V]) CompareAndDelete(key K, old V) (deleted bool) {
	return o.backing.CompareAndDelete(key, old)
}

func (o *mt[K, V]) Range(f func(key K, value V) bool) {
	o.backing.Range(func(key K, raw any) bool {
		v, ok := Cast[V](raw)
		if !ok {
			return true
		}
		return f(key, v)
	})
}

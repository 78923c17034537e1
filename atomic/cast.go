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

import "reflect"

// Cast asserts src into M and additionally treats a successfully-asserted
// zero value (0, "", nil, an empty struct, ...) as absent. The registries in
// this package (connection flags, session counters) rely on the zero value
// of their element type meaning "never stored", so a caller that legitimately
// stores a zero has no other way to distinguish that from an empty slot.
func Cast[M any](src any) (out M, ok bool) {
	v, asserted := src.(M)
	if !asserted {
		return out, false
	}
	if isZero(v) {
		return out, false
	}
	return v, true
}

// IsEmpty reports whether src is absent by the Cast[M] convention above:
// either it isn't an M at all, or it asserts to M's zero value.
func IsEmpty[M any](src any) bool {
	_, ok := Cast[M](src)
	return !ok
}

// isZero reports whether v, boxed as any, holds its type's zero value.
// reflect.Value.IsZero covers this for any comparable or uncomparable type
// without needing a second zero instance to compare against.
func isZero(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	return rv.IsZero()
}

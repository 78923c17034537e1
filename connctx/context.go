/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package connctx

import (
	"context"
	"time"
)

// Deadline delegates to the bound context.
func (c *registry[T]) Deadline() (deadline time.Time, ok bool) {
	return c.parent.Deadline()
}

// Done delegates to the bound context.
func (c *registry[T]) Done() <-chan struct{} {
	return c.parent.Done()
}

// Err delegates to the bound context; a non-nil Err is what tells every
// mutating method on this registry to stop accepting new entries.
func (c *registry[T]) Err() error {
	return c.parent.Err()
}

// Value first checks this registry's own store for key (when key is a T),
// falling back to the bound context.Context.Value otherwise.
func (c *registry[T]) Value(key any) any {
	k, isT := key.(T)
	if !isT {
		return c.parent.Value(key)
	}
	if v, ok := c.Load(k); ok {
		return v
	}
	return c.parent.Value(key)
}

var _ context.Context = (*registry[string])(nil)

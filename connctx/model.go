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

	libatm "github.com/nabbar/httpedge/atomic"
)

// registry is the Config[T] implementation: a context.Context plus a
// concurrent map of T to interface{}, one entry per live connection or
// session the caller chooses to track.
type registry[T comparable] struct {
	entries libatm.Map[T]
	parent  context.Context
}

func (c *registry[T]) Clone(ctx context.Context) Config[T] {
	if c.Err() != nil {
		c.Clean()
		return nil
	}
	if ctx == nil {
		ctx = c.parent
	}

	clone := &registry[T]{
		entries: libatm.NewMapAny[T](),
		parent:  ctx,
	}

	c.Walk(func(key T, val interface{}) bool {
		clone.Store(key, val)
		return true
	})

	return clone
}

func (c *registry[T]) Merge(cfg Config[T]) bool {
	if c.Err() != nil {
		c.Clean()
		return false
	}
	if cfg == nil {
		return false
	}

	cfg.Walk(func(key T, val interface{}) bool {
		c.entries.Store(key, val)
		return true
	})

	return true
}

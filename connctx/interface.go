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

// Package connctx holds the registry of live sessions fronting the dispatch
// engine: a context.Context that is also a concurrent key/value store, keyed
// by whatever identifier the caller uses to name a connection or session
// (typically a string UUID).
package connctx

import (
	"context"

	libatm "github.com/nabbar/httpedge/atomic"
)

// FuncWalk is called once per entry during a Walk or WalkLimit; returning
// false stops the iteration early.
type FuncWalk[T comparable] func(key T, val interface{}) bool

// Config is a context.Context with a concurrent key/value store layered on
// top: once its context is canceled, every mutating method drains the store
// and turns into a no-op instead of silently accumulating entries nobody
// will read again.
type Config[T comparable] interface {
	context.Context

	// Clean empties the store. Safe to call concurrently with Load/Store.
	Clean()
	Load(key T) (val interface{}, ok bool)
	// Store records val under key, overwriting any prior entry. A nil val
	// is a no-op rather than a delete -- use Delete for that.
	Store(key T, val interface{})
	Delete(key T)
	LoadOrStore(key T, val interface{}) (actual interface{}, loaded bool)
	LoadAndDelete(key T) (val interface{}, loaded bool)

	// Clone copies every live entry into a fresh Config bound to ctx (or to
	// this Config's own context, if ctx is nil).
	Clone(ctx context.Context) Config[T]
	// Merge copies every entry from cfg into this Config, returning false if
	// cfg is nil.
	Merge(cfg Config[T]) bool
	// Walk visits every entry; equivalent to WalkLimit with no key filter.
	Walk(fct FuncWalk[T])
	// WalkLimit visits only the entries named in validKeys, or every entry
	// if validKeys is empty.
	WalkLimit(fct FuncWalk[T], validKeys ...T)
}

// New returns a Config bound to ctx (context.Background() if ctx is nil),
// backed by a fresh, empty store.
func New[T comparable](ctx context.Context) Config[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	return &registry[T]{
		entries: libatm.NewMapAny[T](),
		parent:  ctx,
	}
}

// NewConfig is a historical alias for New.
func NewConfig[T comparable](ctx context.Context) Config[T] {
	return New[T](ctx)
}

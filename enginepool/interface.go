/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package enginepool orchestrates a name-keyed collection of
// endpoint.Wranglers as one unit, so a process can run several independent
// listening endpoints with a single lifecycle.
package enginepool

import (
	"context"

	libep "github.com/nabbar/httpedge/endpoint"
)

// FuncWalk is called once per member endpoint by Walk/WalkLimit. Returning
// false stops the iteration early.
type FuncWalk func(name string, w *libep.Wrangler) bool

// Pool manages the lifecycle of every endpoint it holds as one group:
// Start/Stop fan every member out in parallel so one endpoint's failure
// never blocks the others from being attempted.
type Pool interface {
	// Start brings up every member endpoint concurrently. It returns an
	// aggregated errors.Error (nil if every member started cleanly) once
	// all attempts have settled, even if one or more failed.
	Start(ctx context.Context) error

	// Stop winds down every member endpoint concurrently with willReload
	// passed through as an advisory hint to each. All attempts are made
	// regardless of individual failures; the aggregated errors.Error (nil
	// on full success) is returned once every member has settled.
	Stop(ctx context.Context, willReload bool) error

	// IsRunning reports whether any member endpoint is currently serving.
	IsRunning() bool

	// Walk iterates every member in no particular order.
	Walk(fct FuncWalk)

	// WalkLimit iterates only the named members, in no particular order;
	// with no names it iterates every member. A name with no matching
	// member is silently skipped.
	WalkLimit(fct FuncWalk, names ...string)

	// Load retrieves a member endpoint by name, or nil if absent.
	Load(name string) *libep.Wrangler

	// Store adds or replaces a member endpoint, keyed by its own Name().
	Store(w *libep.Wrangler)

	// Delete removes a member endpoint by name; a no-op if absent.
	Delete(name string)

	// Has reports whether a member with this name exists.
	Has(name string) bool

	// Len returns the number of member endpoints.
	Len() int

	// Merge replaces this pool's config for every endpoint present in
	// other, keyed by name, and adds any endpoint present in other but
	// not yet in this pool. Endpoints only present in this pool are left
	// untouched.
	Merge(other Pool) error

	// Clean removes every member from the pool without stopping them;
	// callers that need a clean shutdown should Stop first.
	Clean()
}

// New returns an empty Pool bound to ctx for its internal bookkeeping.
func New(ctx context.Context) Pool {
	return newPool(ctx)
}

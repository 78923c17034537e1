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

package pathmap

import (
	"sort"
	"sync"

	liberr "github.com/nabbar/httpedge/errors"
)

// Entry is one resolved binding: the key it was stored under, the value,
// and the portion of the looked-up path lying beyond the matched key.
type Entry struct {
	Key          PathKey
	Value        interface{}
	KeyRemainder PathKey
}

type binding struct {
	key PathKey
	val interface{}
	set bool
}

type node struct {
	children map[string]*node
	exact    binding
	wild     binding
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// TreePathMap is a radix-style tree over PathKey, with one node per unique
// path prefix. Each node holds at most one exact binding and at most one
// wildcard binding. Safe for concurrent use: Add takes a write lock, every
// read takes a read lock.
type TreePathMap struct {
	mu   sync.RWMutex
	root *node
}

// New returns an empty TreePathMap.
func New() *TreePathMap {
	return &TreePathMap{root: newNode()}
}

func (t *TreePathMap) walkTo(path []string, create bool) *node {
	n := t.root
	for _, c := range path {
		child, ok := n.children[c]
		if !ok {
			if !create {
				return nil
			}
			child = newNode()
			n.children[c] = child
		}
		n = child
	}
	return n
}

// Add installs value under key. It fails with CodeDuplicateKey if the
// node's matching slot (wildcard or exact, per key.Wildcard) is already
// occupied. A wildcard and an exact binding may coexist at the same path.
func (t *TreePathMap) Add(key PathKey, value interface{}) liberr.Error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.walkTo(key.Path, true)
	if key.Wildcard {
		if n.wild.set {
			return liberr.New(CodeDuplicateKey)
		}
		n.wild = binding{key: key, val: value, set: true}
	} else {
		if n.exact.set {
			return liberr.New(CodeDuplicateKey)
		}
		n.exact = binding{key: key, val: value, set: true}
	}
	return nil
}

// Find resolves key against the tree. A non-wildcard key prefers, in
// order: an exact binding at the terminal node, a wildcard binding at the
// terminal node, or the most specific wildcard binding encountered along
// the walk. A wildcard key only ever matches wildcard bindings.
func (t *TreePathMap) Find(key PathKey) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.findLocked(key)
}

// findLocked is Find's body without its own locking, so callers that
// already hold t.mu (such as FindSubtree) can reuse it without taking a
// second, nested RLock from the same goroutine.
func (t *TreePathMap) findLocked(key PathKey) (Entry, bool) {
	n := t.root
	var (
		bestWild  binding
		bestDepth int
		haveWild  bool
	)

	for i, c := range key.Path {
		if n.wild.set {
			bestWild = n.wild
			bestDepth = i
			haveWild = true
		}
		child, ok := n.children[c]
		if !ok {
			return t.resolve(key, nil, bestWild, bestDepth, haveWild)
		}
		n = child
	}

	return t.resolve(key, n, bestWild, len(key.Path), haveWild)
}

func (t *TreePathMap) resolve(key PathKey, terminal *node, bestWild binding, bestDepth int, haveWild bool) (Entry, bool) {
	if terminal != nil {
		if terminal.wild.set {
			bestWild = terminal.wild
			bestDepth = len(key.Path)
			haveWild = true
		}
		if !key.Wildcard && terminal.exact.set {
			return Entry{Key: terminal.exact.key, Value: terminal.exact.val, KeyRemainder: EmptyPathKey}, true
		}
	}

	if haveWild {
		return Entry{
			Key:          bestWild.key,
			Value:        bestWild.val,
			KeyRemainder: key.Slice(bestDepth, len(key.Path)),
		}, true
	}

	return Entry{}, false
}

// FindWithFallback yields Find(key) first, followed by every wildcard
// binding on the traversal path in decreasing order of specificity.
func (t *TreePathMap) FindWithFallback(key PathKey) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	type seen struct {
		b     binding
		depth int
	}
	var stack []seen

	n := t.root
	for i, c := range key.Path {
		if n.wild.set {
			stack = append(stack, seen{b: n.wild, depth: i})
		}
		child, ok := n.children[c]
		if !ok {
			n = nil
			break
		}
		n = child
	}

	var out []Entry
	var winner Entry
	hasWinner := false

	if n != nil {
		if n.wild.set {
			stack = append(stack, seen{b: n.wild, depth: len(key.Path)})
		}
		if !key.Wildcard && n.exact.set {
			winner = Entry{Key: n.exact.key, Value: n.exact.val, KeyRemainder: EmptyPathKey}
			hasWinner = true
		}
	}

	if !hasWinner && len(stack) > 0 {
		last := stack[len(stack)-1]
		winner = Entry{Key: last.b.key, Value: last.b.val, KeyRemainder: key.Slice(last.depth, len(key.Path))}
		hasWinner = true
		stack = stack[:len(stack)-1]
	}

	if !hasWinner {
		return nil
	}
	out = append(out, winner)

	for i := len(stack) - 1; i >= 0; i-- {
		s := stack[i]
		if winner.Key.Equals(s.b.key) {
			continue
		}
		out = append(out, Entry{Key: s.b.key, Value: s.b.val, KeyRemainder: key.Slice(s.depth, len(key.Path))})
	}

	return out
}

// FindSubtree returns the bindings reachable under key. For a non-wildcard
// key this is equivalent to a single Find wrapped in a one-entry map; for
// a wildcard key it collects every binding whose path starts with
// key.Path into a fresh TreePathMap.
func (t *TreePathMap) FindSubtree(key PathKey) *TreePathMap {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := New()

	if !key.Wildcard {
		if e, ok := t.findLocked(key); ok {
			_ = out.Add(e.Key, e.Value)
		}
		return out
	}

	n := t.walkTo(key.Path, false)
	if n == nil {
		return out
	}
	collect(n, out)
	return out
}

func collect(n *node, out *TreePathMap) {
	if n.exact.set {
		_ = out.Add(n.exact.key, n.exact.val)
	}
	if n.wild.set {
		_ = out.Add(n.wild.key, n.wild.val)
	}
	for _, child := range n.children {
		collect(child, out)
	}
}

// Entries returns every binding in the tree, ordered shorter-path-first,
// exact-before-wildcard at equal path length, and lexicographic among
// siblings. Implemented as a breadth-first walk so a node's own bindings
// are emitted before any binding in a deeper subtree, even across
// unrelated branches.
func (t *TreePathMap) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Entry
	queue := []*node{t.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if n.exact.set {
			out = append(out, Entry{Key: n.exact.key, Value: n.exact.val, KeyRemainder: EmptyPathKey})
		}
		if n.wild.set {
			out = append(out, Entry{Key: n.wild.key, Value: n.wild.val, KeyRemainder: EmptyPathKey})
		}

		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			queue = append(queue, n.children[k])
		}
	}
	return out
}

// Get is a convenience wrapper over Find that returns just the value.
func (t *TreePathMap) Get(key PathKey) (interface{}, bool) {
	e, ok := t.Find(key)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

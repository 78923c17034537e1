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

// Package pathmap implements PathKey, an immutable slash-path value type,
// and TreePathMap, a prefix tree keyed by PathKey with wildcard bindings.
package pathmap

import "strings"

// EmptyPathKey is the zero-length, non-wildcard PathKey.
var EmptyPathKey = PathKey{}

// PathKey is an immutable ordered sequence of path components plus a
// wildcard flag. The zero value is EmptyPathKey.
type PathKey struct {
	Path     []string
	Wildcard bool
}

// NewPathKey builds a PathKey from a slice of components; the slice is
// copied so the caller may reuse or mutate it afterward.
func NewPathKey(path []string, wildcard bool) PathKey {
	cp := make([]string, len(path))
	copy(cp, path)
	return PathKey{Path: cp, Wildcard: wildcard}
}

// Equals compares components element-wise plus the wildcard flag.
func (k PathKey) Equals(o PathKey) bool {
	if k.Wildcard != o.Wildcard || len(k.Path) != len(o.Path) {
		return false
	}
	for i := range k.Path {
		if k.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}

// Concat returns a new PathKey whose path is k's components followed by
// o's, keeping k's wildcard flag. Returns k unchanged if o is empty.
func (k PathKey) Concat(o PathKey) PathKey {
	if len(o.Path) == 0 {
		return k
	}
	out := make([]string, 0, len(k.Path)+len(o.Path))
	out = append(out, k.Path...)
	out = append(out, o.Path...)
	return PathKey{Path: out, Wildcard: k.Wildcard}
}

// Slice returns the PathKey over components [from:to), keeping the
// wildcard flag. Returns k unchanged if the bounds already cover the
// whole path.
func (k PathKey) Slice(from, to int) PathKey {
	if from <= 0 && to >= len(k.Path) {
		return k
	}
	out := make([]string, to-from)
	copy(out, k.Path[from:to])
	return PathKey{Path: out, Wildcard: k.Wildcard}
}

// WithWildcard returns a PathKey with the given wildcard flag, or the
// receiver unchanged if it already matches.
func (k PathKey) WithWildcard(w bool) PathKey {
	if k.Wildcard == w {
		return k
	}
	return PathKey{Path: k.Path, Wildcard: w}
}

// FormatOptions controls PathKey.String rendering.
type FormatOptions struct {
	Prefix         string
	Suffix         string
	Separator      string
	SeparatePrefix bool
	Quote          bool
	Reverse        bool
	Wildcard       string
}

// DefaultFormatOptions renders a PathKey as a conventional slash path,
// e.g. "/api/users/*".
var DefaultFormatOptions = FormatOptions{
	Separator:      "/",
	SeparatePrefix: true,
	Wildcard:       "*",
}

// String renders k using opts.
func (k PathKey) String(opts FormatOptions) string {
	parts := make([]string, len(k.Path))
	copy(parts, k.Path)

	if opts.Reverse {
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
	}

	if opts.Quote {
		for i, p := range parts {
			parts[i] = `"` + p + `"`
		}
	}

	if k.Wildcard && opts.Wildcard != "" {
		parts = append(parts, opts.Wildcard)
	}

	var b strings.Builder
	b.WriteString(opts.Prefix)
	if opts.SeparatePrefix && len(parts) > 0 {
		b.WriteString(opts.Separator)
	}
	b.WriteString(strings.Join(parts, opts.Separator))
	b.WriteString(opts.Suffix)
	return b.String()
}

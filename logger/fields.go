/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2021 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package logger

import "github.com/sirupsen/logrus"

// Fields is an immutable bag of structured log attributes: every mutator
// returns a new Fields rather than touching the receiver, so an Entry can
// hand its Fields out to FieldAdd/FieldMerge calls from concurrent
// goroutines without a data race.
type Fields map[string]interface{}

// NewFields returns an empty Fields.
func NewFields() Fields {
	return make(Fields)
}

func (f Fields) copyInto(dst Fields) Fields {
	for k, v := range f {
		dst[k] = v
	}
	return dst
}

// Add returns a copy of f with key set to val.
func (f Fields) Add(key string, val interface{}) Fields {
	return f.copyInto(make(Fields, len(f)+1)).set(key, val)
}

func (f Fields) set(key string, val interface{}) Fields {
	f[key] = val
	return f
}

// Map returns a copy of f with fct applied to every entry; fct returning nil
// for a key drops its transformed value but -- matching the original
// semantics -- leaves the untransformed entry in place rather than deleting
// the key, since the copy already carries it before fct runs.
func (f Fields) Map(fct func(key string, val interface{}) interface{}) Fields {
	res := f.copyInto(make(Fields, len(f)))
	for k, v := range res {
		if nv := fct(k, v); nv != nil {
			res[k] = nv
		}
	}
	return res
}

// Merge returns the union of f and other, with other's values winning on a
// key collision.
func (f Fields) Merge(other Fields) Fields {
	switch {
	case len(other) == 0:
		return f
	case len(f) == 0:
		return other
	}

	res := f.copyInto(make(Fields, len(f)+len(other)))
	return other.copyInto(res)
}

// Clean returns a copy of f with the named keys removed. Called with no
// keys, it returns an empty Fields.
func (f Fields) Clean(keys ...string) Fields {
	if len(keys) == 0 {
		return make(Fields)
	}

	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}

	res := make(Fields, len(f))
	for k, v := range f {
		if _, excluded := drop[k]; excluded {
			continue
		}
		res[k] = v
	}
	return res
}

// Logrus returns f as a plain map suitable for logrus.WithFields.
func (f Fields) Logrus() logrus.Fields {
	return logrus.Fields(f.copyInto(make(Fields, len(f))))
}

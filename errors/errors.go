/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errors

import (
	"errors"
	"strings"
)

type erx struct {
	code   CodeError
	parent []error
}

// New builds a new Error with the given code and an optional set of parent
// errors. A nil parent is silently dropped.
func New(code CodeError, parent ...error) Error {
	e := &erx{code: code}
	return e.Add(parent...)
}

func (e *erx) Error() string {
	msg := getMessage(e.code)

	var parts []string
	if msg != NullMessage {
		parts = append(parts, msg)
	}
	for _, p := range e.parent {
		if p != nil {
			parts = append(parts, p.Error())
		}
	}

	if len(parts) == 0 {
		return UnknownMessage
	}
	return strings.Join(parts, ": ")
}

func (e *erx) IsCode(code CodeError) bool {
	return e.code == code
}

func (e *erx) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}
	for _, p := range e.parent {
		var pe Error
		if errors.As(p, &pe) && pe.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *erx) GetCode() CodeError {
	return e.code
}

func (e *erx) GetParentCode() []CodeError {
	out := []CodeError{e.code}
	for _, p := range e.parent {
		var pe Error
		if errors.As(p, &pe) {
			out = append(out, pe.GetParentCode()...)
		}
	}
	return out
}

func (e *erx) Is(target error) bool {
	var te Error
	if errors.As(target, &te) {
		return e.IsCode(te.GetCode())
	}
	for _, p := range e.parent {
		if errors.Is(p, target) {
			return true
		}
	}
	return false
}

func (e *erx) Unwrap() error {
	if len(e.parent) == 0 {
		return nil
	} else if len(e.parent) == 1 {
		return e.parent[0]
	}
	return errors.Join(e.parent...)
}

func (e *erx) Add(err ...error) Error {
	for _, p := range err {
		if p != nil {
			e.parent = append(e.parent, p)
		}
	}
	return e
}

func (e *erx) HasParent() bool {
	return len(e.parent) > 0
}

func (e *erx) GetParent(withMainError bool) []error {
	out := make([]error, 0, len(e.parent)+1)
	if withMainError {
		out = append(out, e)
	}
	out = append(out, e.parent...)
	return out
}

func (e *erx) Map(fct FuncMap) bool {
	if fct == nil {
		return false
	}
	if !fct(e) {
		return false
	}
	for _, p := range e.parent {
		if !fct(p) {
			return false
		}
		var pe Error
		if errors.As(p, &pe) {
			if !pe.Map(fct) {
				return false
			}
		}
	}
	return true
}

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
	"math"
	"strconv"
	"sync"
)

// CodeError represents a numeric error code similar to HTTP status codes.
type CodeError uint16

const (
	// UnknownError is used as a fallback when no more specific code applies.
	UnknownError CodeError = 0

	UnknownMessage = "unknown error"
	NullMessage    = ""
)

// ParseCodeError clamps an arbitrary integer into the CodeError range.
func ParseCodeError(i int64) CodeError {
	if i < 0 {
		return UnknownError
	} else if i >= int64(math.MaxUint16) {
		return math.MaxUint16
	}
	return CodeError(i)
}

func (c CodeError) Uint16() uint16 {
	return uint16(c)
}

func (c CodeError) Int() int {
	return int(c)
}

func (c CodeError) String() string {
	return strconv.Itoa(c.Int())
}

// Message generates the human-readable text for a CodeError.
type Message func(code CodeError) string

var (
	idMsgMutex sync.RWMutex
	idMsgFct   = make(map[CodeError]Message)
)

// RegisterIdFctMessage associates a message function with a single code.
// Packages call this from an init() for every CodeError they define.
func RegisterIdFctMessage(code CodeError, fct Message) {
	idMsgMutex.Lock()
	defer idMsgMutex.Unlock()
	idMsgFct[code] = fct
}

func getMessage(code CodeError) string {
	idMsgMutex.RLock()
	fct, ok := idMsgFct[code]
	idMsgMutex.RUnlock()

	if !ok || fct == nil {
		if code == UnknownError {
			return UnknownMessage
		}
		return NullMessage
	}
	return fct(code)
}

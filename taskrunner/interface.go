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

// Package taskrunner implements the two-phase start/main task lifecycle
// shared by every long-running component in this module: a start phase that
// must settle before the main phase begins, advisory stop signaling instead
// of forced cancellation, and futures that let concurrent callers observe
// either phase settling without racing each other.
package taskrunner

import "context"

// State is the TaskRunner lifecycle stage.
type State uint8

const (
	Idle State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "idle"
	}
}

// Access is handed to StartFunc and MainFunc so they can cooperate with a
// Stop request without owning a cancel func themselves.
type Access interface {
	ShouldStop() bool
	Done() <-chan struct{}

	// RaceStop blocks until a stop is requested, done closes, or ctx is
	// done, whichever happens first. It reports true when stop won the
	// race. If the runner isn't running at all, it returns true promptly.
	RaceStop(ctx context.Context, done <-chan struct{}) (stoppedFirst bool, err error)
}

// StartFunc performs one-time setup before the main phase begins.
type StartFunc func(ctx context.Context, acc Access) error

// MainFunc is the long-running body of the task; it should return once
// acc.ShouldStop() (or acc.Done()) fires.
type MainFunc func(ctx context.Context, acc Access) error

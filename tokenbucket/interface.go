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

// Package tokenbucket implements a fractional-accrual token bucket with a
// FIFO wait queue for grants that cannot be satisfied immediately.
package tokenbucket

import (
	"context"
	"time"
)

// Reason explains why a Grant settled the way it did.
type Reason uint8

const (
	ReasonGrant Reason = iota
	ReasonFull
	ReasonStopping
)

// Grant is the outcome of a RequestGrant/RequestGrantN call.
type Grant struct {
	Granted      bool
	Amount       float64
	Reason       Reason
	WaitDuration time.Duration
}

// TakeResult is the outcome of a non-blocking TakeNow call.
type TakeResult struct {
	Granted   bool
	Amount    float64
	WaitUntil time.Time
}

// State is a point-in-time snapshot of the bucket, as of the last
// mutating call; it never consults the time source on its own.
type State struct {
	AvailableBurstSize float64
	AvailableQueueSize float64
	WaiterCount        int
	Now                time.Time
}

// Config parameterizes a Bucket. Now defaults to time.Now when nil;
// supplying a time source also hands its owner the job of driving queued
// dispatch, which then happens on the owner's own bucket operations rather
// than on an internal timer that could never see the injected clock move.
type Config struct {
	FlowRate          float64
	MaxBurstSize      float64
	InitialBurstSize  float64
	MaxQueueSize      float64
	MaxQueueGrantSize float64
	PartialTokens     bool
	Now               func() time.Time
}

// Bucket is a thread-safe token bucket; every method acquires an internal
// mutex, no external synchronization is required.
type Bucket interface {
	RequestGrant(ctx context.Context, minInclusive, maxInclusive float64) (Grant, error)
	RequestGrantN(ctx context.Context, n float64) (Grant, error)
	TakeNow(minInclusive, maxInclusive float64) TakeResult
	DenyAllRequests(ctx context.Context) error
	LatestState() State
}

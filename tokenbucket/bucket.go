/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package tokenbucket

import (
	"context"
	"math"
	"sync"
	"time"

	liberr "github.com/nabbar/httpedge/errors"
)

type waiter struct {
	target   float64
	enqueue  time.Time
	resultCh chan Grant
}

type bucket struct {
	mu sync.Mutex

	flowRate      float64
	maxBurst      float64
	maxQueueSize  float64
	maxQueueGrant float64
	partial       bool
	clock         func() time.Time
	wallClock     bool

	burst      float64
	lastRefill time.Time

	queueUsed float64
	waiters   []*waiter

	// wakeup fires when the head waiter's target should be covered by
	// accrual, so queued grants complete on time even when the bucket is
	// otherwise idle.
	wakeup *time.Timer

	denying   bool
	lastState State
}

// New validates cfg and returns a ready Bucket seeded with
// cfg.InitialBurstSize, used as given (zero starts the bucket empty).
// MaxQueueGrantSize defaults to MaxBurstSize when zero; that default is
// applied before validation so a caller that only sets FlowRate/MaxBurstSize
// gets a bucket that actually rate-limits once burst is exhausted, instead of
// a zero-size queued grant that dispatches immediately.
func New(cfg Config) (Bucket, error) {
	if cfg.FlowRate < 0 || math.IsNaN(cfg.FlowRate) || math.IsInf(cfg.FlowRate, 0) {
		return nil, liberr.New(CodeInvalidFlowRate)
	}
	if cfg.MaxBurstSize <= 0 || math.IsNaN(cfg.MaxBurstSize) || math.IsInf(cfg.MaxBurstSize, 0) {
		return nil, liberr.New(CodeInvalidBurstSize)
	}

	initialBurst := cfg.InitialBurstSize
	if initialBurst > cfg.MaxBurstSize {
		return nil, liberr.New(CodeInvalidInitialBurst)
	}

	maxQueue := cfg.MaxQueueSize
	if maxQueue <= 0 {
		maxQueue = math.Inf(1)
	}

	maxQueueGrant := cfg.MaxQueueGrantSize
	if maxQueueGrant == 0 {
		maxQueueGrant = cfg.MaxBurstSize
	}
	if maxQueueGrant > math.Min(cfg.MaxBurstSize, maxQueue) {
		return nil, liberr.New(CodeInvalidQueueGrant)
	}

	clock := cfg.Now
	wallClock := clock == nil
	if wallClock {
		clock = time.Now
	}
	now := clock()

	b := &bucket{
		flowRate:      cfg.FlowRate,
		maxBurst:      cfg.MaxBurstSize,
		maxQueueSize:  maxQueue,
		maxQueueGrant: maxQueueGrant,
		partial:       cfg.PartialTokens,
		clock:         clock,
		wallClock:     wallClock,
		burst:         initialBurst,
		lastRefill:    now,
	}
	b.lastState = b.snapshotLocked(now)
	return b, nil
}

func (b *bucket) refillLocked(now time.Time) {
	if b.denying {
		b.lastRefill = now
		return
	}
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.burst = math.Min(b.maxBurst, b.burst+b.flowRate*elapsed)
		b.lastRefill = now
	}
}

func (b *bucket) usableLocked() float64 {
	if b.partial {
		return b.burst
	}
	return math.Floor(b.burst)
}

func (b *bucket) availableQueueLocked() float64 {
	if math.IsInf(b.maxQueueSize, 1) {
		return math.MaxInt64
	}
	return b.maxQueueSize - b.queueUsed
}

func (b *bucket) snapshotLocked(now time.Time) State {
	return State{
		AvailableBurstSize: b.usableLocked(),
		AvailableQueueSize: b.availableQueueLocked(),
		WaiterCount:        len(b.waiters),
		Now:                now,
	}
}

// dispatchWaitersLocked grants every queued waiter, in order, whose target
// is now covered by accrued burst.
func (b *bucket) dispatchWaitersLocked(now time.Time) {
	for len(b.waiters) > 0 {
		w := b.waiters[0]
		if b.usableLocked() < w.target {
			break
		}

		amt := w.target
		if !b.partial {
			amt = math.Floor(amt)
		}

		b.burst -= amt
		b.queueUsed -= w.target
		b.waiters = b.waiters[1:]

		select {
		case w.resultCh <- Grant{Granted: true, Amount: amt, Reason: ReasonGrant, WaitDuration: now.Sub(w.enqueue)}:
		default:
		}
		close(w.resultCh)
	}
}

// rescheduleLocked arms (or disarms) the wakeup timer for the head waiter.
// The timer runs only when the bucket is on the wall clock: an injected
// time source makes its owner the driver of time, and a real timer would
// re-arm forever without ever observing that clock advance, so dispatch
// under an injected clock happens on the owner's own bucket operations
// instead.
func (b *bucket) rescheduleLocked() {
	if b.wakeup != nil {
		b.wakeup.Stop()
		b.wakeup = nil
	}
	if !b.wallClock || b.denying || len(b.waiters) == 0 || b.flowRate <= 0 {
		return
	}

	target := b.waiters[0].target
	if !b.partial {
		target = math.Ceil(target)
	}
	need := target - b.burst
	d := time.Duration(need / b.flowRate * float64(time.Second))
	if d < time.Millisecond {
		d = time.Millisecond
	}
	b.wakeup = time.AfterFunc(d, b.wake)
}

func (b *bucket) wake() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock()
	b.refillLocked(now)
	b.dispatchWaitersLocked(now)
	b.lastState = b.snapshotLocked(now)
	b.rescheduleLocked()
}

// removeWaiter pulls w out of the queue, reporting false when w was already
// dispatched (granted or denied) before the caller got here.
func (b *bucket) removeWaiter(w *waiter) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, x := range b.waiters {
		if x == w {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			b.queueUsed -= w.target
			b.rescheduleLocked()
			return true
		}
	}
	return false
}

func (b *bucket) RequestGrantN(ctx context.Context, n float64) (Grant, error) {
	return b.RequestGrant(ctx, n, n)
}

func (b *bucket) RequestGrant(ctx context.Context, minInclusive, maxInclusive float64) (Grant, error) {
	b.mu.Lock()

	now := b.clock()
	b.refillLocked(now)
	b.dispatchWaitersLocked(now)

	if b.denying {
		b.lastState = b.snapshotLocked(now)
		b.mu.Unlock()
		return Grant{Granted: false, Reason: ReasonStopping}, nil
	}

	if minInclusive == 0 {
		amt := math.Min(maxInclusive, b.usableLocked())
		b.burst -= amt
		b.lastState = b.snapshotLocked(now)
		b.mu.Unlock()
		return Grant{Granted: true, Amount: amt, Reason: ReasonGrant}, nil
	}

	if len(b.waiters) == 0 {
		if usable := b.usableLocked(); usable >= minInclusive {
			amt := math.Min(maxInclusive, usable)
			b.burst -= amt
			b.lastState = b.snapshotLocked(now)
			b.mu.Unlock()
			return Grant{Granted: true, Amount: amt, Reason: ReasonGrant}, nil
		}
	}

	target := math.Min(maxInclusive, b.maxQueueGrant)
	if b.queueUsed+target > b.maxQueueSize {
		b.lastState = b.snapshotLocked(now)
		b.mu.Unlock()
		return Grant{Granted: false, Reason: ReasonFull}, nil
	}

	w := &waiter{target: target, enqueue: now, resultCh: make(chan Grant, 1)}
	b.waiters = append(b.waiters, w)
	b.queueUsed += target
	b.lastState = b.snapshotLocked(now)
	b.rescheduleLocked()
	b.mu.Unlock()

	select {
	case g := <-w.resultCh:
		return g, nil
	case <-ctx.Done():
		if b.removeWaiter(w) {
			return Grant{}, ctx.Err()
		}
		// Lost the race: the waiter settled between ctx firing and the
		// removal attempt. The grant already debited the bucket, so hand it
		// to the caller rather than leaking the tokens.
		return <-w.resultCh, nil
	}
}

func (b *bucket) TakeNow(minInclusive, maxInclusive float64) TakeResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock()
	b.refillLocked(now)
	b.dispatchWaitersLocked(now)

	usable := b.usableLocked()

	if minInclusive == 0 {
		amt := math.Min(maxInclusive, usable)
		b.burst -= amt
		b.lastState = b.snapshotLocked(now)
		return TakeResult{Granted: true, Amount: amt}
	}

	if len(b.waiters) == 0 && usable >= minInclusive {
		amt := math.Min(maxInclusive, usable)
		b.burst -= amt
		b.lastState = b.snapshotLocked(now)
		return TakeResult{Granted: true, Amount: amt}
	}

	var wait time.Duration
	if b.flowRate > 0 {
		needed := b.queueUsed + b.maxQueueGrant - usable
		if needed > 0 {
			wait = time.Duration(needed / b.flowRate * float64(time.Second))
		}
	}

	b.lastState = b.snapshotLocked(now)
	return TakeResult{Granted: false, WaitUntil: now.Add(wait)}
}

func (b *bucket) DenyAllRequests(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.denying = true
	now := b.clock()

	for _, w := range b.waiters {
		select {
		case w.resultCh <- Grant{Granted: false, Reason: ReasonStopping, WaitDuration: now.Sub(w.enqueue)}:
		default:
		}
		close(w.resultCh)
	}
	b.waiters = nil
	b.queueUsed = 0
	b.lastState = b.snapshotLocked(now)
	b.rescheduleLocked()

	return nil
}

func (b *bucket) LatestState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastState
}

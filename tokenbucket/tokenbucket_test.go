/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package tokenbucket_test

import (
	"context"
	"sync"
	"testing"
	"time"

	libtb "github.com/nabbar/httpedge/tokenbucket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTokenBucket(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "tokenbucket suite")
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeClock is a mutex-guarded manual clock, safe to advance from the test
// goroutine while the bucket's own wakeup timer reads it concurrently.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{cur: start}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

var _ = Describe("Bucket construction", func() {
	It("rejects an initial burst above the max burst", func() {
		_, err := libtb.New(libtb.Config{MaxBurstSize: 10, InitialBurstSize: 20})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a queue grant above min(max burst, max queue)", func() {
		_, err := libtb.New(libtb.Config{MaxBurstSize: 10, MaxQueueSize: 5, MaxQueueGrantSize: 6})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("RequestGrant", func() {
	It("grants a zero-minimum request immediately with whatever is usable", func() {
		b, err := libtb.New(libtb.Config{FlowRate: 1, MaxBurstSize: 10, InitialBurstSize: 3})
		Expect(err).ToNot(HaveOccurred())

		g, err := b.RequestGrant(context.Background(), 0, 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(g.Granted).To(BeTrue())
		Expect(g.Amount).To(Equal(3.0))
		Expect(g.WaitDuration).To(BeZero())
	})

	It("grants synchronously when enough burst is usable and no one is queued", func() {
		b, err := libtb.New(libtb.Config{FlowRate: 1, MaxBurstSize: 10, InitialBurstSize: 10})
		Expect(err).ToNot(HaveOccurred())

		g, err := b.RequestGrant(context.Background(), 2, 4)
		Expect(err).ToNot(HaveOccurred())
		Expect(g.Granted).To(BeTrue())
		Expect(g.Amount).To(Equal(4.0))
	})

	It("floors fractional burst when PartialTokens is false", func() {
		now := time.Now()
		b, err := libtb.New(libtb.Config{
			FlowRate: 0, MaxBurstSize: 10, InitialBurstSize: 2.5,
			PartialTokens: false, Now: fixedClock(now),
		})
		Expect(err).ToNot(HaveOccurred())

		g, err := b.RequestGrant(context.Background(), 2, 4)
		Expect(err).ToNot(HaveOccurred())
		Expect(g.Granted).To(BeTrue())
		Expect(g.Amount).To(Equal(2.0))
	})

	It("denies immediately when enqueuing would exceed MaxQueueSize", func() {
		b, err := libtb.New(libtb.Config{
			FlowRate: 0, MaxBurstSize: 10, InitialBurstSize: 0,
			MaxQueueSize: 1, MaxQueueGrantSize: 1,
		})
		Expect(err).ToNot(HaveOccurred())

		// Occupy the single slot of queue capacity with a waiter that never
		// drains (FlowRate is 0), so the next request's target genuinely
		// overflows MaxQueueSize instead of exactly filling it.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		parked := make(chan libtb.Grant, 1)
		go func() {
			g, _ := b.RequestGrant(ctx, 1, 1)
			parked <- g
		}()

		Eventually(func() int { return b.LatestState().WaiterCount }).Should(Equal(1))

		g, err := b.RequestGrant(context.Background(), 5, 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(g.Granted).To(BeFalse())
		Expect(g.Reason).To(Equal(libtb.ReasonFull))

		cancel()
		Eventually(parked, time.Second).Should(Receive())
	})

	It("queues a request and grants it once enough tokens accrue", func() {
		clk := newFakeClock(time.Now())
		b, err := libtb.New(libtb.Config{
			FlowRate: 10, MaxBurstSize: 100, InitialBurstSize: 0,
			MaxQueueSize: 100, MaxQueueGrantSize: 50,
			Now: clk.now,
		})
		Expect(err).ToNot(HaveOccurred())

		done := make(chan libtb.Grant, 1)
		go func() {
			g, _ := b.RequestGrant(context.Background(), 10, 10)
			done <- g
		}()

		Eventually(func() int {
			return b.LatestState().WaiterCount
		}).Should(Equal(1))

		clk.advance(2 * time.Second)
		// A later call from another goroutine advances the clock and drains the queue.
		Eventually(func() libtb.Grant {
			_ = b.TakeNow(0, 0)
			select {
			case g := <-done:
				return g
			default:
				return libtb.Grant{}
			}
		}, time.Second).Should(HaveField("Granted", BeTrue()))
	})

	It("serves queued waiters strictly in enqueue order", func() {
		clk := newFakeClock(time.Now())
		b, err := libtb.New(libtb.Config{
			FlowRate: 1, MaxBurstSize: 100, InitialBurstSize: 0,
			MaxQueueSize: 100, MaxQueueGrantSize: 50,
			Now: clk.now,
		})
		Expect(err).ToNot(HaveOccurred())

		order := make(chan int, 2)

		go func() {
			_, _ = b.RequestGrant(context.Background(), 2, 2)
			order <- 1
		}()
		Eventually(func() int { return b.LatestState().WaiterCount }).Should(Equal(1))

		go func() {
			_, _ = b.RequestGrant(context.Background(), 1, 1)
			order <- 2
		}()
		Eventually(func() int { return b.LatestState().WaiterCount }).Should(Equal(2))

		// One accrued token covers the second waiter's request but not the
		// head's; FIFO means nobody is served yet.
		clk.advance(time.Second)
		_ = b.TakeNow(0, 0)
		Consistently(order, 50*time.Millisecond).ShouldNot(Receive())

		// A second token satisfies the head; only then is it dispatched.
		clk.advance(time.Second)
		_ = b.TakeNow(0, 0)

		var first int
		Eventually(order, time.Second).Should(Receive(&first))
		Expect(first).To(Equal(1))
		Consistently(order, 50*time.Millisecond).ShouldNot(Receive())

		clk.advance(time.Second)
		_ = b.TakeNow(0, 0)

		var second int
		Eventually(order, time.Second).Should(Receive(&second))
		Expect(second).To(Equal(2))
	})

	It("cancels a queued waiter when ctx is done", func() {
		b, err := libtb.New(libtb.Config{
			FlowRate: 0, MaxBurstSize: 10, InitialBurstSize: 0,
			MaxQueueSize: 10, MaxQueueGrantSize: 10,
		})
		Expect(err).ToNot(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err = b.RequestGrant(ctx, 5, 5)
		Expect(err).To(MatchError(context.DeadlineExceeded))
	})
})

var _ = Describe("TakeNow", func() {
	It("never enqueues, returning a projected WaitUntil when it can't grant", func() {
		b, err := libtb.New(libtb.Config{
			FlowRate: 1, MaxBurstSize: 10, InitialBurstSize: 0, MaxQueueGrantSize: 5,
		})
		Expect(err).ToNot(HaveOccurred())

		r := b.TakeNow(5, 5)
		Expect(r.Granted).To(BeFalse())
		Expect(r.WaitUntil).ToNot(BeZero())
		Expect(b.LatestState().WaiterCount).To(Equal(0))
	})
})

var _ = Describe("LatestState", func() {
	It("is a snapshot of the last mutating call, not a live read", func() {
		clk := newFakeClock(time.Now())
		b, err := libtb.New(libtb.Config{
			FlowRate: 1, MaxBurstSize: 10, InitialBurstSize: 5, Now: clk.now,
		})
		Expect(err).ToNot(HaveOccurred())

		_, _ = b.RequestGrant(context.Background(), 0, 1)
		before := b.LatestState()

		clk.advance(3 * time.Second)
		after := b.LatestState()

		Expect(after.Now).To(Equal(before.Now))
		Expect(after.AvailableBurstSize).To(Equal(before.AvailableBurstSize))
	})
})

var _ = Describe("DenyAllRequests", func() {
	It("releases three queued waiters with the elapsed wait since each enqueued", func() {
		clk := newFakeClock(time.Unix(10000, 0))
		b, err := libtb.New(libtb.Config{
			FlowRate: 1, MaxBurstSize: 1000, InitialBurstSize: 0, Now: clk.now,
		})
		Expect(err).ToNot(HaveOccurred())

		grants := make(chan libtb.Grant, 3)
		for _, n := range []float64{1, 2, 3} {
			n := n
			go func() {
				g, _ := b.RequestGrant(context.Background(), n, n)
				grants <- g
			}()
		}
		Eventually(func() int { return b.LatestState().WaiterCount }).Should(Equal(3))

		clk.advance(987 * time.Millisecond)
		Expect(b.DenyAllRequests(context.Background())).To(Succeed())

		for i := 0; i < 3; i++ {
			var g libtb.Grant
			Eventually(grants, time.Second).Should(Receive(&g))
			Expect(g.Granted).To(BeFalse())
			Expect(g.Amount).To(BeZero())
			Expect(g.Reason).To(Equal(libtb.ReasonStopping))
			Expect(g.WaitDuration).To(Equal(987 * time.Millisecond))
		}
	})

	It("releases every queued waiter with ReasonStopping", func() {
		b, err := libtb.New(libtb.Config{
			FlowRate: 0, MaxBurstSize: 10, InitialBurstSize: 0,
			MaxQueueSize: 10, MaxQueueGrantSize: 10,
		})
		Expect(err).ToNot(HaveOccurred())

		done := make(chan libtb.Grant, 1)
		go func() {
			g, _ := b.RequestGrant(context.Background(), 5, 5)
			done <- g
		}()

		Eventually(func() int { return b.LatestState().WaiterCount }).Should(Equal(1))

		Expect(b.DenyAllRequests(context.Background())).To(Succeed())

		var g libtb.Grant
		Eventually(done, time.Second).Should(Receive(&g))
		Expect(g.Granted).To(BeFalse())
		Expect(g.Reason).To(Equal(libtb.ReasonStopping))
	})
})

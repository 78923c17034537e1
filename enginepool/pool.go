/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package enginepool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	libcnx "github.com/nabbar/httpedge/connctx"
	libep "github.com/nabbar/httpedge/endpoint"
	liberr "github.com/nabbar/httpedge/errors"
)

type pool struct {
	p libcnx.Config[string]
}

func newPool(ctx context.Context) *pool {
	return &pool{p: libcnx.New[string](ctx)}
}

func (o *pool) Walk(fct FuncWalk) {
	o.WalkLimit(fct)
}

func (o *pool) WalkLimit(fct FuncWalk, names ...string) {
	if fct == nil {
		return
	}
	o.p.WalkLimit(func(key string, val interface{}) bool {
		w, ok := val.(*libep.Wrangler)
		if !ok {
			return true
		}
		return fct(key, w)
	}, names...)
}

func (o *pool) Load(name string) *libep.Wrangler {
	i, ok := o.p.Load(name)
	if !ok {
		return nil
	}
	w, ok := i.(*libep.Wrangler)
	if !ok {
		return nil
	}
	return w
}

func (o *pool) Store(w *libep.Wrangler) {
	if w == nil {
		return
	}
	o.p.Store(w.Name(), w)
}

func (o *pool) Delete(name string) {
	o.p.Delete(name)
}

func (o *pool) Has(name string) bool {
	_, ok := o.p.Load(name)
	return ok
}

func (o *pool) Len() int {
	n := 0
	o.p.Walk(func(key string, val interface{}) bool {
		n++
		return true
	})
	return n
}

func (o *pool) Clean() {
	o.p.Clean()
}

// Start fans every member out to its own goroutine via errgroup.Group so a
// slow or failing endpoint never delays the others from being attempted. It
// deliberately does not use errgroup.WithContext's cancel-on-first-error
// behavior: every member gets a chance to start regardless of a sibling's
// failure, and every failure (not just the first) is folded into the
// returned errors.Error.
func (o *pool) Start(ctx context.Context) error {
	var grp errgroup.Group
	var mu sync.Mutex

	out := liberr.New(CodeStart)
	had := false

	o.Walk(func(name string, w *libep.Wrangler) bool {
		grp.Go(func() error {
			if err := w.Start(ctx); err != nil {
				mu.Lock()
				out.Add(err)
				had = true
				mu.Unlock()
			}
			return nil
		})
		return true
	})

	_ = grp.Wait()
	if !had {
		return nil
	}
	return out
}

// Stop mirrors Start: every member is asked to stop concurrently, with
// willReload passed through unchanged as an advisory hint.
func (o *pool) Stop(ctx context.Context, willReload bool) error {
	var grp errgroup.Group
	var mu sync.Mutex

	out := liberr.New(CodeStop)
	had := false

	o.Walk(func(name string, w *libep.Wrangler) bool {
		grp.Go(func() error {
			if err := w.Stop(ctx, willReload); err != nil {
				mu.Lock()
				out.Add(err)
				had = true
				mu.Unlock()
			}
			return nil
		})
		return true
	})

	_ = grp.Wait()
	if !had {
		return nil
	}
	return out
}

func (o *pool) IsRunning() bool {
	running := false
	o.Walk(func(name string, w *libep.Wrangler) bool {
		if w.IsRunning() {
			running = true
			return false
		}
		return true
	})
	return running
}

// Merge replaces this pool's entry for every endpoint present in other
// (matched by name), and adds entries other carries that this pool doesn't
// yet have. Endpoints this pool holds but other doesn't are left alone.
func (o *pool) Merge(other Pool) error {
	if other == nil {
		return nil
	}

	out := liberr.New(CodeMerge)
	had := false

	other.Walk(func(name string, w *libep.Wrangler) bool {
		if w == nil {
			out.Add(liberr.New(CodeUnknownName))
			had = true
			return true
		}
		o.Store(w)
		return true
	})

	if !had {
		return nil
	}
	return out
}

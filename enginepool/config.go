/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package enginepool

import (
	"context"

	libep "github.com/nabbar/httpedge/endpoint"
	liberr "github.com/nabbar/httpedge/errors"
)

// FuncWalkConfig is called once per member config by Config.Walk. Returning
// false stops the iteration early.
type FuncWalkConfig func(cfg libep.Config) bool

// Config is a pool specified declaratively, before any endpoint has been
// built or validated.
type Config []libep.Config

func (c Config) Walk(fct FuncWalkConfig) {
	if fct == nil {
		return
	}
	for _, cfg := range c {
		if !fct(cfg) {
			return
		}
	}
}

// Validate runs every member's own Validate up front, so a Pool never ends
// up half-built: either every endpoint's config is sound, or none of them
// are started.
func (c Config) Validate() liberr.Error {
	out := liberr.New(CodeInvalidConfig)
	had := false

	seen := make(map[string]struct{}, len(c))
	c.Walk(func(cfg libep.Config) bool {
		if err := cfg.Validate(); err != nil {
			out.Add(err)
			had = true
		}
		if _, dup := seen[cfg.Name]; dup {
			out.Add(liberr.New(CodeDuplicateName))
			had = true
		}
		seen[cfg.Name] = struct{}{}
		return true
	})

	if !had {
		return nil
	}
	return out
}

// Pool validates every member config, builds an endpoint.Wrangler for each,
// and stores the successfully built ones into a fresh Pool bound to ctx. If
// validation fails, nothing is built and a nil Pool is returned with the
// validation error. Otherwise a single aggregated build error is returned
// alongside the (possibly partial) Pool so a caller can decide whether a
// partial build is acceptable.
func (c Config) Pool(ctx context.Context) (Pool, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := newPool(ctx)
	out := liberr.New(CodeInvalidConfig)
	had := false

	c.Walk(func(cfg libep.Config) bool {
		w, err := libep.New(cfg)
		if err != nil {
			out.Add(err)
			had = true
			return true
		}
		p.Store(w)
		return true
	})

	if had {
		return p, out
	}
	return p, nil
}

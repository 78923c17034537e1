/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

// Command feserver is a deliberately thin example binary: it wires the
// engine's packages together from a handful of flags. It is not a CLI
// framework and carries no config-file parsing of its own; real callers are
// expected to build Config values programmatically instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	libpool "github.com/nabbar/httpedge/enginepool"
	libep "github.com/nabbar/httpedge/endpoint"
	liblog "github.com/nabbar/httpedge/logger"
	libpm "github.com/nabbar/httpedge/pathmap"
	libtb "github.com/nabbar/httpedge/tokenbucket"
)

func main() {
	var (
		name       = flag.String("name", "feserver", "endpoint name, used in logs and metrics")
		address    = flag.String("address", "", "interface to bind; empty means all interfaces")
		port       = flag.Int("port", 8080, "TCP port to listen on")
		maxBody    = flag.Int64("max-body-bytes", 1<<20, "request body cap in bytes; 0 means unbounded")
		flowRate   = flag.Float64("rate-flow", 0, "request-rate limiter tokens/sec; 0 disables the limiter")
		burst      = flag.Float64("rate-burst", 0, "request-rate limiter max burst size")
		shutdownOf = flag.Duration("shutdown-timeout", 10*time.Second, "grace period for in-flight requests on shutdown")
	)
	flag.Parse()

	log := liblog.New(os.Stderr)
	logFn := func() liblog.Logger { return log }

	routes := libpm.New()
	_ = routes.Add(libpm.NewPathKey([]string{""}, false), http.StatusOK)
	_ = routes.Add(libpm.NewPathKey([]string{"healthz"}, false), http.StatusOK)

	handler := func(ctx context.Context, req *libep.IncomingRequest) (*libep.Response, error) {
		if _, ok := routes.Get(req.PathKey); !ok {
			return nil, nil
		}
		return &libep.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
			Body:       []byte("ok\n"),
		}, nil
	}

	cfg := libep.Config{
		Name:                *name,
		Address:             *address,
		Port:                *port,
		Protocol:            libep.ProtocolHTTP1,
		MaxRequestBodyBytes: *maxBody,
		Handler:             handler,
		Logger:              logFn,
	}

	if *flowRate > 0 && *burst > 0 {
		b, err := libtb.New(libtb.Config{FlowRate: *flowRate, MaxBurstSize: *burst, InitialBurstSize: *burst})
		if err != nil {
			fmt.Fprintf(os.Stderr, "feserver: rate limiter config: %v\n", err)
			os.Exit(1)
		}
		cfg.RequestLimiter = libep.NewBucketLimiter(b)
	}

	pool := libpool.New(context.Background())
	w, err := libep.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "feserver: %v\n", err)
		os.Exit(1)
	}
	pool.Store(w)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := pool.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "feserver: start: %v\n", err)
		os.Exit(1)
	}
	log.Entry(liblog.InfoLevel, "feserver listening").FieldAdd("address", *address).FieldAdd("port", *port).Log()

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), *shutdownOf)
	defer stopCancel()
	if err := pool.Stop(stopCtx, false); err != nil {
		fmt.Fprintf(os.Stderr, "feserver: stop: %v\n", err)
		os.Exit(1)
	}
}

/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"

	"github.com/hashicorp/go-uuid"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"

	libatm "github.com/nabbar/httpedge/atomic"
	libcnx "github.com/nabbar/httpedge/connctx"
	liberr "github.com/nabbar/httpedge/errors"
	liblog "github.com/nabbar/httpedge/logger"
	libtask "github.com/nabbar/httpedge/taskrunner"
)

type connKey struct{}

// sessionRegistry tracks one connctx.Config per live connection, keyed by a
// per-connection UUID stamped in via http.Server.ConnContext. It lets a
// request handler (or another endpoint collaborator) stash per-connection
// state without the async-local-storage pattern Go doesn't have.
type sessionRegistry struct {
	conns  libcnx.Config[string]
	byConn libatm.MapTyped[net.Conn, string]
}

func newSessionRegistry(ctx context.Context) *sessionRegistry {
	return &sessionRegistry{
		conns:  libcnx.New[string](ctx),
		byConn: libatm.NewMapTyped[net.Conn, string](),
	}
}

func (s *sessionRegistry) connContext(ctx context.Context, c net.Conn) context.Context {
	id, err := uuid.GenerateUUID()
	if err != nil {
		id = "unidentified"
	}
	s.conns.Store(id, struct{}{})
	s.byConn.Store(c, id)
	return context.WithValue(ctx, connKey{}, id)
}

func (s *sessionRegistry) connState(c net.Conn, state http.ConnState) {
	if state != http.StateClosed && state != http.StateHijacked {
		return
	}
	if id, ok := s.byConn.LoadAndDelete(c); ok {
		s.conns.Delete(id)
	}
}

// connAdmission wraps sessionRegistry.connState with the connection-rate
// check from step 4 of the request flow: a freshly accepted connection that
// the ConnectionLimiter denies is closed before any request on it is ever
// parsed.
func connAdmission(s *sessionRegistry, limiter RateLimiter, logger liblog.FuncLog, metrics *Metrics) func(net.Conn, http.ConnState) {
	return func(c net.Conn, state http.ConnState) {
		if state == http.StateNew && limiter != nil {
			ok, err := limiter.AdmitConnection(context.Background(), logger)
			if err != nil || !ok {
				metrics.denyRequest("connection")
				_ = c.Close()
				return
			}
		}
		s.connState(c, state)
	}
}

func (s *sessionRegistry) sessionFor(r *http.Request) string {
	if id, ok := r.Context().Value(connKey{}).(string); ok {
		return id
	}
	return ""
}

// httpServer adapts net/http.Server, plus the HTTP/2 upgrade and the
// connection-admission hooks, to the ProtocolServer contract. It is what a
// Wrangler drives unless Config.ProtocolServer injects a substitute.
type httpServer struct {
	srv *http.Server
}

func newHTTPServer(cfg Config, sessions *sessionRegistry, metrics *Metrics) *httpServer {
	srv := &http.Server{
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		ConnContext:       sessions.connContext,
		ConnState:         connAdmission(sessions, cfg.ConnectionLimiter, cfg.Logger, metrics),
	}

	if cfg.Protocol.isHTTP2() {
		h2 := &http2.Server{MaxConcurrentStreams: cfg.MaxConcurrentStreams}
		_ = http2.ConfigureServer(srv, h2)
	}

	return &httpServer{srv: srv}
}

func (h *httpServer) SetHandler(hd http.Handler) {
	h.srv.Handler = hd
}

func (h *httpServer) Serve(ln net.Listener) error {
	if err := h.srv.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (h *httpServer) Stop(ctx context.Context, willReload bool) error {
	// The graceful drain is the same whether or not a reload follows; the
	// hint only matters to implementations that can shed idle connections
	// more aggressively.
	return h.srv.Shutdown(ctx)
}

// Wrangler is one listening socket plus protocol server plus request
// pipeline: the EndpointWrangler of the overall design. It is built once
// from a validated Config and driven through Start/Stop; once a Stop has
// fully settled it may be started again.
type Wrangler struct {
	cfg Config

	runner *libtask.TaskRunner

	mu       sync.Mutex
	listener net.Listener
	server   ProtocolServer

	pl       *pipeline
	metrics  *Metrics
	sessions *sessionRegistry
	stopping libatm.Value[bool]
}

// New validates cfg and builds a Wrangler ready for Start. The metrics and
// the request pipeline are per-endpoint, not per-run: they are built here
// exactly once so a stop-then-start cycle never re-registers collectors.
func New(cfg Config) (*Wrangler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &Wrangler{
		cfg:      cfg,
		sessions: newSessionRegistry(context.Background()),
		stopping: libatm.NewValue[bool](),
	}
	w.metrics = NewMetrics(cfg.Registerer, cfg.Name)
	w.pl = newPipeline(cfg, func() bool { return w.stopping.Load() }, w.sessions, w.metrics)
	w.runner = libtask.New(w.main, w.start)
	return w, nil
}

// start builds the protocol server, then binds the socket. The listen is
// ctx-aware so a caller abandoning Start doesn't leave a bound listener
// behind with nothing driving it.
func (w *Wrangler) start(ctx context.Context, acc libtask.Access) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.listener != nil {
		return liberr.New(CodeAlreadyRunning)
	}

	srv := w.cfg.ProtocolServer
	if srv == nil {
		srv = newHTTPServer(w.cfg, w.sessions, w.metrics)
	}
	srv.SetHandler(w.pl)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", w.cfg.bindable())
	if err != nil {
		return liberr.New(CodeListenFailed).Add(err)
	}

	if w.cfg.Protocol.isTLS() {
		ln = tls.NewListener(ln, w.tlsConfig())
	}

	w.listener = ln
	w.server = srv
	w.stopping.Store(false)
	return nil
}

func (w *Wrangler) tlsConfig() *tls.Config {
	if w.cfg.HostManager != nil {
		return &tls.Config{
			GetCertificate: func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
				return w.cfg.HostManager.Certificate(hello.ServerName)
			},
			MinVersion: tls.VersionTLS12,
		}
	}
	if w.cfg.TLS != nil {
		return w.cfg.TLS.TLS(w.cfg.Address)
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

func (w *Wrangler) main(ctx context.Context, acc libtask.Access) error {
	w.mu.Lock()
	srv := w.server
	ln := w.listener
	w.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-acc.Done():
		w.stopping.Store(true)
		return nil
	case err := <-errCh:
		return err
	}
}

// Start begins listening and serving; it returns once the start phase
// (socket bind) has settled. The main phase continues independently.
func (w *Wrangler) Start(ctx context.Context) error {
	return w.runner.Start(ctx).Wait(ctx)
}

// Stop asks the protocol server and the task runner to wind down in
// parallel, since each can block independently on in-flight work, waits for
// both (or ctx's deadline), and then releases the listening socket.
func (w *Wrangler) Stop(ctx context.Context, willReload bool) error {
	w.stopping.Store(true)

	w.mu.Lock()
	srv := w.server
	w.mu.Unlock()

	if srv == nil {
		return nil
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return srv.Stop(gctx, willReload)
	})
	grp.Go(func() error {
		mr := w.runner.Stop(gctx)
		return mr.Wait(gctx)
	})

	err := grp.Wait()

	// The default server closes the listener itself during its drain; an
	// injected one may not, so the socket is released here either way, and
	// clearing the slots lets a later Start bind afresh.
	w.mu.Lock()
	if w.listener != nil {
		_ = w.listener.Close()
		w.listener = nil
	}
	w.server = nil
	w.mu.Unlock()

	if err != nil {
		return err
	}

	if w.cfg.Logger != nil && w.cfg.Logger() != nil {
		w.cfg.Logger().Entry(liblog.InfoLevel, "endpoint stopped").
			FieldAdd("name", w.cfg.Name).
			FieldAdd("reload", willReload).
			Log()
	}
	return nil
}

// IsRunning reports whether the protocol server is currently serving.
func (w *Wrangler) IsRunning() bool {
	return w.runner.IsRunning()
}

// SetHandler swaps the user dispatcher in place without restarting the
// listening socket.
func (w *Wrangler) SetHandler(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cfg.Handler = h
	w.pl.handler.Store(h)
}

// Name returns the endpoint's configured name.
func (w *Wrangler) Name() string {
	return w.cfg.Name
}

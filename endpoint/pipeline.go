/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"time"

	libatm "github.com/nabbar/httpedge/atomic"
	liblog "github.com/nabbar/httpedge/logger"
)

// pipeline is the http.Handler driving one endpoint's admission, parsing,
// dispatch, and access-logging flow. It never owns the listening socket or
// protocol server; those belong to Wrangler.
type pipeline struct {
	name      string
	maxBody   int64
	handler   libatm.Value[Handler]
	reqLimit  RateLimiter
	accessLog AccessLogSink
	logger    liblog.FuncLog
	server    string

	stopping func() bool
	sessions *sessionRegistry
	metrics  *Metrics
}

func newPipeline(cfg Config, stopping func() bool, sessions *sessionRegistry, metrics *Metrics) *pipeline {
	p := &pipeline{
		name:      cfg.Name,
		maxBody:   cfg.MaxRequestBodyBytes,
		handler:   libatm.NewValue[Handler](),
		reqLimit:  cfg.RequestLimiter,
		accessLog: cfg.AccessLog,
		logger:    cfg.Logger,
		server:    "httpedge/" + cfg.Name,
		stopping:  stopping,
		sessions:  sessions,
		metrics:   metrics,
	}
	p.handler.Store(cfg.Handler)
	return p
}

// ServeHTTP implements the seven-step request flow: resolve the connection
// context, parse the request, reject while stopping, consult the request
// rate limiter, dispatch with panic recovery, write the response, and close
// the connection on a 5xx or 429 outcome.
func (p *pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	sessionID := p.sessions.sessionFor(r)

	req, err := ParseIncomingRequest(w, r, sessionID, p.maxBody)
	if err != nil {
		p.finish(w, r, nil, badRequestResponse(err.Error()), start)
		return
	}

	if p.stopping != nil && p.stopping() {
		p.finish(w, r, req, serviceUnavailableResponse("endpoint is shutting down"), start)
		return
	}

	if p.reqLimit != nil {
		ok, lerr := p.reqLimit.AdmitRequest(ctx, p.logger)
		if lerr != nil {
			p.finish(w, r, req, internalErrorResponse("rate limiter error"), start)
			return
		}
		if !ok {
			p.metrics.denyRequest("request")
			p.finish(w, r, req, serviceUnavailableResponse("rate limit exceeded"), start)
			return
		}
	}

	if p.accessLog != nil {
		p.safeLogStart(ctx, req)
	}

	resp := p.dispatch(ctx, req)
	p.finish(w, r, req, resp, start)
}

func (p *pipeline) dispatch(ctx context.Context, req *IncomingRequest) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				resp = internalErrorResponse(e.Error())
			} else {
				resp = internalErrorResponse(fmt.Sprintf("%v", rec))
			}
			if p.logger != nil && p.logger() != nil {
				p.logger().Entry(liblog.ErrorLevel, "request handler panicked").FieldAdd("recovered", rec).Log()
			}
		}
	}()

	h := p.handler.Load()
	if h == nil {
		return notFoundResponse(req.loggedURL())
	}

	r, err := h(req.Raw.Context(), req)
	if err != nil {
		return internalErrorResponse(err.Error())
	}
	if r == nil {
		return notFoundResponse(req.loggedURL())
	}
	return expandDiagnostic(r, "")
}

func (p *pipeline) finish(w http.ResponseWriter, r *http.Request, req *IncomingRequest, resp *Response, start time.Time) {
	resp = expandDiagnostic(resp, "")

	// Marking must happen before the header is flushed, and only for
	// HTTP/1: the Connection header is what actually makes net/http close
	// after the response, while HTTP/2 forbids it and multiplexes streams
	// on one connection, so tearing that connection down would cancel
	// unrelated in-flight requests.
	if shouldCloseConnection(resp.StatusCode) && r.ProtoMajor < 2 {
		w.Header().Set("Connection", "close")
		r.Close = true
	}

	if err := resp.write(w, p.server); err != nil {
		if p.logger != nil && p.logger() != nil {
			p.logger().Entry(liblog.WarnLevel, "response write failed").ErrorAdd(true, err).Log()
		}
	}

	p.metrics.observe(resp.StatusCode, time.Since(start).Seconds())

	if p.accessLog != nil && req != nil {
		p.safeLogEnd(r.Context(), req, resp, time.Since(start))
	}
}

func (p *pipeline) safeLogStart(ctx context.Context, req *IncomingRequest) {
	defer func() {
		if rec := recover(); rec != nil && p.logger != nil && p.logger() != nil {
			p.logger().Entry(liblog.WarnLevel, "access log RequestStarted panicked").FieldAdd("recovered", rec).Log()
		}
	}()
	if err := p.accessLog.RequestStarted(req.Raw.Context(), req); err != nil && p.logger != nil && p.logger() != nil {
		p.logger().Entry(liblog.WarnLevel, "access log RequestStarted failed").ErrorAdd(true, err).Log()
	}
}

func (p *pipeline) safeLogEnd(ctx context.Context, req *IncomingRequest, resp *Response, dur time.Duration) {
	defer func() {
		if rec := recover(); rec != nil && p.logger != nil && p.logger() != nil {
			p.logger().Entry(liblog.WarnLevel, "access log RequestEnded panicked").FieldAdd("recovered", rec).Log()
		}
	}()
	meta := Meta{Socket: req.RemoteAddr, Duration: dur}
	if err := p.accessLog.RequestEnded(req.Raw.Context(), req, resp, meta); err != nil && p.logger != nil && p.logger() != nil {
		p.logger().Entry(liblog.WarnLevel, "access log RequestEnded failed").ErrorAdd(true, err).Log()
	}
}

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

// Package endpoint implements one listening socket plus one protocol
// server: the admission, parsing, dispatch, and access-logging pipeline
// that sits between a raw connection and a user-supplied request handler.
package endpoint

import (
	"context"
	"net"
	"net/http"
	"time"

	liblog "github.com/nabbar/httpedge/logger"
)

// Handler is the user-supplied request dispatcher. A nil *Response with a
// nil error means "not handled" and becomes a 404. A *Response with a
// zero-value Body on a non-2xx StatusCode is expanded into a diagnostic
// plain-text body, so a status code alone is a complete return value. A
// non-nil error is converted to a 500. A panic inside Handler is recovered
// by the pipeline and converted to a 500 as well.
type Handler func(ctx context.Context, req *IncomingRequest) (*Response, error)

// ProtocolServer is the wire-protocol collaborator an endpoint drives: it
// accepts connections from the listener the Wrangler owns and feeds every
// request on them to the handler installed with SetHandler. When
// Config.ProtocolServer is nil, New builds the net/http-backed
// implementation (optionally HTTP/2-upgraded); a test double injected there
// lets the lifecycle be exercised without real request traffic.
type ProtocolServer interface {
	// Serve accepts on ln until Stop completes or the listener fails. A
	// serve loop ended by Stop returns nil, not a sentinel error.
	Serve(ln net.Listener) error

	// Stop halts accepting and drains in-flight requests before returning.
	// willReload is an advisory hint that a replacement server is about to
	// take over, letting an implementation wind down faster if it can.
	Stop(ctx context.Context, willReload bool) error

	SetHandler(h http.Handler)
}

// Meta carries context about a completed request for an AccessLogSink,
// beyond what's already on the Request/Response pair.
type Meta struct {
	Socket   string
	Duration time.Duration
}

// AccessLogSink is notified around every dispatch. RequestStarted fires as
// early as possible so the eventual log line reflects true server-side
// latency. Both methods are invoked through a recover-and-log wrapper:
// access logging must never fail the request.
type AccessLogSink interface {
	RequestStarted(ctx context.Context, req *IncomingRequest) error
	RequestEnded(ctx context.Context, req *IncomingRequest, resp *Response, meta Meta) error
}

// RateLimiter is the admission collaborator consulted before a connection
// or a request is allowed through. A tokenbucket.Bucket is adapted into one
// via NewBucketLimiter.
type RateLimiter interface {
	AdmitConnection(ctx context.Context, log liblog.FuncLog) (bool, error)
	AdmitRequest(ctx context.Context, log liblog.FuncLog) (bool, error)
}

/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	liblog "github.com/nabbar/httpedge/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEndpoint(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "endpoint suite")
}

func discardLogger() liblog.FuncLog {
	l := liblog.New(io.Discard)
	return func() liblog.Logger { return l }
}

func newTestPipeline(h Handler) *pipeline {
	cfg := Config{
		Name:    "test",
		Handler: h,
		Logger:  discardLogger(),
	}
	return newPipeline(cfg, func() bool { return false }, newSessionRegistry(context.Background()), nil)
}

var _ = Describe("pipeline.ServeHTTP", func() {
	It("returns 404 with the logged URL when the handler returns nil", func() {
		p := newTestPipeline(func(ctx context.Context, req *IncomingRequest) (*Response, error) {
			return nil, nil
		})

		r := httptest.NewRequest(http.MethodGet, "/widgets/42", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("/widgets/42"))
	})

	It("returns 404 with no handler configured at all", func() {
		p := newTestPipeline(nil)

		r := httptest.NewRequest(http.MethodGet, "/anything", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("writes the handler's response verbatim plus the Server header", func() {
		p := newTestPipeline(func(ctx context.Context, req *IncomingRequest) (*Response, error) {
			return &Response{StatusCode: http.StatusOK, Body: []byte("hello")}, nil
		})

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(Equal("hello"))
		Expect(w.Header().Get("Server")).To(Equal("httpedge/test"))
	})

	It("converts a handler error into a 500", func() {
		p := newTestPipeline(func(ctx context.Context, req *IncomingRequest) (*Response, error) {
			return nil, errors.New("boom")
		})

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})

	It("recovers a handler panic into a 500 rather than crashing", func() {
		p := newTestPipeline(func(ctx context.Context, req *IncomingRequest) (*Response, error) {
			panic("unexpected")
		})

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})

	It("rejects an asterisk-form target as a malformed request", func() {
		p := newTestPipeline(func(ctx context.Context, req *IncomingRequest) (*Response, error) {
			Fail("handler should never be reached for an unparseable request")
			return nil, nil
		})

		r := httptest.NewRequest(http.MethodOptions, "/", nil)
		r.RequestURI = "*"
		r.URL.Path = ""
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(HavePrefix("400 Bad Request"))
	})

	It("returns 400 when the body exceeds the configured limit", func() {
		cfg := Config{
			Name:                "test",
			MaxRequestBodyBytes: 4,
			Logger:              discardLogger(),
			Handler: func(ctx context.Context, req *IncomingRequest) (*Response, error) {
				Fail("handler should never run for an oversized body")
				return nil, nil
			},
		}
		p := newPipeline(cfg, func() bool { return false }, newSessionRegistry(context.Background()), nil)

		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("far too long a body"))
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 503 for a new request once the endpoint is stopping", func() {
		cfg := Config{
			Name:    "test",
			Logger:  discardLogger(),
			Handler: func(ctx context.Context, req *IncomingRequest) (*Response, error) { return nil, nil },
		}
		p := newPipeline(cfg, func() bool { return true }, newSessionRegistry(context.Background()), nil)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	})

	It("returns 503 and marks the connection for close when the request limiter denies", func() {
		cfg := Config{
			Name:           "test",
			Logger:         discardLogger(),
			RequestLimiter: denyingLimiter{},
			Handler: func(ctx context.Context, req *IncomingRequest) (*Response, error) {
				Fail("handler should never run once the limiter denies")
				return nil, nil
			},
		}
		p := newPipeline(cfg, func() bool { return false }, newSessionRegistry(context.Background()), nil)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(r.Close).To(BeTrue())
		Expect(w.Header().Get("Connection")).To(Equal("close"))
	})

	It("leaves the connection alone on 5xx over HTTP/2", func() {
		p := newTestPipeline(func(ctx context.Context, req *IncomingRequest) (*Response, error) {
			return nil, errors.New("boom")
		})

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Proto = "HTTP/2.0"
		r.ProtoMajor = 2
		r.ProtoMinor = 0
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(r.Close).To(BeFalse())
		Expect(w.Header().Get("Connection")).To(BeEmpty())
	})

	It("sends RequestStarted before dispatch and RequestEnded after the response is written", func() {
		sink := &recordingSink{}
		cfg := Config{
			Name:      "test",
			Logger:    discardLogger(),
			AccessLog: sink,
			Handler: func(ctx context.Context, req *IncomingRequest) (*Response, error) {
				Expect(sink.started).To(BeTrue())
				Expect(sink.ended).To(BeFalse())
				return &Response{StatusCode: http.StatusOK}, nil
			},
		}
		p := newPipeline(cfg, func() bool { return false }, newSessionRegistry(context.Background()), nil)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(sink.started).To(BeTrue())
		Expect(sink.ended).To(BeTrue())
	})

	It("never fails the request when the access log sink itself errors", func() {
		cfg := Config{
			Name:      "test",
			Logger:    discardLogger(),
			AccessLog: failingSink{},
			Handler: func(ctx context.Context, req *IncomingRequest) (*Response, error) {
				return &Response{StatusCode: http.StatusOK}, nil
			},
		}
		p := newPipeline(cfg, func() bool { return false }, newSessionRegistry(context.Background()), nil)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		p.ServeHTTP(w, r)

		Expect(w.Code).To(Equal(http.StatusOK))
	})
})

type denyingLimiter struct{}

func (denyingLimiter) AdmitConnection(ctx context.Context, log liblog.FuncLog) (bool, error) {
	return true, nil
}

func (denyingLimiter) AdmitRequest(ctx context.Context, log liblog.FuncLog) (bool, error) {
	return false, nil
}

type recordingSink struct {
	started bool
	ended   bool
}

func (s *recordingSink) RequestStarted(ctx context.Context, req *IncomingRequest) error {
	s.started = true
	return nil
}

func (s *recordingSink) RequestEnded(ctx context.Context, req *IncomingRequest, resp *Response, meta Meta) error {
	s.ended = true
	return nil
}

type failingSink struct{}

func (failingSink) RequestStarted(ctx context.Context, req *IncomingRequest) error {
	return errors.New("sink unavailable")
}

func (failingSink) RequestEnded(ctx context.Context, req *IncomingRequest, resp *Response, meta Meta) error {
	return errors.New("sink unavailable")
}

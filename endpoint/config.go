/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	liberr "github.com/nabbar/httpedge/errors"
	liblog "github.com/nabbar/httpedge/logger"
	libtls "github.com/nabbar/httpedge/tlsconfig"
	libtb "github.com/nabbar/httpedge/tokenbucket"
)

// Protocol is the wire protocol an endpoint listens with.
type Protocol uint8

const (
	ProtocolHTTP1 Protocol = iota
	ProtocolHTTP1TLS
	ProtocolHTTP2
	ProtocolHTTP2TLS
)

func (p Protocol) isTLS() bool {
	return p == ProtocolHTTP1TLS || p == ProtocolHTTP2TLS
}

func (p Protocol) isHTTP2() bool {
	return p == ProtocolHTTP2 || p == ProtocolHTTP2TLS
}

func (p Protocol) String() string {
	switch p {
	case ProtocolHTTP1TLS:
		return "http/1.1+tls"
	case ProtocolHTTP2:
		return "h2c"
	case ProtocolHTTP2TLS:
		return "h2"
	default:
		return "http/1.1"
	}
}

// Config parameterizes one EndpointWrangler. It is validated then frozen
// into the wrangler at construction time; later mutation of the value
// passed in has no effect on a running wrangler.
type Config struct {
	// Name identifies this endpoint in logs, metrics, and Pool lookups.
	Name string `validate:"required"`

	// Address is the interface to bind; empty means all interfaces.
	Address string

	// Port is the TCP port to listen on.
	Port int `validate:"required,gt=0,lte=65535"`

	// Protocol selects the wire protocol and whether TLS is required.
	Protocol Protocol

	// MaxRequestBodyBytes caps the request body read by the pipeline; zero
	// means unbounded.
	MaxRequestBodyBytes int64

	// ConnectionLimiter, if set, is consulted once per accepted connection.
	ConnectionLimiter RateLimiter

	// RequestLimiter, if set, is consulted once per dispatched request.
	RequestLimiter RateLimiter

	// HostManager supplies per-SNI certificates; only meaningful when
	// Protocol is TLS.
	HostManager libtls.HostManager

	// TLS is the static credential set served when Protocol is TLS.
	TLS libtls.Config

	// Handler is the user request dispatcher.
	Handler Handler `validate:"required"`

	// AccessLog, if set, receives RequestStarted/RequestEnded events.
	AccessLog AccessLogSink

	// Logger is the system logger used for pipeline diagnostics.
	Logger liblog.FuncLog `validate:"required"`

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// MaxConcurrentStreams bounds HTTP/2 streams per connection; ignored
	// for HTTP/1 protocols.
	MaxConcurrentStreams uint32

	// Registerer, if set, receives this endpoint's request/latency/denial
	// metrics. A nil Registerer disables metrics collection entirely.
	Registerer prometheus.Registerer

	// ProtocolServer overrides the net/http-backed protocol server built
	// from this Config when nil. Injecting one is primarily a test seam;
	// the injected server bypasses the Config's timeout, HTTP/2, and
	// connection-admission wiring.
	ProtocolServer ProtocolServer
}

func (c Config) bindable() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// Validate runs struct-tag validation and cross-field checks, returning an
// aggregated errors.Error rather than panicking on a bad config.
func (c Config) Validate() liberr.Error {
	out := liberr.New(CodeInvalidConfig)
	had := false

	val := validator.New()
	if err := val.Struct(c); err != nil {
		if ve, ok := err.(*validator.InvalidValidationError); ok {
			out.Add(ve)
			had = true
		} else if ves, ok := err.(validator.ValidationErrors); ok {
			for _, e := range ves {
				out.Add(fmt.Errorf("config field %q fails constraint %q", e.Field(), e.ActualTag()))
				had = true
			}
		}
	}

	if c.Protocol.isTLS() && c.HostManager == nil && c.TLS == nil {
		out.Add(fmt.Errorf("tls protocol requires either TLS or HostManager"))
		had = true
	}

	if !had {
		return nil
	}
	return out
}

// NewBucketLimiter adapts a tokenbucket.Bucket into a RateLimiter by
// requesting a single token per admission check. Both AdmitConnection and
// AdmitRequest draw from the same underlying bucket; give each its own
// Bucket instance to rate-limit them independently.
func NewBucketLimiter(b libtb.Bucket) RateLimiter {
	return &bucketLimiter{b: b}
}

type bucketLimiter struct {
	b libtb.Bucket
}

func (l *bucketLimiter) AdmitConnection(ctx context.Context, log liblog.FuncLog) (bool, error) {
	return l.admit(ctx, log)
}

func (l *bucketLimiter) AdmitRequest(ctx context.Context, log liblog.FuncLog) (bool, error) {
	return l.admit(ctx, log)
}

func (l *bucketLimiter) admit(ctx context.Context, log liblog.FuncLog) (bool, error) {
	g, err := l.b.RequestGrant(ctx, 1, 1)
	if err != nil {
		if log != nil && log() != nil {
			log().Entry(liblog.ErrorLevel, "rate limiter grant request failed").ErrorAdd(true, err).Log()
		}
		return false, err
	}
	if !g.Granted && log != nil && log() != nil {
		log().Entry(liblog.WarnLevel, "rate limiter denied admission").FieldAdd("reason", g.Reason).Log()
	}
	return g.Granted, nil
}

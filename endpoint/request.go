/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"io"
	"net/http"
	"strings"
	"sync"

	liberr "github.com/nabbar/httpedge/errors"
	libpm "github.com/nabbar/httpedge/pathmap"
)

// TargetKind classifies the request-target form a client sent, per the
// HTTP/1.1 message grammar: a plain path, a full URL (as used by forward
// proxies), an authority-form CONNECT target, the OPTIONS * asterisk-form,
// or anything that doesn't parse cleanly into one of those.
type TargetKind uint8

const (
	TargetOrigin TargetKind = iota
	TargetAbsolute
	TargetAuthority
	TargetAsterisk
	TargetOther
)

// IncomingRequest is the parsed, immutable view of one request handed to a
// Handler. PathKey is precomputed so routing collaborators (TreePathMap
// lookups) never re-split the URL path themselves.
type IncomingRequest struct {
	Raw    *http.Request
	Writer http.ResponseWriter

	Method  string
	Target  TargetKind
	Path    string
	PathKey libpm.PathKey
	Query   string
	Host    string

	RemoteAddr string
	TLS        bool

	Header http.Header
	Body   []byte

	// SessionID ties this request back to its connection's entry in the
	// connection registry.
	SessionID string

	cookiesOnce sync.Once
	cookiesJar  CookieJar
}

// CookieJar is an immutable, name-keyed view over one request's cookies.
// The zero value is a valid, empty jar.
type CookieJar struct {
	byName map[string]*http.Cookie
}

func newCookieJar(raw []*http.Cookie) CookieJar {
	m := make(map[string]*http.Cookie, len(raw))
	for _, c := range raw {
		if c == nil {
			continue
		}
		// First occurrence wins, matching http.Request.Cookie's own
		// first-match semantics for a repeated cookie name.
		if _, exists := m[c.Name]; !exists {
			m[c.Name] = c
		}
	}
	return CookieJar{byName: m}
}

// Get returns the named cookie, if present.
func (j CookieJar) Get(name string) (*http.Cookie, bool) {
	c, ok := j.byName[name]
	return c, ok
}

// Len reports how many distinct cookie names this jar carries.
func (j CookieJar) Len() int {
	return len(j.byName)
}

// Cookies lazily parses req.Raw's Cookie header on first access and caches
// the result; a missing or unparseable header yields an empty, frozen
// CookieJar rather than an error, per the request's own cookie-parsing
// contract. Parsing is delegated to http.Request.Cookies, which already
// skips malformed cookie pairs instead of failing the whole header.
func (req *IncomingRequest) Cookies() CookieJar {
	req.cookiesOnce.Do(func() {
		var raw []*http.Cookie
		if req.Raw != nil {
			raw = req.Raw.Cookies()
		}
		req.cookiesJar = newCookieJar(raw)
	})
	return req.cookiesJar
}

// loggedURL is the request target as it should appear in logs and
// diagnostic response bodies: path plus query string, no scheme or host.
func (req *IncomingRequest) loggedURL() string {
	if req.Query == "" {
		return req.Path
	}
	return req.Path + "?" + req.Query
}

func classifyTarget(r *http.Request) TargetKind {
	switch {
	case r.Method == http.MethodConnect:
		return TargetAuthority
	case r.URL.Path == "" && r.URL.Opaque == "" && r.RequestURI == "*":
		return TargetAsterisk
	case r.URL.IsAbs():
		return TargetAbsolute
	case strings.HasPrefix(r.RequestURI, "/"):
		return TargetOrigin
	default:
		return TargetOther
	}
}

// pathToKey splits a URL path on "/" into a non-wildcard PathKey. The leading
// slash is dropped first, so "/a/b" becomes [a b]; a trailing slash leaves a
// trailing empty component (so "/" itself becomes the single-component key
// [""]), matching the convention TreePathMap bindings are registered under.
func pathToKey(path string) libpm.PathKey {
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.Split(trimmed, "/")
	return libpm.NewPathKey(parts, false)
}

// readBody reads up to limit bytes of r's body; limit <= 0 means unbounded.
// It never closes r.Body -- the caller's http.Server does that once the
// handler returns. It returns CodeBodyTooLarge if limit is exceeded.
func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if limit <= 0 {
		return io.ReadAll(r.Body)
	}

	lr := io.LimitReader(r.Body, limit+1)
	body, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, liberr.New(CodeBodyTooLarge)
	}
	return body, nil
}

// ParseIncomingRequest builds an IncomingRequest from the raw HTTP
// transaction. sessionID identifies the underlying connection in the
// connection registry. maxBodyBytes <= 0 means unbounded.
func ParseIncomingRequest(w http.ResponseWriter, r *http.Request, sessionID string, maxBodyBytes int64) (*IncomingRequest, error) {
	target := classifyTarget(r)
	if target != TargetOrigin {
		// Only origin-form targets carry a pathname the dispatcher can route
		// on; asterisk-form, absolute-form, authority-form, and anything
		// else this engine doesn't front (CONNECT, forward-proxy requests)
		// has no pathname to dispatch against.
		return nil, liberr.New(CodeMalformedRequest)
	}

	body, err := readBody(r, maxBodyBytes)
	if err != nil {
		return nil, err
	}

	return &IncomingRequest{
		Raw:        r,
		Writer:     w,
		Method:     r.Method,
		Target:     target,
		Path:       r.URL.Path,
		PathKey:    pathToKey(r.URL.Path),
		Query:      r.URL.RawQuery,
		Host:       r.Host,
		RemoteAddr: r.RemoteAddr,
		TLS:        r.TLS != nil,
		Header:     r.Header,
		Body:       body,
		SessionID:  sessionID,
	}, nil
}

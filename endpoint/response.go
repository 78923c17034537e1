/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"fmt"
	"net/http"
)

// Response is what a Handler returns. A Body left nil on a non-2xx
// StatusCode is expanded into a short plain-text diagnostic by
// expandDiagnostic before being written to the wire.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func newResponse(status int) *Response {
	return &Response{StatusCode: status, Header: make(http.Header)}
}

// expandDiagnostic fills in Body and a text/plain Content-Type when resp
// carries a non-2xx status and no body of its own, so every error path
// produces a legible response even when a Handler only set a status code.
// The body always leads with the standard "<code> <reason-phrase>" status
// line; extra is appended after it verbatim when given.
func expandDiagnostic(resp *Response, extra string) *Response {
	if resp == nil {
		resp = newResponse(http.StatusInternalServerError)
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	if len(resp.Body) == 0 && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		line := fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if extra != "" {
			line += ": " + extra
		}
		resp.Body = []byte(line + "\n")
		resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}
	return resp
}

func notFoundResponse(loggedURL string) *Response {
	return expandDiagnostic(newResponse(http.StatusNotFound), loggedURL)
}

func badRequestResponse(reason string) *Response {
	return expandDiagnostic(newResponse(http.StatusBadRequest), reason)
}

func serviceUnavailableResponse(reason string) *Response {
	return expandDiagnostic(newResponse(http.StatusServiceUnavailable), reason)
}

func tooManyRequestsResponse() *Response {
	return expandDiagnostic(newResponse(http.StatusTooManyRequests), "rate limit exceeded")
}

func internalErrorResponse(reason string) *Response {
	return expandDiagnostic(newResponse(http.StatusInternalServerError), reason)
}

// write serializes resp onto w. The Server header is always set, overriding
// anything a Handler put there, so every response is attributable.
func (r *Response) write(w http.ResponseWriter, serverHeader string) error {
	h := w.Header()
	for k, vs := range r.Header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	if serverHeader != "" {
		h.Set("Server", serverHeader)
	}

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

// shouldCloseConnection reports whether the connection should be closed
// after a response with this status code, rather than kept alive for reuse.
func shouldCloseConnection(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

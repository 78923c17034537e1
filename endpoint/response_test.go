/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("expandDiagnostic", func() {
	It("leaves a 2xx response with an empty body untouched", func() {
		resp := expandDiagnostic(newResponse(http.StatusOK), "")
		Expect(resp.Body).To(BeEmpty())
	})

	It("leads the body with the standard status line for an error response", func() {
		resp := expandDiagnostic(newResponse(http.StatusNotFound), "")
		Expect(string(resp.Body)).To(Equal("404 Not Found\n"))
	})

	It("appends extra detail after the status line without replacing it", func() {
		resp := expandDiagnostic(newResponse(http.StatusNotFound), "/widgets/42")
		Expect(string(resp.Body)).To(Equal("404 Not Found: /widgets/42\n"))
	})

	It("never overwrites a Body a Handler already set", func() {
		resp := &Response{StatusCode: http.StatusNotFound, Body: []byte("custom")}
		resp = expandDiagnostic(resp, "ignored")
		Expect(string(resp.Body)).To(Equal("custom"))
	})

	It("treats a nil Response as a 500", func() {
		resp := expandDiagnostic(nil, "")
		Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
	})
})

var _ = Describe("shouldCloseConnection", func() {
	It("closes on every 5xx", func() {
		Expect(shouldCloseConnection(http.StatusInternalServerError)).To(BeTrue())
		Expect(shouldCloseConnection(http.StatusBadGateway)).To(BeTrue())
	})

	It("closes on 429 specifically", func() {
		Expect(shouldCloseConnection(http.StatusTooManyRequests)).To(BeTrue())
	})

	It("keeps the connection alive on other statuses", func() {
		Expect(shouldCloseConnection(http.StatusOK)).To(BeFalse())
		Expect(shouldCloseConnection(http.StatusNotFound)).To(BeFalse())
		Expect(shouldCloseConnection(http.StatusBadRequest)).To(BeFalse())
	})
})

var _ = Describe("Response.write", func() {
	It("always sets the Server header, overriding anything the Handler wrote", func() {
		resp := &Response{StatusCode: http.StatusOK, Header: http.Header{"Server": []string{"custom/1"}}}
		w := httptest.NewRecorder()

		Expect(resp.write(w, "httpedge/test")).To(Succeed())
		Expect(w.Header().Get("Server")).To(Equal("httpedge/test"))
	})

	It("defaults a zero StatusCode to 200", func() {
		resp := &Response{}
		w := httptest.NewRecorder()

		Expect(resp.write(w, "")).To(Succeed())
		Expect(w.Code).To(Equal(http.StatusOK))
	})
})

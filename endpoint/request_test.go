/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint

import (
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseIncomingRequest", func() {
	It("classifies an origin-form target and splits its path into a PathKey", func() {
		r := httptest.NewRequest(http.MethodGet, "/widgets/42", nil)
		req, err := ParseIncomingRequest(httptest.NewRecorder(), r, "sess-1", 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(req.Target).To(Equal(TargetOrigin))
		Expect(req.PathKey.Path).To(Equal([]string{"widgets", "42"}))
		Expect(req.SessionID).To(Equal("sess-1"))
	})

	It("gives the root path a single empty-string component, not an empty key", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		req, err := ParseIncomingRequest(httptest.NewRecorder(), r, "", 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(req.PathKey.Path).To(Equal([]string{""}))
	})

	It("rejects an asterisk-form target since it carries no pathname", func() {
		r := httptest.NewRequest(http.MethodOptions, "/", nil)
		r.RequestURI = "*"
		r.URL.Path = ""

		_, err := ParseIncomingRequest(httptest.NewRecorder(), r, "", 0)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a CONNECT authority-form target", func() {
		r := httptest.NewRequest(http.MethodConnect, "example.com:443", nil)

		_, err := ParseIncomingRequest(httptest.NewRecorder(), r, "", 0)
		Expect(err).To(HaveOccurred())
	})

	It("reads a body within the configured limit", func() {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
		req, err := ParseIncomingRequest(httptest.NewRecorder(), r, "", 8)

		Expect(err).NotTo(HaveOccurred())
		Expect(string(req.Body)).To(Equal("ok"))
	})

	It("rejects a body over the configured limit", func() {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too long"))
		_, err := ParseIncomingRequest(httptest.NewRecorder(), r, "", 4)

		Expect(err).To(HaveOccurred())
	})

	It("treats a non-positive limit as unbounded", func() {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 1000)))
		req, err := ParseIncomingRequest(httptest.NewRecorder(), r, "", 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(req.Body).To(HaveLen(1000))
	})

	It("lazily parses and caches cookies from the Cookie header", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Cookie", "session=abc123; theme=dark")
		req, err := ParseIncomingRequest(httptest.NewRecorder(), r, "", 0)
		Expect(err).NotTo(HaveOccurred())

		jar := req.Cookies()
		Expect(jar.Len()).To(Equal(2))

		c, ok := jar.Get("session")
		Expect(ok).To(BeTrue())
		Expect(c.Value).To(Equal("abc123"))

		_, ok = jar.Get("missing")
		Expect(ok).To(BeFalse())

		Expect(req.Cookies()).To(Equal(jar))
	})

	It("yields an empty frozen jar when there is no Cookie header", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		req, err := ParseIncomingRequest(httptest.NewRecorder(), r, "", 0)
		Expect(err).NotTo(HaveOccurred())

		jar := req.Cookies()
		Expect(jar.Len()).To(Equal(0))
	})
})

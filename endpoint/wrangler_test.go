/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package endpoint_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	libep "github.com/nabbar/httpedge/endpoint"
	liblog "github.com/nabbar/httpedge/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeProtocol stands in for the net/http-backed protocol server so the
// wrangler's lifecycle can be observed without real request traffic.
type fakeProtocol struct {
	mu      sync.Mutex
	handler http.Handler
	stopped bool
	reload  bool

	served chan net.Listener
	done   chan struct{}
}

func newFakeProtocol() *fakeProtocol {
	return &fakeProtocol{
		served: make(chan net.Listener, 1),
		done:   make(chan struct{}),
	}
}

func (f *fakeProtocol) SetHandler(h http.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fakeProtocol) Serve(ln net.Listener) error {
	f.served <- ln
	<-f.done
	return nil
}

func (f *fakeProtocol) Stop(ctx context.Context, willReload bool) error {
	f.mu.Lock()
	f.stopped = true
	f.reload = willReload
	f.mu.Unlock()
	close(f.done)
	return nil
}

func (f *fakeProtocol) snapshot() (h http.Handler, stopped, reload bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler, f.stopped, f.reload
}

func freePort() int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func newWrangler(h libep.Handler) (*libep.Wrangler, string) {
	l := liblog.New(io.Discard)
	port := freePort()
	cfg := libep.Config{
		Name:    "test",
		Address: "127.0.0.1",
		Port:    port,
		Handler: h,
		Logger:  func() liblog.Logger { return l },
	}
	w, err := libep.New(cfg)
	Expect(err).NotTo(HaveOccurred())
	return w, fmt.Sprintf("127.0.0.1:%d", port)
}

var _ = Describe("Wrangler lifecycle", func() {
	It("serves a request end to end once started", func() {
		w, addr := newWrangler(func(ctx context.Context, req *libep.IncomingRequest) (*libep.Response, error) {
			return &libep.Response{StatusCode: http.StatusOK, Body: []byte("ok")}, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(w.Start(ctx)).To(Succeed())
		defer w.Stop(ctx, false)

		Eventually(w.IsRunning).Should(BeTrue())

		var resp *http.Response
		var err error
		Eventually(func() error {
			resp, err = http.Get("http://" + addr + "/")
			return err
		}).Should(Succeed())
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal("ok"))
		Expect(resp.Header.Get("Server")).To(Equal("httpedge/test"))
	})

	It("lets an in-flight request finish with its normal response when stopped", func() {
		release := make(chan struct{})
		entered := make(chan struct{})

		w, addr := newWrangler(func(ctx context.Context, req *libep.IncomingRequest) (*libep.Response, error) {
			close(entered)
			<-release
			return &libep.Response{StatusCode: http.StatusOK, Body: []byte("done")}, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(w.Start(ctx)).To(Succeed())

		Eventually(w.IsRunning).Should(BeTrue())

		type result struct {
			resp *http.Response
			err  error
		}
		done := make(chan result, 1)
		go func() {
			resp, err := http.Get("http://" + addr + "/")
			done <- result{resp, err}
		}()

		Eventually(func() bool {
			select {
			case <-entered:
				return true
			default:
				return false
			}
		}).Should(BeTrue())

		stopDone := make(chan error, 1)
		go func() {
			stopDone <- w.Stop(ctx, false)
		}()

		close(release)

		r := <-done
		Expect(r.err).NotTo(HaveOccurred())
		body, _ := io.ReadAll(r.resp.Body)
		r.resp.Body.Close()
		Expect(r.resp.StatusCode).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal("done"))

		Expect(<-stopDone).To(Succeed())
		Expect(w.IsRunning()).To(BeFalse())
	})

	It("drives an injected protocol server through its full lifecycle", func() {
		f := newFakeProtocol()
		l := liblog.New(io.Discard)

		cfg := libep.Config{
			Name:    "fake",
			Address: "127.0.0.1",
			Port:    freePort(),
			Handler: func(ctx context.Context, req *libep.IncomingRequest) (*libep.Response, error) {
				return &libep.Response{StatusCode: http.StatusOK}, nil
			},
			Logger:         func() liblog.Logger { return l },
			ProtocolServer: f,
		}

		w, err := libep.New(cfg)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(w.Start(ctx)).To(Succeed())

		var ln net.Listener
		Eventually(f.served).Should(Receive(&ln))
		Expect(ln).NotTo(BeNil())

		h, stopped, _ := f.snapshot()
		Expect(h).NotTo(BeNil())
		Expect(stopped).To(BeFalse())

		Expect(w.Stop(ctx, true)).To(Succeed())

		_, stopped, reload := f.snapshot()
		Expect(stopped).To(BeTrue())
		Expect(reload).To(BeTrue())
		Eventually(w.IsRunning).Should(BeFalse())
	})
})

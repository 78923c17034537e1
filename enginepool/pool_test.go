/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 */

package enginepool_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	libpool "github.com/nabbar/httpedge/enginepool"
	libep "github.com/nabbar/httpedge/endpoint"
	liblog "github.com/nabbar/httpedge/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEnginePool(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "enginepool suite")
}

func freePort() int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func okHandler(ctx context.Context, req *libep.IncomingRequest) (*libep.Response, error) {
	return &libep.Response{StatusCode: http.StatusOK, Body: []byte("ok")}, nil
}

func namedConfig(name string, l liblog.Logger) libep.Config {
	return libep.Config{
		Name:    name,
		Address: "127.0.0.1",
		Port:    freePort(),
		Handler: okHandler,
		Logger:  func() liblog.Logger { return l },
	}
}

var _ = Describe("Pool", func() {
	var l liblog.Logger

	BeforeEach(func() {
		l = liblog.New(io.Discard)
	})

	It("starts and stops every member concurrently", func() {
		cfgs := libpool.Config{
			namedConfig("a", l),
			namedConfig("b", l),
			namedConfig("c", l),
		}

		p, err := cfgs.Pool(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Len()).To(Equal(3))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		Expect(p.Start(ctx)).To(Succeed())
		Eventually(p.IsRunning).Should(BeTrue())

		names := map[string]bool{}
		p.Walk(func(name string, w *libep.Wrangler) bool {
			names[name] = w.IsRunning()
			return true
		})
		Expect(names).To(Equal(map[string]bool{"a": true, "b": true, "c": true}))

		Expect(p.Stop(ctx, false)).To(Succeed())
		Eventually(p.IsRunning).Should(BeFalse())
	})

	It("aggregates a duplicate-name config as a single validation error", func() {
		cfgs := libpool.Config{
			namedConfig("dup", l),
			namedConfig("dup", l),
		}

		_, err := cfgs.Pool(context.Background())
		Expect(err).To(HaveOccurred())
	})

	It("serves real requests on each member's own port", func() {
		portA := freePort()
		portB := freePort()

		cfgs := libpool.Config{
			{Name: "a", Address: "127.0.0.1", Port: portA, Handler: okHandler, Logger: func() liblog.Logger { return l }},
			{Name: "b", Address: "127.0.0.1", Port: portB, Handler: okHandler, Logger: func() liblog.Logger { return l }},
		}

		p, err := cfgs.Pool(context.Background())
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(p.Start(ctx)).To(Succeed())
		defer p.Stop(ctx, false)
		Eventually(p.IsRunning).Should(BeTrue())

		for _, port := range []int{portA, portB} {
			addr := fmt.Sprintf("http://127.0.0.1:%d/", port)
			Eventually(func() (int, error) {
				resp, err := http.Get(addr)
				if err != nil {
					return 0, err
				}
				defer resp.Body.Close()
				return resp.StatusCode, nil
			}).Should(Equal(http.StatusOK))
		}
	})

	It("merges another pool's endpoints in, by name", func() {
		p1, err := (libpool.Config{namedConfig("a", l)}).Pool(context.Background())
		Expect(err).NotTo(HaveOccurred())

		p2, err := (libpool.Config{namedConfig("b", l)}).Pool(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(p1.Merge(p2)).To(Succeed())
		Expect(p1.Len()).To(Equal(2))
		Expect(p1.Has("a")).To(BeTrue())
		Expect(p1.Has("b")).To(BeTrue())
	})

	It("Load/Delete/Has/Clean manage membership directly", func() {
		p := libpool.New(context.Background())
		w, err := libep.New(namedConfig("solo", l))
		Expect(err).NotTo(HaveOccurred())

		p.Store(w)
		Expect(p.Has("solo")).To(BeTrue())
		Expect(p.Load("solo")).To(Equal(w))

		p.Delete("solo")
		Expect(p.Has("solo")).To(BeFalse())

		p.Store(w)
		Expect(p.Len()).To(Equal(1))
		p.Clean()
		Expect(p.Len()).To(Equal(0))
	})
})

/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"sync"

	liberr "github.com/nabbar/httpedge/errors"
)

const (
	CodeCertParse liberr.CodeError = liberr.MinPkgTLSConfig + iota
	CodeCAParse
	CodeFileRead
)

func init() {
	liberr.RegisterIdFctMessage(CodeCertParse, msg)
	liberr.RegisterIdFctMessage(CodeCAParse, msg)
	liberr.RegisterIdFctMessage(CodeFileRead, msg)
}

func msg(code liberr.CodeError) string {
	switch code {
	case CodeCertParse:
		return "invalid certificate/key pair"
	case CodeCAParse:
		return "invalid CA certificate"
	case CodeFileRead:
		return "cannot read PEM file"
	}
	return liberr.NullMessage
}

type config struct {
	mu sync.RWMutex

	cert []tls.Certificate

	rootCA   *x509.CertPool
	clientCA *x509.CertPool

	clientAuth    tls.ClientAuthType
	tlsMinVersion uint16
	tlsMaxVersion uint16

	hostManager HostManager
}

func (c *config) AddCertificatePair(cert tls.Certificate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = append(c.cert, cert)
	return nil
}

func (c *config) AddCertificatePairFile(keyFile, crtFile string) error {
	crt, err := tls.LoadX509KeyPair(crtFile, keyFile)
	if err != nil {
		return liberr.New(CodeCertParse, err)
	}
	return c.AddCertificatePair(crt)
}

func (c *config) LenCertificatePair() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cert)
}

func (c *config) AddRootCA(pem []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rootCA == nil {
		c.rootCA = x509.NewCertPool()
	}
	if !c.rootCA.AppendCertsFromPEM(pem) {
		return liberr.New(CodeCAParse)
	}
	return nil
}

func (c *config) AddRootCAFile(pemFile string) error {
	b, err := os.ReadFile(pemFile)
	if err != nil {
		return liberr.New(CodeFileRead, err)
	}
	return c.AddRootCA(b)
}

func (c *config) GetRootCAPool() *x509.CertPool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rootCA
}

func (c *config) AddClientCA(pem []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clientCA == nil {
		c.clientCA = x509.NewCertPool()
	}
	if !c.clientCA.AppendCertsFromPEM(pem) {
		return liberr.New(CodeCAParse)
	}
	return nil
}

func (c *config) AddClientCAFile(pemFile string) error {
	b, err := os.ReadFile(pemFile)
	if err != nil {
		return liberr.New(CodeFileRead, err)
	}
	return c.AddClientCA(b)
}

func (c *config) GetClientCAPool() *x509.CertPool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientCA
}

func (c *config) SetClientAuth(mode tls.ClientAuthType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientAuth = mode
}

func (c *config) SetVersionMin(v uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tlsMinVersion = v
}

func (c *config) SetVersionMax(v uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tlsMaxVersion = v
}

func (c *config) SetHostManager(hm HostManager) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostManager = hm
}

func (c *config) Clone() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := &config{
		cert:          append([]tls.Certificate{}, c.cert...),
		clientAuth:    c.clientAuth,
		tlsMinVersion: c.tlsMinVersion,
		tlsMaxVersion: c.tlsMaxVersion,
		hostManager:   c.hostManager,
	}
	if c.rootCA != nil {
		n.rootCA = c.rootCA.Clone()
	}
	if c.clientCA != nil {
		n.clientCA = c.clientCA.Clone()
	}
	return n
}

func (c *config) TLS(serverName string) *tls.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := &tls.Config{
		Certificates: append([]tls.Certificate{}, c.cert...),
		RootCAs:      c.rootCA,
		ClientCAs:    c.clientCA,
		ClientAuth:   c.clientAuth,
		MinVersion:   c.tlsMinVersion,
		MaxVersion:   c.tlsMaxVersion,
		ServerName:   serverName,
	}

	if c.hostManager != nil {
		hm := c.hostManager
		cfg.GetCertificate = func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return hm.Certificate(hello.ServerName)
		}
	}

	return cfg
}

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

// Package tlsconfig manages the static TLS credentials an endpoint serves
// with: certificate pairs, root/client CA pools, and the supported protocol
// version range. Certificate lifecycle (issuance, renewal) is out of scope;
// this package only loads and assembles what it is given.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
)

// HostManager supplies a certificate for a given SNI server name, letting a
// single endpoint serve more than one TLS identity.
type HostManager interface {
	Certificate(serverName string) (*tls.Certificate, error)
}

// Config is a thread-safe builder for a *tls.Config.
type Config interface {
	AddCertificatePair(cert tls.Certificate) error
	AddCertificatePairFile(keyFile, crtFile string) error
	LenCertificatePair() int

	AddRootCA(pem []byte) error
	AddRootCAFile(pemFile string) error
	GetRootCAPool() *x509.CertPool

	AddClientCA(pem []byte) error
	AddClientCAFile(pemFile string) error
	GetClientCAPool() *x509.CertPool
	SetClientAuth(mode tls.ClientAuthType)

	SetVersionMin(v uint16)
	SetVersionMax(v uint16)

	SetHostManager(hm HostManager)

	Clone() Config
	TLS(serverName string) *tls.Config
}

// New returns a Config defaulted to TLS 1.2 through 1.3, no client
// authentication required.
func New() Config {
	return &config{
		tlsMinVersion: tls.VersionTLS12,
		tlsMaxVersion: tls.VersionTLS13,
		clientAuth:    tls.NoClientCert,
	}
}

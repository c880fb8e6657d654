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

// Package tlsmat loads the controller's TLS material: a certificate chain,
// a private key, and an optional client-CA pool for mutual TLS, mirroring
// the "cert chain + key + CA chain + enabled flag" field of spec.md §3's
// Controller type. Design carried from the teacher's certificates package,
// stripped of its gin/validator coupling (see DESIGN.md).
package tlsmat

import (
	"crypto/tls"
	"crypto/x509"
	"os"
)

// Material is the resolved TLS configuration for one controller instance.
type Material struct {
	Enabled  bool
	CertFile string
	KeyFile  string
	CAFile   string

	// RequireClientCert, when true and CAFile is set, requests and
	// verifies a client certificate (mutual TLS).
	RequireClientCert bool
}

// Load reads cert/key/CA material from disk and builds a *tls.Config
// suitable for http.Server.TLSConfig or a raw net.Listener wrapped with
// tls.NewListener. Returns nil, nil if m is nil or disabled.
func (m *Material) Load() (*tls.Config, error) {
	if m == nil || !m.Enabled {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(m.CertFile, m.KeyFile)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if m.CAFile != "" {
		pem, err := os.ReadFile(m.CAFile)
		if err != nil {
			return nil, err
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, ErrInvalidCA
		}

		cfg.ClientCAs = pool
		if m.RequireClientCert {
			cfg.ClientAuth = tls.RequireAndVerifyClientCert
		} else {
			cfg.ClientAuth = tls.VerifyClientCertIfGiven
		}
	}

	return cfg, nil
}

type tlsError string

func (e tlsError) Error() string { return string(e) }

// ErrInvalidCA is returned when the configured CA file contains no usable
// PEM certificate.
const ErrInvalidCA = tlsError("tlsmat: no certificate found in CA file")

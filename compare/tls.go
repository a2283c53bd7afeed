// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package compare

import "crypto/x509"

func loadCertPool(pemCerts []byte) *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(pemCerts)
	return pool
}

// GenerateTestCertPair creates an ephemeral self-signed TLS certificate
// and key for a locally-spun-up reference node, the way a test harness
// needs when it starts its own instance of the node being compared
// against rather than pointing at a long-lived one.
//
// org is the organization name embedded in the certificate, and
// extraHosts are additional DNS names/IPs (beyond localhost and
// 127.0.0.1) the certificate should be valid for.
func GenerateTestCertPair(org string, extraHosts []string) (cert, key []byte, err error) {
	return newSelfSignedPair(org, extraHosts)
}

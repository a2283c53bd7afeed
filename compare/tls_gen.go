// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package compare

import (
	"time"

	"github.com/decred/dcrd/certgen"
)

// certValidity is how long an ephemeral test certificate remains valid;
// harnesses that need it are short-lived by construction, so this is
// generous rather than tight.
const certValidity = 10 * 365 * 24 * time.Hour

func newSelfSignedPair(org string, extraHosts []string) (cert, key []byte, err error) {
	hosts := append([]string{"localhost", "127.0.0.1"}, extraHosts...)
	return certgen.NewTLSCertPair(org, time.Now().Add(certValidity), hosts)
}

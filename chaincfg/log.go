// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "github.com/decred/slog"

// log is the package-level logger. Disabled by default.
var log = slog.Disabled

// UseLogger sets the package-wide logger used by this package. By default
// the log is disabled since it has no reasonable default.
func UseLogger(logger slog.Logger) {
	log = logger
}

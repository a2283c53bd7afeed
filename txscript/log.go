// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "github.com/decred/slog"

// log is the package-level logger. Disabled by default; no code in this
// package writes to it, so UseLogger has no visible effect.
var log = slog.Disabled

// UseLogger sets the package-wide logger used by this package. By default
// the log is disabled since it has no reasonable default.
func UseLogger(logger slog.Logger) {
	log = logger
}

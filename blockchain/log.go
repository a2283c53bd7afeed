// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "github.com/decred/slog"

// log is the package-level logger used to report validation progress and
// rule-error detail. It is disabled by default; callers wire in a real
// backend with UseLogger.
var log = slog.Disabled

// UseLogger sets the package-wide logger used by this package. By default
// the log is disabled since it has no reasonable default.
func UseLogger(logger slog.Logger) {
	log = logger
}

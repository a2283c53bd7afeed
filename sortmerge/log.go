// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sortmerge

import "github.com/decred/slog"

var log = slog.Disabled

// UseLogger directs package log output at logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

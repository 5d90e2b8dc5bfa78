// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging holds the package-level structured logger shared by the
// CLI, the TUI and the session bootstrap.
package logging

import (
	"fmt"
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Components that accept an injected
// *clog.Logger fall back to L when none is given.
var L = clog.NewWithOptions(os.Stderr, clog.Options{ReportTimestamp: true})

// SetDebug toggles debug output on L.
func SetDebug(enabled bool) {
	if enabled {
		L.SetLevel(clog.DebugLevel)
		return
	}
	L.SetLevel(clog.InfoLevel)
}

// SetOutput redirects L. The TUI points it at a file so log lines do not
// tear the alternate screen.
func SetOutput(w io.Writer) {
	L.SetOutput(w)
}

// Or returns l, or L when l is nil.
func Or(l *clog.Logger) *clog.Logger {
	if l != nil {
		return l
	}
	return L
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}

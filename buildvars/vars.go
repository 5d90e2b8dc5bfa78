// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars holds values injected at link time.
package buildvars

// Version is set via `-ldflags -X github.com/toeirei/studentdir/buildvars.Version=...`.
// Development builds leave it empty.
var Version string

// VersionOrDefault returns Version, or def when it is unset.
func VersionOrDefault(def string) string {
	if Version != "" {
		return Version
	}
	return def
}

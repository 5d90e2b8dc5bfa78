// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import "testing"

func TestAlignFooter(t *testing.T) {
	if got := AlignFooter("ab", "cd", 8); got != "ab    cd" {
		t.Fatalf("got %q", got)
	}
	if got := AlignFooter("left", "right", 3); got != "left right" {
		t.Fatalf("narrow width: got %q", got)
	}
}

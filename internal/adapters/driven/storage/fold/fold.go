// Package fold computes the case-insensitive lookup keys shared by the
// record stores.
package fold

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key returns the Unicode case-folded form of s with surrounding space
// removed. Two titles match when their keys are equal, so "ÉCOLE" and
// "école" are the same title whichever store holds them.
func Key(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

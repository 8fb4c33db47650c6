// Package diff renders unified diffs for test failure output. Multi-line
// fixtures (expanded directive dumps, cast transcripts) are far easier to
// debug as a diff than as two opaque blobs.
package diff

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a GNU unified diff between want and got. Identical inputs
// yield an empty string.
func Unified(want, got string) string {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return err.Error()
	}
	return text
}

// Package locus parses genomic locus descriptions into canonical
// chromosome windows. It accepts the canonical "chr:start-end" form,
// bare chromosome names, and a fixed set of natural-language phrasings.
package locus

import (
	"fmt"
)

// DefaultWindowBp is the half-width of the window placed around a single
// position ("position A on chromosome X" style input).
const DefaultWindowBp = 500000

// Locus is a half-open chromosome interval [Start, End). Coordinates are
// 0-based internally; 1-based on input and display.
type Locus struct {
	Chr             string `json:"chr"`
	Start           int64  `json:"start"`
	End             int64  `json:"end"`
	WholeChromosome bool   `json:"wholeChromosome"`
}

// String formats the locus in the 1-based display form "chr:start-end".
// Whole-chromosome loci format as the bare chromosome name; both forms
// reparse to an equal locus.
func (l Locus) String() string {
	if l.WholeChromosome {
		return l.Chr
	}
	return fmt.Sprintf("%s:%d-%d", l.Chr, l.Start+1, l.End)
}

// Spec is the structured form of a locus request, used by callers that
// already hold parsed fields (e.g. the remote command layer). Start and End
// are 1-based and optional; nil means whole chromosome.
type Spec struct {
	Chr   string `json:"chr"`
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
}

// Package nav implements the navigation and zoom state machine of the
// contact-matrix browser: the resolution table, the view state and its
// transitions, the zoom engine, the wheel debouncer, and the Navigator
// facade consumed by the command surface.
package nav

import (
	"fmt"
)

// ResolutionLevel is one discrete zoom tier of a dataset. Index 0 is the
// coarsest tier; bin sizes are strictly decreasing with increasing index.
type ResolutionLevel struct {
	Index   int   `json:"index"`
	BinSize int64 `json:"binSize"`
}

// ResolutionTable is the ordered list of zoom tiers for a dataset (or for
// the whole-genome pseudo-matrix, where it holds a single kilobase-scaled
// tier).
type ResolutionTable struct {
	levels []ResolutionLevel
}

// NewResolutionTable builds a table from a flat list of bin sizes ordered
// coarsest first.
func NewResolutionTable(binSizes []int64) (*ResolutionTable, error) {
	levels := make([]ResolutionLevel, len(binSizes))
	for i, b := range binSizes {
		levels[i] = ResolutionLevel{Index: i, BinSize: b}
	}
	return NewResolutionTableFromLevels(levels)
}

// NewResolutionTableFromLevels builds a table from explicit levels. Both
// constructors converge on the same validated representation, so lookups
// never have to re-detect the input shape.
func NewResolutionTableFromLevels(levels []ResolutionLevel) (*ResolutionTable, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("resolution table: no levels")
	}
	for i, l := range levels {
		if l.Index != i {
			return nil, fmt.Errorf("resolution table: level %d has index %d", i, l.Index)
		}
		if l.BinSize <= 0 {
			return nil, fmt.Errorf("resolution table: level %d has bin size %d", i, l.BinSize)
		}
		if i > 0 && l.BinSize >= levels[i-1].BinSize {
			return nil, fmt.Errorf("resolution table: bin sizes not strictly decreasing at level %d", i)
		}
	}
	t := &ResolutionTable{levels: make([]ResolutionLevel, len(levels))}
	copy(t.levels, levels)
	return t, nil
}

// Levels returns the zoom tiers, coarsest first.
func (t *ResolutionTable) Levels() []ResolutionLevel {
	return t.levels
}

// Len returns the number of tiers.
func (t *ResolutionTable) Len() int {
	return len(t.levels)
}

// Finest returns the index of the finest tier.
func (t *ResolutionTable) Finest() int {
	return len(t.levels) - 1
}

// BinSize returns the bin size of the given tier, clamping out-of-range
// indices to the table bounds.
func (t *ResolutionTable) BinSize(index int) int64 {
	if index < 0 {
		index = 0
	}
	if index >= len(t.levels) {
		index = len(t.levels) - 1
	}
	return t.levels[index].BinSize
}

// Valid reports whether index addresses a tier.
func (t *ResolutionTable) Valid(index int) bool {
	return index >= 0 && index < len(t.levels)
}

// NearestZoomIndex scans from the finest tier to the coarsest and returns
// the first tier whose bin size is at least targetBinSize. Requests finer
// than the finest tier clamp to the finest; requests coarser than the
// coarsest clamp to tier 0.
func (t *ResolutionTable) NearestZoomIndex(targetBinSize float64) int {
	for i := len(t.levels) - 1; i >= 0; i-- {
		if float64(t.levels[i].BinSize) >= targetBinSize {
			return i
		}
	}
	return 0
}

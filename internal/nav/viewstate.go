package nav

import (
	"github.com/aidenlab/juicebox-mcp-sub000/internal/locus"
)

// Pixel size bounds within a resolution tier. Zooming past MaxPixelSize
// crosses to a finer tier; falling below the per-pair minimum crosses to a
// coarser one.
const (
	MinPixelSize = 1.0
	MaxPixelSize = 4.0
)

// WholeGenomeIndex marks the genome-wide pseudo-chromosome on both axes.
const WholeGenomeIndex = 0

// LocusPair is the derived human-readable window for both axes.
type LocusPair struct {
	X locus.Locus `json:"x"`
	Y locus.Locus `json:"y"`
}

// ViewState is the complete navigation state of the browser. X and Y are
// the matrix origin of the viewport in bin units at the current zoom tier;
// PixelSize is the screen size of one bin in pixels. The locus pair is
// derived from the numeric fields after every transition, never the other
// way round.
type ViewState struct {
	Chr1      int       `json:"chr1"`
	Chr2      int       `json:"chr2"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	PixelSize float64   `json:"pixelSize"`
	Zoom      int       `json:"zoom"`
	Locus     LocusPair `json:"locus"`
}

// WholeGenome reports whether the view is on the genome-wide matrix.
func (s ViewState) WholeGenome() bool {
	return s.Chr1 == WholeGenomeIndex
}

// Extent carries the clamping bounds for one chromosome pair at one zoom
// tier: the matrix size in bins and the viewport size in pixels.
type Extent struct {
	XBins  float64
	YBins  float64
	Width  float64
	Height float64
}

// ClampXY keeps the viewport inside the matrix. When the matrix is smaller
// than the viewport the origin pins to zero.
func (s *ViewState) ClampXY(e Extent) {
	maxX := e.XBins - e.Width/s.PixelSize
	if maxX < 0 {
		maxX = 0
	}
	maxY := e.YBins - e.Height/s.PixelSize
	if maxY < 0 {
		maxY = 0
	}
	if s.X > maxX {
		s.X = maxX
	}
	if s.X < 0 {
		s.X = 0
	}
	if s.Y > maxY {
		s.Y = maxY
	}
	if s.Y < 0 {
		s.Y = 0
	}
}

// PanShift translates the view by a pixel delta at the current zoom.
func (s *ViewState) PanShift(dxPx, dyPx float64, e Extent) {
	s.X += dxPx / s.PixelSize
	s.Y += dyPx / s.PixelSize
	s.ClampXY(e)
}

// PanWithZoom switches to a new tier and pixel size while keeping the
// genomic coordinate under the anchor pixel fixed on screen. oldBin and
// newBin are the bin sizes of the outgoing and incoming tiers; the extent
// must be computed for the incoming tier.
func (s *ViewState) PanWithZoom(zoom int, pixelSize float64, anchorPx, anchorPy float64, oldBin, newBin int64, e Extent) {
	gx := (s.X + anchorPx/s.PixelSize) * float64(oldBin)
	gy := (s.Y + anchorPy/s.PixelSize) * float64(oldBin)

	s.Zoom = zoom
	s.PixelSize = pixelSize
	s.X = gx/float64(newBin) - anchorPx/pixelSize
	s.Y = gy/float64(newBin) - anchorPy/pixelSize
	s.ClampXY(e)
}

// SetWithZoom jumps to an explicit tier while keeping the view center
// fixed, and reports whether anything changed.
func (s *ViewState) SetWithZoom(zoom int, pixelSize float64, oldBin, newBin int64, e Extent) bool {
	if zoom == s.Zoom && pixelSize == s.PixelSize {
		return false
	}
	s.PanWithZoom(zoom, pixelSize, e.Width/2, e.Height/2, oldBin, newBin, e)
	return true
}

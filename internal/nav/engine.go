package nav

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/genome"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/locus"
)

// Dataset is the slice of a loaded contact map that navigation needs:
// resolution tiers per chromosome pair and the matrix extent used for
// clamping and zoom-floor checks. Matrix metadata may be fetched lazily,
// hence the context and error.
type Dataset interface {
	// ResolutionsFor returns the tier table for a chromosome pair. The
	// whole-genome pair has a single kilobase-scaled tier.
	ResolutionsFor(chr1, chr2 int) *ResolutionTable
	// MatrixBins returns the matrix extent in bins for the pair at a tier.
	MatrixBins(ctx context.Context, chr1, chr2, zoom int) (xBins, yBins float64, err error)
}

// Viewport reports the drawing surface size in pixels.
type Viewport interface {
	ViewDimensions() (width, height float64)
}

// transition summarizes what a state change touched so the facade can run
// its redraw epilogue.
type transition struct {
	resolutionChanged bool
	chrChanged        bool
	smooth            *smoothZoom
}

// smoothZoom asks the renderer to animate a same-tier scale change instead
// of waiting for fresh tiles.
type smoothZoom struct {
	anchorPx float64
	anchorPy float64
	scale    float64
}

// ZoomEngine applies navigation transitions to a ViewState. It is not
// self-locking; the Navigator serializes access.
type ZoomEngine struct {
	genome   *genome.Genome
	viewport Viewport
	logger   *zap.Logger

	dataset Dataset
	locked  bool
	state   ViewState
}

// NewZoomEngine creates an engine with no dataset attached. Gestures
// before SetDataset log a warning and do nothing.
func NewZoomEngine(g *genome.Genome, vp Viewport, logger *zap.Logger) *ZoomEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZoomEngine{
		genome:   g,
		viewport: vp,
		logger:   logger,
		state:    ViewState{PixelSize: MinPixelSize},
	}
}

// State returns a copy of the current view state.
func (e *ZoomEngine) State() ViewState {
	return e.state
}

// Dataset returns the attached dataset, nil before load.
func (e *ZoomEngine) Dataset() Dataset {
	return e.dataset
}

// SetResolutionLocked pins the current tier: gestures adjust pixel size
// only until unlocked.
func (e *ZoomEngine) SetResolutionLocked(locked bool) {
	e.locked = locked
}

// ResolutionLocked reports whether the tier is pinned.
func (e *ZoomEngine) ResolutionLocked() bool {
	return e.locked
}

// SetDataset attaches a dataset and resets the view to the whole-genome
// matrix.
func (e *ZoomEngine) SetDataset(ctx context.Context, ds Dataset) (transition, error) {
	e.dataset = ds
	e.state = ViewState{PixelSize: MinPixelSize}
	tr, err := e.wholeGenomeTransition(ctx)
	tr.chrChanged = true
	tr.resolutionChanged = true
	return tr, err
}

func (e *ZoomEngine) table() *ResolutionTable {
	return e.dataset.ResolutionsFor(e.state.Chr1, e.state.Chr2)
}

func (e *ZoomEngine) extent(ctx context.Context, chr1, chr2, zoom int) (Extent, error) {
	w, h := e.viewport.ViewDimensions()
	xb, yb, err := e.dataset.MatrixBins(ctx, chr1, chr2, zoom)
	if err != nil {
		return Extent{}, fmt.Errorf("matrix extent for pair (%d,%d) zoom %d: %w", chr1, chr2, zoom, err)
	}
	return Extent{XBins: xb, YBins: yb, Width: w, Height: h}, nil
}

// MinPixelSize is the pixel size at which the pair's longer axis exactly
// spans the viewport at the given tier. Below it the view would shrink
// past the full-pair extent.
func (e *ZoomEngine) MinPixelSize(ctx context.Context, chr1, chr2, zoom int) (float64, error) {
	w, h := e.viewport.ViewDimensions()
	xb, yb, err := e.dataset.MatrixBins(ctx, chr1, chr2, zoom)
	if err != nil {
		return 0, err
	}
	return math.Min(w/xb, h/yb), nil
}

// MinZoom is the coarsest usable tier for the pair: the first tier whose
// minimum pixel size does not exceed MaxPixelSize. Zooming out past it
// falls back to the whole-genome view.
func (e *ZoomEngine) MinZoom(ctx context.Context, chr1, chr2 int) (int, error) {
	table := e.dataset.ResolutionsFor(chr1, chr2)
	for z := 0; z < table.Len(); z++ {
		mp, err := e.MinPixelSize(ctx, chr1, chr2, z)
		if err != nil {
			return 0, err
		}
		if mp <= MaxPixelSize {
			return z, nil
		}
	}
	return table.Finest(), nil
}

func clampPixelSize(ps, floor float64) float64 {
	if ps > MaxPixelSize {
		ps = MaxPixelSize
	}
	if ps < floor {
		ps = floor
	}
	return ps
}

// GestureZoom scales the view by a continuous factor anchored at a
// viewport pixel. The tier is re-picked so the effective pixel size stays
// near 1 unless the resolution is locked; a same-tier change additionally
// requests a smooth-zoom animation.
func (e *ZoomEngine) GestureZoom(ctx context.Context, anchorPx, anchorPy, scale float64) (transition, error) {
	if e.dataset == nil {
		e.logger.Warn("gesture zoom before dataset load")
		return transition{}, nil
	}
	if scale <= 0 {
		e.logger.Warn("ignoring non-positive zoom scale", zap.Float64("scale", scale))
		return transition{}, nil
	}

	s := &e.state
	if s.WholeGenome() && scale > 1 {
		return e.enterPairUnderAnchor(ctx, anchorPx, anchorPy)
	}

	table := e.table()
	oldBin := table.BinSize(s.Zoom)
	targetBinSize := float64(oldBin) / (s.PixelSize * scale)

	newZoom := s.Zoom
	if !e.locked {
		newZoom = table.NearestZoomIndex(targetBinSize)
	}
	newBin := table.BinSize(newZoom)
	newPixel := float64(newBin) / targetBinSize

	if scale < 1 && !s.WholeGenome() {
		minZoom, err := e.MinZoom(ctx, s.Chr1, s.Chr2)
		if err != nil {
			return transition{}, err
		}
		// The pair is fully visible once the pixel size sits at the
		// pair-fit floor; any further zoom-out falls back to the
		// whole-genome matrix.
		curMinPS, err := e.MinPixelSize(ctx, s.Chr1, s.Chr2, s.Zoom)
		if err != nil {
			return transition{}, err
		}
		if newZoom < minZoom || s.PixelSize <= curMinPS {
			return e.wholeGenomeTransition(ctx)
		}
	}

	minPS, err := e.MinPixelSize(ctx, s.Chr1, s.Chr2, newZoom)
	if err != nil {
		return transition{}, err
	}
	newPixel = clampPixelSize(newPixel, math.Max(MinPixelSize, minPS))
	ext, err := e.extent(ctx, s.Chr1, s.Chr2, newZoom)
	if err != nil {
		return transition{}, err
	}

	resolutionChanged := newZoom != s.Zoom
	pixelChanged := newPixel != s.PixelSize
	s.PanWithZoom(newZoom, newPixel, anchorPx, anchorPy, oldBin, newBin, ext)
	e.deriveLoci()

	tr := transition{resolutionChanged: resolutionChanged}
	if !resolutionChanged && pixelChanged {
		tr.smooth = &smoothZoom{anchorPx: anchorPx, anchorPy: anchorPy, scale: scale}
	}
	return tr, nil
}

// ZoomAndCenter is the discrete button step: recentre on the clicked point,
// then double (direction > 0) or halve (direction < 0) the magnification at
// the viewport center. Zooming in from the whole-genome view drills into
// the chromosome pair under the point instead.
func (e *ZoomEngine) ZoomAndCenter(ctx context.Context, direction int, cx, cy float64) (transition, error) {
	if e.dataset == nil {
		e.logger.Warn("zoom before dataset load")
		return transition{}, nil
	}
	if direction == 0 {
		return transition{}, nil
	}

	s := &e.state
	if s.WholeGenome() && direction > 0 {
		return e.enterPairUnderAnchor(ctx, cx, cy)
	}

	w, h := e.viewport.ViewDimensions()
	ext, err := e.extent(ctx, s.Chr1, s.Chr2, s.Zoom)
	if err != nil {
		return transition{}, err
	}
	s.PanShift(cx-w/2, cy-h/2, ext)

	scale := 2.0
	if direction < 0 {
		scale = 0.5
	}
	return e.GestureZoom(ctx, w/2, h/2, scale)
}

// SetZoom jumps to an explicit tier, keeping the view center fixed.
// Out-of-range indices and no-op requests leave the state untouched.
func (e *ZoomEngine) SetZoom(ctx context.Context, zoom int) (transition, error) {
	if e.dataset == nil {
		e.logger.Warn("set zoom before dataset load")
		return transition{}, nil
	}

	s := &e.state
	table := e.table()
	if !table.Valid(zoom) {
		e.logger.Warn("zoom index out of range",
			zap.Int("zoom", zoom), zap.Int("levels", table.Len()))
		return transition{}, nil
	}
	if zoom == s.Zoom {
		return transition{}, nil
	}

	oldBin := table.BinSize(s.Zoom)
	newBin := table.BinSize(zoom)
	minPS, err := e.MinPixelSize(ctx, s.Chr1, s.Chr2, zoom)
	if err != nil {
		return transition{}, err
	}
	pixel := clampPixelSize(s.PixelSize, math.Max(MinPixelSize, minPS))
	ext, err := e.extent(ctx, s.Chr1, s.Chr2, zoom)
	if err != nil {
		return transition{}, err
	}

	s.SetWithZoom(zoom, pixel, oldBin, newBin, ext)
	e.deriveLoci()
	return transition{resolutionChanged: true}, nil
}

// GotoLoci repositions the view to show the given per-axis windows,
// picking the tier and pixel size that fit them in the viewport. Pairs
// are kept in lower-triangle order (Chr1 <= Chr2), swapping axes when
// needed.
func (e *ZoomEngine) GotoLoci(ctx context.Context, lx, ly locus.Locus) (transition, error) {
	if e.dataset == nil {
		return transition{}, fmt.Errorf("navigation: no dataset loaded")
	}

	c1, ok1 := e.genome.Chromosome(lx.Chr)
	c2, ok2 := e.genome.Chromosome(ly.Chr)
	if !ok1 || !ok2 {
		return transition{}, fmt.Errorf("navigation: unknown chromosome %q/%q", lx.Chr, ly.Chr)
	}
	if c1.Index > c2.Index {
		c1, c2 = c2, c1
		lx, ly = ly, lx
	}

	s := &e.state
	chrChanged := c1.Index != s.Chr1 || c2.Index != s.Chr2

	w, h := e.viewport.ViewDimensions()
	table := e.dataset.ResolutionsFor(c1.Index, c2.Index)
	target := math.Max(float64(lx.End-lx.Start)/w, float64(ly.End-ly.Start)/h)
	if target <= 0 {
		return transition{}, fmt.Errorf("navigation: empty locus %s", lx.String())
	}

	zoom := table.NearestZoomIndex(target)
	if e.locked && !chrChanged {
		zoom = s.Zoom
	}
	bin := table.BinSize(zoom)

	minPS, err := e.MinPixelSize(ctx, c1.Index, c2.Index, zoom)
	if err != nil {
		return transition{}, err
	}
	pixel := clampPixelSize(float64(bin)/target, math.Max(MinPixelSize, minPS))

	resolutionChanged := chrChanged || zoom != s.Zoom
	s.Chr1, s.Chr2 = c1.Index, c2.Index
	s.Zoom = zoom
	s.PixelSize = pixel
	s.X = float64(lx.Start) / float64(bin)
	s.Y = float64(ly.Start) / float64(bin)

	ext, err := e.extent(ctx, c1.Index, c2.Index, zoom)
	if err != nil {
		return transition{}, err
	}
	s.ClampXY(ext)
	e.deriveLoci()
	return transition{resolutionChanged: resolutionChanged, chrChanged: chrChanged}, nil
}

// Shift pans the view by a pixel delta at the current zoom.
func (e *ZoomEngine) Shift(ctx context.Context, dxPx, dyPx float64) (transition, error) {
	if e.dataset == nil {
		e.logger.Warn("pan before dataset load")
		return transition{}, nil
	}
	ext, err := e.extent(ctx, e.state.Chr1, e.state.Chr2, e.state.Zoom)
	if err != nil {
		return transition{}, err
	}
	e.state.PanShift(dxPx, dyPx, ext)
	e.deriveLoci()
	return transition{}, nil
}

// enterPairUnderAnchor maps an anchor pixel on the whole-genome matrix to
// the chromosome pair containing it and shows that pair whole.
func (e *ZoomEngine) enterPairUnderAnchor(ctx context.Context, anchorPx, anchorPy float64) (transition, error) {
	s := &e.state
	binKb := e.table().BinSize(s.Zoom)
	kbX := (s.X + anchorPx/s.PixelSize) * float64(binKb)
	kbY := (s.Y + anchorPy/s.PixelSize) * float64(binKb)
	cx := e.genome.ChromosomeForCoordinate(int64(kbX) * 1000)
	cy := e.genome.ChromosomeForCoordinate(int64(kbY) * 1000)
	return e.GotoLoci(ctx, wholeLocus(cx), wholeLocus(cy))
}

func (e *ZoomEngine) wholeGenomeTransition(ctx context.Context) (transition, error) {
	all, _ := e.genome.ChromosomeAt(genome.WholeGenomeIndex)
	return e.GotoLoci(ctx, wholeLocus(all), wholeLocus(all))
}

func wholeLocus(c genome.Chromosome) locus.Locus {
	return locus.Locus{Chr: c.Name, Start: 0, End: c.Size, WholeChromosome: true}
}

// deriveLoci recomputes the human-readable locus pair from the numeric
// state. Whole-genome loci are expressed in kilobases, matching the
// pseudo-chromosome's units.
func (e *ZoomEngine) deriveLoci() {
	s := &e.state
	w, h := e.viewport.ViewDimensions()
	bin := e.table().BinSize(s.Zoom)
	c1, _ := e.genome.ChromosomeAt(s.Chr1)
	c2, _ := e.genome.ChromosomeAt(s.Chr2)
	s.Locus.X = windowLocus(c1, s.X, w/s.PixelSize, bin)
	s.Locus.Y = windowLocus(c2, s.Y, h/s.PixelSize, bin)
}

func windowLocus(c genome.Chromosome, originBins, spanBins float64, bin int64) locus.Locus {
	start := int64(originBins * float64(bin))
	end := int64((originBins + spanBins) * float64(bin))
	if start < 0 {
		start = 0
	}
	if end > c.Size {
		end = c.Size
	}
	return locus.Locus{
		Chr:             c.Name,
		Start:           start,
		End:             end,
		WholeChromosome: start == 0 && end == c.Size,
	}
}

package nav

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/genome"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/locus"
)

// Renderer receives redraw hints after navigation transitions.
type Renderer interface {
	// ClearImageCaches drops cached tiles after a tier or chromosome change.
	ClearImageCaches()
	// RequestSmoothZoom asks for an animated rescale of the current tiles
	// while replacements render.
	RequestSmoothZoom(anchorPx, anchorPy, scale float64)
}

type noopRenderer struct{}

func (noopRenderer) ClearImageCaches()                 {}
func (noopRenderer) RequestSmoothZoom(_, _, _ float64) {}

// LocusChangeEvent is broadcast to listeners after every applied
// transition. State is a copy taken under the navigator lock.
type LocusChangeEvent struct {
	State             ViewState `json:"state"`
	ResolutionChanged bool      `json:"resolutionChanged"`
	ChrChanged        bool      `json:"chrChanged"`
	Dragging          bool      `json:"dragging"`
}

// Listener observes locus changes. Listeners run under the navigator lock
// and must not call back into the Navigator.
type Listener func(LocusChangeEvent)

// Result echoes the applied state to command callers.
type Result struct {
	State             ViewState `json:"state"`
	ResolutionChanged bool      `json:"resolutionChanged"`
	ChrChanged        bool      `json:"chrChanged"`
}

// Navigator is the facade in front of the zoom engine: it serializes all
// navigation commands, resolves locus text (falling back to gene names),
// routes wheel gestures through the debouncer, and runs the redraw
// epilogue after each transition.
type Navigator struct {
	mu       sync.Mutex
	engine   *ZoomEngine
	renderer Renderer
	wheel    *WheelDebouncer
	logger   *zap.Logger
	parser   *locus.Parser
	genes    *genome.GeneIndex
	genome   *genome.Genome
	screen   *ScreenViewport

	listeners []Listener
}

// NewNavigator wires the facade. genes and renderer may be nil.
func NewNavigator(g *genome.Genome, genes *genome.GeneIndex, screen *ScreenViewport, renderer Renderer, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = noopRenderer{}
	}
	n := &Navigator{
		engine:   NewZoomEngine(g, screen, logger),
		renderer: renderer,
		logger:   logger,
		parser:   locus.NewParser(g),
		genes:    genes,
		genome:   g,
		screen:   screen,
	}
	n.wheel = NewWheelDebouncer(n.applyWheel)
	return n
}

// Genome returns the reference genome the navigator resolves against.
func (n *Navigator) Genome() *genome.Genome {
	return n.genome
}

// State returns a copy of the current view state.
func (n *Navigator) State() ViewState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.State()
}

// Resolutions returns the tier table for the current chromosome pair, nil
// before a dataset is loaded.
func (n *Navigator) Resolutions() []ResolutionLevel {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.engine.Dataset() == nil {
		return nil
	}
	return n.engine.table().Levels()
}

// SetResolutionLocked pins or releases the current tier.
func (n *Navigator) SetResolutionLocked(locked bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.engine.SetResolutionLocked(locked)
}

// ResolutionLocked reports whether the tier is pinned.
func (n *Navigator) ResolutionLocked() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.ResolutionLocked()
}

// AddListener registers a locus-change observer.
func (n *Navigator) AddListener(l Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

// LoadDataset attaches a dataset and resets to the whole-genome view.
func (n *Navigator) LoadDataset(ctx context.Context, ds Dataset) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tr, err := n.engine.SetDataset(ctx, ds)
	if err != nil {
		return Result{}, err
	}
	return n.finish(tr, false), nil
}

// Goto shows a locus on both axes, or two different loci when y is
// non-nil. Either axis accepts a locus string or a structured spec;
// strings that do not parse as loci fall back to gene-name lookup.
func (n *Navigator) Goto(ctx context.Context, x, y any) (Result, error) {
	lx, err := n.resolveLocusInput(x)
	if err != nil {
		return Result{}, err
	}
	ly := lx
	if y != nil {
		ly, err = n.resolveLocusInput(y)
		if err != nil {
			return Result{}, err
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	tr, err := n.engine.GotoLoci(ctx, lx, ly)
	if err != nil {
		return Result{}, err
	}
	return n.finish(tr, false), nil
}

// SetChromosomes shows the full extent of a chromosome pair.
func (n *Navigator) SetChromosomes(ctx context.Context, xName, yName string) (Result, error) {
	cx, ok := n.genome.Chromosome(xName)
	if !ok {
		return Result{}, fmt.Errorf("navigation: unknown chromosome %q", xName)
	}
	cy, ok := n.genome.Chromosome(yName)
	if !ok {
		return Result{}, fmt.Errorf("navigation: unknown chromosome %q", yName)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	tr, err := n.engine.GotoLoci(ctx, wholeLocus(cx), wholeLocus(cy))
	if err != nil {
		return Result{}, err
	}
	return n.finish(tr, false), nil
}

// Pan translates the view by a pixel delta. dragging marks mid-drag pans
// so listeners can defer expensive work until the drag ends.
func (n *Navigator) Pan(ctx context.Context, dxPx, dyPx float64, dragging bool) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tr, err := n.engine.Shift(ctx, dxPx, dyPx)
	if err != nil {
		return Result{}, err
	}
	return n.finish(tr, dragging), nil
}

// ZoomAndCenter applies a discrete zoom step centered on a viewport point.
func (n *Navigator) ZoomAndCenter(ctx context.Context, direction int, cx, cy float64) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tr, err := n.engine.ZoomAndCenter(ctx, direction, cx, cy)
	if err != nil {
		return Result{}, err
	}
	return n.finish(tr, false), nil
}

// ZoomIn doubles the magnification at the viewport center.
func (n *Navigator) ZoomIn(ctx context.Context) (Result, error) {
	w, h := n.screen.ViewDimensions()
	return n.ZoomAndCenter(ctx, 1, w/2, h/2)
}

// ZoomOut halves the magnification at the viewport center.
func (n *Navigator) ZoomOut(ctx context.Context) (Result, error) {
	w, h := n.screen.ViewDimensions()
	return n.ZoomAndCenter(ctx, -1, w/2, h/2)
}

// SetZoom jumps to an explicit tier index.
func (n *Navigator) SetZoom(ctx context.Context, zoom int) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tr, err := n.engine.SetZoom(ctx, zoom)
	if err != nil {
		return Result{}, err
	}
	return n.finish(tr, false), nil
}

// PinchZoom applies an anchored scale gesture synchronously, bypassing the
// wheel debouncer.
func (n *Navigator) PinchZoom(ctx context.Context, anchorPx, anchorPy, scale float64) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tr, err := n.engine.GestureZoom(ctx, anchorPx, anchorPy, scale)
	if err != nil {
		return Result{}, err
	}
	return n.finish(tr, false), nil
}

// Wheel submits an anchored wheel gesture to the debouncer. Bursts fold
// into a single step whose scale is the product of the burst's scales.
func (n *Navigator) Wheel(anchorPx, anchorPy, scale float64) {
	n.wheel.Enqueue(anchorPx, anchorPy, scale)
}

// WaitWheel blocks until all submitted wheel gestures have been applied.
func (n *Navigator) WaitWheel() {
	n.wheel.Wait()
}

func (n *Navigator) applyWheel(anchorPx, anchorPy, scale float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tr, err := n.engine.GestureZoom(context.Background(), anchorPx, anchorPy, scale)
	if err != nil {
		n.logger.Warn("wheel zoom failed", zap.Error(err))
		return
	}
	n.finish(tr, false)
}

// SetViewportSize resizes the drawing surface and re-clamps the view.
func (n *Navigator) SetViewportSize(ctx context.Context, width, height float64) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.screen.SetDimensions(width, height)
	if n.engine.Dataset() == nil {
		return Result{State: n.engine.State()}, nil
	}
	tr, err := n.engine.Shift(ctx, 0, 0)
	if err != nil {
		return Result{}, err
	}
	return n.finish(tr, false), nil
}

// resolveLocusInput turns a locus string or spec into a canonical locus,
// trying gene names when the text does not resolve as a locus.
func (n *Navigator) resolveLocusInput(input any) (locus.Locus, error) {
	l, ok, err := n.parser.ParseFlexible(input)
	if err != nil {
		return locus.Locus{}, err
	}
	if ok {
		return l, nil
	}
	if s, isStr := input.(string); isStr {
		if g, found := n.genes.Lookup(strings.TrimSpace(s)); found {
			return locus.Locus{Chr: g.Chr, Start: g.Start, End: g.End}, nil
		}
	}
	return locus.Locus{}, fmt.Errorf("navigation: cannot resolve locus %q", input)
}

// finish runs the redraw epilogue under the navigator lock: cache clears
// on tier or chromosome changes, smooth-zoom hints, and listener fan-out.
func (n *Navigator) finish(tr transition, dragging bool) Result {
	st := n.engine.State()
	if tr.resolutionChanged || tr.chrChanged {
		n.renderer.ClearImageCaches()
	}
	if tr.smooth != nil {
		n.renderer.RequestSmoothZoom(tr.smooth.anchorPx, tr.smooth.anchorPy, tr.smooth.scale)
	}

	ev := LocusChangeEvent{
		State:             st,
		ResolutionChanged: tr.resolutionChanged,
		ChrChanged:        tr.chrChanged,
		Dragging:          dragging,
	}
	for _, l := range n.listeners {
		l(ev)
	}

	return Result{
		State:             st,
		ResolutionChanged: tr.resolutionChanged,
		ChrChanged:        tr.chrChanged,
	}
}

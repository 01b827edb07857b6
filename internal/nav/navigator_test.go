package nav

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/genome"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/locus"
)

type recordingRenderer struct {
	mu     sync.Mutex
	clears int
	smooth []smoothZoom
}

func (r *recordingRenderer) ClearImageCaches() {
	r.mu.Lock()
	r.clears++
	r.mu.Unlock()
}

func (r *recordingRenderer) RequestSmoothZoom(ax, ay, scale float64) {
	r.mu.Lock()
	r.smooth = append(r.smooth, smoothZoom{anchorPx: ax, anchorPy: ay, scale: scale})
	r.mu.Unlock()
}

func (r *recordingRenderer) clearCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

func newTestNavigator(t *testing.T) (*Navigator, *recordingRenderer) {
	t.Helper()
	g := testGenome()
	genes := genome.NewGeneIndex([]genome.Gene{
		{Name: "MYC", Chr: "chr2", Start: 100_000_000, End: 100_005_000},
	})
	r := &recordingRenderer{}
	n := NewNavigator(g, genes, NewScreenViewport(testViewDim, testViewDim), r, nil)
	_, err := n.LoadDataset(context.Background(), newFakeDataset(g))
	require.NoError(t, err)
	return n, r
}

func TestNavigatorGoto(t *testing.T) {
	n, _ := newTestNavigator(t)

	res, err := n.Goto(context.Background(), "chr1:10,000,001-20,000,000", nil)
	require.NoError(t, err)
	assert.True(t, res.ChrChanged)
	assert.Equal(t, 1, res.State.Chr1)
	assert.Equal(t, int64(10_000_000), res.State.Locus.X.Start)
}

func TestNavigatorGotoGeneFallback(t *testing.T) {
	n, _ := newTestNavigator(t)

	res, err := n.Goto(context.Background(), "MYC", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.State.Chr1)
	assert.Equal(t, 2, res.State.Chr2)
	assert.Equal(t, 8, res.State.Zoom)
	assert.InDelta(t, MaxPixelSize, res.State.PixelSize, 1e-9)

	_, err = n.Goto(context.Background(), "NOTAGENE42", nil)
	assert.Error(t, err)
}

func TestNavigatorGotoSpec(t *testing.T) {
	n, _ := newTestNavigator(t)

	start, end := int64(1_000_001), int64(41_000_000)
	res, err := n.Goto(context.Background(), locus.Spec{Chr: "chr1", Start: &start, End: &end}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), res.State.Locus.X.Start)
}

func TestNavigatorSetChromosomes(t *testing.T) {
	n, _ := newTestNavigator(t)

	res, err := n.SetChromosomes(context.Background(), "2", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.Chr1)
	assert.Equal(t, 2, res.State.Chr2)
	assert.True(t, res.State.Locus.X.WholeChromosome)

	_, err = n.SetChromosomes(context.Background(), "chrZZ", "1")
	assert.Error(t, err)
}

func TestNavigatorEpilogue(t *testing.T) {
	n, r := newTestNavigator(t)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		events []LocusChangeEvent
	)
	n.AddListener(func(ev LocusChangeEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	_, err := n.Goto(ctx, "chr1", nil)
	require.NoError(t, err)
	clearsAfterGoto := r.clearCount()
	assert.Greater(t, clearsAfterGoto, 0, "chromosome change clears tile caches")

	// Pans keep the tier: no cache clear, and the dragging flag passes
	// through to listeners.
	_, err = n.Pan(ctx, 25, 0, true)
	require.NoError(t, err)
	assert.Equal(t, clearsAfterGoto, r.clearCount())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.True(t, events[0].ResolutionChanged)
	assert.False(t, events[0].Dragging)
	assert.True(t, events[1].Dragging)
	assert.False(t, events[1].ResolutionChanged)
}

func TestNavigatorSmoothZoomHint(t *testing.T) {
	n, r := newTestNavigator(t)
	ctx := context.Background()

	_, err := n.Goto(ctx, "chr1", nil)
	require.NoError(t, err)

	// Same-tier pixel doubling carries a smooth-zoom hint.
	res, err := n.PinchZoom(ctx, 400, 400, 2)
	require.NoError(t, err)
	assert.False(t, res.ResolutionChanged)

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.smooth, 1)
	assert.Equal(t, smoothZoom{anchorPx: 400, anchorPy: 400, scale: 2}, r.smooth[0])
}

func TestWheelMatchesSinglePinch(t *testing.T) {
	ctx := context.Background()
	n1, _ := newTestNavigator(t)
	n2, _ := newTestNavigator(t)

	_, err := n1.Goto(ctx, "chr1", nil)
	require.NoError(t, err)
	_, err = n2.Goto(ctx, "chr1", nil)
	require.NoError(t, err)

	// Three wheel steps of 1.2 and a single 1.728x pinch land on the same
	// state: folded or sequential, the scale product is conserved.
	for i := 0; i < 3; i++ {
		n1.Wheel(300, 300, 1.2)
	}
	n1.WaitWheel()

	_, err = n2.PinchZoom(ctx, 300, 300, 1.2*1.2*1.2)
	require.NoError(t, err)

	s1, s2 := n1.State(), n2.State()
	assert.Equal(t, s2.Zoom, s1.Zoom)
	assert.InDelta(t, s2.PixelSize, s1.PixelSize, 1e-9)
	assert.InDelta(t, s2.X, s1.X, 1e-6)
	assert.InDelta(t, s2.Y, s1.Y, 1e-6)
}

func TestNavigatorSetViewportSize(t *testing.T) {
	n, _ := newTestNavigator(t)
	ctx := context.Background()

	_, err := n.Goto(ctx, "chr1", nil)
	require.NoError(t, err)

	res, err := n.SetViewportSize(ctx, 400, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000), res.State.Locus.X.End)
}

func TestNavigatorResolutions(t *testing.T) {
	g := testGenome()
	n := NewNavigator(g, nil, NewScreenViewport(testViewDim, testViewDim), nil, nil)
	assert.Nil(t, n.Resolutions())

	_, err := n.LoadDataset(context.Background(), newFakeDataset(g))
	require.NoError(t, err)

	// The whole-genome pair has its single kilobase-scaled tier.
	levels := n.Resolutions()
	require.Len(t, levels, 1)

	_, err = n.Goto(context.Background(), "chr1", nil)
	require.NoError(t, err)
	assert.Len(t, n.Resolutions(), len(testBinSizes))
}

func TestNavigatorZoomButtons(t *testing.T) {
	n, _ := newTestNavigator(t)
	ctx := context.Background()

	_, err := n.Goto(ctx, "chr1", nil)
	require.NoError(t, err)

	res, err := n.ZoomIn(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, res.State.PixelSize, 1e-9)

	res, err = n.ZoomOut(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.State.PixelSize, 1e-9)

	// Zooming out from the full-chromosome view falls back to the
	// genome-wide matrix.
	res, err = n.ZoomOut(ctx)
	require.NoError(t, err)
	assert.True(t, res.State.WholeGenome())
	assert.True(t, res.ChrChanged)
}

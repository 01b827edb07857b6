// Package render draws contact-matrix views with fogleman/gg.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/cache"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/data/hic"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/nav"
	"github.com/aidenlab/juicebox-mcp-sub000/pkg/colormap"
)

// Dataset supplies contact records for rendering.
type Dataset interface {
	Records(ctx context.Context, chr1, chr2, zoom int, x0, x1, y0, y1 int64) ([]hic.ContactRecord, error)
	MeanCounts(chr1, chr2, zoom int) (float64, error)
}

// Config contains renderer configuration.
type Config struct {
	DefaultColormap string
}

// SmoothZoomHint records the most recent animated-rescale request. The
// client applies it to the on-screen image while the replacement view
// renders.
type SmoothZoomHint struct {
	AnchorPx float64 `json:"anchorPx"`
	AnchorPy float64 `json:"anchorPy"`
	Scale    float64 `json:"scale"`
}

// ViewRenderer renders contact-matrix views and implements the
// navigation layer's redraw hooks.
type ViewRenderer struct {
	config     Config
	cache      *cache.Manager
	logger     *zap.Logger
	bufferPool sync.Pool

	mu      sync.RWMutex
	dataset Dataset
	smooth  *SmoothZoomHint
}

// NewViewRenderer creates a new view renderer.
func NewViewRenderer(cfg Config, c *cache.Manager, logger *zap.Logger) *ViewRenderer {
	if cfg.DefaultColormap == "" {
		cfg.DefaultColormap = "reds"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewRenderer{
		config: cfg,
		cache:  c,
		logger: logger,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
	}
}

// SetDataset swaps the record source and drops every cached view.
func (r *ViewRenderer) SetDataset(ds Dataset) {
	r.mu.Lock()
	r.dataset = ds
	r.smooth = nil
	r.mu.Unlock()
	r.ClearImageCaches()
}

// ClearImageCaches drops every rendered view. Called by the navigation
// layer after tier or chromosome changes.
func (r *ViewRenderer) ClearImageCaches() {
	if r.cache == nil {
		return
	}
	if err := r.cache.ClearImages(); err != nil {
		r.logger.Warn("failed to clear image cache", zap.Error(err))
	}
}

// RequestSmoothZoom stores the rescale hint for the client to pick up.
func (r *ViewRenderer) RequestSmoothZoom(anchorPx, anchorPy, scale float64) {
	r.mu.Lock()
	r.smooth = &SmoothZoomHint{AnchorPx: anchorPx, AnchorPy: anchorPy, Scale: scale}
	r.mu.Unlock()
}

// TakeSmoothZoom returns the pending rescale hint, if any, and clears
// it.
func (r *ViewRenderer) TakeSmoothZoom() (SmoothZoomHint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.smooth == nil {
		return SmoothZoomHint{}, false
	}
	h := *r.smooth
	r.smooth = nil
	return h, true
}

// RenderView renders the visible window of a view state as a PNG.
func (r *ViewRenderer) RenderView(ctx context.Context, state nav.ViewState, width, height int, cmapName string) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid dimensions %dx%d", width, height)
	}
	if cmapName == "" {
		cmapName = r.config.DefaultColormap
	}

	viewKey := cache.ViewKey(state.Chr1, state.Chr2, state.Zoom,
		state.X, state.Y, state.PixelSize, width, height, cmapName)
	if r.cache != nil {
		if data, ok := r.cache.GetImage(viewKey); ok {
			return data, nil
		}
	}

	r.mu.RLock()
	ds := r.dataset
	r.mu.RUnlock()
	if ds == nil {
		return nil, fmt.Errorf("render: no dataset loaded")
	}

	ps := state.PixelSize
	x0 := int64(math.Floor(state.X))
	y0 := int64(math.Floor(state.Y))
	x1 := int64(math.Ceil(state.X + float64(width)/ps))
	y1 := int64(math.Ceil(state.Y + float64(height)/ps))

	records, err := r.fetchRecords(ctx, ds, state, x0, x1, y0, y1)
	if err != nil {
		return nil, err
	}

	saturation := r.saturation(ds, state)
	cmap := colormap.ByName(cmapName)

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	w := float64(width)
	h := float64(height)
	for _, rec := range records {
		px := (float64(rec.BinX) - state.X) * ps
		py := (float64(rec.BinY) - state.Y) * ps
		if px+ps <= 0 || px >= w || py+ps <= 0 || py >= h {
			continue
		}

		t := float64(rec.Counts) / saturation
		if t > 1 {
			t = 1
		}
		dc.SetColor(cmap.At(t))
		dc.DrawRectangle(px, py, ps, ps)
		dc.Fill()
	}

	data, err := r.encodeContext(dc)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.SetImage(viewKey, data); err != nil {
			r.logger.Warn("failed to cache rendered view", zap.Error(err))
		}
	}
	return data, nil
}

func (r *ViewRenderer) fetchRecords(ctx context.Context, ds Dataset, state nav.ViewState, x0, x1, y0, y1 int64) ([]hic.ContactRecord, error) {
	key := cache.RecordKey(state.Chr1, state.Chr2, state.Zoom, x0, x1, y0, y1)
	if r.cache != nil {
		if recs, ok := r.cache.GetRecords(key); ok {
			return recs, nil
		}
	}

	recs, err := ds.Records(ctx, state.Chr1, state.Chr2, state.Zoom, x0, x1, y0, y1)
	if err != nil {
		return nil, fmt.Errorf("render: fetch records: %w", err)
	}
	if r.cache != nil {
		r.cache.SetRecords(key, recs)
	}
	return recs, nil
}

// saturation picks the count value mapped to the top of the color
// scale. Five times the mean non-zero count keeps the diagonal hot
// without washing out off-diagonal structure.
func (r *ViewRenderer) saturation(ds Dataset, state nav.ViewState) float64 {
	mean, err := ds.MeanCounts(state.Chr1, state.Chr2, state.Zoom)
	if err != nil || mean <= 0 {
		return 1
	}
	return 5 * mean
}

func (r *ViewRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// Package api provides HTTP handlers for the contact-map server.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/genome"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/locus"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/nav"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/render"
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	Navigator   *nav.Navigator
	Renderer    *render.ViewRenderer
	Screen      *nav.ScreenViewport
	Genes       *genome.GeneIndex
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/view.png", viewHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", stateHandler(cfg))
		r.Get("/chromosomes", chromosomesHandler(cfg.Navigator))
		r.Get("/resolutions", resolutionsHandler(cfg.Navigator))
		r.Get("/genes/{name}", geneHandler(cfg.Genes))

		r.Post("/goto", gotoHandler(cfg.Navigator))
		r.Post("/chromosomes", setChromosomesHandler(cfg.Navigator))
		r.Post("/pan", panHandler(cfg.Navigator))
		r.Post("/zoom", setZoomHandler(cfg.Navigator))
		r.Post("/zoom/in", zoomStepHandler(cfg.Navigator, 1))
		r.Post("/zoom/out", zoomStepHandler(cfg.Navigator, -1))
		r.Post("/wheel", wheelHandler(cfg.Navigator))
		r.Post("/viewport", viewportHandler(cfg.Navigator))
		r.Post("/lock", lockHandler(cfg.Navigator))
	})

	return r
}

// stateResponse is the common reply to every navigation command: the
// applied state plus the redraw flags the client acts on.
type stateResponse struct {
	State             nav.ViewState          `json:"state"`
	ResolutionChanged bool                   `json:"resolutionChanged"`
	ChrChanged        bool                   `json:"chrChanged"`
	ResolutionLocked  bool                   `json:"resolutionLocked"`
	SmoothZoom        *render.SmoothZoomHint `json:"smoothZoom,omitempty"`
}

func stateHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := stateResponse{
			State:            cfg.Navigator.State(),
			ResolutionLocked: cfg.Navigator.ResolutionLocked(),
		}
		if cfg.Renderer != nil {
			if h, ok := cfg.Renderer.TakeSmoothZoom(); ok {
				resp.SmoothZoom = &h
			}
		}
		writeJSON(w, resp)
	}
}

func chromosomesHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := n.Genome()
		writeJSON(w, map[string]interface{}{
			"genome":      g.ID(),
			"chromosomes": g.Chromosomes(),
		})
	}
}

func resolutionsHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		levels := n.Resolutions()
		if levels == nil {
			http.Error(w, "no dataset loaded", http.StatusConflict)
			return
		}
		writeJSON(w, map[string]interface{}{
			"resolutions": levels,
			"locked":      n.ResolutionLocked(),
		})
	}
}

func geneHandler(genes *genome.GeneIndex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if genes == nil {
			http.Error(w, "gene annotations not loaded", http.StatusNotFound)
			return
		}
		name := chi.URLParam(r, "name")
		g, ok := genes.Lookup(name)
		if !ok {
			http.Error(w, "gene not found: "+name, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]interface{}{
			"name":  g.Name,
			"chr":   g.Chr,
			"start": g.Start + 1, // 1-based for display
			"end":   g.End,
		})
	}
}

// gotoRequest carries one locus per axis. Each axis accepts either a
// locus string ("chr3:1,000,000-2,000,000", a gene name) or a structured
// spec ({"chr":"3","start":...,"end":...}). locusY defaults to locus.
type gotoRequest struct {
	Locus  json.RawMessage `json:"locus"`
	LocusY json.RawMessage `json:"locusY"`
}

func gotoHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gotoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		x, err := decodeLocusArg(req.Locus)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if x == nil {
			http.Error(w, "locus is required", http.StatusBadRequest)
			return
		}
		y, err := decodeLocusArg(req.LocusY)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := n.Goto(r.Context(), x, y)
		if err != nil {
			status := http.StatusConflict
			if strings.Contains(err.Error(), "cannot resolve") ||
				strings.Contains(err.Error(), "unknown chromosome") {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeResult(w, n, res)
	}
}

// decodeLocusArg turns a raw JSON axis value into the navigator's input
// form: a string, a *locus.Spec, or nil when the field is absent.
func decodeLocusArg(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var spec locus.Spec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

type setChromosomesRequest struct {
	X string `json:"x"`
	Y string `json:"y"`
}

func setChromosomesHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setChromosomesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.X == "" {
			http.Error(w, "x chromosome is required", http.StatusBadRequest)
			return
		}
		if req.Y == "" {
			req.Y = req.X
		}

		res, err := n.SetChromosomes(r.Context(), req.X, req.Y)
		if err != nil {
			status := http.StatusConflict
			if strings.Contains(err.Error(), "unknown chromosome") {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeResult(w, n, res)
	}
}

type panRequest struct {
	Dx       float64 `json:"dx"`
	Dy       float64 `json:"dy"`
	Dragging bool    `json:"dragging"`
}

func panHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req panRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		res, err := n.Pan(r.Context(), req.Dx, req.Dy, req.Dragging)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeResult(w, n, res)
	}
}

type setZoomRequest struct {
	Index int `json:"index"`
}

func setZoomHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setZoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		res, err := n.SetZoom(r.Context(), req.Index)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeResult(w, n, res)
	}
}

// zoomStepRequest optionally recentres the step on a viewport point.
type zoomStepRequest struct {
	Cx *float64 `json:"cx"`
	Cy *float64 `json:"cy"`
}

func zoomStepHandler(n *nav.Navigator, direction int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req zoomStepRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
				return
			}
		}

		var (
			res nav.Result
			err error
		)
		if req.Cx != nil && req.Cy != nil {
			res, err = n.ZoomAndCenter(r.Context(), direction, *req.Cx, *req.Cy)
		} else if direction > 0 {
			res, err = n.ZoomIn(r.Context())
		} else {
			res, err = n.ZoomOut(r.Context())
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeResult(w, n, res)
	}
}

type wheelRequest struct {
	AnchorX float64 `json:"anchorX"`
	AnchorY float64 `json:"anchorY"`
	Scale   float64 `json:"scale"`
}

func wheelHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wheelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		// Wheel gestures fold in the debouncer; wait so the reply
		// reflects the applied state.
		n.Wheel(req.AnchorX, req.AnchorY, req.Scale)
		n.WaitWheel()
		writeResult(w, n, nav.Result{State: n.State()})
	}
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func viewportHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req viewportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Width <= 0 || req.Height <= 0 {
			http.Error(w, "width and height must be positive", http.StatusBadRequest)
			return
		}

		res, err := n.SetViewportSize(r.Context(), req.Width, req.Height)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeResult(w, n, res)
	}
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

func lockHandler(n *nav.Navigator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		n.SetResolutionLocked(req.Locked)
		writeJSON(w, map[string]interface{}{"locked": n.ResolutionLocked()})
	}
}

func viewHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Renderer == nil {
			http.Error(w, "renderer not configured", http.StatusNotImplemented)
			return
		}

		wf, hf := cfg.Screen.ViewDimensions()
		width, height := int(wf), int(hf)
		if q := r.URL.Query().Get("width"); q != "" {
			if v, err := strconv.Atoi(q); err == nil && v > 0 {
				width = v
			}
		}
		if q := r.URL.Query().Get("height"); q != "" {
			if v, err := strconv.Atoi(q); err == nil && v > 0 {
				height = v
			}
		}
		cmap := r.URL.Query().Get("colormap")

		data, err := cfg.Renderer.RenderView(r.Context(), cfg.Navigator.State(), width, height, cmap)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(data)
	}
}

// writeResult echoes a navigation result with the shared state envelope.
func writeResult(w http.ResponseWriter, n *nav.Navigator, res nav.Result) {
	writeJSON(w, stateResponse{
		State:             res.State,
		ResolutionChanged: res.ResolutionChanged,
		ChrChanged:        res.ChrChanged,
		ResolutionLocked:  n.ResolutionLocked(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

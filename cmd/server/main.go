// Package main is the entry point for the contact-map server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aidenlab/juicebox-mcp-sub000/internal/api"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/cache"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/config"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/data/hic"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/genome"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/nav"
	"github.com/aidenlab/juicebox-mcp-sub000/internal/render"
)

func main() {
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("starting contact-map server", zap.Int("port", cfg.Server.Port))

	ctx := context.Background()

	cacheManager, err := cache.NewManager(cache.Config{
		ImageCacheSizeMB: cfg.Cache.ImageSizeMB,
		ImageTTL:         time.Duration(cfg.Cache.ImageTTLMinutes) * time.Minute,
		RecordCacheSize:  cfg.Cache.RecordCacheSize,
	})
	if err != nil {
		logger.Fatal("failed to initialize cache", zap.Error(err))
	}
	defer cacheManager.Close()

	renderer := render.NewViewRenderer(render.Config{
		DefaultColormap: cfg.Render.DefaultColormap,
	}, cacheManager, logger)

	// The genome comes from the contact file when one is configured,
	// otherwise from a chrom.sizes table so locus endpoints still work
	// without contact data.
	var (
		g       *genome.Genome
		dataset *hic.Dataset
	)
	switch {
	case cfg.Data.HicPath != "":
		file, err := hic.Open(cfg.Data.HicPath)
		if err != nil {
			logger.Fatal("failed to open contact file",
				zap.String("path", cfg.Data.HicPath), zap.Error(err))
		}
		defer file.Close()

		dataset, err = hic.NewDataset(file)
		if err != nil {
			logger.Fatal("failed to load dataset", zap.Error(err))
		}
		g = dataset.Genome()
		logger.Info("loaded contact file",
			zap.String("path", cfg.Data.HicPath),
			zap.String("genome", g.ID()),
			zap.Int("chromosomes", g.Count()),
			zap.Int("resolutions", len(file.Resolutions())))

	case cfg.Data.ChromSizesPath != "":
		g, err = genome.LoadChromSizes(cfg.Data.GenomeID, cfg.Data.ChromSizesPath)
		if err != nil {
			logger.Fatal("failed to load chrom.sizes", zap.Error(err))
		}
		logger.Info("loaded genome from chrom.sizes",
			zap.String("genome", g.ID()), zap.Int("chromosomes", g.Count()))

	default:
		logger.Fatal("no data source configured (set data.hic_path or data.chrom_sizes_path)")
	}

	var genes *genome.GeneIndex
	if cfg.Data.GenesPath != "" {
		genes, err = genome.LoadGenes(cfg.Data.GenesPath)
		if err != nil {
			logger.Fatal("failed to load gene annotations", zap.Error(err))
		}
		logger.Info("loaded gene annotations",
			zap.String("path", cfg.Data.GenesPath), zap.Int("genes", genes.Count()))
	}

	screen := nav.NewScreenViewport(
		float64(cfg.Render.ViewportWidth), float64(cfg.Render.ViewportHeight))
	navigator := nav.NewNavigator(g, genes, screen, renderer, logger)

	if dataset != nil {
		renderer.SetDataset(dataset)
		if _, err := navigator.LoadDataset(ctx, dataset); err != nil {
			logger.Fatal("failed to attach dataset", zap.Error(err))
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Navigator:   navigator,
		Renderer:    renderer,
		Screen:      screen,
		Genes:       genes,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

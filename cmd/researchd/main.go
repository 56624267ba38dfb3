package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/probelab/researchd/internal/adapters/brightdata"
	"github.com/probelab/researchd/internal/config"
	"github.com/probelab/researchd/internal/core/services"
	"github.com/probelab/researchd/pkg/api"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting researchd")

	if err := run(logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.BrightDataAPIKey == "" {
		logger.Warn("BRIGHTDATA_API_KEY not set, provider searches will fail soft")
	}

	provider := brightdata.NewClient(logger, brightdata.Config{
		APIKey:            cfg.BrightDataAPIKey,
		BaseURL:           cfg.BrightDataBaseURL,
		SerpZones:         cfg.SerpZones,
		DiscoverDatasetID: cfg.DiscoverDatasetID,
		CommentsDatasetID: cfg.CommentsDatasetID,
		PollInterval:      cfg.SnapshotPollInterval,
		PollTimeout:       cfg.SnapshotPollTimeout,
		RequestTimeout:    cfg.RequestTimeout,
	})

	store := services.NewSessionStore()
	bus := services.NewEventBus(logger)

	pipeline := services.NewResearchPipeline(logger, provider, provider, services.NewSourceSynthesizer(), services.PipelineConfig{
		RedditPosts:    cfg.RedditPosts,
		RedditDaysBack: cfg.RedditDaysBack,
		MaxRedditURLs:  cfg.MaxRedditURLs,
	})

	tracker := services.NewResearchTracker(logger, store, pipeline, bus, cfg.ResearchTimeout)

	apiServer := api.NewServer(logger, tracker, store, bus)

	// The original frontend is served separately; keep CORS permissive.
	handler := cors.AllowAll().Handler(apiServer.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting api server", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

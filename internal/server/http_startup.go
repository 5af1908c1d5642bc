package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cvlens/internal/agent"
	"cvlens/internal/ai"
	"cvlens/internal/analyzer"
	"cvlens/internal/chunker"
	"cvlens/internal/extract"
	"cvlens/internal/match"
	"cvlens/internal/observability"
	"cvlens/internal/recommend"
	"cvlens/internal/store"
)

// Start wires the pipeline, builds the job index and runs the HTTP server
// until a shutdown signal arrives
func (s *Server) Start() error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	if err := s.initializePipeline(om.GetMetrics()); err != nil {
		return err
	}
	defer s.shutdownPipeline()

	httpServer, err := s.setupHTTPServer(om)
	if err != nil {
		return err
	}

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)

	om, err := observability.NewObservabilityManager(obsConfig, s.AppConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// initializePipeline builds the document store, AI stages, job index and
// agent engine
func (s *Server) initializePipeline(metrics *observability.Metrics) error {
	cfg := s.AppConfig

	extractCfg := cfg.GetExtractConfig()
	extractGen, err := ai.NewGenerator(&extractCfg, "extract", s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create extraction generator: %w", err)
	}

	recommendCfg := cfg.GetRecommendConfig()
	recommendGen, err := ai.NewGenerator(&recommendCfg, "recommend", s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create recommendation generator: %w", err)
	}

	agentCfg := cfg.GetAgentConfig()
	agentGen, err := ai.NewGenerator(&agentCfg, "agent", s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create agent generator: %w", err)
	}

	embeddingCfg := cfg.GetEmbeddingConfig()
	embedder, err := ai.NewEmbedder(&embeddingCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	s.Store = store.New(cfg.Pipeline.DocumentTTL, s.Logger)
	s.Index = match.NewIndex(embedder, s.Logger)

	if err := s.buildIndex(); err != nil {
		// The server still comes up, analysis degrades to empty matches
		s.Logger.LogError(err, "Failed to build job index at startup")
	}

	if cfg.Catalogue.Watch && cfg.Catalogue.Path != "" {
		s.watcher = match.NewCatalogueWatcher(cfg.Catalogue.Path, s.Index, 0, s.Logger)
		if err := s.watcher.Start(); err != nil {
			return fmt.Errorf("failed to start catalogue watcher: %w", err)
		}
	}

	s.Analyzer = analyzer.New(
		s.Store,
		chunker.New(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap),
		extract.New(extractGen, extractCfg.SystemPrompt, s.Logger),
		recommend.New(recommendGen, recommendCfg.SystemPrompt, s.Logger),
		s.Index,
		cfg.Pipeline.TopK,
		metrics,
		s.Logger,
	)
	s.Engine = agent.NewEngine(
		agent.NewReasoner(agentGen),
		s.Store,
		agentCfg.SystemPrompt,
		cfg.Agent.MaxCycles,
		metrics,
		s.Logger,
	)

	return nil
}

// buildIndex loads the catalogue and embeds it into the job index
func (s *Server) buildIndex() error {
	catalogue, err := match.LoadCatalogue(s.AppConfig.Catalogue.Path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	return s.Index.Build(ctx, catalogue)
}

// shutdownPipeline releases pipeline resources
func (s *Server) shutdownPipeline() {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop catalogue watcher")
		}
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) (*http.Server, error) {
	mux := s.setupRoutes(om)
	handler := om.HTTPMiddleware()(mux)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}, nil
}

// configureTLS applies TLS settings to the HTTP server when enabled
func (s *Server) configureTLS(httpServer *http.Server) error {
	if !s.AppConfig.TLSEnabled() {
		return nil
	}

	tlsConfig, err := s.AppConfig.BuildTLSConfig()
	if err != nil {
		return fmt.Errorf("failed to build TLS configuration: %w", err)
	}
	httpServer.TLSConfig = tlsConfig
	return nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates are already loaded into the TLS config
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}

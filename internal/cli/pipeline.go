package cli

import (
	"context"
	"fmt"
	"time"

	"cvlens/internal/agent"
	"cvlens/internal/ai"
	"cvlens/internal/analyzer"
	"cvlens/internal/chunker"
	"cvlens/internal/config"
	"cvlens/internal/errors"
	"cvlens/internal/extract"
	"cvlens/internal/match"
	"cvlens/internal/recommend"
	"cvlens/internal/store"
)

// pipeline bundles the components a one-shot CLI command needs. Unlike the
// server, one-shot commands hold documents only for the lifetime of the
// process, so the store runs without TTL eviction.
type pipeline struct {
	Store    *store.FileStore
	Chunker  *chunker.Chunker
	Analyzer *analyzer.Analyzer
	Engine   *agent.Engine
	Index    *match.Index

	generators []ai.Generator
}

// newPipeline wires the analysis pipeline from configuration
func newPipeline(cfg *config.Config, logger *errors.Logger) (*pipeline, error) {
	extractCfg := cfg.GetExtractConfig()
	extractGen, err := ai.NewGenerator(&extractCfg, "extract", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction generator: %w", err)
	}

	recommendCfg := cfg.GetRecommendConfig()
	recommendGen, err := ai.NewGenerator(&recommendCfg, "recommend", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create recommendation generator: %w", err)
	}

	agentCfg := cfg.GetAgentConfig()
	agentGen, err := ai.NewGenerator(&agentCfg, "agent", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent generator: %w", err)
	}

	embeddingCfg := cfg.GetEmbeddingConfig()
	embedder, err := ai.NewEmbedder(&embeddingCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	st := store.New(0, logger)
	ix := match.NewIndex(embedder, logger)
	ch := chunker.New(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)

	p := &pipeline{
		Store:   st,
		Chunker: ch,
		Index:   ix,
		Analyzer: analyzer.New(
			st,
			ch,
			extract.New(extractGen, extractCfg.SystemPrompt, logger),
			recommend.New(recommendGen, recommendCfg.SystemPrompt, logger),
			ix,
			cfg.Pipeline.TopK,
			nil,
			logger,
		),
		Engine: agent.NewEngine(
			agent.NewReasoner(agentGen),
			st,
			agentCfg.SystemPrompt,
			cfg.Agent.MaxCycles,
			nil,
			logger,
		),
		generators: []ai.Generator{extractGen, recommendGen, agentGen},
	}
	return p, nil
}

// buildIndex embeds the job catalogue so analysis can compute matches.
// Failure is reported to the caller, who decides whether to degrade.
func (p *pipeline) buildIndex(ctx context.Context, cataloguePath string) error {
	catalogue, err := match.LoadCatalogue(cataloguePath)
	if err != nil {
		return err
	}

	buildCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	return p.Index.Build(buildCtx, catalogue)
}

// Close releases the store janitor and the AI clients
func (p *pipeline) Close(logger *errors.Logger) {
	p.Store.Close()
	for _, gen := range p.generators {
		if err := gen.Close(); err != nil {
			logger.Warn("Failed to close AI client", "error", err)
		}
	}
}

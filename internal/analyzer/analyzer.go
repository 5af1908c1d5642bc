package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"cvlens/internal/ai"
	"cvlens/internal/chunker"
	"cvlens/internal/errors"
	"cvlens/internal/extract"
	"cvlens/internal/loader"
	"cvlens/internal/match"
	"cvlens/internal/observability"
	"cvlens/internal/recommend"
	"cvlens/internal/store"
	"cvlens/internal/types"
)

const fileIDLength = 12

// Analyzer runs the full document pipeline: chunking, profile extraction,
// job matching and recommendation generation
type Analyzer struct {
	store       *store.FileStore
	chunker     *chunker.Chunker
	extractor   *extract.Extractor
	recommender *recommend.Recommender
	index       *match.Index
	topK        int
	metrics     *observability.Metrics
	logger      *errors.Logger
	inflight    singleflight.Group
}

// New wires the pipeline stages together. topK <= 0 falls back to the
// index default; metrics may be nil when telemetry is not configured.
func New(st *store.FileStore, ch *chunker.Chunker, ex *extract.Extractor, rec *recommend.Recommender, ix *match.Index, topK int, metrics *observability.Metrics, logger *errors.Logger) *Analyzer {
	if topK <= 0 {
		topK = match.DefaultTopK
	}
	return &Analyzer{
		store:       st,
		chunker:     ch,
		extractor:   ex,
		recommender: rec,
		index:       ix,
		topK:        topK,
		metrics:     metrics,
		logger:      logger,
	}
}

// Upload reads the document at path and registers it in the store under a
// fresh file ID
func (a *Analyzer) Upload(path, filename string) (*types.UploadResult, error) {
	text, fileType, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	fileID := newFileID()
	if err := a.store.Put(fileID, filename, fileType, text); err != nil {
		return nil, err
	}

	a.logger.Info("Document uploaded", "fileID", fileID, "filename", filename, "fileType", fileType, "chars", len(text))
	return &types.UploadResult{
		FileID:    fileID,
		Filename:  filename,
		FileType:  fileType,
		CharCount: len(text),
		Message:   "File uploaded successfully. Use the file_id to run analysis.",
	}, nil
}

// Analyze runs the pipeline for one document. Analysis for a given file ID is
// idempotent: a completed result is returned from the store, and concurrent
// calls for the same ID share a single pipeline run.
func (a *Analyzer) Analyze(ctx context.Context, fileID string) (*types.AnalysisResult, error) {
	result, err, shared := a.inflight.Do(fileID, func() (any, error) {
		return a.analyze(ctx, fileID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		a.logger.Debug("Joined in-flight analysis", "fileID", fileID)
	}
	return result.(*types.AnalysisResult), nil
}

func (a *Analyzer) analyze(ctx context.Context, fileID string) (*types.AnalysisResult, error) {
	tracer := otel.Tracer("cvlens.analyzer")
	ctx, span := tracer.Start(ctx, "pipeline.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("file.id", fileID))

	doc, err := a.store.Get(fileID)
	if err != nil {
		return nil, err
	}
	if doc.Stage == types.StageAnalyzed && doc.Result != nil {
		a.logger.Debug("Returning cached analysis", "fileID", fileID)
		return doc.Result, nil
	}

	if doc.Stage == types.StageFailed {
		if err := a.store.ResetFailed(fileID); err != nil {
			return nil, err
		}
		doc, err = a.store.Get(fileID)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Retrying failed analysis", "fileID", fileID)
	}

	if err := a.store.BeginAnalysis(fileID); err != nil {
		return nil, err
	}
	defer a.store.EndAnalysis(fileID)

	start := time.Now()
	result, err := a.runPipeline(ctx, doc)
	if err != nil {
		if markErr := a.store.MarkFailed(fileID); markErr != nil {
			a.logger.Warn("Failed to mark document as failed", "fileID", fileID, "error", markErr)
		}
		return nil, err
	}

	if err := a.store.SetResult(fileID, result); err != nil {
		return nil, err
	}
	a.logger.Info("Analysis complete",
		"fileID", fileID,
		"candidate", result.CandidateName,
		"score", result.OverallScore,
		"matches", len(result.JobMatches),
		"recommendations", len(result.Recommendations),
		"duration", time.Since(start))
	return result, nil
}

func (a *Analyzer) runPipeline(ctx context.Context, doc store.Document) (*types.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("Analysis cancelled before chunking", context.Cause(ctx))
	}

	if doc.Stage == types.StageUploaded {
		chunks := a.chunker.Split(doc.RawText)
		if err := a.store.SetChunks(doc.ID, chunks); err != nil {
			return nil, err
		}
		a.logger.Debug("Document chunked", "fileID", doc.ID, "chunks", len(chunks))
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("Analysis cancelled before extraction", context.Cause(ctx))
	}
	var profile *types.ExtractedProfile
	var usage *ai.TokenUsage
	err := a.metrics.TrackAIOperationWithTokens(ctx, "extract", func(ctx context.Context) *observability.AIOperationResult {
		var extractErr error
		profile, usage, extractErr = a.extractor.Extract(ctx, doc.RawText)
		return &observability.AIOperationResult{Error: extractErr, TokenUsage: observedUsage(usage)}
	})
	if err != nil {
		return nil, err
	}
	if usage != nil {
		a.logger.Debug("Extraction token usage", "fileID", doc.ID, "totalTokens", usage.TotalTokens)
	}

	matches := a.matchJobs(ctx, doc.ID, profile)

	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("Analysis cancelled before recommendations", context.Cause(ctx))
	}
	var recommendations []types.Recommendation
	var recUsage *ai.TokenUsage
	err = a.metrics.TrackAIOperationWithTokens(ctx, "recommend", func(ctx context.Context) *observability.AIOperationResult {
		var recErr error
		recommendations, recUsage, recErr = a.recommender.Recommend(ctx, profile, matches)
		return &observability.AIOperationResult{Error: recErr, TokenUsage: observedUsage(recUsage)}
	})
	if err != nil {
		return nil, err
	}
	if recUsage != nil {
		a.logger.Debug("Recommendation token usage", "fileID", doc.ID, "totalTokens", recUsage.TotalTokens)
	}

	return &types.AnalysisResult{
		FileID:          doc.ID,
		CandidateName:   profile.CandidateName,
		Email:           profile.Email,
		Summary:         profile.Summary,
		Skills:          profile.Skills,
		Experience:      profile.Experience,
		Education:       profile.Education,
		JobMatches:      matches,
		Recommendations: recommendations,
		OverallScore:    profile.OverallScore,
		AnalyzedAt:      time.Now().UTC(),
	}, nil
}

// matchJobs queries the job index with a profile digest. An unavailable index
// degrades to an empty match list instead of failing the pipeline.
func (a *Analyzer) matchJobs(ctx context.Context, fileID string, profile *types.ExtractedProfile) []types.JobMatch {
	if err := ctx.Err(); err != nil {
		return nil
	}
	matches, err := a.index.Query(ctx, matchQueryText(profile), a.topK)
	if err != nil {
		a.logger.Warn("Job matching skipped", "fileID", fileID, "error", err)
		return nil
	}
	return matches
}

// matchQueryText builds the embedding query from the profile's summary,
// skills and most recent roles
func matchQueryText(profile *types.ExtractedProfile) string {
	var parts []string
	if profile.Summary != "" {
		parts = append(parts, profile.Summary)
	}
	if len(profile.Skills) > 0 {
		names := make([]string, len(profile.Skills))
		for i, skill := range profile.Skills {
			names[i] = skill.Name
		}
		parts = append(parts, "Skills: "+strings.Join(names, ", "))
	}
	roles := profile.Experience
	if len(roles) > 3 {
		roles = roles[:3]
	}
	if len(roles) > 0 {
		titles := make([]string, len(roles))
		for i, exp := range roles {
			titles[i] = fmt.Sprintf("%s at %s", exp.Title, exp.Company)
		}
		parts = append(parts, strings.Join(titles, " | "))
	}
	return strings.Join(parts, "\n")
}

// observedUsage adapts generator token counts to the metrics layer
func observedUsage(usage *ai.TokenUsage) *observability.TokenUsage {
	if usage == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	}
}

func newFileID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:fileIDLength]
}

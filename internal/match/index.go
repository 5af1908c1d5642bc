// Package match ranks candidate-to-job fit with cosine similarity over an
// in-process vector index built from a fixed job catalogue.
package match

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
	"unicode/utf8"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
	"cvlens/internal/types"
)

// DefaultTopK is the default number of matches returned per query
const DefaultTopK = 5

// reasonExcerptLen caps the description excerpt used as the match reason
const reasonExcerptLen = 120

// snapshot is one immutable build of the index. Queries hold the snapshot
// they loaded, so a concurrent rebuild never disrupts them.
type snapshot struct {
	entries []types.JobCatalogueEntry
	vectors [][]float32
}

// Index embeds the job catalogue and answers similarity queries against the
// most recently built snapshot.
type Index struct {
	embedder ai.Embedder
	logger   *errors.Logger
	active   atomic.Pointer[snapshot]
}

// NewIndex creates an Index. It is not usable until Build succeeds.
func NewIndex(embedder ai.Embedder, logger *errors.Logger) *Index {
	return &Index{
		embedder: embedder,
		logger:   logger,
	}
}

// Build embeds every catalogue entry and atomically swaps the active
// snapshot. Build is idempotent and safe to call while queries run.
func (ix *Index) Build(ctx context.Context, catalogue []types.JobCatalogueEntry) error {
	if len(catalogue) == 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "Job catalogue is empty", nil)
	}

	entries := make([]types.JobCatalogueEntry, len(catalogue))
	copy(entries, catalogue)
	vectors := make([][]float32, len(entries))

	for i, entry := range entries {
		vec, err := ix.embedder.Embed(ctx, entry.Description)
		if err != nil {
			return err
		}
		vectors[i] = normalize(vec)
	}

	ix.active.Store(&snapshot{entries: entries, vectors: vectors})
	ix.logger.Info("Job index built", "catalogue_size", len(entries))
	return nil
}

// Ready reports whether a snapshot has been built
func (ix *Index) Ready() bool {
	return ix.active.Load() != nil
}

// Size returns the catalogue size of the active snapshot
func (ix *Index) Size() int {
	snap := ix.active.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// Query embeds queryText and returns up to k matches sorted by descending
// similarity, ties broken by catalogue insertion order.
func (ix *Index) Query(ctx context.Context, queryText string, k int) ([]types.JobMatch, error) {
	snap := ix.active.Load()
	if snap == nil {
		return nil, errors.NewStateError(errors.ErrCodeIndexNotReady,
			"Job index has not been built yet", nil)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := ix.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}
	queryVec = normalize(queryVec)

	matches := make([]types.JobMatch, 0, len(snap.entries))
	for i, entry := range snap.entries {
		matches = append(matches, types.JobMatch{
			Role:            entry.Role,
			SimilarityScore: similarity(queryVec, snap.vectors[i]),
			Reason:          excerpt(entry.Description),
		})
	}

	// Stable sort keeps catalogue insertion order for equal scores
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].SimilarityScore > matches[b].SimilarityScore
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// similarity is the cosine of two normalized vectors, clamped to [0, 1]
// and rounded to three decimals.
func similarity(a, b []float32) float64 {
	var dot float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot < 0 {
		dot = 0
	}
	if dot > 1 {
		dot = 1
	}
	return math.Round(dot*1000) / 1000
}

// normalize scales a vector to unit length. Zero vectors pass through.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func excerpt(s string) string {
	if len(s) <= reasonExcerptLen {
		return s
	}
	cut := reasonExcerptLen
	// Never cut in the middle of a multi-byte rune
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

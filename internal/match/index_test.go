package match

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"cvlens/internal/errors"
	"cvlens/internal/types"
)

// fakeEmbedder returns canned vectors keyed by input text
type fakeEmbedder struct {
	vectors map[string][]float32
	fail    error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatal(err)
	}
	return logger
}

func TestQueryNotReady(t *testing.T) {
	ix := NewIndex(&fakeEmbedder{}, testLogger(t))
	_, err := ix.Query(context.Background(), "anything", 5)
	if !errors.HasCode(err, errors.ErrCodeIndexNotReady) {
		t.Errorf("Query() error = %v, want %v", err, errors.ErrCodeIndexNotReady)
	}
}

func TestQueryCapsAtCatalogueSize(t *testing.T) {
	catalogue := []types.JobCatalogueEntry{
		{Role: "Backend", Description: "backend services"},
		{Role: "Frontend", Description: "web interfaces"},
		{Role: "Data", Description: "data analysis"},
	}
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"backend services": {1, 0, 0},
		"web interfaces":   {0, 1, 0},
		"data analysis":    {0, 0, 1},
	}}
	ix := NewIndex(emb, testLogger(t))
	if err := ix.Build(context.Background(), catalogue); err != nil {
		t.Fatal(err)
	}

	matches, err := ix.Query(context.Background(), "query", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 3 {
		t.Errorf("Query() returned %d matches, want 3", len(matches))
	}
}

func TestQueryTruncatesToK(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	ix := NewIndex(emb, testLogger(t))
	if err := ix.Build(context.Background(), DefaultCatalogue); err != nil {
		t.Fatal(err)
	}

	matches, err := ix.Query(context.Background(), "query", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 5 {
		t.Errorf("Query() returned %d matches, want 5", len(matches))
	}
}

func TestQueryOrdering(t *testing.T) {
	catalogue := []types.JobCatalogueEntry{
		{Role: "Far", Description: "far"},
		{Role: "TieA", Description: "tie a"},
		{Role: "Near", Description: "near"},
		{Role: "TieB", Description: "tie b"},
	}
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"far":   {0, 1, 0},
		"tie a": {1, 1, 0},
		"near":  {1, 0, 0},
		"tie b": {1, 1, 0},
		"query": {1, 0, 0},
	}}
	ix := NewIndex(emb, testLogger(t))
	if err := ix.Build(context.Background(), catalogue); err != nil {
		t.Fatal(err)
	}

	matches, err := ix.Query(context.Background(), "query", 4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(matches); i++ {
		if matches[i].SimilarityScore > matches[i-1].SimilarityScore {
			t.Errorf("matches not sorted descending at %d: %v", i, matches)
		}
	}
	if matches[0].Role != "Near" {
		t.Errorf("best match = %s, want Near", matches[0].Role)
	}
	// Equal scores keep catalogue insertion order
	if matches[1].Role != "TieA" || matches[2].Role != "TieB" {
		t.Errorf("tie order = %s, %s, want TieA, TieB", matches[1].Role, matches[2].Role)
	}
	if matches[3].Role != "Far" {
		t.Errorf("worst match = %s, want Far", matches[3].Role)
	}
}

func TestQueryEmbeddingFailure(t *testing.T) {
	emb := &fakeEmbedder{}
	ix := NewIndex(emb, testLogger(t))
	if err := ix.Build(context.Background(), DefaultCatalogue[:2]); err != nil {
		t.Fatal(err)
	}

	emb.fail = errors.NewUpstreamError(errors.ErrCodeEmbeddingService, "down", nil)
	_, err := ix.Query(context.Background(), "query", 5)
	if !errors.HasCode(err, errors.ErrCodeEmbeddingService) {
		t.Errorf("Query() error = %v, want %v", err, errors.ErrCodeEmbeddingService)
	}
}

func TestBuildSwapsSnapshot(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	ix := NewIndex(emb, testLogger(t))

	if err := ix.Build(context.Background(), DefaultCatalogue[:2]); err != nil {
		t.Fatal(err)
	}
	if ix.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", ix.Size())
	}

	if err := ix.Build(context.Background(), DefaultCatalogue[:4]); err != nil {
		t.Fatal(err)
	}
	if ix.Size() != 4 {
		t.Errorf("Size() after rebuild = %d, want 4", ix.Size())
	}
}

func TestBuildEmptyCatalogue(t *testing.T) {
	ix := NewIndex(&fakeEmbedder{}, testLogger(t))
	if err := ix.Build(context.Background(), nil); err == nil {
		t.Error("Build(nil) expected error")
	}
	if ix.Ready() {
		t.Error("Ready() = true after failed build")
	}
}

func TestExcerptKeepsRunesIntact(t *testing.T) {
	short := "Backend role"
	if got := excerpt(short); got != short {
		t.Errorf("excerpt(%q) = %q, want unchanged", short, got)
	}

	long := strings.Repeat("データ基盤エンジニア", 30)
	got := excerpt(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt() = %q, want truncation marker", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("excerpt() contains a split rune: %q", got)
	}
	if len(got) > reasonExcerptLen+len("...") {
		t.Errorf("excerpt() is %d bytes, want <= %d", len(got), reasonExcerptLen+len("..."))
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite clamps to zero", []float32{1, 0}, []float32{-1, 0}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarity(normalize(tt.a), normalize(tt.b))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadCatalogueDefault(t *testing.T) {
	catalogue, err := LoadCatalogue("")
	if err != nil {
		t.Fatal(err)
	}
	if len(catalogue) != 10 {
		t.Errorf("default catalogue has %d entries, want 10", len(catalogue))
	}
	if catalogue[0].Role != "Senior Software Engineer" {
		t.Errorf("first role = %s", catalogue[0].Role)
	}
}

func TestLoadCatalogueFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	content := `jobs:
  - role: Backend Engineer
    description: Build APIs in Go
  - role: SRE
    description: Keep the lights on
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	catalogue, err := LoadCatalogue(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(catalogue) != 2 {
		t.Fatalf("catalogue has %d entries, want 2", len(catalogue))
	}
	if catalogue[0].Role != "Backend Engineer" || catalogue[1].Role != "SRE" {
		t.Errorf("catalogue = %+v", catalogue)
	}
}

func TestLoadCatalogueInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	if err := os.WriteFile(path, []byte("jobs:\n  - role: OnlyRole\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalogue(path); err == nil {
		t.Error("LoadCatalogue() expected error for missing description")
	}
}

package recommend

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"google.golang.org/genai"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
	"cvlens/internal/types"
)

// scriptedGenerator returns one canned response per call, in order
type scriptedGenerator struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (s *scriptedGenerator) GenerateStructured(_ context.Context, _, userPrompt string, _ *genai.Schema, out any) (*ai.TokenUsage, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, userPrompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if err := json.Unmarshal([]byte(s.responses[i]), out); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation, "Response is not valid JSON", err)
	}
	return &ai.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}, nil
}

func (s *scriptedGenerator) GenerateText(_ context.Context, _, _ string) (string, *ai.TokenUsage, error) {
	return "", nil, nil
}

func (s *scriptedGenerator) GetModelInfo(_ context.Context) *ai.ModelInfo { return nil }

func (s *scriptedGenerator) Close() error { return nil }

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatal(err)
	}
	return logger
}

func testProfile() *types.ExtractedProfile {
	years := 6.0
	return &types.ExtractedProfile{
		CandidateName: "Jane Doe",
		Summary:       "Backend engineer",
		Skills: []types.ExtractedSkill{
			{Name: "Go", Level: types.SkillExpert, Years: &years},
			{Name: "SQL", Level: types.SkillAdvanced},
		},
		Experience: []types.WorkExperience{
			{Title: "Staff Engineer", Company: "Acme", Duration: "2020-2024"},
		},
		Education: []types.Education{
			{Degree: "BSc Computer Science", Institution: "MIT"},
		},
		OverallScore: 82,
	}
}

func validRecs(n int) string {
	recs := make([]types.Recommendation, n)
	for i := range recs {
		recs[i] = types.Recommendation{Category: "Skills Gap", Suggestion: "Add cloud certifications", Priority: types.PriorityMedium}
	}
	data, _ := json.Marshal(recs)
	return string(data)
}

func TestRecommend(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{validRecs(6)}}
	r := New(gen, "", testLogger(t))

	recs, usage, err := r.Recommend(context.Background(), testProfile(), []types.JobMatch{
		{Role: "Senior Software Engineer", SimilarityScore: 0.812},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 6 {
		t.Errorf("got %d recommendations, want 6", len(recs))
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
	if usage.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30", usage.TotalTokens)
	}
}

func TestRecommendUserPromptContent(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{validRecs(5)}}
	r := New(gen, "", testLogger(t))

	_, _, err := r.Recommend(context.Background(), testProfile(), []types.JobMatch{
		{Role: "Senior Software Engineer", SimilarityScore: 0.812},
		{Role: "Data Scientist", SimilarityScore: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}

	prompt := gen.prompts[0]
	for _, want := range []string{
		"Jane Doe",
		"82/100",
		"Go (expert), SQL (advanced)",
		"Staff Engineer at Acme (2020-2024)",
		"BSc Computer Science — MIT",
		"- Senior Software Engineer (score: 0.812)",
		"- Data Scientist (score: 0.5)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestRecommendEmptySections(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{validRecs(5)}}
	r := New(gen, "", testLogger(t))

	profile := &types.ExtractedProfile{CandidateName: "Jane Doe", OverallScore: 40}
	_, _, err := r.Recommend(context.Background(), profile, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gen.prompts[0], "None extracted") {
		t.Error("prompt missing 'None extracted' placeholder")
	}
	if !strings.Contains(gen.prompts[0], "No matches computed yet.") {
		t.Error("prompt missing empty-matches placeholder")
	}
}

func TestRecommendRetriesOnceOnFormatViolation(t *testing.T) {
	tests := []struct {
		name  string
		first string
	}{
		{"too few items", validRecs(3)},
		{"too many items", validRecs(12)},
		{"invalid priority", `[{"category":"a","suggestion":"b","priority":"urgent"},` + validRecs(5)[1:]},
		{"not json", "here are my thoughts on the CV"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{responses: []string{tt.first, validRecs(5)}}
			r := New(gen, "", testLogger(t))

			recs, _, err := r.Recommend(context.Background(), testProfile(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != 5 {
				t.Errorf("got %d recommendations, want 5", len(recs))
			}
			if gen.calls != 2 {
				t.Errorf("generator called %d times, want 2", gen.calls)
			}
			if !strings.Contains(gen.prompts[1], "did not follow the required format") {
				t.Error("retry prompt missing corrective instruction")
			}
		})
	}
}

func TestRecommendFailsAfterSecondViolation(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{validRecs(2), validRecs(1)}}
	r := New(gen, "", testLogger(t))

	_, _, err := r.Recommend(context.Background(), testProfile(), nil)
	if !errors.HasCode(err, errors.ErrCodeRecommendationFormat) {
		t.Errorf("Recommend() error = %v, want code %v", err, errors.ErrCodeRecommendationFormat)
	}
	if gen.calls != 2 {
		t.Errorf("generator called %d times, want exactly 2", gen.calls)
	}
}

func TestRecommendUpstreamErrorNoRetry(t *testing.T) {
	upstream := errors.NewUpstreamError(errors.ErrCodeUpstreamService, "model unavailable", nil)
	gen := &scriptedGenerator{responses: []string{""}, errs: []error{upstream}}
	r := New(gen, "", testLogger(t))

	_, _, err := r.Recommend(context.Background(), testProfile(), nil)
	if !errors.HasCode(err, errors.ErrCodeUpstreamService) {
		t.Errorf("Recommend() error = %v, want code %v", err, errors.ErrCodeUpstreamService)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1 (no retry on upstream failure)", gen.calls)
	}
}

package extract

import (
	"context"
	"encoding/json"
	"testing"

	"google.golang.org/genai"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
)

// fakeGenerator unmarshals a canned JSON payload into out
type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) GenerateStructured(_ context.Context, _, _ string, _ *genai.Schema, out any) (*ai.TokenUsage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := json.Unmarshal([]byte(f.response), out); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation, "Response is not valid JSON", err)
	}
	return &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150}, nil
}

func (f *fakeGenerator) GenerateText(_ context.Context, _, _ string) (string, *ai.TokenUsage, error) {
	return f.response, nil, f.err
}

func (f *fakeGenerator) GetModelInfo(_ context.Context) *ai.ModelInfo { return nil }

func (f *fakeGenerator) Close() error { return nil }

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatal(err)
	}
	return logger
}

const validResponse = `{
	"candidate_name": "  Jane Doe ",
	"email": "jane@example.com",
	"summary": "Backend engineer with 8 years of experience.",
	"skills": [
		{"name": "Go", "level": "expert", "years": 6},
		{"name": "Kubernetes", "level": "advanced"}
	],
	"experience": [
		{"title": "Staff Engineer", "company": "Acme", "duration": "2020-2024", "domain": "fintech", "highlights": ["Led payments platform"]}
	],
	"education": [
		{"degree": "BSc Computer Science", "institution": "MIT", "year": "2015"}
	],
	"overall_quality_score": 82
}`

func TestExtract(t *testing.T) {
	ex := New(&fakeGenerator{response: validResponse}, "", testLogger(t))

	profile, usage, err := ex.Extract(context.Background(), "cv text here")
	if err != nil {
		t.Fatal(err)
	}
	if profile.CandidateName != "Jane Doe" {
		t.Errorf("CandidateName = %q, want trimmed %q", profile.CandidateName, "Jane Doe")
	}
	if profile.OverallScore != 82 {
		t.Errorf("OverallScore = %v, want 82", profile.OverallScore)
	}
	if len(profile.Skills) != 2 || profile.Skills[0].Name != "Go" {
		t.Errorf("Skills = %+v", profile.Skills)
	}
	if profile.Skills[0].Years == nil || *profile.Skills[0].Years != 6 {
		t.Errorf("Skills[0].Years = %v, want 6", profile.Skills[0].Years)
	}
	if profile.Skills[1].Years != nil {
		t.Errorf("Skills[1].Years = %v, want nil", profile.Skills[1].Years)
	}
	if usage == nil || usage.TotalTokens != 150 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestExtractSchemaViolations(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			"missing candidate name",
			`{"candidate_name": "  ", "summary": "s", "skills": [], "experience": [], "education": [], "overall_quality_score": 50}`,
		},
		{
			"score above range",
			`{"candidate_name": "Jane", "summary": "s", "skills": [], "experience": [], "education": [], "overall_quality_score": 120}`,
		},
		{
			"score below range",
			`{"candidate_name": "Jane", "summary": "s", "skills": [], "experience": [], "education": [], "overall_quality_score": -5}`,
		},
		{
			"invalid skill level",
			`{"candidate_name": "Jane", "summary": "s", "skills": [{"name": "Go", "level": "guru"}], "experience": [], "education": [], "overall_quality_score": 50}`,
		},
		{
			"negative years",
			`{"candidate_name": "Jane", "summary": "s", "skills": [{"name": "Go", "level": "expert", "years": -2}], "experience": [], "education": [], "overall_quality_score": 50}`,
		},
		{
			"experience without company",
			`{"candidate_name": "Jane", "summary": "s", "skills": [], "experience": [{"title": "Engineer", "company": ""}], "education": [], "overall_quality_score": 50}`,
		},
		{
			"education without degree",
			`{"candidate_name": "Jane", "summary": "s", "skills": [], "experience": [], "education": [{"degree": "", "institution": "MIT"}], "overall_quality_score": 50}`,
		},
		{
			"not json at all",
			`I could not process this CV, sorry.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := New(&fakeGenerator{response: tt.response}, "", testLogger(t))
			_, _, err := ex.Extract(context.Background(), "cv text")
			if !errors.HasCode(err, errors.ErrCodeSchemaValidation) {
				t.Errorf("Extract() error = %v, want code %v", err, errors.ErrCodeSchemaValidation)
			}
		})
	}
}

func TestExtractUpstreamErrorPassthrough(t *testing.T) {
	upstream := errors.NewUpstreamError(errors.ErrCodeUpstreamService, "model unavailable", nil)
	ex := New(&fakeGenerator{err: upstream}, "", testLogger(t))

	_, _, err := ex.Extract(context.Background(), "cv text")
	if !errors.HasCode(err, errors.ErrCodeUpstreamService) {
		t.Errorf("Extract() error = %v, want code %v", err, errors.ErrCodeUpstreamService)
	}
}

package extract

import (
	"context"
	"fmt"
	"strings"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
	"cvlens/internal/types"
)

// Extractor turns raw CV text into a validated structured profile
type Extractor struct {
	generator    ai.Generator
	systemPrompt string
	logger       *errors.Logger
}

// New creates an Extractor. An empty systemPrompt falls back to the default.
func New(generator ai.Generator, systemPrompt string, logger *errors.Logger) *Extractor {
	return &Extractor{
		generator:    generator,
		systemPrompt: ai.ResolveSystemPrompt(systemPrompt, ai.DefaultSystemPrompts.ExtractProfile),
		logger:       logger,
	}
}

// rawProfile mirrors the model's response schema before validation
type rawProfile struct {
	CandidateName       string                 `json:"candidate_name"`
	Email               string                 `json:"email"`
	Summary             string                 `json:"summary"`
	Skills              []types.ExtractedSkill `json:"skills"`
	Experience          []types.WorkExperience `json:"experience"`
	Education           []types.Education      `json:"education"`
	OverallQualityScore float64                `json:"overall_quality_score"`
}

// Extract runs structured extraction over cvText. A response that does not
// conform to the profile schema is rejected, never silently defaulted.
func (e *Extractor) Extract(ctx context.Context, cvText string) (*types.ExtractedProfile, *ai.TokenUsage, error) {
	userPrompt := fmt.Sprintf(ai.DefaultUserPrompts.ExtractProfile, cvText)

	var raw rawProfile
	usage, err := e.generator.GenerateStructured(ctx, e.systemPrompt, userPrompt, ai.ExtractionSchema(), &raw)
	if err != nil {
		return nil, usage, err
	}

	profile, err := validateProfile(&raw)
	if err != nil {
		return nil, usage, err
	}

	e.logger.Debug("Profile extracted",
		"candidate", profile.CandidateName,
		"skills", len(profile.Skills),
		"score", profile.OverallScore)
	return profile, usage, nil
}

func validateProfile(raw *rawProfile) (*types.ExtractedProfile, error) {
	name := strings.TrimSpace(raw.CandidateName)
	if name == "" {
		return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation,
			"Extraction response is missing candidate_name", nil)
	}
	if raw.OverallQualityScore < 0 || raw.OverallQualityScore > 100 {
		return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation,
			"Extraction response has an out-of-range quality score", nil).
			WithContext("score", raw.OverallQualityScore)
	}

	skills := make([]types.ExtractedSkill, 0, len(raw.Skills))
	for _, skill := range raw.Skills {
		skill.Name = strings.TrimSpace(skill.Name)
		if skill.Name == "" {
			return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation,
				"Extraction response contains a skill without a name", nil)
		}
		if !types.ValidSkillLevel(skill.Level) {
			return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation,
				"Extraction response contains an invalid skill level", nil).
				WithContext("skill", skill.Name).
				WithContext("level", string(skill.Level))
		}
		if skill.Years != nil && *skill.Years < 0 {
			return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation,
				"Extraction response contains negative years of experience", nil).
				WithContext("skill", skill.Name)
		}
		skills = append(skills, skill)
	}

	experience := make([]types.WorkExperience, 0, len(raw.Experience))
	for _, exp := range raw.Experience {
		exp.Title = strings.TrimSpace(exp.Title)
		exp.Company = strings.TrimSpace(exp.Company)
		if exp.Title == "" || exp.Company == "" {
			return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation,
				"Extraction response contains an experience entry without title or company", nil)
		}
		experience = append(experience, exp)
	}

	education := make([]types.Education, 0, len(raw.Education))
	for _, edu := range raw.Education {
		edu.Degree = strings.TrimSpace(edu.Degree)
		edu.Institution = strings.TrimSpace(edu.Institution)
		if edu.Degree == "" || edu.Institution == "" {
			return nil, errors.NewValidationError(errors.ErrCodeSchemaValidation,
				"Extraction response contains an education entry without degree or institution", nil)
		}
		education = append(education, edu)
	}

	return &types.ExtractedProfile{
		CandidateName: name,
		Email:         strings.TrimSpace(raw.Email),
		Summary:       strings.TrimSpace(raw.Summary),
		Skills:        skills,
		Experience:    experience,
		Education:     education,
		OverallScore:  raw.OverallQualityScore,
	}, nil
}

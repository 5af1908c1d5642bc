package recommend

import (
	"context"
	"fmt"
	"strings"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
	"cvlens/internal/types"
)

const (
	// MinRecommendations and MaxRecommendations bound a valid response
	MinRecommendations = 5
	MaxRecommendations = 10
)

// Recommender generates CV improvement recommendations from an extracted profile
type Recommender struct {
	generator    ai.Generator
	systemPrompt string
	logger       *errors.Logger
}

// New creates a Recommender. An empty systemPrompt falls back to the default.
func New(generator ai.Generator, systemPrompt string, logger *errors.Logger) *Recommender {
	return &Recommender{
		generator:    generator,
		systemPrompt: ai.ResolveSystemPrompt(systemPrompt, ai.DefaultSystemPrompts.Recommend),
		logger:       logger,
	}
}

// Recommend asks the model for 5 to 10 prioritized recommendations. A response
// violating the format contract triggers exactly one corrective retry before
// the call fails with a recommendation format error.
func (r *Recommender) Recommend(ctx context.Context, profile *types.ExtractedProfile, matches []types.JobMatch) ([]types.Recommendation, *ai.TokenUsage, error) {
	userPrompt := buildUserPrompt(profile, matches)
	total := &ai.TokenUsage{}

	recs, usage, err := r.generate(ctx, userPrompt)
	accumulate(total, usage)
	if err == nil {
		return recs, total, nil
	}
	if !errors.IsValidation(err) {
		return nil, total, err
	}

	r.logger.Warn("Recommendation response violated the format contract, retrying once", "error", err)
	retryPrompt := userPrompt + "\n\nYour previous response did not follow the required format. " +
		"Return ONLY a JSON array of 5 to 10 objects, each with keys \"category\", \"suggestion\" " +
		"and \"priority\" (one of: low, medium, high)."

	recs, usage, err = r.generate(ctx, retryPrompt)
	accumulate(total, usage)
	if err == nil {
		return recs, total, nil
	}
	if errors.IsValidation(err) {
		return nil, total, errors.NewValidationError(errors.ErrCodeRecommendationFormat,
			"Model failed to produce valid recommendations after a corrective retry", err)
	}
	return nil, total, err
}

func (r *Recommender) generate(ctx context.Context, userPrompt string) ([]types.Recommendation, *ai.TokenUsage, error) {
	var recs []types.Recommendation
	usage, err := r.generator.GenerateStructured(ctx, r.systemPrompt, userPrompt, ai.RecommendationsSchema(), &recs)
	if err != nil {
		return nil, usage, err
	}
	if err := validateRecommendations(recs); err != nil {
		return nil, usage, err
	}
	return recs, usage, nil
}

func validateRecommendations(recs []types.Recommendation) error {
	if len(recs) < MinRecommendations || len(recs) > MaxRecommendations {
		return errors.NewValidationError(errors.ErrCodeRecommendationFormat,
			"Recommendation count is outside the allowed range", nil).
			WithContext("count", len(recs))
	}
	for i, rec := range recs {
		if strings.TrimSpace(rec.Category) == "" || strings.TrimSpace(rec.Suggestion) == "" {
			return errors.NewValidationError(errors.ErrCodeRecommendationFormat,
				"Recommendation is missing category or suggestion", nil).
				WithContext("index", i)
		}
		if !types.ValidPriority(rec.Priority) {
			return errors.NewValidationError(errors.ErrCodeRecommendationFormat,
				"Recommendation has an invalid priority", nil).
				WithContext("index", i).
				WithContext("priority", string(rec.Priority))
		}
	}
	return nil
}

func buildUserPrompt(profile *types.ExtractedProfile, matches []types.JobMatch) string {
	return fmt.Sprintf(ai.DefaultUserPrompts.Recommend,
		profile.CandidateName,
		int(profile.OverallScore),
		formatSkills(profile.Skills),
		formatExperience(profile.Experience),
		formatEducation(profile.Education),
		formatMatches(matches))
}

func formatSkills(skills []types.ExtractedSkill) string {
	if len(skills) == 0 {
		return "None extracted"
	}
	parts := make([]string, len(skills))
	for i, skill := range skills {
		parts[i] = fmt.Sprintf("%s (%s)", skill.Name, skill.Level)
	}
	return strings.Join(parts, ", ")
}

func formatExperience(experience []types.WorkExperience) string {
	if len(experience) == 0 {
		return "None extracted"
	}
	parts := make([]string, len(experience))
	for i, exp := range experience {
		parts[i] = fmt.Sprintf("%s at %s (%s)", exp.Title, exp.Company, exp.Duration)
	}
	return strings.Join(parts, "; ")
}

func formatEducation(education []types.Education) string {
	if len(education) == 0 {
		return "None extracted"
	}
	parts := make([]string, len(education))
	for i, edu := range education {
		parts[i] = fmt.Sprintf("%s — %s", edu.Degree, edu.Institution)
	}
	return strings.Join(parts, "; ")
}

func formatMatches(matches []types.JobMatch) string {
	if len(matches) == 0 {
		return "No matches computed yet."
	}
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("- %s (score: %g)", m.Role, m.SimilarityScore)
	}
	return strings.Join(parts, "\n")
}

func accumulate(total, usage *ai.TokenUsage) {
	if usage == nil {
		return
	}
	total.InputTokens += usage.InputTokens
	total.OutputTokens += usage.OutputTokens
	total.TotalTokens += usage.TotalTokens
}

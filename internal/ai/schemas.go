package ai

import "google.golang.org/genai"

// ExtractionSchema returns the response schema for structured CV extraction
func ExtractionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"candidate_name": {Type: genai.TypeString},
			"email":          {Type: genai.TypeString},
			"summary":        {Type: genai.TypeString},
			"skills": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":  {Type: genai.TypeString},
						"level": {Type: genai.TypeString, Enum: []string{"beginner", "intermediate", "advanced", "expert"}},
						"years": {Type: genai.TypeNumber},
					},
					Required: []string{"name", "level"},
				},
			},
			"experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":    {Type: genai.TypeString},
						"company":  {Type: genai.TypeString},
						"duration": {Type: genai.TypeString},
						"domain":   {Type: genai.TypeString},
						"highlights": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"title", "company"},
				},
			},
			"education": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"degree":      {Type: genai.TypeString},
						"institution": {Type: genai.TypeString},
						"year":        {Type: genai.TypeString},
					},
					Required: []string{"degree", "institution"},
				},
			},
			"overall_quality_score": {Type: genai.TypeInteger},
		},
		Required: []string{"candidate_name", "summary", "skills", "experience", "education", "overall_quality_score"},
	}
}

// RecommendationsSchema returns the response schema for improvement recommendations
func RecommendationsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category":   {Type: genai.TypeString},
				"suggestion": {Type: genai.TypeString},
				"priority":   {Type: genai.TypeString, Enum: []string{"low", "medium", "high"}},
			},
			Required: []string{"category", "suggestion", "priority"},
		},
	}
}

// AgentDecisionSchema returns the response schema for a single agent reasoning step.
// The model either selects a tool or produces a final answer.
func AgentDecisionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"thought":      {Type: genai.TypeString},
			"action":       {Type: genai.TypeString},
			"action_input": {Type: genai.TypeString},
			"final_answer": {Type: genai.TypeString},
		},
		Required: []string{"thought", "action"},
	}
}

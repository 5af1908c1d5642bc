package types

import "time"

// FileType identifies a supported CV document format
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
)

// Stage is the monotonic lifecycle marker of a document in the store.
// Valid forward transitions: UPLOADED -> CHUNKED -> ANALYZED.
// FAILED is reachable from any stage.
type Stage string

const (
	StageUploaded Stage = "UPLOADED"
	StageChunked  Stage = "CHUNKED"
	StageAnalyzed Stage = "ANALYZED"
	StageFailed   Stage = "FAILED"
)

// SkillLevel is the proficiency level of an extracted skill
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

// ValidSkillLevel reports whether s is one of the four enumerated levels
func ValidSkillLevel(s SkillLevel) bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert:
		return true
	}
	return false
}

// Priority ranks a recommendation
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is one of the three enumerated priorities
func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ExtractedSkill is a single skill pulled from the CV text
type ExtractedSkill struct {
	Name  string     `json:"name"`
	Level SkillLevel `json:"level"`
	Years *float64   `json:"years,omitempty"`
}

// WorkExperience is a single work-experience entry
type WorkExperience struct {
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	Duration   string   `json:"duration"`
	Domain     string   `json:"domain"`
	Highlights []string `json:"highlights"`
}

// Education is a single education entry
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// ExtractedProfile is the validated structured record produced by the extractor
type ExtractedProfile struct {
	CandidateName string           `json:"candidate_name"`
	Email         string           `json:"email"`
	Summary       string           `json:"summary"`
	Skills        []ExtractedSkill `json:"skills"`
	Experience    []WorkExperience `json:"experience"`
	Education     []Education      `json:"education"`
	OverallScore  float64          `json:"overall_score"`
}

// JobCatalogueEntry is one role in the static job catalogue
type JobCatalogueEntry struct {
	Role        string `json:"role" mapstructure:"role"`
	Description string `json:"description" mapstructure:"description"`
}

// JobMatch is one matched role with its normalized similarity score
type JobMatch struct {
	Role            string  `json:"role"`
	SimilarityScore float64 `json:"similarity_score"`
	Reason          string  `json:"reason"`
}

// Recommendation is a single actionable improvement suggestion
type Recommendation struct {
	Category   string   `json:"category"`
	Suggestion string   `json:"suggestion"`
	Priority   Priority `json:"priority"`
}

// AnalysisResult is the complete analysis payload for one document.
// Field names and nesting are part of the external API contract.
type AnalysisResult struct {
	FileID          string           `json:"file_id"`
	CandidateName   string           `json:"candidate_name"`
	Email           string           `json:"email"`
	Summary         string           `json:"summary"`
	Skills          []ExtractedSkill `json:"skills"`
	Experience      []WorkExperience `json:"experience"`
	Education       []Education      `json:"education"`
	JobMatches      []JobMatch       `json:"job_matches"`
	Recommendations []Recommendation `json:"recommendations"`
	OverallScore    float64          `json:"overall_score"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
}

// UploadResult is returned after a CV document is registered in the store
type UploadResult struct {
	FileID    string   `json:"file_id"`
	Filename  string   `json:"filename"`
	FileType  FileType `json:"file_type"`
	CharCount int      `json:"char_count"`
	Message   string   `json:"message"`
}

// QueryRequest is a free-form question about one uploaded document
type QueryRequest struct {
	FileID   string `json:"file_id"`
	Question string `json:"question"`
}

// QueryResponse is the agent's answer to a QueryRequest. ToolCalls lists
// the tool names actually invoked, in order, for observability.
type QueryResponse struct {
	Answer       string   `json:"answer"`
	Sources      []string `json:"sources"`
	ToolCalls    []string `json:"tool_calls"`
	LimitReached bool     `json:"limit_reached"`
}

// TranscriptStep is one reason-act-observe cycle of an agent run
type TranscriptStep struct {
	Thought     string `json:"thought"`
	Tool        string `json:"tool"`
	ToolInput   string `json:"tool_input"`
	Observation string `json:"observation"`
}

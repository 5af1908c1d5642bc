package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"cvlens/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "QueryResponse", &QueryTextFormatter{})
	registry.RegisterFormatter("markdown", "QueryResponse", &QueryMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.AnalysisResult, types.AnalysisResult:
		return "AnalysisResult"
	case *types.QueryResponse, types.QueryResponse:
		return "QueryResponse"
	default:
		return "any"
	}
}

func asAnalysisResult(data any) (*types.AnalysisResult, bool) {
	switch v := data.(type) {
	case *types.AnalysisResult:
		return v, true
	case types.AnalysisResult:
		return &v, true
	}
	return nil, false
}

func asQueryResponse(data any) (*types.QueryResponse, bool) {
	switch v := data.(type) {
	case *types.QueryResponse:
		return v, true
	case types.QueryResponse:
		return &v, true
	}
	return nil, false
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter handles text formatting for CV analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := asAnalysisResult(data)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CV ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("Candidate: %s\n", result.CandidateName))
	if result.Email != "" {
		output.WriteString(fmt.Sprintf("Email: %s\n", result.Email))
	}
	output.WriteString(fmt.Sprintf("Overall Score: %.0f/100\n\n", result.OverallScore))

	if result.Summary != "" {
		output.WriteString("Summary:\n")
		output.WriteString(result.Summary)
		output.WriteString("\n\n")
	}

	if len(result.Skills) > 0 {
		output.WriteString("=== SKILLS ===\n")
		for _, skill := range result.Skills {
			if skill.Years != nil {
				output.WriteString(fmt.Sprintf("- %s (%s, %g years)\n", skill.Name, skill.Level, *skill.Years))
			} else {
				output.WriteString(fmt.Sprintf("- %s (%s)\n", skill.Name, skill.Level))
			}
		}
		output.WriteString("\n")
	}

	if len(result.Experience) > 0 {
		output.WriteString("=== EXPERIENCE ===\n")
		for i, exp := range result.Experience {
			output.WriteString(fmt.Sprintf("%d. %s at %s (%s)\n", i+1, exp.Title, exp.Company, exp.Duration))
			for _, highlight := range exp.Highlights {
				output.WriteString(fmt.Sprintf("   - %s\n", highlight))
			}
		}
		output.WriteString("\n")
	}

	if len(result.Education) > 0 {
		output.WriteString("=== EDUCATION ===\n")
		for _, edu := range result.Education {
			output.WriteString(fmt.Sprintf("- %s, %s (%s)\n", edu.Degree, edu.Institution, edu.Year))
		}
		output.WriteString("\n")
	}

	output.WriteString("=== JOB MATCHES ===\n")
	if len(result.JobMatches) > 0 {
		for i, match := range result.JobMatches {
			output.WriteString(fmt.Sprintf("%d. %s (score: %.3f)\n", i+1, match.Role, match.SimilarityScore))
			if match.Reason != "" {
				output.WriteString(fmt.Sprintf("   %s\n", match.Reason))
			}
		}
	} else {
		output.WriteString("No matches computed.\n")
	}
	output.WriteString("\n")

	if len(result.Recommendations) > 0 {
		output.WriteString("=== RECOMMENDATIONS ===\n")
		for i, rec := range result.Recommendations {
			output.WriteString(fmt.Sprintf("%d. [%s] %s: %s\n", i+1, rec.Priority, rec.Category, rec.Suggestion))
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for CV analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asAnalysisResult(data)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# CV Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Candidate:** %s\n\n", result.CandidateName))
	if result.Email != "" {
		output.WriteString(fmt.Sprintf("**Email:** %s\n\n", result.Email))
	}
	output.WriteString(fmt.Sprintf("**Overall Score:** %.0f/100\n\n", result.OverallScore))

	if result.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(result.Summary)
		output.WriteString("\n\n")
	}

	if len(result.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		for _, skill := range result.Skills {
			if skill.Years != nil {
				output.WriteString(fmt.Sprintf("- **%s** (%s, %g years)\n", skill.Name, skill.Level, *skill.Years))
			} else {
				output.WriteString(fmt.Sprintf("- **%s** (%s)\n", skill.Name, skill.Level))
			}
		}
		output.WriteString("\n")
	}

	if len(result.Experience) > 0 {
		output.WriteString("## Experience\n\n")
		for _, exp := range result.Experience {
			output.WriteString(fmt.Sprintf("### %s at %s\n\n", exp.Title, exp.Company))
			output.WriteString(fmt.Sprintf("*%s*\n\n", exp.Duration))
			for _, highlight := range exp.Highlights {
				output.WriteString(fmt.Sprintf("- %s\n", highlight))
			}
			output.WriteString("\n")
		}
	}

	if len(result.Education) > 0 {
		output.WriteString("## Education\n\n")
		for _, edu := range result.Education {
			output.WriteString(fmt.Sprintf("- %s, %s (%s)\n", edu.Degree, edu.Institution, edu.Year))
		}
		output.WriteString("\n")
	}

	output.WriteString("## Job Matches\n\n")
	if len(result.JobMatches) > 0 {
		for i, match := range result.JobMatches {
			output.WriteString(fmt.Sprintf("%d. **%s** (score: %.3f)\n", i+1, match.Role, match.SimilarityScore))
			if match.Reason != "" {
				output.WriteString(fmt.Sprintf("   %s\n", match.Reason))
			}
		}
	} else {
		output.WriteString("No matches computed.\n")
	}
	output.WriteString("\n")

	if len(result.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for i, rec := range result.Recommendations {
			output.WriteString(fmt.Sprintf("%d. **[%s]** %s: %s\n", i+1, rec.Priority, rec.Category, rec.Suggestion))
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// QueryTextFormatter handles text formatting for agent query responses
type QueryTextFormatter struct{}

func (qtf *QueryTextFormatter) Format(data any) (string, error) {
	result, ok := asQueryResponse(data)
	if !ok {
		return "", fmt.Errorf("expected QueryResponse, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ANSWER ===\n\n")
	output.WriteString(result.Answer)
	output.WriteString("\n\n")

	if len(result.Sources) > 0 {
		output.WriteString("Sources:\n")
		for _, source := range result.Sources {
			output.WriteString(fmt.Sprintf("- %s\n", source))
		}
		output.WriteString("\n")
	}

	if len(result.ToolCalls) > 0 {
		output.WriteString("Tools used:\n")
		for _, call := range result.ToolCalls {
			output.WriteString(fmt.Sprintf("- %s\n", call))
		}
		output.WriteString("\n")
	}

	if result.LimitReached {
		output.WriteString("Note: the reasoning limit was reached, this answer may be incomplete.\n")
	}

	return output.String(), nil
}

func (qtf *QueryTextFormatter) SupportedType() string {
	return "QueryResponse"
}

// QueryMarkdownFormatter handles markdown formatting for agent query responses
type QueryMarkdownFormatter struct{}

func (qmf *QueryMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asQueryResponse(data)
	if !ok {
		return "", fmt.Errorf("expected QueryResponse, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Answer\n\n")
	output.WriteString(result.Answer)
	output.WriteString("\n\n")

	if len(result.Sources) > 0 {
		output.WriteString("## Sources\n\n")
		for _, source := range result.Sources {
			output.WriteString(fmt.Sprintf("- %s\n", source))
		}
		output.WriteString("\n")
	}

	if len(result.ToolCalls) > 0 {
		output.WriteString("## Tools Used\n\n")
		for _, call := range result.ToolCalls {
			output.WriteString(fmt.Sprintf("- %s\n", call))
		}
		output.WriteString("\n")
	}

	if result.LimitReached {
		output.WriteString("**Note:** the reasoning limit was reached, this answer may be incomplete.\n")
	}

	return output.String(), nil
}

func (qmf *QueryMarkdownFormatter) SupportedType() string {
	return "QueryResponse"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()

package ai

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ExtractProfile string
	Recommend      string
	Agent          string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ExtractProfile string
	Recommend      string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ExtractProfile: `You are an expert HR analyst and CV reviewer. Given the full text of a CV / resume, extract all relevant information accurately. Estimate skill proficiency levels based on the described experience. Score the CV quality from 0 to 100 considering completeness, clarity, impact of bullet points, and overall presentation.`,

	Recommend: `You are an expert career coach who specialises in CV optimisation for the technology industry. Given structured information extracted from a candidate's CV and their top job-role matches, generate actionable, specific improvement recommendations.

Rules:
- Be concrete: instead of 'add more skills', say *which* skills.
- Categorise each recommendation (e.g., Skills Gap, Formatting, Impact Metrics, Keywords, Summary).
- Assign a priority (low / medium / high).
- Return ONLY a JSON array of objects, each with keys: "category", "suggestion", "priority".
- Return at least 5 and at most 10 recommendations.`,

	Agent: `You are an intelligent CV analysis assistant. You have access to tools that can retrieve CV text, search specific sections, and analyse formatting. Use these tools to answer the user's question thoroughly and accurately.

Guidelines:
- Always retrieve relevant CV data before answering.
- If the question is about a specific section, use the search tool.
- Cite specific text from the CV when possible.
- Be concise but complete.`,
}

// DefaultUserPrompts provides the default user prompt templates.
// Templates are fmt.Sprintf format strings.
var DefaultUserPrompts = UserPrompts{
	ExtractProfile: "Extract structured information from the following CV:\n\n%s",

	Recommend: `## Extracted CV Data
- **Candidate**: %s
- **Overall Score**: %d/100
- **Skills**: %s
- **Experience Summary**: %s
- **Education**: %s

## Top Job Matches
%s

Generate improvement recommendations as a JSON array.`,
}

// ResolveSystemPrompt selects the correct system prompt based on priority:
// 1. A prompt from the configuration (inline or loaded from a file).
// 2. The hardcoded default prompt.
func ResolveSystemPrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

package agent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"cvlens/internal/store"
)

const maxFullTextChars = 8000

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Tool is a read-only operation the agent can invoke against one document.
// Run returns an observation string; errors are surfaced to the model as
// observations so the reasoning loop can recover.
type Tool struct {
	Name        string
	Description string
	Run         func(input string) (string, error)
}

// newToolset binds the four document tools to a single file ID
func newToolset(st *store.FileStore, fileID string) []Tool {
	ts := &toolset{store: st, fileID: fileID}
	return []Tool{
		{
			Name:        "get_cv_full_text",
			Description: "Retrieve the full raw text of the CV document.",
			Run:         ts.fullText,
		},
		{
			Name:        "get_cv_chunks",
			Description: "Retrieve the CV text split into its indexed chunks.",
			Run:         ts.chunks,
		},
		{
			Name:        "search_cv_section",
			Description: "Search the CV for sections containing the given keyword or phrase (case-insensitive).",
			Run:         ts.search,
		},
		{
			Name:        "analyze_cv_formatting",
			Description: "Analyse the CV's formatting: length, detected sections, contact details and bullet usage.",
			Run:         ts.formatting,
		},
	}
}

type toolset struct {
	store  *store.FileStore
	fileID string
}

func (ts *toolset) fullText(_ string) (string, error) {
	doc, err := ts.store.Get(ts.fileID)
	if err != nil {
		return "", err
	}
	text := doc.RawText
	if len(text) > maxFullTextChars {
		cut := maxFullTextChars
		// Never cut in the middle of a multi-byte rune
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "... [truncated for brevity]"
	}
	return text, nil
}

func (ts *toolset) chunks(_ string) (string, error) {
	doc, err := ts.store.Get(ts.fileID)
	if err != nil {
		return "", err
	}
	if len(doc.Chunks) == 0 {
		return "The document has not been chunked yet.", nil
	}
	var b strings.Builder
	for i, chunk := range doc.Chunks {
		fmt.Fprintf(&b, "--- Chunk %d/%d ---\n%s\n", i+1, len(doc.Chunks), chunk)
	}
	return b.String(), nil
}

func (ts *toolset) search(input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "Search query is empty. Provide a keyword or phrase as action_input.", nil
	}
	doc, err := ts.store.Get(ts.fileID)
	if err != nil {
		return "", err
	}
	sections := doc.Chunks
	if len(sections) == 0 {
		sections = []string{doc.RawText}
	}
	lowered := strings.ToLower(query)
	var hits []string
	for _, section := range sections {
		if strings.Contains(strings.ToLower(section), lowered) {
			hits = append(hits, section)
		}
	}
	if len(hits) == 0 {
		return fmt.Sprintf("No sections matching %q were found in the CV.", query), nil
	}
	return strings.Join(hits, "\n\n"), nil
}

func (ts *toolset) formatting(_ string) (string, error) {
	doc, err := ts.store.Get(ts.fileID)
	if err != nil {
		return "", err
	}
	text := doc.RawText
	lowered := strings.ToLower(text)
	wordCount := len(strings.Fields(text))

	var b strings.Builder
	fmt.Fprintf(&b, "Word count: %d\n", wordCount)
	if wordCount < 150 {
		b.WriteString("Warning: the CV is very short, it may lack detail.\n")
	}
	if wordCount > 1500 {
		b.WriteString("Warning: the CV is very long, consider condensing it.\n")
	}

	var found, missing []string
	for _, section := range []string{"education", "experience", "skills", "summary", "contact"} {
		if strings.Contains(lowered, section) {
			found = append(found, section)
		} else {
			missing = append(missing, section)
		}
	}
	fmt.Fprintf(&b, "Detected sections: %s\n", joinOrNone(found))
	fmt.Fprintf(&b, "Missing sections: %s\n", joinOrNone(missing))

	if emailPattern.MatchString(text) {
		b.WriteString("Contact email: present\n")
	} else {
		b.WriteString("Contact email: not found\n")
	}

	if strings.ContainsAny(text, "•-*▪►") {
		b.WriteString("Bullet points: used\n")
	} else {
		b.WriteString("Bullet points: none detected, consider using bullets for achievements\n")
	}
	return b.String(), nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

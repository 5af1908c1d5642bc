package agent

import (
	"strings"
	"testing"
	"unicode/utf8"

	"cvlens/internal/store"
	"cvlens/internal/types"
)

func toolByName(t *testing.T, tools []Tool, name string) Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return Tool{}
}

func TestFullTextTruncation(t *testing.T) {
	st := store.New(0, testLogger(t))
	defer st.Close()
	long := strings.Repeat("a", maxFullTextChars+500)
	if err := st.Put("big", "big.txt", types.FileTypeTXT, long); err != nil {
		t.Fatal(err)
	}

	tools := newToolset(st, "big")
	out, err := toolByName(t, tools, "get_cv_full_text").Run("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "... [truncated for brevity]") {
		t.Error("long text not truncated")
	}
	if len(out) > maxFullTextChars+len("... [truncated for brevity]") {
		t.Errorf("truncated output is %d chars", len(out))
	}
}

func TestFullTextTruncationKeepsRunesIntact(t *testing.T) {
	st := store.New(0, testLogger(t))
	defer st.Close()
	// Three-byte runes guarantee the char limit lands mid-sequence
	long := strings.Repeat("曾", maxFullTextChars)
	if err := st.Put("cjk", "cjk.txt", types.FileTypeTXT, long); err != nil {
		t.Fatal(err)
	}

	tools := newToolset(st, "cjk")
	out, err := toolByName(t, tools, "get_cv_full_text").Run("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "... [truncated for brevity]") {
		t.Error("long text not truncated")
	}
	if !utf8.ValidString(out) {
		t.Error("truncated output contains a split rune")
	}
}

func TestChunksTool(t *testing.T) {
	st := newTestStore(t)
	tools := newToolset(st, "doc1")

	out, err := toolByName(t, tools, "get_cv_chunks").Run("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "--- Chunk 1/3 ---") || !strings.Contains(out, "--- Chunk 3/3 ---") {
		t.Errorf("chunk headers missing:\n%s", out)
	}
}

func TestSearchTool(t *testing.T) {
	st := newTestStore(t)
	tools := newToolset(st, "doc1")
	search := toolByName(t, tools, "search_cv_section")

	t.Run("case insensitive match", func(t *testing.T) {
		out, err := search.Run("AWS")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Cloud engineer") {
			t.Errorf("search missed summary chunk:\n%s", out)
		}
	})

	t.Run("no match", func(t *testing.T) {
		out, err := search.Run("blockchain")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "No sections matching") {
			t.Errorf("out = %q", out)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		out, err := search.Run("   ")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "empty") {
			t.Errorf("out = %q", out)
		}
	})
}

func TestFormattingTool(t *testing.T) {
	st := newTestStore(t)
	tools := newToolset(st, "doc1")

	out, err := toolByName(t, tools, "analyze_cv_formatting").Run("")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Word count:",
		"Warning: the CV is very short",
		"education",
		"Contact email: present",
		"Bullet points: used",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("formatting report missing %q:\n%s", want, out)
		}
	}
}

func TestFormattingToolNoBulletsNoEmail(t *testing.T) {
	st := store.New(0, testLogger(t))
	defer st.Close()
	text := strings.Repeat("plain word ", 200) + "experience skills"
	if err := st.Put("plain", "plain.txt", types.FileTypeTXT, text); err != nil {
		t.Fatal(err)
	}

	tools := newToolset(st, "plain")
	out, err := toolByName(t, tools, "analyze_cv_formatting").Run("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Contact email: not found") {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(out, "Bullet points: none detected") {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(out, "Missing sections: ") || !strings.Contains(out, "education") {
		t.Errorf("out = %q", out)
	}
}

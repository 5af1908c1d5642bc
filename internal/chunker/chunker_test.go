package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmptyInput(t *testing.T) {
	c := New(1000, 200)
	if got := c.Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
}

func TestSplitShortInput(t *testing.T) {
	c := New(1000, 200)
	text := "Jane Doe\nPython, AWS\n5 years backend"
	got := c.Split(text)
	if len(got) != 1 {
		t.Fatalf("Split() returned %d chunks, want 1", len(got))
	}
	if got[0] != text {
		t.Errorf("Split() = %q, want %q", got[0], text)
	}
}

func TestSplitChunkSizes(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
	}{
		{
			name:    "paragraphs",
			size:    100,
			overlap: 20,
			text:    strings.Repeat("First paragraph of the document.\n\nSecond paragraph with more detail.\n\n", 10),
		},
		{
			name:    "sentences",
			size:    80,
			overlap: 10,
			text:    strings.Repeat("Built backend services in Go. Led a team of four engineers. Shipped weekly. ", 12),
		},
		{
			name:    "no separators",
			size:    50,
			overlap: 10,
			text:    strings.Repeat("x", 500),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.size, tt.overlap)
			chunks := c.Split(tt.text)
			if len(chunks) == 0 {
				t.Fatal("Split() returned no chunks")
			}
			for i, chunk := range chunks {
				if len(chunk) > tt.size {
					t.Errorf("chunk %d has length %d, want <= %d", i, len(chunk), tt.size)
				}
				if chunk == "" {
					t.Errorf("chunk %d is empty", i)
				}
			}
		})
	}
}

func TestSplitKeepsRunesIntact(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
	}{
		{
			name:    "cjk without separators",
			size:    50,
			overlap: 10,
			text:    strings.Repeat("后端工程师精通分布式系统", 30),
		},
		{
			name:    "accented text with overlap cuts",
			size:    60,
			overlap: 25,
			text:    strings.Repeat("Ingénieur logiciel très expérimenté à Zürich. ", 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.size, tt.overlap)
			for i, chunk := range c.Split(tt.text) {
				if !utf8.ValidString(chunk) {
					t.Errorf("chunk %d contains a split rune: %q", i, chunk)
				}
			}
		})
	}
}

func TestSplitReconstruction(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
	}{
		{
			name:    "cv text",
			size:    120,
			overlap: 30,
			text: "Jane Doe\njane@example.com\n\nSummary\nBackend engineer with five years of experience building distributed systems.\n\n" +
				"Skills\nPython, AWS, Docker, Kubernetes, PostgreSQL\n\n" +
				"Experience\nSenior Engineer at Acme Corp (2019-2024). Designed event pipelines. Reduced latency by 40 percent.\n\n" +
				"Education\nBSc Computer Science, State University, 2018.",
		},
		{
			name:    "hard cuts only",
			size:    64,
			overlap: 16,
			text:    strings.Repeat("abcdefghij", 40),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.size, tt.overlap)
			chunks := c.Split(tt.text)

			rebuilt := chunks[0]
			for i := 1; i < len(chunks); i++ {
				prefix := rebuilt[len(rebuilt)-tt.overlap:]
				if !strings.HasPrefix(chunks[i], prefix) {
					t.Fatalf("chunk %d does not carry %d chars of trailing context from the previous chunk", i, tt.overlap)
				}
				rebuilt += chunks[i][tt.overlap:]
			}
			if rebuilt != tt.text {
				t.Errorf("reconstructed text does not match original: got %d chars, want %d", len(rebuilt), len(tt.text))
			}
		})
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	// Two paragraphs that both fit under the limit individually
	text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	c := New(100, 10)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want at least 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n\n") {
		t.Errorf("first chunk should end at the paragraph break, got %q", chunks[0][len(chunks[0])-5:])
	}
}

func TestNewClampsInvalidValues(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		overlap     int
		wantSize    int
		wantOverlap int
	}{
		{"defaults on zero size", 0, 200, DefaultChunkSize, 200},
		{"negative overlap", 100, -5, 100, 0},
		{"overlap exceeding size", 100, 150, 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.size, tt.overlap)
			if c.Size() != tt.wantSize {
				t.Errorf("Size() = %d, want %d", c.Size(), tt.wantSize)
			}
			if c.Overlap() != tt.wantOverlap {
				t.Errorf("Overlap() = %d, want %d", c.Overlap(), tt.wantOverlap)
			}
		})
	}
}

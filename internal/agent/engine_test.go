package agent

import (
	"context"
	"strings"
	"testing"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
	"cvlens/internal/store"
	"cvlens/internal/types"
)

// scriptedReasoner replays a fixed sequence of decisions. When the script is
// exhausted it keeps returning the last decision, and onDecide runs before
// each step so tests can mutate state mid-loop.
type scriptedReasoner struct {
	decisions []Decision
	prompts   []string
	onDecide  func(call int)
	calls     int
}

func (s *scriptedReasoner) Decide(_ context.Context, _, userPrompt string) (*Decision, *ai.TokenUsage, error) {
	if s.onDecide != nil {
		s.onDecide(s.calls)
	}
	i := s.calls
	if i >= len(s.decisions) {
		i = len(s.decisions) - 1
	}
	s.calls++
	s.prompts = append(s.prompts, userPrompt)
	d := s.decisions[i]
	return &d, nil, nil
}

func testLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatal(err)
	}
	return logger
}

const testCV = `John Smith
john.smith@example.com

Summary
Cloud engineer with a focus on AWS infrastructure.

Experience
- Built serverless pipelines on AWS Lambda and S3
- Migrated on-prem workloads to EC2

Skills
AWS, Terraform, Go, Python

Education
BSc Computer Science, State University`

func newTestStore(t *testing.T) *store.FileStore {
	t.Helper()
	st := store.New(0, testLogger(t))
	t.Cleanup(st.Close)
	if err := st.Put("doc1", "cv.txt", types.FileTypeTXT, testCV); err != nil {
		t.Fatal(err)
	}
	if err := st.SetChunks("doc1", []string{
		"Summary\nCloud engineer with a focus on AWS infrastructure.",
		"Experience\n- Built serverless pipelines on AWS Lambda and S3",
		"Education\nBSc Computer Science, State University",
	}); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestQueryToolThenAnswer(t *testing.T) {
	st := newTestStore(t)
	reasoner := &scriptedReasoner{decisions: []Decision{
		{Thought: "Check AWS experience", Action: "search_cv_section", ActionInput: "aws"},
		{Thought: "I have enough", Action: "final_answer", FinalAnswer: "The candidate has AWS experience with Lambda and S3."},
	}}
	engine := NewEngine(reasoner, st, "", 10, nil, testLogger(t))

	resp, transcript, err := engine.Query(context.Background(), types.QueryRequest{FileID: "doc1", Question: "Does the candidate know AWS?"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "The candidate has AWS experience with Lambda and S3." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if resp.LimitReached {
		t.Error("LimitReached = true, want false")
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0] != "search_cv_section" {
		t.Errorf("ToolCalls = %v", resp.ToolCalls)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "search_cv_section" {
		t.Errorf("Sources = %v", resp.Sources)
	}
	if len(transcript) != 1 {
		t.Fatalf("transcript has %d steps, want 1", len(transcript))
	}
	if !strings.Contains(transcript[0].Observation, "AWS Lambda") {
		t.Errorf("observation = %q, want AWS section text", transcript[0].Observation)
	}
	// The observation must be visible to the next reasoning step
	if !strings.Contains(reasoner.prompts[1], "AWS Lambda") {
		t.Error("second prompt missing previous observation")
	}
}

func TestQueryUnknownDocument(t *testing.T) {
	st := newTestStore(t)
	engine := NewEngine(&scriptedReasoner{decisions: []Decision{{Action: "final_answer", FinalAnswer: "x"}}}, st, "", 10, nil, testLogger(t))

	_, _, err := engine.Query(context.Background(), types.QueryRequest{FileID: "missing", Question: "q"})
	if !errors.IsNotFound(err) {
		t.Errorf("Query() error = %v, want not-found", err)
	}
}

func TestQueryUnknownToolContinues(t *testing.T) {
	st := newTestStore(t)
	reasoner := &scriptedReasoner{decisions: []Decision{
		{Thought: "try something", Action: "summarize_cv"},
		{Thought: "fall back", Action: "final_answer", FinalAnswer: "done"},
	}}
	engine := NewEngine(reasoner, st, "", 10, nil, testLogger(t))

	resp, transcript, err := engine.Query(context.Background(), types.QueryRequest{FileID: "doc1", Question: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "done" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if !strings.Contains(transcript[0].Observation, "Unknown tool") {
		t.Errorf("observation = %q, want unknown-tool message", transcript[0].Observation)
	}
	if !strings.Contains(transcript[0].Observation, "get_cv_full_text") {
		t.Errorf("observation should list available tools: %q", transcript[0].Observation)
	}
	// No tool ran, so the response must not claim one did
	if len(resp.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %v, want none for an unknown tool", resp.ToolCalls)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("Sources = %v, want none for an unknown tool", resp.Sources)
	}
}

func TestQueryToolErrorContinues(t *testing.T) {
	st := newTestStore(t)
	reasoner := &scriptedReasoner{decisions: []Decision{
		{Thought: "read it", Action: "get_cv_full_text"},
		{Thought: "give up", Action: "final_answer", FinalAnswer: "document unavailable"},
	}}
	// Delete the document after the initial existence check so the first
	// tool invocation fails
	reasoner.onDecide = func(call int) {
		if call == 0 {
			if err := st.Delete("doc1"); err != nil {
				t.Fatal(err)
			}
		}
	}
	engine := NewEngine(reasoner, st, "", 10, nil, testLogger(t))

	resp, transcript, err := engine.Query(context.Background(), types.QueryRequest{FileID: "doc1", Question: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "document unavailable" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if !strings.Contains(transcript[0].Observation, "Error:") {
		t.Errorf("observation = %q, want error observation", transcript[0].Observation)
	}
}

func TestQueryForcedTermination(t *testing.T) {
	st := newTestStore(t)
	reasoner := &scriptedReasoner{decisions: []Decision{
		{Thought: "look again", Action: "get_cv_chunks"},
		{Thought: "look again", Action: "get_cv_chunks"},
		{Thought: "look again", Action: "get_cv_chunks"},
		{Thought: "forced", Action: "final_answer", FinalAnswer: "best effort summary"},
	}}
	engine := NewEngine(reasoner, st, "", 3, nil, testLogger(t))

	resp, transcript, err := engine.Query(context.Background(), types.QueryRequest{FileID: "doc1", Question: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.LimitReached {
		t.Error("LimitReached = false, want true")
	}
	if resp.Answer != "best effort summary" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.ToolCalls) != 3 {
		t.Errorf("ToolCalls = %v, want 3 calls", resp.ToolCalls)
	}
	if len(transcript) != 3 {
		t.Errorf("transcript has %d steps, want 3", len(transcript))
	}
	// The forced prompt must forbid further tool use
	forced := reasoner.prompts[len(reasoner.prompts)-1]
	if !strings.Contains(forced, "tool-call limit") {
		t.Errorf("forced prompt missing limit instruction:\n%s", forced)
	}
}

func TestQueryCancelledContext(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(&scriptedReasoner{decisions: []Decision{{Action: "get_cv_chunks"}}}, st, "", 10, nil, testLogger(t))
	_, _, err := engine.Query(ctx, types.QueryRequest{FileID: "doc1", Question: "q"})
	if !errors.HasCode(err, errors.ErrCodeCancelled) {
		t.Errorf("Query() error = %v, want code %v", err, errors.ErrCodeCancelled)
	}
}

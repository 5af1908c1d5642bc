package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cvlens/internal/ai"
	"cvlens/internal/errors"
	"cvlens/internal/observability"
	"cvlens/internal/store"
	"cvlens/internal/types"
)

// DefaultMaxCycles bounds the reason-act-observe loop
const DefaultMaxCycles = 10

const finalAnswerAction = "final_answer"

// Decision is one reasoning step produced by the model. The model either
// selects a tool via Action or terminates with Action "final_answer".
type Decision struct {
	Thought     string `json:"thought"`
	Action      string `json:"action"`
	ActionInput string `json:"action_input"`
	FinalAnswer string `json:"final_answer"`
}

// Reasoner produces the next Decision given the system prompt and the
// accumulated scratchpad
type Reasoner interface {
	Decide(ctx context.Context, systemPrompt, userPrompt string) (*Decision, *ai.TokenUsage, error)
}

// NewReasoner adapts a structured Generator into a Reasoner
func NewReasoner(generator ai.Generator) Reasoner {
	return &generatorReasoner{generator: generator}
}

type generatorReasoner struct {
	generator ai.Generator
}

func (r *generatorReasoner) Decide(ctx context.Context, systemPrompt, userPrompt string) (*Decision, *ai.TokenUsage, error) {
	var d Decision
	usage, err := r.generator.GenerateStructured(ctx, systemPrompt, userPrompt, ai.AgentDecisionSchema(), &d)
	if err != nil {
		return nil, usage, err
	}
	return &d, usage, nil
}

// Engine answers free-form questions about a stored document by running a
// bounded reason-act-observe loop over read-only document tools
type Engine struct {
	reasoner     Reasoner
	store        *store.FileStore
	systemPrompt string
	maxCycles    int
	metrics      *observability.Metrics
	logger       *errors.Logger
}

// NewEngine creates an Engine. An empty systemPrompt falls back to the
// default, maxCycles <= 0 falls back to DefaultMaxCycles, metrics may be
// nil when telemetry is not configured.
func NewEngine(reasoner Reasoner, st *store.FileStore, systemPrompt string, maxCycles int, metrics *observability.Metrics, logger *errors.Logger) *Engine {
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}
	return &Engine{
		reasoner:     reasoner,
		store:        st,
		systemPrompt: ai.ResolveSystemPrompt(systemPrompt, ai.DefaultSystemPrompts.Agent),
		maxCycles:    maxCycles,
		metrics:      metrics,
		logger:       logger,
	}
}

// Query runs the agent loop for one question. Tool failures are fed back to
// the model as observations and never abort the loop. When the cycle limit is
// reached the engine forces a best-effort answer and flags the response.
func (e *Engine) Query(ctx context.Context, req types.QueryRequest) (*types.QueryResponse, []types.TranscriptStep, error) {
	if _, err := e.store.Get(req.FileID); err != nil {
		return nil, nil, err
	}

	tools := newToolset(e.store, req.FileID)
	byName := make(map[string]Tool, len(tools))
	for _, tool := range tools {
		byName[tool.Name] = tool
	}

	var transcript []types.TranscriptStep
	var toolCalls []string

	for cycle := 0; cycle < e.maxCycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return nil, transcript, errors.NewCancelledError("Agent query cancelled", context.Cause(ctx))
		}

		decision, err := e.decide(ctx, e.buildScratchpad(req, tools, transcript, false))
		if err != nil {
			return nil, transcript, err
		}

		if isFinal(decision) {
			e.logger.Debug("Agent produced final answer", "cycles", cycle+1, "toolCalls", len(toolCalls))
			return &types.QueryResponse{
				Answer:    decision.FinalAnswer,
				Sources:   sources(toolCalls),
				ToolCalls: toolCalls,
			}, transcript, nil
		}

		observation, ran := e.invoke(byName, decision)
		if ran {
			toolCalls = append(toolCalls, decision.Action)
		}
		transcript = append(transcript, types.TranscriptStep{
			Thought:     decision.Thought,
			Tool:        decision.Action,
			ToolInput:   decision.ActionInput,
			Observation: observation,
		})
	}

	answer := e.forceAnswer(ctx, req, tools, transcript)
	e.logger.Warn("Agent hit the cycle limit", "fileID", req.FileID, "maxCycles", e.maxCycles)
	return &types.QueryResponse{
		Answer:       answer,
		Sources:      sources(toolCalls),
		ToolCalls:    toolCalls,
		LimitReached: true,
	}, transcript, nil
}

// decide runs one reasoning step through the metrics layer
func (e *Engine) decide(ctx context.Context, userPrompt string) (*Decision, error) {
	var decision *Decision
	err := e.metrics.TrackAIOperationWithTokens(ctx, "agent_decide", func(ctx context.Context) *observability.AIOperationResult {
		var usage *ai.TokenUsage
		var decideErr error
		decision, usage, decideErr = e.reasoner.Decide(ctx, e.systemPrompt, userPrompt)
		return &observability.AIOperationResult{Error: decideErr, TokenUsage: observedUsage(usage)}
	})
	return decision, err
}

// invoke runs one tool, converting every failure into an observation string.
// The second return reports whether a known tool actually ran.
func (e *Engine) invoke(byName map[string]Tool, decision *Decision) (string, bool) {
	tool, ok := byName[decision.Action]
	if !ok {
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Sprintf("Unknown tool %q. Available tools: %s.", decision.Action, strings.Join(names, ", ")), false
	}
	observation, err := tool.Run(decision.ActionInput)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), true
	}
	return observation, true
}

// observedUsage adapts generator token counts to the metrics layer
func observedUsage(usage *ai.TokenUsage) *observability.TokenUsage {
	if usage == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	}
}

// forceAnswer asks for a final answer without further tool access. A failing
// model call degrades to a canned response rather than an error.
func (e *Engine) forceAnswer(ctx context.Context, req types.QueryRequest, tools []Tool, transcript []types.TranscriptStep) string {
	decision, err := e.decide(ctx, e.buildScratchpad(req, tools, transcript, true))
	if err == nil && decision.FinalAnswer != "" {
		return decision.FinalAnswer
	}
	if err != nil {
		e.logger.Warn("Forced final answer failed", "error", err)
	}
	return "I reached the reasoning limit before fully answering the question. " +
		"Based on the information gathered so far I cannot give a complete answer; " +
		"please try a more specific question."
}

func (e *Engine) buildScratchpad(req types.QueryRequest, tools []Tool, transcript []types.TranscriptStep, forced bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question about CV document %s:\n%s\n\n", req.FileID, req.Question)

	b.WriteString("Available tools:\n")
	for _, tool := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name, tool.Description)
	}

	if len(transcript) > 0 {
		b.WriteString("\nPrevious steps:\n")
		for _, step := range transcript {
			fmt.Fprintf(&b, "Thought: %s\nAction: %s\nAction input: %s\nObservation: %s\n\n",
				step.Thought, step.Tool, step.ToolInput, step.Observation)
		}
	}

	if forced {
		b.WriteString("\nYou have reached the tool-call limit. Do not select any tool. " +
			"Set \"action\" to \"final_answer\" and provide your best \"final_answer\" " +
			"based on the observations above.")
	} else {
		b.WriteString("\nDecide your next step. Set \"action\" to one of the tool names to gather " +
			"more information (with \"action_input\" where relevant), or set \"action\" to " +
			"\"final_answer\" and provide \"final_answer\" once you can answer the question.")
	}
	return b.String()
}

func isFinal(d *Decision) bool {
	if d.Action == finalAnswerAction {
		return true
	}
	return d.Action == "" && d.FinalAnswer != ""
}

// sources lists the distinct tools consulted, preserving first-use order
func sources(toolCalls []string) []string {
	seen := make(map[string]bool, len(toolCalls))
	var out []string
	for _, name := range toolCalls {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

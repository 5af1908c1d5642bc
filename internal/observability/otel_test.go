package observability

import (
	"context"
	"errors"
	"testing"
)

func TestTrackAIOperationWithTokensUninstrumented(t *testing.T) {
	t.Run("nil receiver runs the operation", func(t *testing.T) {
		var m *Metrics
		called := false
		err := m.TrackAIOperationWithTokens(context.Background(), "extract", func(context.Context) *AIOperationResult {
			called = true
			return &AIOperationResult{TokenUsage: &TokenUsage{TotalTokens: 10}}
		})
		if err != nil {
			t.Errorf("TrackAIOperationWithTokens() error = %v", err)
		}
		if !called {
			t.Error("operation was not invoked")
		}
	})

	t.Run("operation error is propagated", func(t *testing.T) {
		m := &Metrics{}
		wantErr := errors.New("model down")
		err := m.TrackAIOperationWithTokens(context.Background(), "recommend", func(context.Context) *AIOperationResult {
			return &AIOperationResult{Error: wantErr}
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("TrackAIOperationWithTokens() error = %v, want %v", err, wantErr)
		}
	})

	t.Run("nil result is success", func(t *testing.T) {
		m := &Metrics{}
		err := m.TrackAIOperationWithTokens(context.Background(), "agent_decide", func(context.Context) *AIOperationResult {
			return nil
		})
		if err != nil {
			t.Errorf("TrackAIOperationWithTokens() error = %v", err)
		}
	})
}

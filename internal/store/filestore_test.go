package store

import (
	"testing"
	"time"

	"cvlens/internal/errors"
	"cvlens/internal/types"
)

func newTestStore(t *testing.T, ttl time.Duration) *FileStore {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatal(err)
	}
	s := New(ttl, logger)
	t.Cleanup(s.Close)
	return s
}

func TestPutAndGet(t *testing.T) {
	s := newTestStore(t, 0)

	if err := s.Put("abc123", "cv.txt", types.FileTypeTXT, "Jane Doe\nPython, AWS"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	doc, err := s.Get("abc123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Stage != types.StageUploaded {
		t.Errorf("Stage = %v, want %v", doc.Stage, types.StageUploaded)
	}
	if doc.CharCount != len("Jane Doe\nPython, AWS") {
		t.Errorf("CharCount = %d, want %d", doc.CharCount, len("Jane Doe\nPython, AWS"))
	}
}

func TestPutDuplicateID(t *testing.T) {
	s := newTestStore(t, 0)

	if err := s.Put("dup", "a.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}
	err := s.Put("dup", "b.txt", types.FileTypeTXT, "other")
	if !errors.HasCode(err, errors.ErrCodeDuplicateID) {
		t.Errorf("Put() error = %v, want %v", err, errors.ErrCodeDuplicateID)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := newTestStore(t, 0)

	_, err := s.Get("missing")
	if !errors.IsNotFound(err) {
		t.Errorf("Get() error = %v, want not-found", err)
	}
}

func TestStageLifecycle(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}

	if err := s.SetChunks("doc", []string{"text"}); err != nil {
		t.Fatalf("SetChunks() error = %v", err)
	}
	result := &types.AnalysisResult{FileID: "doc", OverallScore: 80}
	if err := s.SetResult("doc", result); err != nil {
		t.Fatalf("SetResult() error = %v", err)
	}

	doc, err := s.Get("doc")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Stage != types.StageAnalyzed {
		t.Errorf("Stage = %v, want %v", doc.Stage, types.StageAnalyzed)
	}
	if doc.Result == nil || doc.Result.OverallScore != 80 {
		t.Errorf("Result = %+v, want cached result", doc.Result)
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *FileStore) error
	}{
		{
			name: "result before chunks",
			run: func(s *FileStore) error {
				return s.SetResult("doc", &types.AnalysisResult{})
			},
		},
		{
			name: "chunks twice",
			run: func(s *FileStore) error {
				if err := s.SetChunks("doc", []string{"a"}); err != nil {
					return err
				}
				return s.SetChunks("doc", []string{"b"})
			},
		},
		{
			name: "fail twice",
			run: func(s *FileStore) error {
				if err := s.MarkFailed("doc"); err != nil {
					return err
				}
				return s.MarkFailed("doc")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, 0)
			if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
				t.Fatal(err)
			}
			err := tt.run(s)
			if !errors.HasCode(err, errors.ErrCodeInvalidTransition) {
				t.Errorf("error = %v, want %v", err, errors.ErrCodeInvalidTransition)
			}
		})
	}
}

func TestMarkFailedFromAnyStage(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetChunks("doc", []string{"text"}); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkFailed("doc"); err != nil {
		t.Errorf("MarkFailed() from CHUNKED error = %v", err)
	}
}

func TestResetFailedRestartsLifecycle(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetChunks("doc", []string{"text"}); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkFailed("doc"); err != nil {
		t.Fatal(err)
	}

	if err := s.ResetFailed("doc"); err != nil {
		t.Fatalf("ResetFailed() error = %v", err)
	}
	doc, err := s.Get("doc")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Stage != types.StageUploaded {
		t.Errorf("Stage = %v, want %v", doc.Stage, types.StageUploaded)
	}
	if doc.Chunks != nil {
		t.Errorf("Chunks = %v, want nil after reset", doc.Chunks)
	}

	if err := s.SetChunks("doc", []string{"text"}); err != nil {
		t.Errorf("SetChunks() after reset error = %v", err)
	}
	if err := s.SetResult("doc", &types.AnalysisResult{FileID: "doc"}); err != nil {
		t.Errorf("SetResult() after reset error = %v", err)
	}
}

func TestResetFailedRequiresFailedStage(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}
	if err := s.ResetFailed("doc"); !errors.HasCode(err, errors.ErrCodeInvalidTransition) {
		t.Errorf("ResetFailed() from UPLOADED error = %v, want %v", err, errors.ErrCodeInvalidTransition)
	}
	if err := s.ResetFailed("missing"); !errors.IsNotFound(err) {
		t.Errorf("ResetFailed() unknown id error = %v, want not-found", err)
	}
}

func TestBeginAnalysisGuard(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}

	if err := s.BeginAnalysis("doc"); err != nil {
		t.Fatalf("BeginAnalysis() error = %v", err)
	}
	err := s.BeginAnalysis("doc")
	if !errors.HasCode(err, errors.ErrCodeAlreadyInProgress) {
		t.Errorf("second BeginAnalysis() error = %v, want %v", err, errors.ErrCodeAlreadyInProgress)
	}

	s.EndAnalysis("doc")
	if err := s.BeginAnalysis("doc"); err != nil {
		t.Errorf("BeginAnalysis() after EndAnalysis() error = %v", err)
	}

	if err := s.BeginAnalysis("missing"); !errors.IsNotFound(err) {
		t.Errorf("BeginAnalysis() unknown id error = %v, want not-found", err)
	}
	s.EndAnalysis("missing")
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetChunks("doc", []string{"one", "two"}); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Get("doc")
	if err != nil {
		t.Fatal(err)
	}
	doc.Chunks[0] = "mutated"

	again, err := s.Get("doc")
	if err != nil {
		t.Fatal(err)
	}
	if again.Chunks[0] != "one" {
		t.Errorf("stored chunks were mutated through a snapshot: %v", again.Chunks)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("doc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get("doc"); !errors.IsNotFound(err) {
		t.Errorf("Get() after delete error = %v, want not-found", err)
	}
	if err := s.Delete("doc"); !errors.IsNotFound(err) {
		t.Errorf("Delete() twice error = %v, want not-found", err)
	}
}

func TestTTLEviction(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)
	if err := s.Put("doc", "cv.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Count() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("document was not evicted after TTL")
}

func TestStats(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Put("a", "a.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("b", "b.txt", types.FileTypeTXT, "text"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetChunks("b", []string{"text"}); err != nil {
		t.Fatal(err)
	}

	stats := s.Stats()
	if stats[types.StageUploaded] != 1 || stats[types.StageChunked] != 1 {
		t.Errorf("Stats() = %v", stats)
	}
}

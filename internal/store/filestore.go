// Package store keeps uploaded documents, their chunks, and analysis results
// in process memory, tracking each document's pipeline stage.
package store

import (
	"sync"
	"time"

	"cvlens/internal/errors"
	"cvlens/internal/types"
)

// Document is a snapshot of one stored document. Mutable fields are copied
// on read so callers never observe concurrent pipeline writes.
type Document struct {
	ID         string
	Filename   string
	FileType   types.FileType
	RawText    string
	CharCount  int
	Chunks     []string
	Stage      types.Stage
	Result     *types.AnalysisResult
	UploadedAt time.Time
}

type entry struct {
	doc        Document
	lastAccess time.Time
	analyzing  bool
}

// FileStore is a thread-safe registry of documents keyed by opaque id.
// Stage transitions are monotonic: UPLOADED -> CHUNKED -> ANALYZED, with
// FAILED reachable from any non-terminal state. A FAILED document can be
// reset to UPLOADED so the pipeline can be retried.
type FileStore struct {
	mu     sync.RWMutex
	docs   map[string]*entry
	ttl    time.Duration
	logger *errors.Logger
	stop   chan struct{}
	once   sync.Once
}

// New creates a FileStore. A positive ttl starts a background janitor that
// evicts documents not accessed within ttl; zero keeps documents for the
// process lifetime.
func New(ttl time.Duration, logger *errors.Logger) *FileStore {
	s := &FileStore{
		docs:   make(map[string]*entry),
		ttl:    ttl,
		logger: logger,
		stop:   make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor()
	}
	return s
}

// Close stops the eviction janitor
func (s *FileStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// janitor periodically evicts expired documents
func (s *FileStore) janitor() {
	interval := s.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *FileStore) evictExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.docs {
		if now.Sub(e.lastAccess) > s.ttl {
			delete(s.docs, id)
			s.logger.Debug("Evicted expired document", "file_id", id, "last_access", e.lastAccess)
		}
	}
}

// Put registers a freshly uploaded document in stage UPLOADED
func (s *FileStore) Put(id, filename string, fileType types.FileType, rawText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; exists {
		return errors.NewStateError(errors.ErrCodeDuplicateID,
			"A document with this id already exists", nil).WithContext("file_id", id)
	}

	now := time.Now()
	s.docs[id] = &entry{
		doc: Document{
			ID:         id,
			Filename:   filename,
			FileType:   fileType,
			RawText:    rawText,
			CharCount:  len(rawText),
			Stage:      types.StageUploaded,
			UploadedAt: now,
		},
		lastAccess: now,
	}
	return nil
}

// Get returns a snapshot of the document
func (s *FileStore) Get(id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[id]
	if !ok {
		return Document{}, notFound(id)
	}
	e.lastAccess = time.Now()
	return snapshot(e), nil
}

// snapshot copies the document so callers cannot observe later mutations.
// The analysis result is immutable once set and is shared by pointer.
func snapshot(e *entry) Document {
	doc := e.doc
	if doc.Chunks != nil {
		chunks := make([]string, len(doc.Chunks))
		copy(chunks, doc.Chunks)
		doc.Chunks = chunks
	}
	return doc
}

// SetChunks stores the chunk sequence and advances the document to CHUNKED
func (s *FileStore) SetChunks(id string, chunks []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[id]
	if !ok {
		return notFound(id)
	}
	if err := checkTransition(id, e.doc.Stage, types.StageChunked); err != nil {
		return err
	}

	e.doc.Chunks = make([]string, len(chunks))
	copy(e.doc.Chunks, chunks)
	e.doc.Stage = types.StageChunked
	e.lastAccess = time.Now()
	return nil
}

// SetResult stores the analysis result and advances the document to ANALYZED
func (s *FileStore) SetResult(id string, result *types.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[id]
	if !ok {
		return notFound(id)
	}
	if err := checkTransition(id, e.doc.Stage, types.StageAnalyzed); err != nil {
		return err
	}

	e.doc.Result = result
	e.doc.Stage = types.StageAnalyzed
	e.lastAccess = time.Now()
	return nil
}

// MarkFailed moves the document to the FAILED stage. Allowed from any
// non-terminal stage; a no-op error for unknown ids.
func (s *FileStore) MarkFailed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[id]
	if !ok {
		return notFound(id)
	}
	if err := checkTransition(id, e.doc.Stage, types.StageFailed); err != nil {
		return err
	}

	e.doc.Stage = types.StageFailed
	e.lastAccess = time.Now()
	return nil
}

// ResetFailed returns a FAILED document to UPLOADED, discarding chunks and
// any partial result, so a later Analyze call starts the pipeline over
func (s *FileStore) ResetFailed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[id]
	if !ok {
		return notFound(id)
	}
	if err := checkTransition(id, e.doc.Stage, types.StageUploaded); err != nil {
		return err
	}

	e.doc.Chunks = nil
	e.doc.Result = nil
	e.doc.Stage = types.StageUploaded
	e.lastAccess = time.Now()
	return nil
}

// BeginAnalysis marks the document as having an analysis run in progress.
// A second call before EndAnalysis fails with ANALYSIS_ALREADY_IN_PROGRESS
// instead of blocking.
func (s *FileStore) BeginAnalysis(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[id]
	if !ok {
		return notFound(id)
	}
	if e.analyzing {
		return errors.NewConflictError(errors.ErrCodeAlreadyInProgress,
			"Analysis is already in progress for this document", nil).WithContext("file_id", id)
	}
	e.analyzing = true
	e.lastAccess = time.Now()
	return nil
}

// EndAnalysis clears the in-progress marker. Unknown ids are ignored so the
// call is safe in deferred cleanup after eviction.
func (s *FileStore) EndAnalysis(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.docs[id]; ok {
		e.analyzing = false
	}
}

// Delete removes the document
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return notFound(id)
	}
	delete(s.docs, id)
	return nil
}

// Count returns the number of stored documents
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Stats returns per-stage document counts
func (s *FileStore) Stats() map[types.Stage]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[types.Stage]int)
	for _, e := range s.docs {
		stats[e.doc.Stage]++
	}
	return stats
}

func notFound(id string) error {
	return errors.NewStateError(errors.ErrCodeNotFound,
		"Document not found", nil).WithContext("file_id", id)
}

// checkTransition enforces the monotonic stage lifecycle
func checkTransition(id string, from, to types.Stage) error {
	valid := false
	switch to {
	case types.StageUploaded:
		valid = from == types.StageFailed
	case types.StageChunked:
		valid = from == types.StageUploaded
	case types.StageAnalyzed:
		valid = from == types.StageChunked
	case types.StageFailed:
		valid = from != types.StageFailed
	}
	if !valid {
		return errors.NewStateError(errors.ErrCodeInvalidTransition,
			"Invalid stage transition", nil).WithContext("file_id", id).
			WithContext("from", string(from)).
			WithContext("to", string(to))
	}
	return nil
}

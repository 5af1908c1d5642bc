package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	cvlensErrors "cvlens/internal/errors"
	"cvlens/internal/observability"
	"cvlens/internal/types"
	"cvlens/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// createUploadHandler handles multipart CV uploads
func (s *Server) createUploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvlens.api")
		ctx, span := tracer.Start(ctx, "api.upload")
		defer span.End()

		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid upload", "multipart form field 'file' is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				s.Logger.Warn("Failed to close uploaded file", "error", err)
			}
		}()

		span.SetAttributes(
			attribute.String("upload.filename", header.Filename),
			attribute.Int64("upload.size", header.Size),
		)

		if s.AppConfig.App.MaxFileSize > 0 && header.Size > s.AppConfig.App.MaxFileSize {
			writeErrorResponse(w, "File too large", "uploaded file exceeds the configured size limit", http.StatusRequestEntityTooLarge)
			return
		}

		path, err := s.saveUpload(file, header.Filename)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}
		defer func() {
			if err := os.Remove(path); err != nil {
				s.Logger.Warn("Failed to remove staged upload", "path", path, "error", err)
			}
		}()

		result, err := s.Analyzer.Upload(path, header.Filename)
		metrics := om.GetMetrics()
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "cv_uploaded", false)
			s.writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "cv_uploaded", true,
			attribute.String("file_type", string(result.FileType)))
		s.Logger.Info("CV uploaded",
			"file_id", result.FileID,
			"filename", result.Filename,
			"size", utils.FormatFileSize(header.Size))
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("file.id", result.FileID),
			attribute.Int("file.chars", result.CharCount),
		)

		writeJSONResponse(w, http.StatusCreated, result)
	}
}

// saveUpload stages the uploaded content in the configured upload directory.
// The original extension is kept so the loader can detect the file type.
func (s *Server) saveUpload(file io.Reader, filename string) (string, error) {
	dir := s.AppConfig.App.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", cvlensErrors.NewIOError(cvlensErrors.ErrCodeFileNotReadable,
			"Failed to create upload directory", err).WithContext("dir", dir)
	}

	ext := filepath.Ext(filename)
	tmp, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", cvlensErrors.NewIOError(cvlensErrors.ErrCodeFileNotReadable,
			"Failed to stage uploaded file", err)
	}
	defer func() {
		if err := tmp.Close(); err != nil {
			s.Logger.Warn("Failed to close staged upload", "error", err)
		}
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		return "", cvlensErrors.NewIOError(cvlensErrors.ErrCodeFileNotReadable,
			"Failed to write uploaded file", err)
	}
	return tmp.Name(), nil
}

// createAnalyzeHandler runs the analysis pipeline for an uploaded document
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvlens.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		fileID := r.PathValue("fileID")
		if strings.TrimSpace(fileID) == "" {
			writeErrorResponse(w, "Missing file ID", "file ID path segment is required", http.StatusBadRequest)
			return
		}
		span.SetAttributes(attribute.String("file.id", fileID))

		metrics := om.GetMetrics()
		result, err := s.Analyzer.Analyze(ctx, fileID)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "cv_analyzed", false)
			s.writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "cv_analyzed", true,
			attribute.Int("matches", len(result.JobMatches)),
			attribute.Int("recommendations", len(result.Recommendations)))
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("cv.score", result.OverallScore),
		)

		writeJSONResponse(w, http.StatusOK, result)
	}
}

// createQueryHandler answers free-form questions about an uploaded document
func (s *Server) createQueryHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvlens.api")
		ctx, span := tracer.Start(ctx, "api.agent_query")
		defer span.End()

		var req types.QueryRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			s.writeAppError(w, cvlensErrors.NewValidationError(cvlensErrors.ErrCodeInvalidRequest,
				"Invalid request body", err))
			return
		}

		if strings.TrimSpace(req.FileID) == "" {
			s.writeAppError(w, cvlensErrors.NewValidationError(cvlensErrors.ErrCodeInvalidRequest,
				"file_id field is required", nil))
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			s.writeAppError(w, cvlensErrors.NewValidationError(cvlensErrors.ErrCodeInvalidRequest,
				"question field is required", nil))
			return
		}

		span.SetAttributes(
			attribute.String("file.id", req.FileID),
			attribute.Int("question.length", len(req.Question)),
		)

		metrics := om.GetMetrics()
		resp, transcript, err := s.Engine.Query(ctx, req)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "agent_query", false)
			s.writeAppError(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "agent_query", true,
			attribute.Bool("limit_reached", resp.LimitReached))
		metrics.RecordAgentCycles(ctx, len(transcript), resp.LimitReached)
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("agent.tool_calls", len(resp.ToolCalls)),
			attribute.Bool("agent.limit_reached", resp.LimitReached),
		)

		writeJSONResponse(w, http.StatusOK, resp)
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeAppError maps a domain error to an HTTP status and JSON body. Internal
// detail stays in the logs, the response carries the public message and code.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed")
	}

	var appErr *cvlensErrors.AppError
	if cvlensErrors.AsAppError(err, &appErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if encErr := json.NewEncoder(w).Encode(ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}); encErr != nil {
			s.Logger.Warn("Failed to encode error response", "error", encErr)
		}
		return
	}
	writeErrorResponse(w, "Request failed", err.Error(), status)
}

// statusForError maps the error taxonomy to HTTP status codes
func statusForError(err error) int {
	switch {
	case cvlensErrors.IsNotFound(err):
		return http.StatusNotFound
	case cvlensErrors.IsConflict(err):
		return http.StatusConflict
	case cvlensErrors.HasCode(err, cvlensErrors.ErrCodeInvalidTransition):
		return http.StatusConflict
	case cvlensErrors.HasCode(err, cvlensErrors.ErrCodeIndexNotReady):
		return http.StatusServiceUnavailable
	case cvlensErrors.HasCode(err, cvlensErrors.ErrCodeSchemaValidation),
		cvlensErrors.HasCode(err, cvlensErrors.ErrCodeRecommendationFormat),
		cvlensErrors.HasCode(err, cvlensErrors.ErrCodeUpstreamService),
		cvlensErrors.HasCode(err, cvlensErrors.ErrCodeEmbeddingService):
		return http.StatusBadGateway
	case cvlensErrors.HasCode(err, cvlensErrors.ErrCodeCancelled):
		return http.StatusServiceUnavailable
	case cvlensErrors.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

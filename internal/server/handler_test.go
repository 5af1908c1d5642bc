package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cvlens/internal/errors"
)

func testServerLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatal(err)
	}
	return logger
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			"not found",
			errors.NewStateError(errors.ErrCodeNotFound, "no such document", nil),
			http.StatusNotFound,
		},
		{
			"duplicate id",
			errors.NewConflictError(errors.ErrCodeDuplicateID, "already registered", nil),
			http.StatusConflict,
		},
		{
			"invalid transition",
			errors.NewStateError(errors.ErrCodeInvalidTransition, "cannot move backwards", nil),
			http.StatusConflict,
		},
		{
			"index not ready",
			errors.NewStateError(errors.ErrCodeIndexNotReady, "index not built", nil),
			http.StatusServiceUnavailable,
		},
		{
			"schema violation",
			errors.NewValidationError(errors.ErrCodeSchemaValidation, "bad model output", nil),
			http.StatusBadGateway,
		},
		{
			"recommendation format",
			errors.NewValidationError(errors.ErrCodeRecommendationFormat, "bad model output", nil),
			http.StatusBadGateway,
		},
		{
			"upstream failure",
			errors.NewUpstreamError(errors.ErrCodeUpstreamService, "model down", nil),
			http.StatusBadGateway,
		},
		{
			"input validation",
			errors.NewValidationError(errors.ErrCodeUnsupportedFileType, "bad extension", nil),
			http.StatusBadRequest,
		},
		{
			"cancelled",
			errors.NewCancelledError("client went away", nil),
			http.StatusServiceUnavailable,
		},
		{
			"unknown error",
			http.ErrServerClosed,
			http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := &Server{APIKeys: map[string]bool{"good-key": true}, Logger: testServerLogger(t)}
	handler := s.authMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/upload", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		var body ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Code != errors.ErrCodeMissingAPIKey {
			t.Errorf("Code = %q, want %q", body.Code, errors.ErrCodeMissingAPIKey)
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/upload", nil)
		r.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()
		handler(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("valid key", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/upload", nil)
		r.Header.Set("X-API-Key", "good-key")
		rec := httptest.NewRecorder()
		handler(rec, r)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/upload", nil)
		r.Header.Set("Authorization", "Bearer good-key")
		rec := httptest.NewRecorder()
		handler(rec, r)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})
}

func TestWriteAppErrorInvalidRequest(t *testing.T) {
	s := &Server{Logger: testServerLogger(t)}
	rec := httptest.NewRecorder()
	s.writeAppError(rec, errors.NewValidationError(errors.ErrCodeInvalidRequest,
		"file_id field is required", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != errors.ErrCodeInvalidRequest {
		t.Errorf("Code = %q, want %q", body.Code, errors.ErrCodeInvalidRequest)
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"1234567890abcdef", "12345678****"},
	}
	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.168.1.10:1234", nil, "192.168.1.10"},
		{"x-forwarded-for", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
		{"x-real-ip", "10.0.0.1:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"invalid forwarded falls through", "10.0.0.1:1234", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/health", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetRateLimitKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/agent/query", nil)
	r.RemoteAddr = "192.168.1.10:1234"

	if key := getRateLimitKey(r, true, true); key != "ip:192.168.1.10" {
		t.Errorf("key without API key = %q", key)
	}

	r.Header.Set("X-API-Key", "secret-key")
	if key := getRateLimitKey(r, true, true); key != "api:secret-key" {
		t.Errorf("key with API key = %q", key)
	}

	if key := getRateLimitKey(r, false, false); key != "" {
		t.Errorf("key with limiting disabled = %q", key)
	}
}

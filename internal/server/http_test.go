package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPServer_StartRequiresAddr(t *testing.T) {
	s := NewHTTPServer(nil, nil, nil)
	if err := s.Start(""); err == nil {
		t.Error("Start(\"\") expected error, got nil")
	}
}

func TestHTTPServer_RequestMetricsPreservesResponse(t *testing.T) {
	// nil metrics: the recorder methods are nil-safe, the wrapper must
	// still pass the response through untouched.
	s := NewHTTPServer(nil, nil, nil)

	handler := s.requestMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec.Body.String() != "missing" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "missing")
	}
}

func TestHTTPServer_RequestMetricsRecords(t *testing.T) {
	provider := createTestProvider(t)
	s := NewHTTPServer(nil, nil, provider.Metrics())

	handler := s.requestMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

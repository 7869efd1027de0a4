package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// fixedClock returns a clock pinned to 2024-01-02 06:04:05.678 UTC, expressed
// in a non-UTC zone so conversion is exercised.
func fixedClock() func() time.Time {
	at := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.FixedZone("BRT", -3*60*60))
	return func() time.Time { return at }
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	Health(fixedClock())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := map[string]any{
		"status":    "healthy",
		"timestamp": "2024-01-02T06:04:05.678Z",
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("health body mismatch (-want +got):\n%s", diff)
	}
}

func TestHealth_RealClockTimestamp(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	before := time.Now().Add(-time.Second)
	Health(time.Now)(w, req)

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	ts, err := time.Parse(TimestampLayout, resp.Timestamp)
	if err != nil {
		t.Fatalf("timestamp %q is not in %s: %v", resp.Timestamp, TimestampLayout, err)
	}
	if ts.Before(before) {
		t.Errorf("timestamp %s is older than the request", resp.Timestamp)
	}
	if len(resp.Timestamp) != len("2024-01-02T06:04:05.678Z") {
		t.Errorf("expected millisecond precision with Z suffix, got %q", resp.Timestamp)
	}
}

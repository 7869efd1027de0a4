package probe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/projecthelena/vmprobe/internal/api"
	"github.com/projecthelena/vmprobe/internal/config"
)

func TestLoad_HitsRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 5

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	router := api.NewRouter(&cfg, nil, logrus.NewEntry(logger))
	defer router.Close()
	ts := httptest.NewServer(router)
	defer ts.Close()

	client := NewClient(ts.URL, ts.Client())

	codes, err := client.Load(context.Background(), "/metadata", 20, 4)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := map[int]int{http.StatusOK: 5, http.StatusTooManyRequests: 15}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Errorf("status counts mismatch (-want +got):\n%s", diff)
	}

	// health is exempt from limiting
	codes, err = client.Load(context.Background(), "/health", 20, 4)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if codes[http.StatusOK] != 20 {
		t.Errorf("expected 20 healthy responses, got %v", codes)
	}
}

func TestLoad_InvalidCount(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)
	if _, err := client.Load(context.Background(), "/", 0, 1); err == nil {
		t.Error("expected error for zero requests")
	}
}

func TestLoad_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := NewClient(url, nil)
	if _, err := client.Load(context.Background(), "/", 3, 2); err == nil {
		t.Error("expected error against a closed server")
	}
}

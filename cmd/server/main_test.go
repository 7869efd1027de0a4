package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/projecthelena/vmprobe/internal/api"
	"github.com/projecthelena/vmprobe/internal/config"
)

// lockedBuffer lets the test read log output while serve is still writing.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger(out *lockedBuffer) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return logrus.NewEntry(logger)
}

var listeningLine = regexp.MustCompile(`App listening at http://localhost:(\d+)`)

func TestServe_AnnouncesBoundPort(t *testing.T) {
	cfg := config.Default()
	router := api.NewRouter(&cfg, nil, nil)
	defer router.Close()

	var logs lockedBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, "127.0.0.1:0", router, bufferLogger(&logs))
	}()

	var port string
	deadline := time.Now().Add(5 * time.Second)
	for port == "" {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("no listening line logged, got:\n%s", logs.String())
		}
		if m := listeningLine.FindStringSubmatch(logs.String()); m != nil {
			port = m[1]
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + net.JoinHostPort("127.0.0.1", port) + "/health")
	if err != nil {
		cancel()
		t.Fatalf("GET /health on announced port failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	out := logs.String()
	if n := strings.Count(out, "App listening at"); n != 1 {
		t.Errorf("expected exactly one listening line, got %d:\n%s", n, out)
	}
	if !strings.Contains(out, "Server exiting") {
		t.Errorf("expected shutdown to be logged, got:\n%s", out)
	}
}

func TestServe_AddressInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer busy.Close()

	var logs lockedBuffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = serve(ctx, busy.Addr().String(), http.NotFoundHandler(), bufferLogger(&logs))
	if err == nil {
		t.Fatal("expected an error for an address already in use")
	}
	if strings.Contains(logs.String(), "App listening at") {
		t.Errorf("listening line logged despite bind failure:\n%s", logs.String())
	}
}

// Package probe smoke-tests a running vmprobe instance over HTTP.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/common/expfmt"

	"github.com/projecthelena/vmprobe/internal/api"
	"github.com/projecthelena/vmprobe/internal/config"
	"github.com/projecthelena/vmprobe/internal/metrics"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

type Result struct {
	Name    string
	OK      bool
	Err     error
	Latency time.Duration
}

type Report struct {
	Results  []Result
	Metadata api.MetadataResponse
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.OK {
			return false
		}
	}
	return len(r.Results) > 0
}

// Summary renders the probed identity on one line.
func (r Report) Summary() string {
	md := r.Metadata
	return fmt.Sprintf("%s-%s instance=%s region=%s",
		printable(md.Project), printable(md.Environment), printable(md.InstanceID), printable(md.Region))
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient targets baseURL, e.g. http://localhost:3000. A nil httpClient
// falls back to one with a 5s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Check runs the health, metadata and root checks in order. The root check
// uses the metadata fetched before it, so it fails if metadata failed.
func (c *Client) Check(ctx context.Context) Report {
	var report Report

	report.Results = append(report.Results, c.run(ctx, "health", func(ctx context.Context) error {
		var body api.HealthResponse
		if err := c.getJSON(ctx, "/health", &body); err != nil {
			return err
		}
		if body.Status != "healthy" {
			return fmt.Errorf("status %q, want healthy", printable(body.Status))
		}
		if _, err := time.Parse(api.TimestampLayout, body.Timestamp); err != nil {
			return fmt.Errorf("bad timestamp %q: %w", printable(body.Timestamp), err)
		}
		return nil
	}))

	metaOK := false
	report.Results = append(report.Results, c.run(ctx, "metadata", func(ctx context.Context) error {
		if err := c.getJSON(ctx, "/metadata", &report.Metadata); err != nil {
			return err
		}
		md := report.Metadata
		if md.Project == "" || md.Environment == "" || md.InstanceID == "" || md.Region == "" {
			return fmt.Errorf("incomplete metadata: project=%q environment=%q instance_id=%q region=%q",
				printable(md.Project), printable(md.Environment), printable(md.InstanceID), printable(md.Region))
		}
		metaOK = true
		return nil
	}))

	report.Results = append(report.Results, c.run(ctx, "root", func(ctx context.Context) error {
		if !metaOK {
			return errors.New("skipped: metadata check failed")
		}
		var body api.RootResponse
		if err := c.getJSON(ctx, "/", &body); err != nil {
			return err
		}
		md := report.Metadata
		want := api.Greeting(config.ServerConfig{ProjectName: md.Project, Environment: md.Environment})
		if body.Message != want {
			return fmt.Errorf("message %q, want %q", printable(body.Message), printable(want))
		}
		if body.InstanceID != md.InstanceID || body.Region != md.Region {
			return fmt.Errorf("identity %s/%s disagrees with metadata %s/%s",
				printable(body.InstanceID), printable(body.Region), printable(md.InstanceID), printable(md.Region))
		}
		if _, err := time.Parse(api.TimestampLayout, body.Timestamp); err != nil {
			return fmt.Errorf("bad timestamp %q: %w", printable(body.Timestamp), err)
		}
		return nil
	}))

	return report
}

// Requests scrapes /metrics and sums the request counter across all labels.
func (c *Client) Requests(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metrics", nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parse prometheus text: %w", err)
	}

	var total float64
	for _, m := range mfs[metrics.RequestsTotal].GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total, nil
}

func (c *Client) run(ctx context.Context, name string, fn func(context.Context) error) Result {
	start := time.Now()
	err := fn(ctx)
	return Result{
		Name:    name,
		OK:      err == nil,
		Err:     err,
		Latency: time.Since(start),
	}
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

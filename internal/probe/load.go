package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Load fires n GET requests at path with at most concurrency in flight and
// returns how many responses came back with each status code. Transport
// errors abort the run.
func (c *Client) Load(ctx context.Context, path string, n, concurrency int) (map[int]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("request count must be positive, got %d", n)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu    sync.Mutex
		codes = make(map[int]int)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if err != nil {
				return fmt.Errorf("build request: %w", err)
			}
			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("http get %s: %w", path, err)
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			mu.Lock()
			codes[resp.StatusCode]++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return codes, err
	}
	return codes, nil
}

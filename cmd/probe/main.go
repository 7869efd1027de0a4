package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/shayne/yargs"

	"github.com/projecthelena/vmprobe/internal/probe"
)

type probeFlags struct {
	URL     string `flag:"url" help:"Base URL of the instance (default http://localhost:3000)"`
	Timeout string `flag:"timeout" help:"Overall deadline, e.g. 5s (default 10s)"`
	Metrics bool   `flag:"metrics" help:"Also scrape /metrics and print the request total"`

	Load        int    `flag:"load" help:"Send this many extra GETs and report status codes"`
	LoadPath    string `flag:"load-path" help:"Path hit by --load (default /)"`
	Concurrency int    `flag:"concurrency" help:"Requests in flight during --load (default 8)"`
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	result, err := yargs.ParseFlags[probeFlags](args)
	if err != nil {
		return err
	}
	flags := result.Flags

	baseURL := flags.URL
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	timeout := 10 * time.Second
	if flags.Timeout != "" {
		timeout, err = time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := probe.NewClient(baseURL, nil)
	report := client.Check(ctx)

	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()

	for _, r := range report.Results {
		if r.OK {
			fmt.Fprintf(out, "%s %-8s %s\n", pass("PASS"), r.Name, r.Latency.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(out, "%s %-8s %v\n", fail("FAIL"), r.Name, r.Err)
	}

	if report.OK() {
		fmt.Fprintln(out, report.Summary())
	}

	if flags.Metrics {
		total, err := client.Requests(ctx)
		if err != nil {
			fmt.Fprintf(out, "%s %-8s %v\n", fail("FAIL"), "metrics", err)
			return fmt.Errorf("probe %s failed", baseURL)
		}
		fmt.Fprintf(out, "%s %-8s requests_total=%.0f\n", pass("PASS"), "metrics", total)
	}

	if flags.Load > 0 {
		path := flags.LoadPath
		if path == "" {
			path = "/"
		}
		concurrency := flags.Concurrency
		if concurrency == 0 {
			concurrency = 8
		}
		codes, err := client.Load(ctx, path, flags.Load, concurrency)
		if err != nil {
			fmt.Fprintf(out, "%s %-8s %v\n", fail("FAIL"), "load", err)
			return fmt.Errorf("probe %s failed", baseURL)
		}
		statuses := make([]int, 0, len(codes))
		for code := range codes {
			statuses = append(statuses, code)
		}
		sort.Ints(statuses)
		for _, code := range statuses {
			fmt.Fprintf(out, "%-13s %s %d x%d\n", "load", path, code, codes[code])
		}
	}

	if !report.OK() {
		return fmt.Errorf("probe %s failed", baseURL)
	}
	return nil
}

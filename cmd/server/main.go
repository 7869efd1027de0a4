package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/projecthelena/vmprobe/internal/api"
	"github.com/projecthelena/vmprobe/internal/config"
	"github.com/projecthelena/vmprobe/internal/logging"
	"github.com/projecthelena/vmprobe/internal/metrics"
)

func main() {
	logger := logging.New("server")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	httpLogger := logging.New("http")
	for _, l := range []*logrus.Entry{logger, httpLogger} {
		if err := logging.SetLevel(l, cfg.LogLevel); err != nil {
			logger.Fatalf("set log level: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry(cfg.Server, time.Now())
	router := api.NewRouter(cfg, reg, httpLogger)
	defer router.Close()

	if err := serve(ctx, cfg.ListenAddr, router, logger); err != nil {
		logger.Fatalf("server: %v", err)
	}
}

// serve binds addr, announces the bound port once, and serves handler until
// ctx is cancelled. A bind failure is returned before anything is logged.
func serve(ctx context.Context, addr string, handler http.Handler, logger *logrus.Entry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	_, port, _ := net.SplitHostPort(ln.Addr().String())
	logger.Infof("App listening at http://localhost:%s", port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}

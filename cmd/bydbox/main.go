// cmd/bydbox/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/bydbox-reader/internal/config"
	"github.com/tamzrod/bydbox-reader/internal/logcodec"
	"github.com/tamzrod/bydbox-reader/internal/logging"
	"github.com/tamzrod/bydbox-reader/internal/logstore"
	"github.com/tamzrod/bydbox-reader/internal/poller"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
	"github.com/tamzrod/bydbox-reader/internal/writer"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: bydbox <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	config.Normalize(cfg)

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	if err := logging.Init(cfg.Logging); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}
	lg := logging.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Log store
	// --------------------

	logs := logstore.NewStore()
	persister, err := logstore.NewFilePersister(logstore.FileConfig{
		Dir:      cfg.Logs.Dir,
		CSVName:  cfg.Logs.CSVName,
		Location: cfg.Device.Location(),
		Describe: logcodec.Describe,
	}, logging.WithComponent("logstore"))
	if err != nil {
		lg.Fatal().Err(err).Msg("log store init failed")
	}
	if err := persister.Load(logs); err != nil {
		// start empty; the next save rewrites the store
		lg.Error().Err(err).Msg("persisted logs unreadable")
	}
	lg.Info().Int("entries", logs.Len()).Str("dir", cfg.Logs.Dir).Msg("log store loaded")

	// --------------------
	// Outputs + poller
	// --------------------

	outputs, err := writer.Build(*cfg, logging.WithComponent("writer"))
	if err != nil {
		lg.Fatal().Err(err).Msg("writer build failed")
	}
	defer outputs.Close()

	data := telemetry.NewMap()

	p, closeSession, err := poller.Build(*cfg, data, logs, persister, outputs, logging.GetLogger())
	if err != nil {
		lg.Fatal().Err(err).Msg("poller build failed")
	}
	defer closeSession()

	if err := p.Start(ctx); err != nil {
		// each tick reconnects and retries the topology read
		lg.Error().Err(err).Msg("startup incomplete")
	}

	if err := outputs.Listen(p.StartUpdateLogHistory); err != nil {
		lg.Error().Err(err).Msg("history command subscription failed")
	}

	// --------------------
	// Run until signalled
	// --------------------

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p.Run(gctx)
		return nil
	})

	if outputs.Metrics != nil {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           metricsMux(outputs),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			lg.Info().Str("listen", cfg.Metrics.Listen).Msg("metrics endpoint up")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	if err := g.Wait(); err != nil {
		lg.Error().Err(err).Msg("stopped with error")
	}

	// flush pending log saves before the session goes away
	p.Wait()
	lg.Info().Msg("stopped")
}

func metricsMux(o *writer.Outputs) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Metrics.Handler())
	return mux
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"plpredict/pkg/config"
	"plpredict/pkg/journal"
	"plpredict/pkg/pipeline"
	"plpredict/pkg/predict"
	"plpredict/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("predictor stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	log := logger.Sugar()

	opts := []predict.Option{predict.WithLogger(logger)}
	p, err := pipeline.Load(cfg.ModelPath, cfg.ScalerPath)
	switch {
	case err == nil:
		opts = append(opts, predict.WithPipeline(p))
	case errors.Is(err, fs.ErrNotExist):
		log.Warnw("model file not found", "path", cfg.ModelPath)
	default:
		return err
	}
	predictor := predict.New(opts...)

	var j web.Journal
	if cfg.JournalPath != "" {
		store, err := journal.Open(ctx, cfg.JournalPath)
		if err != nil {
			return err
		}
		defer store.Close()
		j = store
		log.Infow("prediction journal enabled", "path", cfg.JournalPath)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := web.New(web.Config{
		Predictor:      predictor,
		Journal:        j,
		Logger:         logger,
		Registry:       reg,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("predictor listening", "addr", httpSrv.Addr, "env", cfg.Env, "model_loaded", predictor.Ready())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

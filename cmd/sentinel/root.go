package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"RateSentinel/internal/collector"
	"RateSentinel/internal/config"
	"RateSentinel/internal/logger"
	"RateSentinel/internal/metrics"
	"RateSentinel/internal/recorder"
	"RateSentinel/internal/tracker"
)

const version = "v1.0.0"

// app carries the loaded configuration and the lazily opened tracker.
type app struct {
	configPath string
	cfg        *config.Config

	store   recorder.Store
	metrics *metrics.Recorder
	tr      *tracker.Tracker
}

// Execute builds the command tree and runs it with the process arguments.
func Execute(ctx context.Context) error {
	return execute(ctx, os.Args[1:], os.Stdout)
}

func execute(ctx context.Context, args []string, out io.Writer) error {
	a := &app{configPath: "configs/config.yaml"}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		a.configPath = v
	}
	root := newRoot(a)
	root.SetArgs(args)
	root.SetOut(out)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func newRoot(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "Track a currency pair, store its rate history and derive trading signals",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			a.cfg = cfg
			return logger.Setup(cfg.Log.Level, cfg.Log.Format)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", a.configPath, "path to the YAML config file")

	root.AddCommand(
		fetchCmd(a),
		backfillCmd(a),
		recommendCmd(a),
		compareCmd(a),
		exportCmd(a),
		sourcesCmd(),
		strategiesCmd(),
		watchCmd(a),
	)
	return root
}

// tracker opens the store and the source registry on first use.
func (a *app) tracker() (*tracker.Tracker, error) {
	if a.tr != nil {
		return a.tr, nil
	}
	cfg := a.cfg

	store, err := recorder.Open(cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a.metrics = metrics.New()
	opts := collector.Options{
		Base:      cfg.Pair.Base,
		Target:    cfg.Pair.Target,
		HTTP:      collector.NewHTTPClient(cfg.Proxy, cfg.Sources.RateLimit.RPS, cfg.Sources.RateLimit.Burst),
		Endpoints: cfg.Sources.Endpoints,
	}
	breakers := collector.NewBreakerSet(collector.BreakerConfig{
		ConsecutiveFailures: cfg.Sources.Breaker.Failures,
		OpenTimeout:         cfg.Sources.Breaker.OpenTimeout,
	})
	reg, err := collector.Build(opts, cfg.Sources.Priority,
		collector.WithTimeout(cfg.Sources.Timeout),
		collector.WithBreakers(breakers),
		collector.WithMetrics(a.metrics),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	a.store = store
	a.tr = tracker.New(cfg.Pair.Base, cfg.Pair.Target, reg, store,
		tracker.WithMetrics(a.metrics, cfg.Metrics.Textfile))
	return a.tr, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.tr = nil, nil
	return err
}

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axstin/luau/engine"
	"github.com/axstin/luau/internal/config"
	"github.com/axstin/luau/internal/metrics"
)

func newServeCommand() *cobra.Command {
	var configPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an engine and expose its Prometheus metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			reg := prometheus.NewRegistry()
			rec := metrics.NewPrometheus(reg, "codealloc-serve")

			e := engine.New(cfg.BlockSize, cfg.MaxTotalSize, unwindHookFor(cfg.Unwind),
				engine.WithLogger(logger), engine.WithRecorder(rec))
			defer e.Close()

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

			logger.Info("serving metrics", zap.String("addr", addr))
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&addr, "addr", ":9090", "address to serve /metrics on")
	return cmd
}

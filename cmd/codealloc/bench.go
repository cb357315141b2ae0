package main

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axstin/luau/codegen"
	"github.com/axstin/luau/engine"
	"github.com/axstin/luau/internal/config"
)

func newBenchCommand() *cobra.Command {
	var configPath string
	var iterations int
	var codeSize int
	var dataSize int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive synthetic allocations through an engine and report counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			var logger *zap.Logger
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger = zap.NewNop()
			}
			if err != nil {
				return err
			}

			hook := unwindHookFor(cfg.Unwind)
			e := engine.New(cfg.BlockSize, cfg.MaxTotalSize, hook, engine.WithLogger(logger))
			defer e.Close()

			for i := 0; i < iterations; i++ {
				data := make([]byte, dataSize)
				code := make([]byte, codeSize)
				if _, err := rand.Read(code); err != nil {
					return err
				}
				if _, _, err := e.Publish(data, code); err != nil {
					fmt.Printf("allocation %d failed: %v\n", i, err)
					break
				}
			}

			fmt.Printf("blocks reserved:  %d\n", e.BlockCount())
			fmt.Printf("bytes reserved:   %d\n", e.TotalReserved())
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().IntVar(&iterations, "iterations", 1000, "number of allocations to drive")
	cmd.Flags().IntVar(&codeSize, "code-size", 64, "bytes of synthetic code per allocation")
	cmd.Flags().IntVar(&dataSize, "data-size", 0, "bytes of synthetic read-only data per allocation")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log every block reservation")
	return cmd
}

func unwindHookFor(u config.Unwind) codegen.UnwindHook {
	if u == config.UnwindNone {
		return nil
	}
	return defaultUnwindHook()
}

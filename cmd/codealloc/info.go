package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/axstin/luau/codegen"
	"github.com/axstin/luau/internal/config"
	"github.com/axstin/luau/internal/platform"
)

func newInfoCommand() *cobra.Command {
	var configPath string
	var showConfig bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print platform constants and the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("page size:             %d bytes\n", platform.PageSize)
			fmt.Printf("max unwind data size:  %d bytes\n", codegen.MaxUnwindDataSize)

			if showConfig {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				out, err := config.Marshal(cfg)
				if err != nil {
					return err
				}
				fmt.Println("---")
				fmt.Print(string(out))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().BoolVar(&showConfig, "show-config", false, "also print the resolved configuration")
	return cmd
}

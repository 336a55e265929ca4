package cli

import (
	"github.com/spf13/cobra"

	"github.com/uvlkit/uvlkit/internal/mcpserver"
	"github.com/uvlkit/uvlkit/pkg/catalog"
	"github.com/uvlkit/uvlkit/pkg/config"
)

// mcpCommand creates the mcp command: serve the analysis catalogue to LLM
// agents over the Model Context Protocol on stdio.
func (c *CLI) mcpCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve analyses over the Model Context Protocol (stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			cch, err := cfg.Cache.NewCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cch.Close()

			runner := catalog.NewRunner(cch, c.Logger)
			runner.TTL = cfg.Cache.TTL.Std()
			runner.Timeout = cfg.Solve.Timeout.Std()

			return mcpserver.New(runner, c.Logger).ServeStdio()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	return cmd
}

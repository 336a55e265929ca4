package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/uvlkit/uvlkit/internal/server"
	"github.com/uvlkit/uvlkit/pkg/catalog"
	"github.com/uvlkit/uvlkit/pkg/config"
)

// serveCommand creates the serve command: run the HTTP analysis server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			cch, err := cfg.Cache.NewCache(ctx)
			if err != nil {
				return err
			}
			defer cch.Close()

			st, err := cfg.Store.NewStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			runner := catalog.NewRunner(cch, c.Logger)
			runner.TTL = cfg.Cache.TTL.Std()
			runner.Timeout = cfg.Solve.Timeout.Std()

			srv := &http.Server{
				Addr:    cfg.Server.Addr,
				Handler: server.New(runner, st, c.Logger).Handler(),
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			c.Logger.Info("listening",
				"addr", cfg.Server.Addr,
				"cache", cfg.Cache.Backend,
				"store", cfg.Store.Backend)

			select {
			case <-ctx.Done():
				c.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if err == http.ErrServerClosed {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

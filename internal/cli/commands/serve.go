package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/csvflow/internal/httpapi"
	"github.com/leapstack-labs/csvflow/internal/mcp"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var (
		httpOnly bool
		mcpOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and MCP servers",
		Long: `Serve starts the JSON HTTP API and the MCP tool server against the
same workspace and blocks until interrupted. Use --http-only or
--mcp-only to start a single server.

With the stdio MCP transport the MCP server speaks over stdin/stdout,
so it cannot be combined with the HTTP API; use --mcp-only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if httpOnly && mcpOnly {
				return fmt.Errorf("--http-only and --mcp-only are mutually exclusive")
			}

			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			transport := mcp.Transport(cc.Cfg.MCP.Transport)
			if transport == mcp.TransportStdio && !mcpOnly && !httpOnly {
				return fmt.Errorf("stdio MCP transport requires --mcp-only")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eg, egctx := errgroup.WithContext(ctx)

			if !mcpOnly {
				srv := httpapi.NewServer(httpapi.Config{
					Engine: cc.Engine,
					Host:   cc.Cfg.HTTP.Host,
					Port:   cc.Cfg.HTTP.Port,
					Logger: cc.Logger,
				})
				eg.Go(func() error {
					return srv.Serve(egctx)
				})
			}

			if !httpOnly {
				srv := mcp.New(cc.Engine, cc.Logger)
				eg.Go(func() error {
					if transport == mcp.TransportStdio {
						return srv.ServeStdio(egctx)
					}
					addr := fmt.Sprintf("%s:%d", cc.Cfg.MCP.Host, cc.Cfg.MCP.Port)
					return srv.ServeHTTP(egctx, addr)
				})
			}

			return eg.Wait()
		},
	}

	cmd.Flags().BoolVar(&httpOnly, "http-only", false, "Run only the HTTP API server")
	cmd.Flags().BoolVar(&mcpOnly, "mcp-only", false, "Run only the MCP server")
	return cmd
}

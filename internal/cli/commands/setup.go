// Package commands implements the csvflow subcommands.
package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/csvflow/internal/cli/config"
	"github.com/leapstack-labs/csvflow/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
}

// NewCommandContext creates a CommandContext with an engine built from
// the loaded configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	eng, err := engine.New(engine.Options{
		Workspace:    cfg.Workspace,
		Logger:       logger,
		MaxQueryRows: cfg.Query.MaxRows,
		QueryTimeout: time.Duration(cfg.Query.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Engine: eng,
	}, nil
}

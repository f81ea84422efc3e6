package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mcoot/gameshelf/internal/config"
	"github.com/mcoot/gameshelf/internal/factory"
	"github.com/mcoot/gameshelf/internal/logging"
)

// openApp loads configuration and wires the application in-process.
// Logs go to stderr so stdout stays parseable; they are quiet unless
// --verbose is set.
func openApp(cmd *cobra.Command) (*factory.App, func(), error) {
	c, err := config.Load(config.Options{ConfigFile: cfg.ConfigFile, EnvFile: cfg.EnvFile})
	if err != nil {
		return nil, nil, err
	}

	logCfg := c.Log
	if !cfg.Verbose {
		logCfg.Level = "warn"
	}
	logger, closeLog, err := logging.New(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	app, err := factory.New(factory.ConfigFrom(c, logger))
	if err != nil {
		return nil, nil, errors.Join(err, closeLog())
	}

	cleanup := func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
		_ = closeLog()
	}
	return app, cleanup, nil
}

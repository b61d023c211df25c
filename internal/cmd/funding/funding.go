// Package funding parses funding service flags and launches the service.
package funding

import (
	"context"
	"flag"

	"github.com/fundlift/fundlift/internal/funding/app"
	entrypoint "github.com/fundlift/fundlift/internal/platform/cmd"
)

// ParseConfig parses environment and flags into the service config.
func ParseConfig(fs *flag.FlagSet, args []string) (app.Config, error) {
	var cfg app.Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return app.Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The funding HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the funding SQLite database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

// Run starts the funding ledger service.
func Run(ctx context.Context, cfg app.Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceFunding, func(ctx context.Context) error {
		server, err := app.New(cfg)
		if err != nil {
			return err
		}
		return server.Run(ctx)
	})
}

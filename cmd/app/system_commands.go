package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/capsvc/selfservice/cmd/app/commands"
	"github.com/capsvc/selfservice/internal/app"
	"github.com/capsvc/selfservice/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "worker",
			Usage: "Start the worker: ops server, outbox relay, event consumer, and expiry sweeper",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunWorker(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
	}
}

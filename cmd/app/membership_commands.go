package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/capsvc/selfservice/cmd/app/commands"
	"github.com/capsvc/selfservice/internal/app"
	"github.com/capsvc/selfservice/internal/config"
)

func getMembershipCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "sweep-expired",
			Usage: "Cancel membership applications that expired without an approval",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				applicationUseCase, err := container.ApplicationUseCase()
				if err != nil {
					return err
				}

				return commands.RunSweepExpired(
					ctx,
					applicationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}

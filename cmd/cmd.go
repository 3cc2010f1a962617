// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand starts the HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run migrations and start the HTTP server",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// usersCommand handles operator reads of the user store.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Inspect stored users",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored users",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.UsersList,
			},
			{
				Name:  "export",
				Usage: "Export users as CSV or Markdown",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv or markdown",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (stdout when omitted)",
					},
				},
				Action: r.UsersExport,
			},
		},
	}
}

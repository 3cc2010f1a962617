package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benjamesfleming/smarterplaylists/internal/formatter"
	"github.com/benjamesfleming/smarterplaylists/internal/repositories"
	"github.com/urfave/cli/v3"
)

// UsersList prints the stored users as a plain table or JSON.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewUserRepository(db)
	users, err := repo.List(map[string]any{})
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, cmd.Bool("pretty"))
	}

	if err := r.writePlain("%-28s %-24s %s\n", "ID", "USERNAME", "EMAIL"); err != nil {
		return err
	}
	for _, user := range users {
		if err := r.writePlain("%-28s %-24s %s\n", user.ID(), user.Username(), user.Email()); err != nil {
			return err
		}
	}

	return nil
}

// UsersExport writes the stored users as CSV or Markdown.
func (r *Runner) UsersExport(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewUserRepository(db)
	users, err := repo.List(map[string]any{})
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var data []byte
	switch format := cmd.String("format"); format {
	case "csv":
		data, err = formatter.ExportToCSV(users)
	case "markdown", "md":
		data, err = formatter.ExportToMarkdown(users)
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
	if err != nil {
		return err
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		r.logger.Info("export written", "path", outputPath)
		return nil
	}

	return r.writePlain("%s", data)
}

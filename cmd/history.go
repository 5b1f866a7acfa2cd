package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/formatter"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/interpreter"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recent commands, oldest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	criteria, err := historyCriteria(cmd)
	if err != nil {
		return err
	}

	repo, err := r.repository()
	if err != nil {
		return err
	}

	commands, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(commands, cmd.Bool("pretty"))
	}

	if len(commands) == 0 {
		return r.writePlain("No commands recorded\n")
	}

	for _, c := range commands {
		r.writePlain("%4d  %s  %-11s %-8s %s\n",
			c.Sequence(), c.CreatedAt().Format("2006-01-02 15:04:05"), c.Action(), c.Status(), c.Utterance())
		if c.Song() != "" {
			r.writePlain("      %s - %s\n", c.Artist(), c.Song())
		}
		if c.ErrorMessage() != "" {
			r.writePlain("      error: %s\n", c.ErrorMessage())
		}
	}
	return nil
}

// historyCriteria validates the list filters before any database access.
func historyCriteria(cmd *cli.Command) (map[string]any, error) {
	criteria := map[string]any{}

	if action := strings.TrimSpace(cmd.String("action")); action != "" {
		if _, err := interpreter.ParseAction(action); err != nil {
			return nil, fmt.Errorf("%w: --action %q", shared.ErrInvalidFlag, action)
		}
		criteria["action"] = action
	}

	if status := strings.TrimSpace(cmd.String("status")); status != "" {
		switch tasks.Status(status) {
		case tasks.StatusExecuted, tasks.StatusIgnored, tasks.StatusFailed:
			criteria["status"] = status
		default:
			return nil, fmt.Errorf("%w: --status %q", shared.ErrInvalidFlag, status)
		}
	}

	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = limit
	}
	return criteria, nil
}

// HistoryExport writes the full history in the chosen format.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.repository()
	if err != nil {
		return err
	}

	commands, err := repo.List(map[string]any{})
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if cmd.String("output") == "-" {
		data, err := formatter.Export(commands, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	path, err := formatter.WriteExport(commands, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Infof("history exported to %v with %v commands", path, len(commands))
	r.writePlain("✓ History exported to %s\n", path)
	r.writePlain("  Commands: %d\n", len(commands))
	return nil
}

// HistoryStats prints how often each action was requested and how often it failed.
func (r *Runner) HistoryStats(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.repository()
	if err != nil {
		return err
	}

	stats, err := repo.Stats()
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	if len(stats) == 0 {
		return r.writePlain("No commands recorded\n")
	}

	r.writePlainHeader("Commands by action")
	total := 0
	for _, s := range stats {
		r.writePlain("%-12s %5d  (%d failed)\n", s.Action, s.Total, s.Failed)
		total += s.Total
	}
	return r.writePlain("%-12s %5d\n", "total", total)
}

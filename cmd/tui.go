package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

const tuiLogFile = "./tmp/spvc-tui.log"

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	if r.logFile == nil {
		fileLogger, f, err := shared.NewFileLogger(tuiLogFile)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		fileLogger.SetLevel(r.logger.GetLevel())
		r.logFile = f
		r.SetLogger(fileLogger)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q, controller, err := r.queue(ctx, cmd)
	if err != nil {
		return err
	}

	events := make(chan tasks.Event, 64)
	stopped := make(chan error, 1)
	go func() { stopped <- q.Run(ctx, events) }()
	defer func() {
		cancel()
		q.Close()
		if err := <-stopped; err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("command worker stopped", "error", err)
		}
	}()

	model := ui.NewModel(ctx, q, events, controller)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

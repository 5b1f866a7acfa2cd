package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/interpreter"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Classify prints the intent for the command text. It never contacts Spotify.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	text, err := utterance(cmd)
	if err != nil {
		return err
	}

	in, err := r.classifier(cmd)
	if err != nil {
		return err
	}

	intent := in.Classify(text)
	r.logger.Debug("classified", "utterance", text, "action", intent.Action)

	if cmd.Bool("json") {
		return r.writeJSON(intent, cmd.Bool("pretty"))
	}

	r.writePlain("Action: %s\n", intent.Action)
	if intent.Action == interpreter.PlaySong {
		r.writePlain("Song: %s\n", intent.Song)
		r.writePlain("Artist: %s\n", intent.Artist)
	}
	return r.writePlain("Message: %s\n", intent.Message)
}

// Do classifies the command text and executes it once. The command is recorded once, after any reauthorization retry.
func (r *Runner) Do(ctx context.Context, cmd *cli.Command) error {
	text, err := utterance(cmd)
	if err != nil {
		return err
	}

	q, _, err := r.queue(ctx, cmd)
	if err != nil {
		return err
	}
	defer q.Close()

	var outcome *tasks.Outcome
	err = r.withReauth(ctx, func() error {
		var execErr error
		outcome, execErr = q.Execute(ctx, text)
		return execErr
	})
	q.Record(ctx, text, outcome)

	if cmd.Bool("json") {
		if werr := r.writeJSON(outcome, cmd.Bool("pretty")); werr != nil {
			return werr
		}
		return err
	}

	if err != nil {
		r.writePlain("✗ %s\n", outcome.Intent.Message)
		return err
	}
	return r.writeOutcome(outcome)
}

// Listen reads commands line by line and feeds them to the queue until the input ends.
//
// Blank lines and lines starting with # are skipped. Reading waits while the queue is full;
// with --drop those commands are dropped instead.
func (r *Runner) Listen(ctx context.Context, cmd *cli.Command) error {
	input := r.input
	if path := cmd.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		input = f
	}

	q, _, err := r.queue(ctx, cmd)
	if err != nil {
		return err
	}

	asJSON, all, drop := cmd.Bool("json"), cmd.Bool("events"), cmd.Bool("drop")
	events := make(chan tasks.Event, 64)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range events {
			if err := r.writeEvent(ev, asJSON, all); err != nil {
				r.logger.Warn("failed to write event", "error", err)
			}
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- q.Run(ctx, events) }()

	var scanErr error
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	r.logger.Info("listening for commands", "queue_size", r.config.Player.QueueSize)

	eof := false
read:
	for {
		select {
		case <-ctx.Done():
			break read
		case line, ok := <-lines:
			if !ok {
				eof = true
				break read
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			var err error
			if drop {
				err = q.Submit(line)
			} else {
				err = q.SubmitWait(ctx, line)
			}
			if err != nil {
				if ctx.Err() != nil {
					break read
				}
				r.logger.Warn("command dropped", "utterance", line, "error", err)
				events <- tasks.Event{
					Phase:     tasks.Dropped,
					Utterance: line,
					Err:       err,
					Message:   fmt.Sprintf("Dropped %q: %v", line, err),
				}
			}
		}
	}

	q.Close()
	err = <-runErr
	close(events)
	<-printed

	if err != nil {
		return err
	}
	if eof && scanErr != nil {
		return fmt.Errorf("failed to read commands: %w", scanErr)
	}
	return nil
}

func (r *Runner) writeOutcome(outcome *tasks.Outcome) error {
	switch outcome.Status {
	case tasks.StatusIgnored:
		return r.writePlain("? %s\n", outcome.Intent.Message)
	case tasks.StatusFailed:
		return r.writePlain("✗ %s: %s\n", outcome.Intent.Message, outcome.Error)
	default:
		return r.writePlain("✓ %s\n", outcome.Summary())
	}
}

// writeEvent prints ev. Intermediate phases are only shown when all is set.
func (r *Runner) writeEvent(ev tasks.Event, asJSON, all bool) error {
	if !ev.Phase.Final() && !all {
		return nil
	}

	if asJSON {
		return r.writeJSON(ev, false)
	}

	switch ev.Phase {
	case tasks.Completed:
		return r.writePlain("✓ %s → %s\n", ev.Utterance, ev.Message)
	case tasks.Ignored:
		return r.writePlain("? %s → %s\n", ev.Utterance, ev.Message)
	case tasks.Failed:
		return r.writePlain("✗ %s → %v\n", ev.Utterance, ev.Err)
	case tasks.Dropped:
		return r.writePlain("⚠ %s → dropped: %v\n", ev.Utterance, ev.Err)
	default:
		return r.writePlain("· %s → %s\n", ev.Utterance, ev.Message)
	}
}

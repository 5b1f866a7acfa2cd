package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/interpreter"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/services"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	"github.com/urfave/cli/v3"
)

// deviceManager is implemented by controllers that can list devices and move playback between them.
type deviceManager interface {
	Devices(ctx context.Context) ([]services.Device, error)
	TransferPlayback(ctx context.Context, deviceID string, play bool) error
}

// Play searches for a song by an artist and plays it now, skipping intent extraction.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	song, err := utterance(cmd)
	if err != nil {
		return fmt.Errorf("%w: song", shared.ErrMissingArgument)
	}
	artist := strings.TrimSpace(cmd.String("artist"))
	if artist == "" {
		return fmt.Errorf("%w: --artist", shared.ErrMissingArgument)
	}

	in, err := r.classifier(cmd)
	if err != nil {
		return err
	}

	outcome, err := r.execute(ctx, in.PlaySong(song, artist))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(outcome, cmd.Bool("pretty"))
	}
	return r.writeOutcome(outcome)
}

func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, interpreter.Pause)
}

func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, interpreter.Resume)
}

func (r *Runner) Next(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, interpreter.Next)
}

func (r *Runner) Previous(ctx context.Context, cmd *cli.Command) error {
	return r.runAction(ctx, cmd, interpreter.Previous)
}

func (r *Runner) runAction(ctx context.Context, cmd *cli.Command, action interpreter.Action) error {
	in, err := r.classifier(cmd)
	if err != nil {
		return err
	}

	outcome, err := r.execute(ctx, in.Intent(action))
	if err != nil {
		return err
	}
	return r.writeOutcome(outcome)
}

// execute runs intent once, reauthorizing and retrying when the token was rejected.
func (r *Runner) execute(ctx context.Context, intent interpreter.Intent) (*tasks.Outcome, error) {
	controller, err := r.playback(ctx)
	if err != nil {
		return nil, err
	}

	executor := r.executor(controller)
	var outcome *tasks.Outcome
	err = r.withReauth(ctx, func() error {
		var execErr error
		outcome, execErr = executor.Execute(ctx, intent)
		return execErr
	})
	return outcome, err
}

// Search lists tracks matching the query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query, err := utterance(cmd)
	if err != nil {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	controller, err := r.playback(ctx)
	if err != nil {
		return err
	}

	var tracks []services.Track
	err = r.withReauth(ctx, func() error {
		var searchErr error
		tracks, searchErr = controller.Search(ctx, query, limit)
		return searchErr
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		return r.writePlain("No tracks found for %q\n", query)
	}

	r.writePlain("Found %d tracks:\n\n", len(tracks))
	for i, t := range tracks {
		r.writePlain("%d. %s - %s [%s]\n", i+1, t.Artist, t.Title, shared.FormatDuration(t.Duration))
		if t.Album != "" {
			r.writePlain("   Album: %s\n", t.Album)
		}
		r.writePlain("   ID: %s\n", t.ID)
	}
	return nil
}

// Volume sets an absolute volume, or steps the current one when the value is signed (+10, -5).
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	arg := strings.TrimSpace(cmd.Args().First())
	if arg == "" {
		return fmt.Errorf("%w: percent", shared.ErrMissingArgument)
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("%w: volume %q is not a number", shared.ErrInvalidArgument, arg)
	}
	relative := strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-")
	if !relative && (n < 0 || n > 100) {
		return fmt.Errorf("%w: volume must be between 0 and 100", shared.ErrInvalidArgument)
	}

	controller, err := r.playback(ctx)
	if err != nil {
		return err
	}

	deviceID := r.config.Player.DeviceID
	err = r.withReauth(ctx, func() error {
		target := n
		if relative {
			device, err := controller.ActiveDevice(ctx)
			if err != nil {
				return err
			}
			target = max(0, min(device.VolumePercent+n, 100))
		}
		if err := controller.SetVolume(ctx, target, deviceID); err != nil {
			return err
		}
		n, relative = target, false
		return nil
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Volume set to %d%%\n", n)
}

// Devices lists playback devices and optionally transfers playback to one of them.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	controller, err := r.playback(ctx)
	if err != nil {
		return err
	}

	manager, ok := controller.(deviceManager)
	if !ok {
		return fmt.Errorf("%w: %s cannot list devices", shared.ErrServiceUnavailable, controller.Name())
	}

	if id := cmd.String("transfer"); id != "" {
		if err := r.withReauth(ctx, func() error {
			return manager.TransferPlayback(ctx, id, cmd.Bool("play"))
		}); err != nil {
			return err
		}
		r.logger.Info("playback transferred", "device", id)
		r.writePlain("✓ Playback transferred to %s\n\n", id)
	}

	var devices []services.Device
	err = r.withReauth(ctx, func() error {
		var listErr error
		devices, listErr = manager.Devices(ctx)
		return listErr
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, cmd.Bool("pretty"))
	}

	if len(devices) == 0 {
		return r.writePlain("No devices found. Open Spotify on a phone, speaker or computer.\n")
	}

	for _, d := range devices {
		marker := "○"
		if d.Active {
			marker = "●"
		}
		r.writePlain("%s %s (%s) vol %d%%\n", marker, d.Name, d.Type, d.VolumePercent)
		r.writePlain("  ID: %s\n", d.ID)
	}
	return nil
}

// Status shows the current track, progress and device.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	controller, err := r.playback(ctx)
	if err != nil {
		return err
	}

	var state *services.PlaybackState
	err = r.withReauth(ctx, func() error {
		var stateErr error
		state, stateErr = controller.CurrentPlayback(ctx)
		return stateErr
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, cmd.Bool("pretty"))
	}

	if state.Item == nil {
		return r.writePlain("Nothing playing\n")
	}

	icon := "⏸"
	if state.Playing {
		icon = "▶"
	}
	r.writePlain("%s %s - %s\n", icon, state.Item.Artist, state.Item.Title)
	if state.Item.Album != "" {
		r.writePlain("Album: %s\n", state.Item.Album)
	}
	r.writePlain("Progress: %s / %s\n",
		shared.FormatDuration(state.ProgressMS/1000), shared.FormatDuration(state.Item.Duration))
	if state.Device != nil {
		r.writePlain("Device: %s (vol %d%%)\n", state.Device.Name, state.Device.VolumePercent)
	}
	return nil
}

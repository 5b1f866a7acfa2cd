package tasks

import (
	"context"
	"fmt"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/interpreter"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/services"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/charmbracelet/log"
)

const (
	defaultVolumeStep  = 10
	defaultSearchLimit = 1
)

// Status is the terminal state of an executed intent.
type Status string

const (
	StatusExecuted Status = "executed"
	StatusIgnored  Status = "ignored"
	StatusFailed   Status = "failed"
)

// Outcome describes what the [Executor] did for one intent.
type Outcome struct {
	Intent   interpreter.Intent `json:"intent"`
	Status   Status             `json:"status"`
	Track    *services.Track    `json:"track,omitempty"`     // Track played for play_song
	DeviceID string             `json:"device_id,omitempty"` // Device the command targeted, empty for the active device
	Volume   *int               `json:"volume,omitempty"`    // New volume for volume_up and volume_down
	Error    string             `json:"error,omitempty"`
}

// Summary renders the outcome as a single line for display.
func (o *Outcome) Summary() string {
	switch {
	case o.Track != nil:
		return fmt.Sprintf("%s (%s - %s)", o.Intent.Message, o.Track.Artist, o.Track.Title)
	case o.Volume != nil:
		return fmt.Sprintf("%s (%d%%)", o.Intent.Message, *o.Volume)
	default:
		return o.Intent.Message
	}
}

// ExecutorOpts configures an [Executor]. Zero values fall back to defaults.
type ExecutorOpts struct {
	DeviceID    string
	VolumeStep  int
	SearchLimit int
	Logger      *log.Logger
}

// Executor runs intents against a [services.PlaybackController].
type Executor struct {
	controller  services.PlaybackController
	deviceID    string
	volumeStep  int
	searchLimit int
	logger      *log.Logger
}

// NewExecutor creates an Executor for controller.
func NewExecutor(controller services.PlaybackController, opts ExecutorOpts) *Executor {
	e := &Executor{
		controller:  controller,
		deviceID:    opts.DeviceID,
		volumeStep:  opts.VolumeStep,
		searchLimit: opts.SearchLimit,
		logger:      opts.Logger,
	}
	if e.volumeStep <= 0 {
		e.volumeStep = defaultVolumeStep
	}
	if e.searchLimit <= 0 {
		e.searchLimit = defaultSearchLimit
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(nil)
	}
	e.logger = shared.WithLogger(e.logger, "component", "executor")
	return e
}

// Execute performs intent. The returned outcome is never nil; on failure its Status is [StatusFailed]
// and the error is also returned.
func (e *Executor) Execute(ctx context.Context, intent interpreter.Intent) (*Outcome, error) {
	outcome := &Outcome{Intent: intent, Status: StatusExecuted, DeviceID: e.deviceID}

	var err error
	switch intent.Action {
	case interpreter.PlaySong:
		err = e.playSong(ctx, outcome)
	case interpreter.Pause:
		err = e.controller.Pause(ctx, e.deviceID)
	case interpreter.Resume:
		err = e.controller.Resume(ctx, e.deviceID)
	case interpreter.Next:
		err = e.controller.Next(ctx, e.deviceID)
	case interpreter.Previous:
		err = e.controller.Previous(ctx, e.deviceID)
	case interpreter.VolumeUp:
		err = e.stepVolume(ctx, outcome, e.volumeStep)
	case interpreter.VolumeDown:
		err = e.stepVolume(ctx, outcome, -e.volumeStep)
	default:
		outcome.Status = StatusIgnored
		e.logger.Debug("ignoring unknown intent")
		return outcome, nil
	}

	if err != nil {
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		e.logger.Error("command failed", "action", intent.Action, "error", err)
		return outcome, err
	}

	e.logger.Info("command executed", "action", intent.Action, "service", e.controller.Name())
	return outcome, nil
}

func (e *Executor) playSong(ctx context.Context, outcome *Outcome) error {
	intent := outcome.Intent
	if intent.Song == "" || intent.Artist == "" {
		return fmt.Errorf("%w: song and artist are required", shared.ErrInvalidInput)
	}

	track, err := e.findTrack(ctx, intent)
	if err != nil {
		return err
	}

	if err := e.resumeIfPaused(ctx); err != nil {
		return err
	}

	if err := e.controller.EnqueueAndSkipTo(ctx, track.ID, e.deviceID); err != nil {
		return err
	}
	outcome.Track = track
	return nil
}

// findTrack runs the structured query first and the free-text query when it finds nothing.
func (e *Executor) findTrack(ctx context.Context, intent interpreter.Intent) (*services.Track, error) {
	for _, query := range []string{intent.Query(), intent.FallbackQuery()} {
		tracks, err := e.controller.Search(ctx, query, e.searchLimit)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}
		if len(tracks) > 0 {
			e.logger.Debug("search matched", "query", query, "results", len(tracks))
			return bestMatch(tracks, intent.Song, intent.Artist), nil
		}
	}
	return nil, fmt.Errorf("%w: %s - %s", shared.ErrTrackNotFound, intent.Artist, intent.Song)
}

// bestMatch prefers a result whose normalized title and artist equal the request.
func bestMatch(tracks []services.Track, song, artist string) *services.Track {
	want := shared.NormalizeTrackKey(song, artist)
	for i := range tracks {
		if shared.NormalizeTrackKey(tracks[i].Title, tracks[i].Artist) == want {
			return &tracks[i]
		}
	}
	return &tracks[0]
}

// resumeIfPaused starts playback when a session exists but is paused, so the queued track is audible.
func (e *Executor) resumeIfPaused(ctx context.Context) error {
	state, err := e.controller.CurrentPlayback(ctx)
	if err != nil {
		e.logger.Warn("could not read playback state", "error", err)
		return nil
	}
	if state.Playing || (state.Device == nil && state.Item == nil) {
		return nil
	}
	return e.controller.Resume(ctx, e.deviceID)
}

func (e *Executor) stepVolume(ctx context.Context, outcome *Outcome, delta int) error {
	device, err := e.controller.ActiveDevice(ctx)
	if err != nil {
		return err
	}

	volume := clamp(device.VolumePercent+delta, 0, 100)
	target := e.deviceID
	if target == "" {
		target = device.ID
	}
	if err := e.controller.SetVolume(ctx, volume, target); err != nil {
		return err
	}

	outcome.DeviceID = target
	outcome.Volume = &volume
	return nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

package repositories

import (
	"context"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/models"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
)

// HistoryRecorder implements tasks.Recorder using CommandRepository.
type HistoryRecorder struct {
	repo *CommandRepository
}

// NewHistoryRecorder creates a new HistoryRecorder with the given repository
func NewHistoryRecorder(repo *CommandRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// Record stores one processed utterance.
func (h *HistoryRecorder) Record(ctx context.Context, utterance string, outcome *tasks.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := models.NewCommandRecord(utterance, outcome.Intent.Action.String(), string(outcome.Status))
	cmd.SetSong(outcome.Intent.Song, outcome.Intent.Artist)
	cmd.SetStatus(string(outcome.Status), outcome.Error)
	if outcome.Track != nil {
		cmd.SetTrackID(outcome.Track.ID)
	}
	return h.repo.Create(cmd)
}

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
)

// CommandRecord is one processed utterance in the command log.
type CommandRecord struct {
	id        string
	sequence  int
	utterance string
	action    string
	song      string
	artist    string
	status    string
	err       string
	trackID   string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCommandRecord creates an unsaved record. The ID and sequence are assigned on create.
func NewCommandRecord(utterance, action, status string) *CommandRecord {
	now := time.Now()
	return &CommandRecord{
		utterance: utterance,
		action:    action,
		status:    status,
		createdAt: now,
		updatedAt: now,
	}
}

func (c *CommandRecord) ID() string            { return c.id }
func (c *CommandRecord) Sequence() int         { return c.sequence }
func (c *CommandRecord) Utterance() string     { return c.utterance }
func (c *CommandRecord) Action() string        { return c.action }
func (c *CommandRecord) Song() string          { return c.song }
func (c *CommandRecord) Artist() string        { return c.artist }
func (c *CommandRecord) Status() string        { return c.status }
func (c *CommandRecord) ErrorMessage() string  { return c.err }
func (c *CommandRecord) TrackID() string       { return c.trackID }
func (c *CommandRecord) CreatedAt() time.Time  { return c.createdAt }
func (c *CommandRecord) UpdatedAt() time.Time  { return c.updatedAt }
func (c *CommandRecord) DeletedAt() *time.Time { return c.deletedAt }

func (c *CommandRecord) SetID(id string)              { c.id = id }
func (c *CommandRecord) SetSequence(seq int)          { c.sequence = seq }
func (c *CommandRecord) SetCreatedAt(t time.Time)     { c.createdAt = t }
func (c *CommandRecord) SetUpdatedAt(t time.Time)     { c.updatedAt = t }
func (c *CommandRecord) SetDeletedAt(t *time.Time)    { c.deletedAt = t }
func (c *CommandRecord) SetTrackID(id string)         { c.trackID = id }
func (c *CommandRecord) SetSong(song, artist string)  { c.song, c.artist = song, artist }
func (c *CommandRecord) SetStatus(status, err string) { c.status, c.err = status, err }

// Validate checks required fields.
func (c *CommandRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(c.utterance) == "" {
		missing = append(missing, "utterance")
	}
	if c.action == "" {
		missing = append(missing, "action")
	}
	if c.status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", shared.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// CommandRecordJSON is the exported form of a [CommandRecord].
type CommandRecordJSON struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Utterance string    `json:"utterance"`
	Action    string    `json:"action"`
	Song      string    `json:"song,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	TrackID   string    `json:"track_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *CommandRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(CommandRecordJSON{
		ID:        c.id,
		Sequence:  c.sequence,
		Utterance: c.utterance,
		Action:    c.action,
		Song:      c.song,
		Artist:    c.artist,
		Status:    c.status,
		Error:     c.err,
		TrackID:   c.trackID,
		CreatedAt: c.createdAt,
	})
}

// ActionCount is a row of command log statistics.
type ActionCount struct {
	Action string `json:"action"`
	Total  int    `json:"total"`
	Failed int    `json:"failed"`
}

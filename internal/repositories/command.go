package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/models"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
)

const commandColumns = `id, sequence, utterance, action, song, artist, status, error, track_id, created_at, updated_at, deleted_at`

// CommandRepository implements models.Repository[*models.CommandRecord] for the command log.
type CommandRepository struct {
	db *sql.DB
}

// NewCommandRepository creates a new CommandRepository with the given database connection
func NewCommandRepository(db *sql.DB) *CommandRepository {
	return &CommandRepository{db: db}
}

// Create inserts a new [models.CommandRecord] with a generated ID and sequence
func (r *CommandRepository) Create(cmd *models.CommandRecord) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "commands")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO commands (id, sequence, utterance, action, song, artist, status, error, track_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		cmd.Utterance(),
		cmd.Action(),
		cmd.Song(),
		cmd.Artist(),
		cmd.Status(),
		cmd.ErrorMessage(),
		cmd.TrackID(),
		cmd.CreatedAt(),
		cmd.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert command: %w", err)
	}

	cmd.SetID(id)
	cmd.SetSequence(sequence)
	return nil
}

// Get retrieves a command by ID, excluding soft-deleted rows
func (r *CommandRepository) Get(id string) (*models.CommandRecord, error) {
	query := `SELECT ` + commandColumns + ` FROM commands WHERE id = ? AND deleted_at IS NULL`

	cmd, err := scanCommand(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: command %s", shared.ErrRecordNotFound, id)
	}
	return cmd, err
}

// Update rewrites the mutable fields of a command
func (r *CommandRepository) Update(cmd *models.CommandRecord) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	query := `
		UPDATE commands
		SET song = ?, artist = ?, status = ?, error = ?, track_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, cmd.Song(), cmd.Artist(), cmd.Status(), cmd.ErrorMessage(), cmd.TrackID(), now, cmd.ID())
	if err != nil {
		return fmt.Errorf("failed to update command: %w", err)
	}
	if err := expectRow(result, cmd.ID()); err != nil {
		return err
	}

	cmd.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a command by ID
func (r *CommandRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE commands SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete command: %w", err)
	}
	return expectRow(result, id)
}

// List retrieves commands matching criteria in chronological order.
//
// Supported criteria: "action" and "status" (string) filter rows, "since" ([time.Time]) drops
// older rows, and "limit" (int) keeps only the newest rows.
func (r *CommandRepository) List(criteria map[string]any) ([]*models.CommandRecord, error) {
	query := `SELECT ` + commandColumns + ` FROM commands WHERE deleted_at IS NULL`
	args := []any{}

	if action, ok := criteria["action"].(string); ok && action != "" {
		query += " AND action = ?"
		args = append(args, action)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since)
	}

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY sequence DESC LIMIT ?) ORDER BY sequence ASC`
		args = append(args, limit)
	} else {
		query += " ORDER BY sequence ASC"
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var commands []*models.CommandRecord
	for rows.Next() {
		cmd, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return commands, nil
}

// Recent returns the newest n commands, newest first
func (r *CommandRepository) Recent(n int) ([]*models.CommandRecord, error) {
	commands, err := r.List(map[string]any{"limit": n})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(commands)-1; i < j; i, j = i+1, j-1 {
		commands[i], commands[j] = commands[j], commands[i]
	}
	return commands, nil
}

// Stats counts commands and failures per action, most frequent first
func (r *CommandRepository) Stats() ([]models.ActionCount, error) {
	query := `
		SELECT action, COUNT(*), SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END)
		FROM commands
		WHERE deleted_at IS NULL
		GROUP BY action
		ORDER BY COUNT(*) DESC, action ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query command stats: %w", err)
	}
	defer rows.Close()

	var stats []models.ActionCount
	for rows.Next() {
		var c models.ActionCount
		if err := rows.Scan(&c.Action, &c.Total, &c.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan command stats: %w", err)
		}
		stats = append(stats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanCommand scans a [sql.Row] or [sql.Rows] into a [models.CommandRecord]
func scanCommand(s scanner) (*models.CommandRecord, error) {
	var (
		id        string
		sequence  int
		utterance string
		action    string
		song      string
		artist    string
		status    string
		errMsg    string
		trackID   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &utterance, &action, &song, &artist, &status, &errMsg, &trackID, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan command: %w", err)
	}

	cmd := models.NewCommandRecord(utterance, action, status)
	cmd.SetID(id)
	cmd.SetSequence(sequence)
	cmd.SetSong(song, artist)
	cmd.SetStatus(status, errMsg)
	cmd.SetTrackID(trackID)
	cmd.SetCreatedAt(createdAt)
	cmd.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		cmd.SetDeletedAt(&deletedAt.Time)
	}

	return cmd, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: command %s not found or already deleted", shared.ErrRecordNotFound, id)
	}
	return nil
}

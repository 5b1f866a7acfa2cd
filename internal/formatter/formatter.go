// package formatter exports the command log to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/models"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
)

const timeLayout = "2006-01-02 15:04:05"

// Format is an export file format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
	JSON     Format = "json"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{CSV, Markdown, Text, JSON}
}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt", "":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	default:
		return "." + string(f)
	}
}

// ExportToCSV converts commands to CSV with columns: Sequence, Time, Utterance, Action, Song, Artist, Status, Error, Track ID
func ExportToCSV(commands []*models.CommandRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Time", "Utterance", "Action", "Song", "Artist", "Status", "Error", "Track ID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, cmd := range commands {
		record := []string{
			strconv.Itoa(cmd.Sequence()),
			cmd.CreatedAt().Format(time.RFC3339),
			cmd.Utterance(),
			cmd.Action(),
			cmd.Song(),
			cmd.Artist(),
			cmd.Status(),
			cmd.ErrorMessage(),
			cmd.TrackID(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders commands as a Markdown document with a per-action summary table.
func ExportToMarkdown(commands []*models.CommandRecord, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Command History"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Commands**: %d\n\n", len(commands))

	if len(commands) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("## Summary\n\n")
	buf.WriteString("| Action | Total | Failed |\n")
	buf.WriteString("|---|---|---|\n")
	for _, c := range Summarize(commands) {
		fmt.Fprintf(&buf, "| %s | %d | %d |\n", c.Action, c.Total, c.Failed)
	}

	buf.WriteString("\n## Commands\n\n")
	for _, cmd := range commands {
		fmt.Fprintf(&buf, "%d. `%s` %s → **%s** (%s)", cmd.Sequence(), cmd.CreatedAt().Format(timeLayout), escapeMarkdown(cmd.Utterance()), cmd.Action(), cmd.Status())
		if cmd.Song() != "" {
			fmt.Fprintf(&buf, " %s - %s", escapeMarkdown(cmd.Artist()), escapeMarkdown(cmd.Song()))
		}
		if cmd.ErrorMessage() != "" {
			fmt.Fprintf(&buf, " _%s_", escapeMarkdown(cmd.ErrorMessage()))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts commands to plain text, one line per command
func ExportToText(commands []*models.CommandRecord) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Commands: %d\n\n", len(commands))
	for _, cmd := range commands {
		fmt.Fprintf(&buf, "%s  %-11s %-8s %s", cmd.CreatedAt().Format(timeLayout), cmd.Action(), cmd.Status(), cmd.Utterance())
		if cmd.ErrorMessage() != "" {
			fmt.Fprintf(&buf, " (%s)", cmd.ErrorMessage())
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// Export renders commands in the given format.
func Export(commands []*models.CommandRecord, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(commands)
	case Markdown:
		return ExportToMarkdown(commands, "")
	case Text:
		return ExportToText(commands)
	case JSON:
		if commands == nil {
			commands = []*models.CommandRecord{}
		}
		return shared.MarshalJSON(commands, true)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders commands and writes them to path, creating parent directories.
//
// An empty path defaults to "history" plus the format extension. A path without an extension gets one.
func WriteExport(commands []*models.CommandRecord, format Format, path string) (string, error) {
	if path == "" {
		path = "history"
	}
	if filepath.Ext(path) == "" {
		path += format.Extension()
	}

	data, err := Export(commands, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// Summarize counts commands and failures per action in order of first appearance.
func Summarize(commands []*models.CommandRecord) []models.ActionCount {
	var counts []models.ActionCount
	index := map[string]int{}
	for _, cmd := range commands {
		i, ok := index[cmd.Action()]
		if !ok {
			i = len(counts)
			index[cmd.Action()] = i
			counts = append(counts, models.ActionCount{Action: cmd.Action()})
		}
		counts[i].Total++
		if cmd.Status() == "failed" {
			counts[i].Failed++
		}
	}
	return counts
}

var markdownEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "|", `\|`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

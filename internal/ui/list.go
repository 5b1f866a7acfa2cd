package ui

import (
	"fmt"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = outcomeItem{}

// outcomeItem wraps a processed utterance to implement [list.Item].
type outcomeItem struct {
	utterance string
	outcome   *tasks.Outcome
	err       error
}

func (i outcomeItem) FilterValue() string { return i.utterance }
func (i outcomeItem) Title() string       { return i.utterance }
func (i outcomeItem) Description() string {
	if i.outcome == nil {
		return styles.err.Render(fmt.Sprintf("error: %v", i.err))
	}

	desc := fmt.Sprintf("%s • %s", i.outcome.Intent.Action, i.outcome.Summary())
	switch {
	case i.err != nil:
		return styles.err.Render(fmt.Sprintf("%s • %v", i.outcome.Intent.Action, i.err))
	case i.outcome.Status == tasks.StatusIgnored:
		return styles.warn.Render(desc)
	default:
		return desc
	}
}

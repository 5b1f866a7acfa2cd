package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/services"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const maxHistory = 50

// Focus selects which component receives key presses.
type Focus int

const (
	InputFocus Focus = iota
	HistoryFocus
)

// Submitter hands an utterance to the single queue worker. [*tasks.Queue] implements it.
type Submitter interface {
	Submit(utterance string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	submitter  Submitter
	events     <-chan tasks.Event
	controller services.PlaybackController
	focus      Focus
	input      textinput.Model
	history    list.Model
	status     *services.PlaybackState
	statusErr  error
	pending    int
	width      int
	height     int
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model.
//
// Commands go to submitter and their results arrive on events, which the worker feeding it
// must keep open while the program runs. controller is used for the status line only.
func NewModel(ctx context.Context, submitter Submitter, events <-chan tasks.Event, controller services.PlaybackController) *Model {
	input := textinput.New()
	input.Placeholder = "reproduce Bohemian Rhapsody de Queen"
	input.Prompt = "› "
	input.CharLimit = 200
	input.Focus()

	history := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	history.Title = "History"
	history.SetShowHelp(false)
	history.SetFilteringEnabled(false)
	history.SetShowStatusBar(false)

	return &Model{
		ctx:        ctx,
		submitter:  submitter,
		events:     events,
		controller: controller,
		input:      input,
		history:    history,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the cursor blink, fetches the playback status and starts listening for results.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetchStatus(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		m.history.SetSize(msg.Width-4, max(msg.Height-10, 3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateFocused(msg)
}

// View renders the status line, the input, the history and the help bar.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Spotify Voice Controller"))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	if m.pending > 0 {
		b.WriteString(styles.help.Render(fmt.Sprintf("  working (%d)…", m.pending)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.history.View())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))

	return b.String()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchStatus()
	case key.Matches(msg, m.keys.focus):
		m.toggleFocus()
		return m, nil
	case key.Matches(msg, m.keys.submit) && m.focus == InputFocus:
		utterance := strings.TrimSpace(m.input.Value())
		if utterance == "" {
			return m, nil
		}
		m.input.SetValue("")
		if err := m.submitter.Submit(utterance); err != nil {
			return m, m.addHistory(outcomeItem{utterance: utterance, err: err})
		}
		m.pending++
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgEvent:
		ev := msg.data.(tasks.Event)
		if !ev.Phase.Final() {
			return m, m.waitForEvent()
		}
		m.pending = max(m.pending-1, 0)
		cmd := m.addHistory(outcomeItem{utterance: ev.Utterance, outcome: ev.Outcome, err: ev.Err})
		return m, tea.Batch(cmd, m.fetchStatus(), m.waitForEvent())

	case MsgStatusFetched:
		res := msg.data.(statusResult)
		m.status = res.state
		m.statusErr = res.err
		return m, nil
	}
	return m, nil
}

func (m *Model) toggleFocus() {
	if m.focus == InputFocus {
		m.focus = HistoryFocus
		m.input.Blur()
		return
	}
	m.focus = InputFocus
	m.input.Focus()
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case InputFocus:
		m.input, cmd = m.input.Update(msg)
	case HistoryFocus:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

// addHistory puts item at the top of the history, trimming the oldest entry past maxHistory.
func (m *Model) addHistory(item outcomeItem) tea.Cmd {
	cmd := m.history.InsertItem(0, item)
	if n := len(m.history.Items()); n > maxHistory {
		m.history.RemoveItem(n - 1)
	}
	return cmd
}

// waitForEvent reads the next queue event. It yields nothing once the channel is closed or ctx is done.
func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case ev, ok := <-m.events:
			if !ok {
				return nil
			}
			return eventMsg(ev)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) fetchStatus() tea.Cmd {
	if m.controller == nil {
		return nil
	}
	return func() tea.Msg {
		state, err := m.controller.CurrentPlayback(m.ctx)
		return statusFetchedMsg(state, err)
	}
}

func (m *Model) renderStatus() string {
	if m.statusErr != nil {
		return styles.warn.Render(fmt.Sprintf("status unavailable: %v", m.statusErr))
	}
	if m.status == nil || (m.status.Item == nil && m.status.Device == nil) {
		return styles.help.Render("Nothing playing")
	}

	icon := "⏸"
	if m.status.Playing {
		icon = "▶"
	}

	parts := []string{icon}
	if item := m.status.Item; item != nil {
		parts = append(parts, fmt.Sprintf("%s - %s", item.Artist, item.Title))
	}
	if dev := m.status.Device; dev != nil {
		parts = append(parts, fmt.Sprintf("on %s (vol %d%%)", dev.Name, dev.VolumePercent))
	}

	line := strings.Join(parts, " ")
	if m.status.Playing {
		return styles.ok.Render(line)
	}
	return line
}

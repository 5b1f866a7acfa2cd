package ui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/interpreter"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/services"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	tu "github.com/JeronimoAR/SpotifyVoiceController/internal/testing"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, mock *tu.MockController) *Model {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	queue := tasks.NewQueue(interpreter.Default(), tasks.NewExecutor(mock, tasks.ExecutorOpts{}), tasks.QueueOpts{})
	events := make(chan tasks.Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = queue.Run(ctx, events)
	}()
	t.Cleanup(func() {
		queue.Close()
		cancel()
		<-done
	})

	m := NewModel(ctx, queue, events, mock)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m
}

// submit types utterance and presses enter.
func submit(t *testing.T, m *Model, utterance string) {
	t.Helper()
	m.input.SetValue(utterance)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// await feeds queue events to the model until n commands have finished.
func await(t *testing.T, m *Model, n int) {
	t.Helper()
	for finished := 0; finished < n; {
		msg, ok := m.waitForEvent()().(Msg)
		if !ok {
			t.Fatalf("expected %d finished commands, got %d", n, finished)
		}
		m.Update(msg)
		if msg.data.(tasks.Event).Phase.Final() {
			finished++
		}
	}
}

func TestModel(t *testing.T) {
	t.Run("submits commands and records outcomes", func(t *testing.T) {
		mock := &tu.MockController{}
		m := newTestModel(t, mock)

		submit(t, m, "pausa")
		if m.input.Value() != "" {
			t.Errorf("expected input to be cleared, got %q", m.input.Value())
		}
		if m.pending != 1 {
			t.Errorf("expected one pending command, got %d", m.pending)
		}

		await(t, m, 1)
		if m.pending != 0 {
			t.Errorf("expected no pending commands, got %d", m.pending)
		}

		items := m.history.Items()
		if len(items) != 1 {
			t.Fatalf("expected 1 history item, got %d", len(items))
		}
		item := items[0].(outcomeItem)
		if item.outcome.Intent.Action != interpreter.Pause || item.err != nil {
			t.Errorf("unexpected item %+v", item)
		}
		if len(mock.Calls()) == 0 || mock.Calls()[0] != "pause" {
			t.Errorf("expected pause call, got %v", mock.Calls())
		}
	})

	t.Run("runs commands one at a time in submission order", func(t *testing.T) {
		mock := &tu.MockController{}
		m := newTestModel(t, mock)

		submit(t, m, "pausa")
		submit(t, m, "siguiente")
		submit(t, m, "anterior")
		await(t, m, 3)

		if got := mock.Calls(); !slices.Equal(got, []string{"pause", "next", "previous"}) {
			t.Errorf("expected calls in submission order, got %v", got)
		}
		var order []string
		for _, item := range m.history.Items() {
			order = append(order, item.(outcomeItem).utterance)
		}
		if !slices.Equal(order, []string{"anterior", "siguiente", "pausa"}) {
			t.Errorf("expected newest first, got %v", order)
		}
	})

	t.Run("reports a full queue", func(t *testing.T) {
		mock := &tu.MockController{}
		queue := tasks.NewQueue(interpreter.Default(), tasks.NewExecutor(mock, tasks.ExecutorOpts{}), tasks.QueueOpts{Size: 1})
		m := NewModel(context.Background(), queue, nil, mock)

		submit(t, m, "pausa")
		submit(t, m, "siguiente")

		if m.pending != 1 {
			t.Errorf("expected one pending command, got %d", m.pending)
		}
		items := m.history.Items()
		if len(items) != 1 {
			t.Fatalf("expected the dropped command in history, got %d items", len(items))
		}
		if item := items[0].(outcomeItem); !errors.Is(item.err, shared.ErrQueueFull) {
			t.Errorf("expected ErrQueueFull, got %v", item.err)
		}
	})

	t.Run("keeps failures in history", func(t *testing.T) {
		mock := &tu.MockController{Errs: map[string]error{"next": shared.ErrNoActiveDevice}}
		m := newTestModel(t, mock)
		submit(t, m, "siguiente")
		await(t, m, 1)

		item := m.history.Items()[0].(outcomeItem)
		if !errors.Is(item.err, shared.ErrNoActiveDevice) {
			t.Errorf("expected ErrNoActiveDevice, got %v", item.err)
		}
		if !strings.Contains(item.Description(), "no active device") {
			t.Errorf("expected error in description, got %q", item.Description())
		}
	})

	t.Run("ignores blank input", func(t *testing.T) {
		m := newTestModel(t, &tu.MockController{})
		m.input.SetValue("   ")
		if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
			t.Error("expected no command for blank input")
		}
	})

	t.Run("tab toggles focus", func(t *testing.T) {
		m := newTestModel(t, &tu.MockController{})
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.focus != HistoryFocus || m.input.Focused() {
			t.Error("expected history focus")
		}
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.focus != InputFocus || !m.input.Focused() {
			t.Error("expected input focus")
		}
	})

	t.Run("quits on esc", func(t *testing.T) {
		m := newTestModel(t, &tu.MockController{})
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("renders the status line", func(t *testing.T) {
		mock := &tu.MockController{State: &services.PlaybackState{
			Playing: true,
			Item:    &services.Track{Title: "Yesterday", Artist: "The Beatles"},
			Device:  &services.Device{Name: "Kitchen", VolumePercent: 40},
		}}
		m := newTestModel(t, mock)
		m.Update(m.fetchStatus()())

		view := m.View()
		for _, want := range []string{"The Beatles - Yesterday", "Kitchen", "vol 40%"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in view:\n%s", want, view)
			}
		}
	})

	t.Run("renders status errors", func(t *testing.T) {
		mock := &tu.MockController{Errs: map[string]error{"playback": shared.ErrTokenExpired}}
		m := newTestModel(t, mock)
		m.Update(m.fetchStatus()())

		if !strings.Contains(m.View(), "status unavailable") {
			t.Errorf("expected status error in view:\n%s", m.View())
		}
	})

	t.Run("renders nothing playing", func(t *testing.T) {
		m := newTestModel(t, &tu.MockController{})
		if !strings.Contains(m.View(), "Nothing playing") {
			t.Errorf("expected idle status in view:\n%s", m.View())
		}
	})
}

package ui

import (
	"github.com/JeronimoAR/SpotifyVoiceController/internal/services"
	"github.com/JeronimoAR/SpotifyVoiceController/internal/tasks"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgEvent MsgKind = iota
	MsgStatusFetched
)

type statusResult struct {
	state *services.PlaybackState
	err   error
}

// eventMsg is the constructor for [MsgEvent]
func eventMsg(ev tasks.Event) Msg {
	return Msg{kind: MsgEvent, data: ev}
}

// statusFetchedMsg is the constructor for [MsgStatusFetched]
func statusFetchedMsg(state *services.PlaybackState, err error) Msg {
	return Msg{kind: MsgStatusFetched, data: statusResult{state, err}}
}

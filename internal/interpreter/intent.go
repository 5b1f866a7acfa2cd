package interpreter

import (
	"fmt"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
)

// Action is the closed set of playback intents.
type Action int

const (
	Unknown Action = iota
	PlaySong
	Pause
	Resume
	Next
	Previous
	VolumeUp
	VolumeDown
)

var actionNames = [...]string{
	Unknown:    "unknown",
	PlaySong:   "play_song",
	Pause:      "pause",
	Resume:     "resume",
	Next:       "next",
	Previous:   "previous",
	VolumeUp:   "volume_up",
	VolumeDown: "volume_down",
}

// Actions lists every action in declaration order.
func Actions() []Action {
	return []Action{Unknown, PlaySong, Pause, Resume, Next, Previous, VolumeUp, VolumeDown}
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction returns the action whose snake_case name is s.
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return Unknown, fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, s)
}

// MarshalText implements [encoding.TextMarshaler].
func (a Action) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(actionNames) {
		return nil, fmt.Errorf("%w: action %d", shared.ErrInvalidInput, int(a))
	}
	return []byte(actionNames[a]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Intent is the classified meaning of one utterance.
//
// Song and Artist are only set when Action is [PlaySong].
type Intent struct {
	Action  Action `json:"action"`
	Song    string `json:"song,omitempty"`
	Artist  string `json:"artist,omitempty"`
	Message string `json:"message"`
}

// Understood reports whether the utterance matched any rule.
func (i Intent) Understood() bool {
	return i.Action != Unknown
}

// Query returns the structured search query for a [PlaySong] intent.
func (i Intent) Query() string {
	return fmt.Sprintf("track:%s artist:%s", i.Song, i.Artist)
}

// FallbackQuery returns the free-text search query for a [PlaySong] intent.
func (i Intent) FallbackQuery() string {
	return i.Song + " " + i.Artist
}

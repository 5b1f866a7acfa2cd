// package services defines the [PlaybackController] capability and its Spotify implementation
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// PlaybackController executes playback commands against a streaming service.
//
// An empty deviceID targets the user's currently active device.
type PlaybackController interface {
	// Search returns at most limit tracks matching query, best match first.
	Search(ctx context.Context, query string, limit int) ([]Track, error)

	// EnqueueAndSkipTo adds the track to the play queue and skips to it.
	EnqueueAndSkipTo(ctx context.Context, trackID, deviceID string) error

	Pause(ctx context.Context, deviceID string) error
	Resume(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error

	// SetVolume sets the volume to percent, which must be within 0..100.
	SetVolume(ctx context.Context, percent int, deviceID string) error

	// ActiveDevice returns the device currently receiving playback commands.
	ActiveDevice(ctx context.Context) (*Device, error)

	// CurrentPlayback returns what is playing. A zero state means nothing is.
	CurrentPlayback(ctx context.Context) (*PlaybackState, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService is implemented by controllers that authenticate through an OAuth2 authorization code flow.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}

// Track represents a music track
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int    `json:"duration"` // Duration in seconds
	URI      string `json:"uri"`
}

// Device is a playback target such as a phone, speaker or desktop client.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Active        bool   `json:"active"`
	VolumePercent int    `json:"volume_percent"`
}

// PlaybackState describes the current playback on the active device.
type PlaybackState struct {
	Playing    bool    `json:"playing"`
	Device     *Device `json:"device,omitempty"`
	Item       *Track  `json:"item,omitempty"`
	ProgressMS int     `json:"progress_ms"`
}

// Spotify Web API implementation of [PlaybackController]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	DefaultRedirectURI = "http://127.0.0.1:3000/callback"
)

// Scopes requested during authorization. Playback control needs a Premium account.
var spotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// Track converts t to the service-neutral [Track].
func (t SpotifyTrack) Track() Track {
	track := Track{
		ID:       t.ID,
		Title:    t.Name,
		Album:    t.Album.Name,
		Duration: t.DurationMS / 1000,
		URI:      t.URI,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifyDevice represents a device from /me/player/devices.
type SpotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent *int   `json:"volume_percent"`
}

// Device converts d to the service-neutral [Device].
func (d SpotifyDevice) Device() Device {
	device := Device{ID: d.ID, Name: d.Name, Type: d.Type, Active: d.IsActive}
	if d.VolumePercent != nil {
		device.VolumePercent = *d.VolumePercent
	}
	return device
}

// SpotifyPlayback represents the response of /me/player.
type SpotifyPlayback struct {
	Device     *SpotifyDevice `json:"device"`
	IsPlaying  bool           `json:"is_playing"`
	ProgressMS int            `json:"progress_ms"`
	Item       *SpotifyTrack  `json:"item"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// SpotifyService implements [PlaybackController] and [OAuthService] for the Spotify Web API.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	credentials    map[string]string
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
	logger         *log.Logger
	breaker        *gobreaker.CircuitBreaker
	maxRetries     int
	baseBackoff    time.Duration
	timeout        time.Duration
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		baseURL:     spotifyBaseURL,
		logger:      shared.WithLogger(shared.NewLogger(nil), "service", "spotify"),
	}
	s.SetResilience(shared.DefaultConfig().HTTP)
	return s, nil
}

// SetLogger replaces the service logger.
func (s *SpotifyService) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = shared.WithLogger(l, "service", "spotify")
	}
}

// SetBaseURL points the service at a different API root, e.g. a test server.
func (s *SpotifyService) SetBaseURL(u string) {
	s.baseURL = strings.TrimSuffix(u, "/")
}

// SetResilience configures request timeout, retries and the circuit breaker.
func (s *SpotifyService) SetResilience(cfg shared.HTTPConfig) {
	s.maxRetries = cfg.MaxRetries
	s.baseBackoff = cfg.RetryBackoff()
	s.timeout = cfg.Timeout()

	failures := uint32(cfg.BreakerFailures)
	if failures == 0 {
		failures = 5
	}
	reset := cfg.BreakerReset()
	if reset <= 0 {
		reset = 30 * time.Second
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "spotify",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     reset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// SetTokenRefreshCallback registers fn to be called whenever the token source hands out a new token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
//
// A "refresh_token" entry, when present, is used to renew the access token.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate configures the HTTP client with token, refreshing it as needed.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token is nil", shared.ErrNotAuthenticated)
	}

	s.token = token
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		last:     token,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
	return nil
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and reports every new token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     *oauth2.Token
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, r.refreshError(err)
	}

	r.mu.Lock()
	changed := r.last == nil || r.last.AccessToken != token.AccessToken
	r.last = token
	r.mu.Unlock()

	if changed && r.callback != nil {
		func() {
			defer func() { _ = recover() }()
			r.callback(token)
		}()
	}
	return token, nil
}

// refreshError classifies a failed token fetch. Errors a new login can fix wrap [shared.ErrTokenExpired].
func (r *refreshableTokenSource) refreshError(err error) error {
	r.mu.Lock()
	last := r.last
	r.mu.Unlock()

	var retrieveErr *oauth2.RetrieveError
	switch {
	case errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_client":
		return fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err)
	case last != nil && last.RefreshToken == "":
		return fmt.Errorf("%w: %w: %w", shared.ErrNoRefreshToken, shared.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w: %w", shared.ErrRefreshFailed, shared.ErrTokenExpired, err)
	}
}

// doRequest performs an authenticated JSON request against the Spotify API.
//
// query may be nil. body, when non-nil, is encoded as JSON. result, when non-nil, receives the decoded response.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.doRequestWithRetry(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	if err != nil {
		return err
	}

	resp := out.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.statusError(endpoint, resp)
	}

	s.logger.Debug("spotify request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	if result != nil && resp.StatusCode != http.StatusNoContent {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusError maps a non-2xx response to a typed error.
func (s *SpotifyService) statusError(endpoint string, resp *http.Response) error {
	var apiErr spotifyError
	msg := ""
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, msg)
	case resp.StatusCode == http.StatusNotFound && strings.HasPrefix(endpoint, "/me/player"):
		return fmt.Errorf("%w: %s", shared.ErrNoActiveDevice, msg)
	default:
		return fmt.Errorf("%w: status %d %s", shared.ErrAPIRequest, resp.StatusCode, msg)
	}
}

func deviceQuery(deviceID string) url.Values {
	if deviceID == "" {
		return nil
	}
	return url.Values{"device_id": {deviceID}}
}

// trackURI returns the spotify:track: URI for id, which may already be a URI.
func trackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return "spotify:track:" + id
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Search searches the catalog for tracks. limit is clamped to 1..50.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	limit = min(max(limit, 1), 50)

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var response spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search", params, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, item.Track())
	}
	return tracks, nil
}

// Enqueue adds a track to the end of the user's queue.
func (s *SpotifyService) Enqueue(ctx context.Context, trackID, deviceID string) error {
	params := url.Values{"uri": {trackURI(trackID)}}
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}
	return s.doRequest(ctx, http.MethodPost, "/me/player/queue", params, nil, nil)
}

// EnqueueAndSkipTo queues the track and skips to it.
func (s *SpotifyService) EnqueueAndSkipTo(ctx context.Context, trackID, deviceID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: empty track id", shared.ErrInvalidInput)
	}
	if err := s.Enqueue(ctx, trackID, deviceID); err != nil {
		return fmt.Errorf("failed to queue track: %w", err)
	}
	if err := s.Next(ctx, deviceID); err != nil {
		return fmt.Errorf("failed to skip to queued track: %w", err)
	}
	return nil
}

func (s *SpotifyService) Pause(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", deviceQuery(deviceID), nil, nil)
}

func (s *SpotifyService) Resume(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", deviceQuery(deviceID), nil, nil)
}

func (s *SpotifyService) Next(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/next", deviceQuery(deviceID), nil, nil)
}

func (s *SpotifyService) Previous(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", deviceQuery(deviceID), nil, nil)
}

func (s *SpotifyService) SetVolume(ctx context.Context, percent int, deviceID string) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume %d out of range 0-100", shared.ErrInvalidArgument, percent)
	}
	params := url.Values{"volume_percent": {strconv.Itoa(percent)}}
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player/volume", params, nil, nil)
}

// Devices lists the user's available devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]Device, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, nil, &response); err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(response.Devices))
	for _, d := range response.Devices {
		devices = append(devices, d.Device())
	}
	return devices, nil
}

// ActiveDevice returns the active device, or [shared.ErrNoActiveDevice] when none is active.
func (s *SpotifyService) ActiveDevice(ctx context.Context) (*Device, error) {
	devices, err := s.Devices(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Active {
			return &d, nil
		}
	}
	return nil, shared.ErrNoActiveDevice
}

// TransferPlayback moves playback to deviceID, starting it when play is true.
func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	if deviceID == "" {
		return fmt.Errorf("%w: empty device id", shared.ErrInvalidInput)
	}
	body := map[string]any{"device_ids": []string{deviceID}, "play": play}
	return s.doRequest(ctx, http.MethodPut, "/me/player", nil, body, nil)
}

func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*PlaybackState, error) {
	var playback SpotifyPlayback
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, nil, &playback); err != nil {
		return nil, err
	}

	state := &PlaybackState{Playing: playback.IsPlaying, ProgressMS: playback.ProgressMS}
	if playback.Device != nil {
		d := playback.Device.Device()
		state.Device = &d
	}
	if playback.Item != nil {
		t := playback.Item.Track()
		state.Item = &t
	}
	return state, nil
}

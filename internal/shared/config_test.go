package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./spvc.db" {
			t.Errorf("expected database path ./spvc.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Interpreter.Language != "es" {
			t.Errorf("expected interpreter language es, got %s", config.Interpreter.Language)
		}

		if config.Player.VolumeStep != 10 {
			t.Errorf("expected volume step 10, got %d", config.Player.VolumeStep)
		}

		if config.HTTP.RetryBackoff() != 500*time.Millisecond {
			t.Errorf("expected retry backoff 500ms, got %v", config.HTTP.RetryBackoff())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[interpreter]
language = "en"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected server addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Interpreter.Language != "en" {
			t.Errorf("expected interpreter language en, got %s", config.Interpreter.Language)
		}

		if config.Player.VolumeStep != 10 {
			t.Errorf("missing keys should keep defaults, got volume step %d", config.Player.VolumeStep)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Player.DeviceID = "device-1"
		config.Credentials.Spotify.RefreshToken = "refresh"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Player.DeviceID != "device-1" {
			t.Errorf("expected device id device-1, got %s", loaded.Player.DeviceID)
		}
		if loaded.Credentials.Spotify.RefreshToken != "refresh" {
			t.Errorf("expected refresh token refresh, got %s", loaded.Credentials.Spotify.RefreshToken)
		}
	})

	t.Run("SaveConfig nil", func(t *testing.T) {
		err := SaveConfig(filepath.Join(t.TempDir(), "config.toml"), nil)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Update", func(t *testing.T) {
		var sc SpotifyConfig
		expiry := time.Now().Add(time.Hour)
		if err := sc.Update(&oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sc.AccessToken != "a" || sc.RefreshToken != "r" || !sc.TokenExpiry.Equal(expiry) {
			t.Errorf("token not copied: %+v", sc)
		}
	})

	t.Run("Update keeps refresh token when absent", func(t *testing.T) {
		sc := SpotifyConfig{RefreshToken: "keep"}
		if err := sc.Update(&oauth2.Token{AccessToken: "new"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sc.RefreshToken != "keep" {
			t.Errorf("expected refresh token to be kept, got %s", sc.RefreshToken)
		}
	})

	t.Run("Update nil", func(t *testing.T) {
		var sc SpotifyConfig
		if err := sc.Update(nil); err == nil {
			t.Error("expected error for nil token")
		}
	})

	t.Run("Token", func(t *testing.T) {
		if (SpotifyConfig{}).Token() != nil {
			t.Error("expected nil token for empty config")
		}

		tok := SpotifyConfig{AccessToken: "a", RefreshToken: "r"}.Token()
		if tok == nil || tok.AccessToken != "a" || tok.RefreshToken != "r" {
			t.Errorf("unexpected token %+v", tok)
		}
	})

	t.Run("Map", func(t *testing.T) {
		m := SpotifyConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "uri"}.Map()
		if m["client_id"] != "id" || m["client_secret"] != "secret" || m["redirect_uri"] != "uri" {
			t.Errorf("unexpected map %v", m)
		}
	})
}

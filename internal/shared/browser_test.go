package shared

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCmd
	t.Cleanup(func() { getRuntime, startCmd = origRuntime, origStart })

	tc := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			var got *exec.Cmd
			getRuntime = func() string { return tt.goos }
			startCmd = func(c *exec.Cmd) error { got = c; return nil }

			err := OpenBrowser("https://accounts.spotify.com/authorize")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unsupported platform")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || got.Args[0] != tt.want {
				t.Errorf("expected %s command, got %+v", tt.want, got)
			}
		})
	}

	t.Run("start failure", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCmd = func(*exec.Cmd) error { return errors.New("boom") }

		err := OpenBrowser("https://example.com")
		if err == nil || !strings.Contains(err.Error(), "failed to open browser") {
			t.Errorf("expected wrapped start error, got %v", err)
		}
	})
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/services"
)

// MockController is a test double for [services.PlaybackController].
//
// Search answers from Results keyed by query. Calls are recorded in order as
// "method" or "method:arg" strings. Errors in Errs are returned by the method of the same name.
type MockController struct {
	mu sync.Mutex

	Results map[string][]services.Track
	Device  *services.Device
	State   *services.PlaybackState
	Errs    map[string]error

	calls []string
}

func (m *MockController) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)

	method := call
	for i, r := range call {
		if r == ':' {
			method = call[:i]
			break
		}
	}
	return m.Errs[method]
}

// Calls returns a copy of the recorded calls.
func (m *MockController) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockController) Search(ctx context.Context, query string, limit int) ([]services.Track, error) {
	if err := m.record("search:" + query); err != nil {
		return nil, err
	}
	tracks := m.Results[query]
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (m *MockController) EnqueueAndSkipTo(ctx context.Context, trackID, deviceID string) error {
	return m.record("enqueue:" + trackID)
}

func (m *MockController) Pause(ctx context.Context, deviceID string) error {
	return m.record("pause")
}

func (m *MockController) Resume(ctx context.Context, deviceID string) error {
	return m.record("resume")
}

func (m *MockController) Next(ctx context.Context, deviceID string) error {
	return m.record("next")
}

func (m *MockController) Previous(ctx context.Context, deviceID string) error {
	return m.record("previous")
}

func (m *MockController) SetVolume(ctx context.Context, percent int, deviceID string) error {
	if err := m.record("volume:" + strconv.Itoa(percent)); err != nil {
		return err
	}
	m.mu.Lock()
	if m.Device != nil {
		m.Device.VolumePercent = percent
	}
	m.mu.Unlock()
	return nil
}

func (m *MockController) ActiveDevice(ctx context.Context) (*services.Device, error) {
	if err := m.record("device"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Device == nil {
		return nil, errors.New("no active device")
	}
	d := *m.Device
	return &d, nil
}

func (m *MockController) CurrentPlayback(ctx context.Context) (*services.PlaybackState, error) {
	if err := m.record("playback"); err != nil {
		return nil, err
	}
	if m.State == nil {
		return &services.PlaybackState{}, nil
	}
	s := *m.State
	return &s, nil
}

func (m *MockController) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

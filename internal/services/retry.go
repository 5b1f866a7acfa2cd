package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/JeronimoAR/SpotifyVoiceController/internal/shared"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// doRequestWithRetry sends req, retrying transport errors, 429 and 5xx responses.
// The request body is buffered so it can be replayed.
func (s *SpotifyService) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	maxRetries := s.maxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	baseBackoff := s.baseBackoff
	if baseBackoff <= 0 {
		baseBackoff = defaultBackoff
	}

	if req.Body != nil && req.GetBody == nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		_ = req.Body.Close()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyBytes)), nil
		}
	}

	ctx := req.Context()
	for attempt := range maxRetries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("request canceled: %w", err)
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to reset request body: %w", err)
			}
			req.Body = body
		}

		resp, err := s.httpClient.Do(req)
		retryAfter, retry := shouldRetry(resp, err)
		if !retry {
			return resp, err
		}

		status := 0
		if err != nil {
			s.logger.Warn("retrying spotify request", "attempt", attempt+1, "max", maxRetries, "error", err)
		} else {
			status = resp.StatusCode
			s.logger.Warn("retrying spotify request", "attempt", attempt+1, "max", maxRetries, "status", status)
			_ = resp.Body.Close()
		}

		if attempt == maxRetries-1 {
			switch {
			case err != nil:
				return nil, fmt.Errorf("%w: failed after %d attempts: %w", shared.ErrAPIRequest, maxRetries, err)
			case status == http.StatusTooManyRequests:
				return nil, fmt.Errorf("%w: failed after %d attempts", shared.ErrRateLimited, maxRetries)
			default:
				return nil, fmt.Errorf("%w: failed after %d attempts: status %d", shared.ErrServiceUnavailable, maxRetries, status)
			}
		}

		backoff := baseBackoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			backoff = retryAfter
		}

		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: failed after %d attempts", shared.ErrAPIRequest, maxRetries)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		// A rejected token or client fails the same way on every attempt.
		return 0, !errors.Is(err, shared.ErrTokenExpired) && !errors.Is(err, shared.ErrInvalidCredentials)
	}
	if resp == nil {
		return 0, false
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}

	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}

	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Package services defines the [PlaybackController] interface and implements it for the Spotify Web API.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
// Refreshed tokens are reported through [SpotifyService.SetTokenRefreshCallback] so the CLI can persist them.
//
// Every API call goes through a circuit breaker and a retry loop. Requests that fail with a
// transport error, 429 or 5xx are retried with exponential backoff, honoring Retry-After.
// Once the breaker opens, calls fail fast with [shared.ErrServiceUnavailable] until it half-opens again.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrNoActiveDevice] : player endpoint returned 404, no device is available
//   - [shared.ErrRateLimited] : retries exhausted on 429
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services

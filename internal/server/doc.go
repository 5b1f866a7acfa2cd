// Package server provides the local HTTP listener used by "spvc auth login".
//
// [OAuthHandler] serves the redirect URI (/callback). It checks the state parameter,
// exchanges the authorization code through golang.org/x/oauth2 and publishes exactly one
// [OAuthResult]. The handler is single use.
//
// [BasicRouter] registers handlers on an [http.ServeMux] behind a [Middleware] stack.
// [LoggingMiddleware] and [RecoverMiddleware] are the stock middleware.
//
// [Server] wraps [http.Server] for the lifetime of one authorization: Start binds the
// listener synchronously so port conflicts surface immediately, and Shutdown stops it.
package server

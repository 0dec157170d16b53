// Package server provides HTTP routing, middleware, and the handlers behind the CLI login flow and the web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging], [CORS] and [Recover] are the stack used by `universe serve`.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the one-shot callback of `universe auth spotify`.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback.
//
// # Universe Handler
//
// UniverseHandler serves the browser-facing API:
//
//	GET /callback?code=        exchanges the code and returns the token as JSON
//	GET /spotify_config        client id and redirect uri for the login link
//	GET /debug                 how the service sees its own URLs
//	GET /get_data              Bearer-authenticated fetch of the current user's artists
//	GET /api/layout?focus=     layout of the latest snapshot focused on one planet
//	GET /api/compare?selected= comparison pair for two artists
//	GET /universe.svg?focus=   the same layout drawn as SVG
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

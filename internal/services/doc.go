// Package services implements the HTTP clients that feed the universe.
//
// # Spotify
//
// [SpotifyService] implements [OAuthService] and [ArtistSource]. It uses OAuth2 with the
// user-top-read scope and reads /me/top/artists. The [oauth2.Client] refreshes expired
// tokens automatically when a refresh token is known; [SpotifyService.Token] returns the
// current (possibly refreshed) token so callers can persist it.
//
// # Last.fm
//
// [LastFMService] implements [PlayCounter] with artist.getinfo. Without an API key every
// artist has a play count of 0, matching how the universe behaves with scrobbles disabled.
// Lookups share a [rate.Limiter].
//
// # Images
//
// [ImageStore] implements [ImageFetcher], saving the largest artist image under a
// filesystem-safe name and returning the relative path the web page loads it from.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : Spotify answered 401, reauthorization needed
//   - [shared.ErrServiceUnavailable] : rate limited or 5xx
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrArtistNotFound] : Last.fm has no such artist
package services

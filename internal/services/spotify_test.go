package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/universe/internal/shared"
	"golang.org/x/oauth2"
)

func testCredentials() map[string]string {
	return map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}
}

func newAuthenticatedService(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewSpotifyService(testCredentials())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	svc.SetBaseURL(srv.URL)

	if err := svc.Authenticate(context.Background(), map[string]string{"access_token": "token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return svc
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			creds := testCredentials()
			creds["redirect_uri"] = "http://localhost:5000/callback"

			srv, err := NewSpotifyService(creds)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.GetOAuthConfig().RedirectURL != "http://localhost:5000/callback" {
				t.Errorf("unexpected redirect uri %s", srv.GetOAuthConfig().RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL != DefaultRedirectURI {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		for _, want := range []string{"accounts.spotify.com/authorize", "state=test_state", "user-top-read", "client_id=test_client_id"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("expected auth URL to contain %q, got %s", want, authURL)
			}
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials())

		if err := srv.Authenticate(context.Background(), map[string]string{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if err := srv.OAuthenticate(context.Background(), &oauth2.Token{}); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
		if _, err := srv.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "abc"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		token, err := srv.Token()
		if err != nil {
			t.Fatalf("expected token, got %v", err)
		}
		if token.AccessToken != "abc" {
			t.Errorf("expected access token abc, got %s", token.AccessToken)
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("failed to parse form: %v", err)
			}
			if r.Form.Get("code") != "good" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"exchanged","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
		}))
		defer tokenSrv.Close()

		srv, _ := NewSpotifyService(testCredentials())
		srv.GetOAuthConfig().Endpoint.TokenURL = tokenSrv.URL

		token, err := srv.Exchange(context.Background(), "good")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "exchanged" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}

		if _, err := srv.Exchange(context.Background(), "bad"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if _, err := srv.Exchange(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("TopArtists", func(t *testing.T) {
		svc := newAuthenticatedService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/top/artists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("limit"); got != "50" {
				t.Errorf("expected limit 50, got %s", got)
			}
			if got := r.URL.Query().Get("time_range"); got != "long_term" {
				t.Errorf("expected long_term, got %s", got)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer token" {
				t.Errorf("expected bearer token, got %q", got)
			}

			json.NewEncoder(w).Encode(SpotifyTopArtists{Items: []SpotifyArtist{
				{ID: "1", Name: "Boards of Canada", Popularity: 60, Images: []SpotifyImage{
					{URL: "small", Width: 160}, {URL: "large", Width: 640},
				}},
				{ID: "2", Name: "Autechre"},
			}})
		})

		artists, err := svc.TopArtists(context.Background(), 0, "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(artists) != 2 {
			t.Fatalf("expected 2 artists, got %d", len(artists))
		}
		if artists[0].Name != "Boards of Canada" || artists[0].ImageURL != "large" {
			t.Errorf("unexpected first artist %+v", artists[0])
		}
		if artists[1].ImageURL != "" {
			t.Errorf("expected no image, got %q", artists[1].ImageURL)
		}
	})

	t.Run("TopArtists invalid time range", func(t *testing.T) {
		svc := newAuthenticatedService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		if _, err := svc.TopArtists(context.Background(), 10, "forever"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Status mapping", func(t *testing.T) {
		tc := []struct {
			name   string
			status int
			want   error
		}{
			{name: "unauthorized", status: http.StatusUnauthorized, want: shared.ErrTokenExpired},
			{name: "rate limited", status: http.StatusTooManyRequests, want: shared.ErrServiceUnavailable},
			{name: "server error", status: http.StatusBadGateway, want: shared.ErrServiceUnavailable},
			{name: "forbidden", status: http.StatusForbidden, want: shared.ErrAPIRequest},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				svc := newAuthenticatedService(t, func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				})
				if _, err := svc.UserProfile(context.Background()); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("UserProfile", func(t *testing.T) {
		svc := newAuthenticatedService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"listener","display_name":"A Listener","product":"premium"}`))
		})
		user, err := svc.UserProfile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "listener" || user.DisplayName != "A Listener" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		srv, _ := NewSpotifyService(testCredentials())
		if _, err := srv.UserProfile(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/universe/internal/models"
	"github.com/desertthunder/universe/internal/render"
	"github.com/desertthunder/universe/internal/services"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/universe"
)

// BuildFunc fetches a fresh dataset on behalf of the holder of an access token.
type BuildFunc func(ctx context.Context, accessToken string) (universe.Dataset, error)

// SnapshotStore persists fetched datasets.
//
// Satisfied by repositories.SnapshotRepository.
type SnapshotStore interface {
	Create(snapshot *models.Snapshot) error
	Latest(spotifyUser string) (*models.Snapshot, error)
}

// UniverseHandlerOpts configures a [UniverseHandler].
type UniverseHandlerOpts struct {
	OAuth     services.OAuthService
	Build     BuildFunc
	Snapshots SnapshotStore
	Universe  shared.UniverseConfig
	Logger    *log.Logger
}

// UniverseHandler serves the token exchange, the dataset and projections of the latest snapshot.
//
// Every layout request builds its own [universe.Session] so no controller state is shared between requests.
type UniverseHandler struct {
	oauth     services.OAuthService
	build     BuildFunc
	snapshots SnapshotStore
	config    shared.UniverseConfig
	logger    *log.Logger
}

// NewUniverseHandler creates a [UniverseHandler].
func NewUniverseHandler(opts UniverseHandlerOpts) *UniverseHandler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &UniverseHandler{
		oauth:     opts.OAuth,
		build:     opts.Build,
		snapshots: opts.Snapshots,
		config:    opts.Universe,
		logger:    logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *UniverseHandler) Routes() []string {
	return []string{
		"/callback",
		"/spotify_config",
		"/debug",
		"/get_data",
		"/api/layout",
		"/api/compare",
		"/universe.svg",
	}
}

// ServeHTTP dispatches by path.
func (h *UniverseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch r.URL.Path {
	case "/callback":
		h.callback(w, r)
	case "/spotify_config":
		h.spotifyConfig(w, r)
	case "/debug":
		h.debug(w, r)
	case "/get_data":
		h.data(w, r)
	case "/api/layout":
		h.layout(w, r)
	case "/api/compare":
		h.compare(w, r)
	case "/universe.svg":
		h.svg(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// callback exchanges ?code= for a token and returns the token as JSON.
func (h *UniverseHandler) callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "No code provided")
		return
	}
	if h.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "Spotify is not configured")
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("token exchange failed", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Failed to get token",
			"details": err.Error(),
		})
		return
	}

	body := map[string]any{
		"access_token":  token.AccessToken,
		"token_type":    token.TokenType,
		"refresh_token": token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		body["expires_in"] = int64(time.Until(token.Expiry).Seconds())
	}
	if scope, ok := token.Extra("scope").(string); ok {
		body["scope"] = scope
	}
	writeJSON(w, http.StatusOK, body)
}

// spotifyConfig exposes the public half of the OAuth client config for the browser.
func (h *UniverseHandler) spotifyConfig(w http.ResponseWriter, _ *http.Request) {
	if h.oauth == nil {
		writeError(w, http.StatusServiceUnavailable, "Spotify is not configured")
		return
	}
	cfg := h.oauth.GetOAuthConfig()
	writeJSON(w, http.StatusOK, map[string]any{
		"client_id":    cfg.ClientID,
		"redirect_uri": cfg.RedirectURL,
		"scopes":       strings.Join(cfg.Scopes, " "),
	})
}

// debug echoes how the service sees its own URLs.
func (h *UniverseHandler) debug(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	root := scheme + "://" + r.Host

	redirect := ""
	if h.oauth != nil {
		redirect = h.oauth.GetOAuthConfig().RedirectURL
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"base_url":             root + r.URL.Path,
		"url_root":             root + "/",
		"host_url":             root + "/",
		"SPOTIFY_REDIRECT_URI": redirect,
		"expected_callback":    root + "/callback",
	})
}

// data builds a fresh dataset for the bearer of the Authorization header.
func (h *UniverseHandler) data(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
		return
	}
	if h.build == nil {
		writeError(w, http.StatusServiceUnavailable, "data source is not configured")
		return
	}

	ds, err := h.build(r.Context(), token)
	switch {
	case errors.Is(err, shared.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		h.logger.Error("build failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.snapshots != nil {
		snapshot := models.NewSnapshot(0, "", h.config.TimeRange, ds)
		if err := h.snapshots.Create(snapshot); err != nil {
			h.logger.Warn("could not store snapshot", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, ds)
}

// layoutResponse is the JSON projection of one focus transition.
type layoutResponse struct {
	Focus    int                   `json:"focus"`
	Label    string                `json:"label"`
	Viewport universe.Viewport     `json:"viewport"`
	Layout   universe.LayoutResult `json:"layout"`
	Artists  []universe.Entity     `json:"artists"`
}

// layout zooms to ?focus= (index) or ?artist= (name) within the latest snapshot.
func (h *UniverseHandler) layout(w http.ResponseWriter, r *http.Request) {
	session, status, err := h.session(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	resp := layoutResponse{Focus: -1, Viewport: session.Focus.Viewport(), Artists: session.Set.Entities()}
	if !session.Set.Empty() {
		focus, status, err := focusIndex(r, session.Set)
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		if err := session.Focus.ZoomTo(focus); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		resp.Focus = session.Focus.State().Index
		resp.Label = session.Focus.Label()
		resp.Layout, _ = session.Focus.Layout()
	}

	writeJSON(w, http.StatusOK, resp)
}

// compareResponse is a comparison pair plus its captions.
type compareResponse struct {
	universe.ComparisonPair
	LeftIndicator  string `json:"left_indicator"`
	RightIndicator string `json:"right_indicator"`
}

// compare opens ?selected= against ?target= (names) or ?target_index=.
func (h *UniverseHandler) compare(w http.ResponseWriter, r *http.Request) {
	session, status, err := h.session(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	if session.Set.Empty() {
		writeError(w, http.StatusNotFound, universe.ErrEmptyDataSet.Error())
		return
	}

	query := r.URL.Query()
	selected, ok := session.Set.ByName(query.Get("selected"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%v: %q", universe.ErrUnknownEntity, query.Get("selected")))
		return
	}

	pair, err := session.Comparison.Open(selected)
	if err == nil {
		switch {
		case query.Get("target") != "":
			pair, err = session.Comparison.SetComparisonTarget(universe.Entity{Name: query.Get("target")})
		case query.Get("target_index") != "":
			var i int
			if i, err = strconv.Atoi(query.Get("target_index")); err != nil {
				err = fmt.Errorf("%w: %v", universe.ErrInvalidIndex, err)
			} else {
				pair, err = session.Comparison.SetComparisonTargetIndex(i)
			}
		}
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, compareResponse{
		ComparisonPair: *pair,
		LeftIndicator:  pair.Indicator(universe.LeftSide),
		RightIndicator: pair.Indicator(universe.RightSide),
	})
}

// svg renders the layout for ?focus= as an SVG document.
func (h *UniverseHandler) svg(w http.ResponseWriter, r *http.Request) {
	session, status, err := h.session(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	focus := -1
	var layout universe.LayoutResult
	label := ""
	if !session.Set.Empty() {
		if focus, status, err = focusIndex(r, session.Set); err != nil {
			writeError(w, status, err.Error())
			return
		}
		if err := session.Focus.ZoomTo(focus); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		layout, _ = session.Focus.Layout()
		label = session.Focus.Label()
	}

	out, err := render.RenderSVG(session.Set.Entities(), layout, session.Focus.Viewport(), focus,
		render.WithLabel(label), render.WithNames(), render.WithImages(), render.WithTitle("Universe"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// session loads the latest snapshot into a new [universe.Session] sized to ?width= and ?height=.
func (h *UniverseHandler) session(r *http.Request) (*universe.Session, int, error) {
	if h.snapshots == nil {
		return nil, http.StatusServiceUnavailable, fmt.Errorf("snapshot storage is not configured")
	}

	snapshot, err := h.snapshots.Latest(r.URL.Query().Get("user"))
	if err != nil {
		if errors.Is(err, shared.ErrSnapshotNotFound) {
			return nil, http.StatusNotFound, err
		}
		return nil, http.StatusInternalServerError, err
	}

	vp := universe.Viewport{Width: h.config.ViewportWidth, Height: h.config.ViewportHeight}
	if vp.Width, err = floatParam(r, "width", vp.Width); err != nil {
		return nil, http.StatusBadRequest, err
	}
	if vp.Height, err = floatParam(r, "height", vp.Height); err != nil {
		return nil, http.StatusBadRequest, err
	}

	session, err := universe.New(snapshot.Dataset(), universe.Options{
		SelectedDiameter:   h.config.SelectedDiameter,
		ComparisonDiameter: h.config.ComparisonDiameter,
		Engine:             &universe.LayoutEngine{StartX: h.config.StartX, Gap: h.config.Gap, Margin: h.config.Margin},
		Viewport:           vp,
		Logger:             h.logger,
	})
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return session, http.StatusOK, nil
}

// focusIndex resolves ?artist= by name, else ?focus= by index, defaulting to 0.
func focusIndex(r *http.Request, set *universe.RankedEntitySet) (int, int, error) {
	query := r.URL.Query()
	if name := query.Get("artist"); name != "" {
		i, ok := set.IndexOf(name)
		if !ok {
			return 0, http.StatusNotFound, fmt.Errorf("%w: %s", universe.ErrUnknownEntity, name)
		}
		return i, http.StatusOK, nil
	}

	raw := query.Get("focus")
	if raw == "" {
		return 0, http.StatusOK, nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, http.StatusBadRequest, fmt.Errorf("%w: %q", universe.ErrInvalidIndex, raw)
	}
	return i, http.StatusOK, nil
}

func floatParam(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a positive number", shared.ErrInvalidArgument, name)
	}
	return v, nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, universe.ErrInvalidIndex), errors.Is(err, universe.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, universe.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

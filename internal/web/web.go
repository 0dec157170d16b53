// Package web renders the browser pages of `universe serve`.
//
// Pages are server-rendered with html/template and lean on the JSON and SVG endpoints of the server package:
//
//	GET /                  login link, finishes the OAuth redirect by calling /callback and /get_data
//	GET /universe?focus=   the focused planet, prev/next navigation and a comparison picker
//	GET /static/...        downloaded artist images
//
// Each request loads the latest snapshot into its own universe.Session.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/universe/internal/models"
	"github.com/desertthunder/universe/internal/render"
	"github.com/desertthunder/universe/internal/shared"
	"github.com/desertthunder/universe/internal/universe"
)

//go:embed templates/*.html
var templateFiles embed.FS

// AuthURLer builds the provider login URL for a state token.
type AuthURLer interface {
	GetAuthURL(state string) string
}

// SnapshotReader loads the most recent snapshot.
type SnapshotReader interface {
	Latest(spotifyUser string) (*models.Snapshot, error)
}

// PagesOpts configures [Pages].
type PagesOpts struct {
	Auth      AuthURLer
	Snapshots SnapshotReader
	Universe  shared.UniverseConfig
	Root      string // Directory the /static/ tree is served from
	Logger    *log.Logger
}

// Pages serves the HTML views.
type Pages struct {
	auth      AuthURLer
	snapshots SnapshotReader
	config    shared.UniverseConfig
	static    http.Handler
	templates *template.Template
	logger    *log.Logger
}

// NewPages parses the embedded templates.
func NewPages(opts PagesOpts) (*Pages, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Pages{
		auth:      opts.Auth,
		snapshots: opts.Snapshots,
		config:    opts.Universe,
		static:    http.FileServer(http.Dir(root)),
		templates: tmpl,
		logger:    logger,
	}, nil
}

// Routes returns the HTTP routes this handler serves.
func (p *Pages) Routes() []string {
	return []string{"/{$}", "/universe", "/static/"}
}

// ServeHTTP dispatches by path.
func (p *Pages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch {
	case r.URL.Path == "/":
		p.index(w, r)
	case r.URL.Path == "/universe":
		p.universe(w, r)
	case strings.HasPrefix(r.URL.Path, "/static/"):
		p.static.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

type indexPage struct {
	Title       string
	AuthURL     string
	HasSnapshot bool
	ArtistCount int
}

func (p *Pages) index(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Title: "Universe"}
	if p.auth != nil {
		state, err := shared.GenerateState()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		page.AuthURL = p.auth.GetAuthURL(state)
	}
	if snapshot, err := p.latest(r); err == nil {
		page.HasSnapshot = true
		page.ArtistCount = snapshot.ArtistCount()
	}

	p.render(w, "index.html", page)
}

type universePage struct {
	Title          string
	Empty          bool
	Label          string
	Focus          int
	Prev, Next     int
	HasPrev        bool
	HasNext        bool
	Last           int
	Artists        []universe.Entity
	CompareIndex   int
	Comparison     template.HTML
	LeftIndicator  string
	RightIndicator string
}

func (p *Pages) universe(w http.ResponseWriter, r *http.Request) {
	snapshot, err := p.latest(r)
	if errors.Is(err, shared.ErrSnapshotNotFound) {
		p.render(w, "universe.html", universePage{Title: "Universe", Empty: true})
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	vp := universe.Viewport{Width: p.config.ViewportWidth, Height: p.config.ViewportHeight}
	session, err := universe.New(snapshot.Dataset(), universe.Options{
		SelectedDiameter:   p.config.SelectedDiameter,
		ComparisonDiameter: p.config.ComparisonDiameter,
		Engine:             &universe.LayoutEngine{StartX: p.config.StartX, Gap: p.config.Gap, Margin: p.config.Margin},
		Viewport:           vp,
		Logger:             p.logger,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if session.Set.Empty() {
		p.render(w, "universe.html", universePage{Title: "Universe", Empty: true})
		return
	}

	focus, _ := strconv.Atoi(r.URL.Query().Get("focus"))
	if err := session.Focus.ZoomTo(focus); err != nil {
		if errors.Is(err, universe.ErrInvalidIndex) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	i := session.Focus.State().Index
	n := session.Set.Len()
	page := universePage{
		Title:        session.Focus.Label(),
		Label:        session.Focus.Label(),
		Focus:        i,
		Prev:         i - 1,
		Next:         i + 1,
		HasPrev:      i > 0,
		HasNext:      i < n-1,
		Last:         n - 1,
		Artists:      session.Set.Entities(),
		CompareIndex: -1,
	}

	if raw := r.URL.Query().Get("compare"); raw != "" {
		if err := p.compare(session, raw, vp, &page); err != nil {
			p.logger.Debug("comparison failed", "compare", raw, "error", err)
		}
	}

	p.render(w, "universe.html", page)
}

// compare fills the comparison section for the focused planet against target index raw.
func (p *Pages) compare(session *universe.Session, raw string, vp universe.Viewport, page *universePage) error {
	target, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", universe.ErrInvalidIndex, raw)
	}
	if _, err := session.CompareFocused(); err != nil {
		return err
	}
	pair, err := session.Comparison.SetComparisonTargetIndex(target)
	if err != nil {
		return err
	}

	page.CompareIndex = target
	page.Comparison = template.HTML(render.RenderComparisonSVG(*pair, universe.Viewport{Width: vp.Width, Height: vp.Height * 0.75},
		render.WithImages(), render.WithNames()))
	page.LeftIndicator = pair.Indicator(universe.LeftSide)
	page.RightIndicator = pair.Indicator(universe.RightSide)
	return nil
}

func (p *Pages) latest(r *http.Request) (*models.Snapshot, error) {
	if p.snapshots == nil {
		return nil, shared.ErrSnapshotNotFound
	}
	return p.snapshots.Latest(r.URL.Query().Get("user"))
}

func (p *Pages) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		p.logger.Error("template failed", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

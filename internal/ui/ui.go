package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/universe/internal/tasks"
	"github.com/desertthunder/universe/internal/universe"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	UniverseView
	CompareView
	PickerView
)

// chromeRows is the number of terminal rows not available to the planet canvas.
const chromeRows = 5

// LoadFunc produces the dataset shown by the TUI, reporting progress on the channel.
// It must not close the channel.
type LoadFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (universe.Dataset, error)

// ModelOpts configures a [Model].
type ModelOpts struct {
	Load       LoadFunc
	Universe   universe.Options // Viewport is derived from the terminal size
	CellWidth  float64          // Layout pixels per terminal column (default: 10)
	CellHeight float64          // Layout pixels per terminal row (default: 20)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	load         LoadFunc
	opts         universe.Options
	cellW        float64
	cellH        float64
	session      *universe.Session
	layout       universe.LayoutResult
	focus        int
	label        string
	pair         *universe.ComparisonPair
	picker       list.Model
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	doneChan     chan datasetLoaded
	progress     tasks.ProgressUpdate
	width        int
	height       int
	notice       string
	err          error
	help         help.Model
	keys         keyMap
}

var (
	_ universe.LayoutObserver     = (*Model)(nil)
	_ universe.ComparisonObserver = (*Model)(nil)
)

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	cellW, cellH := opts.CellWidth, opts.CellHeight
	if cellW <= 0 {
		cellW = DefaultCellWidth
	}
	if cellH <= 0 {
		cellH = DefaultCellHeight
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.focus

	return &Model{
		ctx:     ctx,
		view:    LoadingView,
		load:    opts.Load,
		opts:    opts.Universe,
		cellW:   cellW,
		cellH:   cellH,
		spinner: s,
		width:   80,
		height:  24,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts loading the dataset.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startLoad())
}

// OnLayoutComputed records each layout published by the focus controller.
func (m *Model) OnLayoutComputed(result universe.LayoutResult, focusIndex int, label string) {
	m.layout, m.focus, m.label = result, focusIndex, label
}

// OnComparisonComputed records each pair published by the comparison controller.
func (m *Model) OnComparisonComputed(pair universe.ComparisonPair) {
	m.pair = &pair
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.session != nil {
			m.picker.SetSize(msg.Width-4, msg.Height-4)
			m.report(m.session.Focus.Resize(m.viewport()))
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != LoadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if m.err != nil || m.view == LoadingView {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

		switch m.view {
		case UniverseView:
			return m.handleUniverseKeys(msg)
		case CompareView:
			return m.handleCompareKeys(msg)
		case PickerView:
			return m.handlePickerKeys(msg)
		}
	}

	if m.view == PickerView {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgDatasetLoaded:
		loaded := msg.data.(datasetLoaded)
		m.progressChan, m.doneChan = nil, nil
		if loaded.err != nil {
			m.err = loaded.err
			return m, nil
		}
		if err := m.start(loaded.dataset); err != nil {
			m.err = err
		}
		return m, nil
	}
	return m, nil
}

// start wires a new session to the model and zooms to the first planet.
func (m *Model) start(ds universe.Dataset) error {
	opts := m.opts
	opts.Viewport = m.viewport()

	session, err := universe.New(ds, opts)
	if err != nil {
		return err
	}
	session.Focus.Observe(m)
	session.Comparison.Observe(m)

	m.session = session
	m.view = UniverseView

	m.picker = list.New(artistItems(session.Set.Entities()), list.NewDefaultDelegate(), m.width-4, m.height-4)
	m.picker.Title = "Compare with"
	m.picker.KeyMap.Quit.SetEnabled(false)

	if err := session.Focus.Init(); err != nil {
		m.report(err)
	}
	return nil
}

func (m *Model) handleUniverseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focus := m.session.Focus

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.prev):
		m.report(focus.Prev())
	case key.Matches(msg, m.keys.next):
		m.report(focus.Next())
	case key.Matches(msg, m.keys.first):
		m.report(focus.First())
	case key.Matches(msg, m.keys.last):
		m.report(focus.Last())
	case key.Matches(msg, m.keys.compare):
		pair, err := m.session.CompareFocused()
		m.report(err)
		if err == nil && pair != nil {
			m.view = CompareView
		}
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) handleCompareKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.session.Comparison.Close()
		m.pair = nil
		m.view = UniverseView
	case key.Matches(msg, m.keys.target), key.Matches(msg, m.keys.enter):
		if i, ok := m.session.Comparison.TargetIndex(); ok {
			m.picker.Select(i)
		}
		m.view = PickerView
	}
	return m, nil
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back) && m.picker.FilterState() == list.Unfiltered:
		m.view = CompareView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.picker.SelectedItem().(artistItem); ok {
			_, err := m.session.Comparison.SetComparisonTargetIndex(item.index)
			m.report(err)
		}
		m.view = CompareView
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// report shows a non-fatal controller error under the canvas, or clears it.
func (m *Model) report(err error) {
	m.notice = ""
	if err != nil {
		m.notice = err.Error()
	}
}

func (m *Model) startLoad() tea.Cmd {
	if m.load == nil {
		return func() tea.Msg { return datasetLoadedMsg(universe.Dataset{}, fmt.Errorf("no data source configured")) }
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan datasetLoaded, 1)
	m.progressChan, m.doneChan = progress, done

	go func() {
		ds, err := m.load(m.ctx, progress)
		close(progress)
		done <- datasetLoaded{dataset: ds, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		loaded := <-done
		return datasetLoadedMsg(loaded.dataset, loaded.err)
	}
}

// canvasSize returns the terminal cells available to the planets.
func (m *Model) canvasSize() (int, int) {
	return max(m.width, 1), max(m.height-chromeRows, 1)
}

// viewport converts the canvas size to layout pixels.
func (m *Model) viewport() universe.Viewport {
	cols, rows := m.canvasSize()
	return universe.Viewport{Width: float64(cols) * m.cellW, Height: float64(rows) * m.cellH}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case UniverseView:
		return m.renderUniverse()
	case CompareView:
		return m.renderCompare()
	case PickerView:
		return m.renderPicker()
	default:
		return ""
	}
}

func (m *Model) renderLoading() string {
	msg := m.progress.Message
	if msg == "" {
		msg = "Loading your universe..."
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), msg, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderUniverse() string {
	if m.session.Set.Empty() {
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render("No planets to show."), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}

	cols, rows := m.canvasSize()
	c := newCanvas(cols, rows, m.cellW, m.cellH)
	c.drawLayout(m.session.Set.Entities(), m.layout)

	body := c.render(func(kind int) lipgloss.Style {
		switch {
		case kind == m.focus:
			return styles.focus
		case kind == textCell:
			return styles.help
		default:
			return styles.planet
		}
	})

	header := styles.ok.Render(m.label) + styles.help.Render(fmt.Sprintf("  %d/%d", m.focus+1, m.session.Set.Len()))
	return fmt.Sprintf("%s\n%s\n%s\n%s", header, body, m.renderNotice(), m.help.View(m.keys))
}

func (m *Model) renderCompare() string {
	if m.pair == nil {
		return ""
	}

	cols, rows := m.canvasSize()
	c := newCanvas(cols, rows, m.cellW, m.cellH)
	l := pairLayout(*m.pair, c.viewport())
	c.drawLayout([]universe.Entity{m.pair.Left, m.pair.Right}, l)

	body := c.render(func(kind int) lipgloss.Style {
		switch {
		case kind == textCell:
			return styles.help
		case kind >= 0 && m.pair.IsReference(universe.Side(kind)):
			return styles.focus
		default:
			return styles.planet
		}
	})

	header := styles.ok.Render(fmt.Sprintf("%s vs %s", m.pair.Left.Name, m.pair.Right.Name))
	captions := fmt.Sprintf("%s    %s", m.pair.Indicator(universe.LeftSide), m.pair.Indicator(universe.RightSide))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.target, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n%s", header, body, captions, helpView)
}

func (m *Model) renderPicker() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n\n%s", m.picker.View(), helpView)
}

func (m *Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	return styles.warn.Render(m.notice)
}

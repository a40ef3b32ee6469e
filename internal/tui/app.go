// internal/tui/app.go
//
// This is the terminal front-end for meetpoint. It uses bubbletea, which
// follows The Elm Architecture: Update turns messages into state, View
// turns state into a string.
//
// The App owns no query state of its own. Everything lives in the
// session's cells; the App renders whichever Mode is current and turns key
// presses into Mode transitions.

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/meetpoint/internal/logbook"
	"github.com/kingrea/meetpoint/internal/mode"
	"github.com/kingrea/meetpoint/internal/model"
	"github.com/kingrea/meetpoint/internal/session"
	"github.com/kingrea/meetpoint/internal/store"
)

const aboutText = `Find somewhere everyone can walk to.

Add each person with their home coordinates and how many minutes they
are willing to walk. meetpoint lists the places every one of them can
reach, best average first.

Map data © OpenStreetMap contributors.`

// queryFinishedMsg carries the engine outcome back to the UI goroutine.
type queryFinishedMsg struct {
	people []model.Person
	pois   []model.POI
	err    error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook attaches the session log shown in the log panel.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithAPIKeySaver persists a tile key entered on the title screen. Without
// one the key only lasts for the session.
func WithAPIKeySaver(save func(string) error) AppOption {
	return func(a *App) {
		a.saveAPIKey = save
	}
}

// App is the bubbletea model.
type App struct {
	session    *session.Session
	logbook    *logbook.Logbook
	saveAPIKey func(string) error

	keyInput    textinput.Model
	enteringKey bool

	form     personForm
	selected int
	results  list.Model
	busy     bool

	statusMsg string
	width     int
	height    int

	unsubscribe store.Unsubscribe
}

// NewApp binds a UI to sess. Call Close when the program exits.
func NewApp(sess *session.Session, opts ...AppOption) *App {
	app := &App{
		session:  sess,
		keyInput: newKeyInput(),
		form:     newPersonForm(),
		results:  newResultsList(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.unsubscribe = sess.Mode.Subscribe(app.syncMode)
	return app
}

// Close detaches the App from the session.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// syncMode keeps view-local state in step with the session's Mode.
func (a *App) syncMode(m mode.Mode) {
	switch cur := m.(type) {
	case mode.Results:
		a.results.SetItems(resultItems(cur))
		a.results.Select(0)
	case mode.Input:
		if a.selected >= len(cur.People) {
			a.selected = max(0, len(cur.People)-1)
		}
	default:
		a.selected = 0
		a.form.reset()
	}
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case queryFinishedMsg:
		return a.handleQueryFinished(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.busy {
			return a, nil
		}
		switch cur := a.session.Mode.Current().(type) {
		case mode.Input:
			return a.updateInput(msg, cur)
		case mode.Results:
			return a.updateResults(msg, cur)
		default:
			return a.updateTitle(msg)
		}
	}
	switch a.session.Mode.Current().(type) {
	case mode.Input:
		return a, a.form.Update(msg)
	case mode.Title:
		if a.enteringKey {
			var cmd tea.Cmd
			a.keyInput, cmd = a.keyInput.Update(msg)
			return a, cmd
		}
	}
	return a, nil
}

func (a *App) resize(width, height int) {
	a.width, a.height = width, height
	sidebar, mapWidth := splitWidth(width)
	bodyHeight := max(0, height-12)
	a.session.Sidebar.Set(session.Panel{Width: sidebar, Height: bodyHeight})
	a.session.MapPanel.Set(session.Panel{Width: mapWidth, Height: bodyHeight})
	a.results.SetSize(max(0, sidebar-4), max(0, bodyHeight-2))
}

// splitWidth divides the terminal between the sidebar and the map.
func splitWidth(width int) (int, int) {
	if width <= 0 {
		width = 100
	}
	sidebar := max(40, width*2/5)
	mapWidth := width - sidebar - 4
	if mapWidth < 20 {
		return width, 0
	}
	return sidebar, mapWidth
}

func (a *App) updateTitle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.enteringKey {
		return a.updateKeyEntry(msg)
	}
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "a":
		a.session.ShowAbout.Update(func(show bool) bool { return !show })
	case "k":
		a.statusMsg = ""
		a.enteringKey = true
		a.keyInput.SetValue(a.session.APIKey)
		a.keyInput.Focus()
	case "enter", "n":
		a.statusMsg = ""
		a.session.Mode.Begin()
	}
	return a, nil
}

func newKeyInput() textinput.Model {
	in := textinput.New()
	in.Prompt = "Tile key: "
	in.Placeholder = "MapTiler API key"
	in.EchoMode = textinput.EchoPassword
	in.CharLimit = 128
	return in
}

func (a *App) updateKeyEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeKeyEntry()
		a.statusMsg = ""
		return a, nil
	case "enter":
		key := strings.TrimSpace(a.keyInput.Value())
		if key == "" {
			a.statusMsg = "Enter a key or press esc"
			return a, nil
		}
		if a.saveAPIKey != nil {
			if err := a.saveAPIKey(key); err != nil {
				a.statusMsg = fmt.Sprintf("Could not save key: %v", err)
				a.logError("Save tile key failed: %v", err)
				return a, nil
			}
			a.statusMsg = "Tile key saved"
		} else {
			a.statusMsg = "Tile key set for this session"
		}
		a.session.APIKey = key
		a.logInfo("Tile key updated")
		a.closeKeyEntry()
		return a, nil
	}
	var cmd tea.Cmd
	a.keyInput, cmd = a.keyInput.Update(msg)
	return a, cmd
}

func (a *App) closeKeyEntry() {
	a.enteringKey = false
	a.keyInput.Blur()
	a.keyInput.Reset()
}

func (a *App) updateInput(msg tea.KeyMsg, in mode.Input) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.statusMsg = ""
		a.session.Mode.Reset()
		return a, nil
	case "tab", "down":
		return a, a.form.cycle(1)
	case "shift+tab", "up":
		return a, a.form.cycle(-1)
	case "enter":
		a.savePerson(in)
		return a, nil
	case "ctrl+n":
		if a.selected < len(in.People)-1 {
			a.selected++
		}
		return a, nil
	case "ctrl+p":
		if a.selected > 0 {
			a.selected--
		}
		return a, nil
	case "ctrl+e":
		if a.selected < len(in.People) {
			a.form.load(a.selected, in.People[a.selected])
		}
		return a, nil
	case "ctrl+d":
		if a.selected < len(in.People) {
			name := in.People[a.selected].Name
			a.form.editing = -1
			a.session.Mode.Set(in.Without(name))
			a.statusMsg = fmt.Sprintf("Removed %s", name)
		}
		return a, nil
	case "ctrl+s":
		return a.submit(in)
	}
	return a, a.form.Update(msg)
}

// savePerson adds the form's person, or replaces the one being edited,
// when the resulting group is valid.
func (a *App) savePerson(in mode.Input) {
	p, err := a.form.person()
	if err != nil {
		a.statusMsg = err.Error()
		return
	}
	next := in.With(p)
	if a.form.editing >= 0 {
		next = in.Replace(a.form.editing, p)
	}
	if err := model.ValidatePeople(next.People); err != nil {
		var fieldErr *model.FieldError
		if errors.As(err, &fieldErr) {
			a.statusMsg = fmt.Sprintf("%s %s", fieldErr.Field, fieldErr.Message)
		} else {
			a.statusMsg = err.Error()
		}
		return
	}
	a.form.reset()
	a.statusMsg = fmt.Sprintf("Saved %s", p.Name)
	a.session.Mode.Set(next)
	a.selected = model.IndexOf(next.People, p.Name)
}

// submit runs the engine off the UI goroutine.
func (a *App) submit(in mode.Input) (tea.Model, tea.Cmd) {
	if len(in.People) == 0 {
		a.statusMsg = "Add at least one person first"
		return a, nil
	}
	people := append([]model.Person{}, in.People...)
	a.busy = true
	a.statusMsg = fmt.Sprintf("Searching for %d people...", len(people))
	sess := a.session
	return a, func() tea.Msg {
		pois, err := sess.Query(context.Background(), people)
		return queryFinishedMsg{people: people, pois: pois, err: err}
	}
}

func (a *App) handleQueryFinished(msg queryFinishedMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		a.statusMsg = fmt.Sprintf("Search failed: %v", msg.err)
		a.logError("Search failed: %v", msg.err)
		return a, nil
	}
	if _, ok := a.session.Mode.Current().(mode.Input); !ok {
		return a, nil
	}
	a.session.ApplyResults(msg.people, msg.pois)
	a.statusMsg = fmt.Sprintf("%d places everyone can reach", len(msg.pois))
	return a, nil
}

func (a *App) updateResults(msg tea.KeyMsg, res mode.Results) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc":
		a.statusMsg = ""
		a.session.Mode.Reset()
		return a, nil
	case "e":
		a.statusMsg = ""
		a.session.Mode.Revise()
		return a, nil
	case "enter":
		if item, ok := a.results.SelectedItem().(poiItem); ok {
			a.logInfo("Focus · %s", item.poi.OSMURL)
			a.statusMsg = item.poi.OSMURL
			if err := a.session.Focus(context.Background(), item.poi); err != nil {
				a.statusMsg = fmt.Sprintf("%s · no routes: %v", item.poi.OSMURL, err)
				a.logError("Routes to %s failed: %v", item.poi.OSMURL, err)
			}
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.results, cmd = a.results.Update(msg)
	return a, cmd
}

// View renders the current state to a string.
func (a *App) View() string {
	sidebar, mapWidth := splitWidth(a.width)
	var content, hint string
	switch cur := a.session.Mode.Current().(type) {
	case mode.Input:
		content = a.renderInput(cur)
		hint = "enter save · tab next field · ctrl+n/p select · ctrl+e edit · ctrl+d remove · ctrl+s search · esc start over"
	case mode.Results:
		content = a.results.View()
		hint = "enter focus · e edit people · esc start over · q quit"
	default:
		content = a.renderTitle()
		hint = "enter start · k tile key · a about · q quit"
		if a.enteringKey {
			hint = "enter save key · esc cancel"
		}
	}
	return a.renderBoard(content, hint, sidebar, mapWidth)
}

func (a *App) renderTitle() string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Where should we meet?"),
		"Press enter to add people.",
	}
	if a.enteringKey {
		lines = append(lines, "", a.keyInput.View())
	}
	if a.session.ShowAbout.Get() {
		about := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1).
			Render(aboutText)
		lines = append(lines, "", about)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderInput(in mode.Input) string {
	rows := []string{lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("People (%d)", len(in.People)))}
	if len(in.People) == 0 {
		rows = append(rows, lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("Nobody yet."))
	}
	for idx, p := range in.People {
		cursor := "  "
		if idx == a.selected {
			cursor = "▸ "
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(model.ColorOf(idx))).Render("●")
		rows = append(rows, fmt.Sprintf("%s%s %s  %.4f,%.4f  %s min",
			cursor, swatch, p.Name, p.Home.Lon(), p.Home.Lat(), formatFloat(p.MaxTimeMinutes)))
	}
	return strings.Join(rows, "\n") + "\n\n" + a.form.View()
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	entries, total := a.logbook.Tail(6)
	if len(entries) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	lines := make([]string, len(entries))
	for i, entry := range entries {
		stamp := "        "
		if !entry.Time.IsZero() {
			stamp = entry.Time.Local().Format("15:04:05")
		}
		lines[i] = fmt.Sprintf("%s %s", stamp, levelStyle(entry.Level).Render(entry.Message))
	}
	body := strings.Join(lines, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func levelStyle(level logbook.Level) lipgloss.Style {
	switch level {
	case logbook.LevelError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	case logbook.LevelWarn:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C542"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	}
}

func (a *App) renderBoard(content, hint string, sidebar, mapWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("◎ MEETPOINT")
	left := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Width(max(20, sidebar-4)).Render(content),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Width(max(20, sidebar-4)).Render(hint),
	)
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, sidebar)).
		Render(left)
	body := leftBox
	if mapWidth > 0 {
		panel := a.session.MapPanel.Get()
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, mapWidth)).
			Render(a.renderMapPanel(mapWidth-4, max(8, panel.Height)))
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

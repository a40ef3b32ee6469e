package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/kingrea/meetpoint/internal/mode"
	"github.com/kingrea/meetpoint/internal/model"
	"github.com/kingrea/meetpoint/internal/session"
)

// marker is one glyph plotted on the map panel.
type marker struct {
	at    orb.Point
	glyph rune
	color string
}

// markersFor lists homes (first letter of the name, in the person's
// color) and, in Results, the POIs.
func markersFor(m mode.Mode) []marker {
	var people []model.Person
	var pois []model.POI
	switch cur := m.(type) {
	case mode.Input:
		people = cur.People
	case mode.Results:
		people, pois = cur.People, cur.POIs
	}
	out := make([]marker, 0, len(people)+len(pois))
	for _, poi := range pois {
		out = append(out, marker{at: poi.Point.Orb(), glyph: '·', color: "#AAAAAA"})
	}
	for idx, p := range people {
		glyph := '?'
		if name := []rune(strings.TrimSpace(p.Name)); len(name) > 0 {
			glyph = name[0]
		}
		out = append(out, marker{at: p.Home, glyph: glyph, color: model.ColorOf(idx)})
	}
	return out
}

// trace is a route drawn in its person's color.
type trace struct {
	line  orb.LineString
	color string
}

// tracesFor colors each route after the person it belongs to.
func tracesFor(routes []session.Route, people []model.Person) []trace {
	out := make([]trace, 0, len(routes))
	for i, r := range routes {
		idx := model.IndexOf(people, r.Person)
		if idx < 0 {
			idx = i
		}
		out = append(out, trace{line: r.Line, color: model.ColorOf(idx)})
	}
	return out
}

// layers is everything plot draws, bottom to top: the area without data,
// routes, then markers.
type layers struct {
	outside orb.Polygon
	traces  []trace
	markers []marker
}

// plot rasterizes l inside view onto a width x height grid. Later layers
// overwrite earlier ones; the focus point, if any, is drawn last.
func plot(view session.Viewport, l layers, width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	grid := make([][]string, height)
	for y := range grid {
		grid[y] = make([]string, width)
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}
	b := view.Bound
	spanX, spanY := b.Max.Lon()-b.Min.Lon(), b.Max.Lat()-b.Min.Lat()
	if spanX <= 0 || spanY <= 0 {
		return joinRows(grid)
	}
	cell := func(pt orb.Point) (int, int, bool) {
		if !b.Contains(pt) {
			return 0, 0, false
		}
		x := int((pt.Lon() - b.Min.Lon()) / spanX * float64(width-1))
		y := int((b.Max.Lat() - pt.Lat()) / spanY * float64(height-1))
		return x, y, true
	}
	if l.outside != nil {
		shade := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")).Render("░")
		for y := range grid {
			lat := b.Max.Lat() - spanY*fraction(y, height)
			for x := range grid[y] {
				pt := orb.Point{b.Min.Lon() + spanX*fraction(x, width), lat}
				if planar.PolygonContains(l.outside, pt) {
					grid[y][x] = shade
				}
			}
		}
	}
	steps := 2 * max(width, height)
	for _, t := range l.traces {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.color)).Render("•")
		for i := 1; i < len(t.line); i++ {
			from, to := t.line[i-1], t.line[i]
			for s := 0; s <= steps; s++ {
				f := float64(s) / float64(steps)
				pt := orb.Point{from[0] + (to[0]-from[0])*f, from[1] + (to[1]-from[1])*f}
				if x, y, ok := cell(pt); ok {
					grid[y][x] = dot
				}
			}
		}
	}
	for _, m := range l.markers {
		if x, y, ok := cell(m.at); ok {
			grid[y][x] = lipgloss.NewStyle().Foreground(lipgloss.Color(m.color)).Render(string(m.glyph))
		}
	}
	if view.Focus != nil {
		if x, y, ok := cell(*view.Focus); ok {
			grid[y][x] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).Render("◎")
		}
	}
	return joinRows(grid)
}

// fraction maps cell i of n onto [0, 1].
func fraction(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

func joinRows(grid [][]string) []string {
	rows := make([]string, len(grid))
	for y := range grid {
		rows[y] = strings.Join(grid[y], "")
	}
	return rows
}

func (a *App) renderMapPanel(width, height int) string {
	view := a.session.Map.Get()
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Render("MAP")
	lines := []string{title}
	if view.Bound == (orb.Bound{}) {
		lines = append(lines, "No area loaded yet.")
	} else {
		lines = append(lines, fmt.Sprintf("%.4f,%.4f → %.4f,%.4f",
			view.Bound.Min.Lon(), view.Bound.Min.Lat(), view.Bound.Max.Lon(), view.Bound.Max.Lat()))
		current := a.session.Mode.Current()
		l := layers{
			traces:  tracesFor(view.Routes, a.session.Mode.People()),
			markers: markersFor(current),
		}
		if outside, ok := a.session.OutsideArea(); ok {
			l.outside = outside
		}
		lines = append(lines, plot(view, l, max(1, width), max(1, height-4))...)
	}
	tiles := "tiles: offline (set MAPTILER_API_KEY)"
	if strings.TrimSpace(a.session.APIKey) != "" {
		tiles = "tiles: maptiler"
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(tiles))
	return strings.Join(lines, "\n")
}

package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/meetpoint/internal/mode"
	"github.com/kingrea/meetpoint/internal/model"
)

// poiItem implements list.Item for one row of the results list.
type poiItem struct {
	poi    model.POI
	avg    float64
	people []model.Person
}

func (i poiItem) Title() string {
	name := i.poi.Kind
	if i.poi.Name != nil {
		name = fmt.Sprintf("%s (%s)", *i.poi.Name, i.poi.Kind)
	}
	return fmt.Sprintf("%s · %s", averageLabel(i.avg), name)
}

func (i poiItem) Description() string {
	parts := make([]string, 0, len(i.people))
	for idx, p := range i.people {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(model.ColorOf(idx)))
		minutes, ok := i.poi.TimeFor(p.Name)
		value := "-"
		if ok {
			value = fmt.Sprintf("%.1f", minutes)
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %s", p.Name, value)))
	}
	return strings.Join(parts, "  ")
}

func (i poiItem) FilterValue() string {
	if i.poi.Name != nil {
		return *i.poi.Name
	}
	return i.poi.Kind
}

func averageLabel(avg float64) string {
	if math.IsNaN(avg) {
		return "no data"
	}
	return fmt.Sprintf("%.1f min", avg)
}

// resultItems orders the POIs by average time for display.
func resultItems(res mode.Results) []list.Item {
	sorted := model.SortByAverageTime(res.POIs)
	items := make([]list.Item, len(sorted))
	for idx, poi := range sorted {
		items[idx] = poiItem{poi: poi, avg: model.AverageTime(poi), people: res.People}
	}
	return items
}

func newResultsList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Meeting points"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return l
}

package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"github.com/kingrea/meetpoint/internal/model"
)

const (
	fieldName = iota
	fieldLon
	fieldLat
	fieldMinutes
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Lon", "Lat", "Minutes"}

// personForm edits one Person. editing is the index being replaced, or -1
// when the form adds a new person.
type personForm struct {
	fields  [fieldCount]textinput.Model
	focus   int
	editing int
}

func newPersonForm() personForm {
	f := personForm{editing: -1}
	placeholders := [fieldCount]string{"Alice", "-0.1276", "51.5072", "15"}
	for i := range f.fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 64
		in.Width = 18
		f.fields[i] = in
	}
	f.fields[fieldName].Focus()
	return f
}

func (f *personForm) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return cmd
}

func (f *personForm) cycle(step int) tea.Cmd {
	f.fields[f.focus].Blur()
	f.focus = (f.focus + step + fieldCount) % fieldCount
	return f.fields[f.focus].Focus()
}

// load fills the form from p so it can be edited in place.
func (f *personForm) load(idx int, p model.Person) {
	f.editing = idx
	f.fields[fieldName].SetValue(p.Name)
	f.fields[fieldLon].SetValue(formatFloat(p.Home.Lon()))
	f.fields[fieldLat].SetValue(formatFloat(p.Home.Lat()))
	f.fields[fieldMinutes].SetValue(formatFloat(p.MaxTimeMinutes))
}

func (f *personForm) reset() {
	f.editing = -1
	for i := range f.fields {
		f.fields[i].SetValue("")
		f.fields[i].Blur()
	}
	f.focus = fieldName
	f.fields[fieldName].Focus()
}

// person parses the form into a Person. It reports the first field that
// is not a number; range checks are left to model.Person.Validate.
func (f *personForm) person() (model.Person, error) {
	p := model.Person{Name: strings.TrimSpace(f.fields[fieldName].Value())}
	nums := make([]float64, 0, 3)
	for _, idx := range []int{fieldLon, fieldLat, fieldMinutes} {
		raw := strings.TrimSpace(f.fields[idx].Value())
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Person{}, &model.FieldError{
				Field:   strings.ToLower(fieldLabels[idx]),
				Message: fmt.Sprintf("%q is not a number", raw),
			}
		}
		nums = append(nums, v)
	}
	p.Home = orb.Point{nums[0], nums[1]}
	p.MaxTimeMinutes = nums[2]
	return p, nil
}

func (f *personForm) View() string {
	label := lipgloss.NewStyle().Width(9).Foreground(lipgloss.Color("#888888"))
	active := label.Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	rows := make([]string, 0, fieldCount+1)
	title := "Add person"
	if f.editing >= 0 {
		title = fmt.Sprintf("Edit person #%d", f.editing+1)
	}
	rows = append(rows, lipgloss.NewStyle().Bold(true).Render(title))
	for i := range f.fields {
		style := label
		if i == f.focus {
			style = active
		}
		rows = append(rows, style.Render(fieldLabels[i])+f.fields[i].View())
	}
	return strings.Join(rows, "\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

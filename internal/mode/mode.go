// internal/mode/mode.go
//
// Defines the Mode sum type that drives which screen is active and which
// data is valid. Title -> Input -> Results, with Reset back to Title from
// anywhere and Revise from Results back to Input.

package mode

import (
	"github.com/kingrea/meetpoint/internal/model"
)

// Kind names a Mode variant.
type Kind string

const (
	KindTitle   Kind = "title"
	KindInput   Kind = "input"
	KindResults Kind = "results"
)

// Mode is a closed set of variants: Title, Input and Results.
// The unexported method keeps other packages from adding more.
type Mode interface {
	Kind() Kind
	sealed()
}

// Title is the idle landing state.
type Title struct{}

// Input collects the people for a query. People may be empty while editing.
type Input struct {
	People []model.Person
}

// Results holds the POIs computed for a submitted query, plus the people
// they were computed for so renderers can color by person position.
type Results struct {
	People []model.Person
	POIs   []model.POI
}

func (Title) Kind() Kind   { return KindTitle }
func (Input) Kind() Kind   { return KindInput }
func (Results) Kind() Kind { return KindResults }

func (Title) sealed()   {}
func (Input) sealed()   {}
func (Results) sealed() {}

// normalize maps the pointer forms of the variants onto their values so
// only Title, Input and Results are ever stored. A nil pointer becomes Title.
func normalize(m Mode) Mode {
	switch cur := m.(type) {
	case nil:
		return Title{}
	case *Title:
		return Title{}
	case *Input:
		if cur == nil {
			return Title{}
		}
		return *cur
	case *Results:
		if cur == nil {
			return Title{}
		}
		return *cur
	default:
		return m
	}
}

// Reset returns the landing state.
func Reset() Title {
	return Title{}
}

// Begin starts a new, empty query.
func Begin() Input {
	return Input{People: []model.Person{}}
}

// With returns a copy of the input with p appended.
func (in Input) With(p model.Person) Input {
	people := make([]model.Person, 0, len(in.People)+1)
	people = append(people, in.People...)
	return Input{People: append(people, p)}
}

// Without returns a copy of the input with the named person removed.
func (in Input) Without(name string) Input {
	people := make([]model.Person, 0, len(in.People))
	for _, p := range in.People {
		if p.Name != name {
			people = append(people, p)
		}
	}
	return Input{People: people}
}

// Replace returns a copy with the person at i replaced. Out-of-range
// indexes return an unchanged copy.
func (in Input) Replace(i int, p model.Person) Input {
	people := append([]model.Person(nil), in.People...)
	if i >= 0 && i < len(people) {
		people[i] = p
	}
	if people == nil {
		people = []model.Person{}
	}
	return Input{People: people}
}

// Submit freezes the current people alongside the engine's POIs.
func (in Input) Submit(pois []model.POI) Results {
	return Results{
		People: append([]model.Person{}, in.People...),
		POIs:   append([]model.POI{}, pois...),
	}
}

// Revise reopens the query for editing with the same people.
func (r Results) Revise() Input {
	return Input{People: append([]model.Person{}, r.People...)}
}

// ColorOf returns the palette color of the named person in this result set.
func (r Results) ColorOf(name string) (string, bool) {
	idx := model.IndexOf(r.People, name)
	if idx < 0 {
		return "", false
	}
	return model.ColorOf(idx), true
}

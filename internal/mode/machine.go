package mode

import (
	"github.com/kingrea/meetpoint/internal/model"
	"github.com/kingrea/meetpoint/internal/store"
)

// Machine holds the active Mode in a reactive cell. It does not police
// transition legality: any Mode may be set at any time and callers are
// responsible for sequencing.
type Machine struct {
	cell *store.Cell[Mode]
}

// NewMachine starts a machine in Title.
func NewMachine() *Machine {
	return &Machine{cell: store.New[Mode](Title{})}
}

// Current returns the active Mode.
func (m *Machine) Current() Mode {
	return m.cell.Get()
}

// Set replaces the active Mode. Pointer variants are stored by value and
// a nil Mode is treated as Title.
func (m *Machine) Set(next Mode) {
	m.cell.Set(normalize(next))
}

// Subscribe registers fn for every Mode change; it fires once immediately.
func (m *Machine) Subscribe(fn func(Mode)) store.Unsubscribe {
	return m.cell.Subscribe(fn)
}

// Subscribers reports how many subscribers are registered.
func (m *Machine) Subscribers() int {
	return m.cell.Subscribers()
}

// Begin moves to an empty Input.
func (m *Machine) Begin() {
	m.Set(Begin())
}

// Edit replaces the people being edited. Outside Input it starts a new
// Input holding people.
func (m *Machine) Edit(people []model.Person) {
	m.Set(Input{People: append([]model.Person{}, people...)})
}

// People returns the people carried by the active Mode, if any.
func (m *Machine) People() []model.Person {
	switch cur := m.Current().(type) {
	case Input:
		return cur.People
	case Results:
		return cur.People
	default:
		return nil
	}
}

// Submit moves to Results with pois and the people currently carried by
// the active Mode.
func (m *Machine) Submit(pois []model.POI) {
	m.Set(Input{People: m.People()}.Submit(pois))
}

// Revise moves from Results back to Input keeping the people. From any
// other Mode it behaves like Edit with the carried people.
func (m *Machine) Revise() {
	if res, ok := m.Current().(Results); ok {
		m.Set(res.Revise())
		return
	}
	m.Edit(m.People())
}

// Reset discards everything and returns to Title.
func (m *Machine) Reset() {
	m.Set(Reset())
}

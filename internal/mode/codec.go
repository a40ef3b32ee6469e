package mode

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kingrea/meetpoint/internal/model"
)

// ErrUnknownKind is returned by Decode for an unrecognised discriminator.
var ErrUnknownKind = errors.New("mode: unknown kind")

type envelope struct {
	Kind   Kind           `json:"kind"`
	People []model.Person `json:"people,omitempty"`
	Data   []model.POI    `json:"data,omitempty"`
}

// Encode writes m as {"kind": ..., "people": [...], "data": [...]}.
func Encode(m Mode) ([]byte, error) {
	var env envelope
	switch cur := normalize(m).(type) {
	case Title:
		env.Kind = KindTitle
	case Input:
		env.Kind = KindInput
		env.People = nonNilPeople(cur.People)
	case Results:
		env.Kind = KindResults
		env.People = nonNilPeople(cur.People)
		env.Data = nonNilPOIs(cur.POIs)
	default:
		return nil, fmt.Errorf("mode: encode %T: %w", m, ErrUnknownKind)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("mode: encode %s: %w", env.Kind, err)
	}
	return data, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Mode, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("mode: decode: %w", err)
	}
	switch env.Kind {
	case KindTitle:
		return Title{}, nil
	case KindInput:
		return Input{People: nonNilPeople(env.People)}, nil
	case KindResults:
		return Results{People: nonNilPeople(env.People), POIs: nonNilPOIs(env.Data)}, nil
	default:
		return nil, fmt.Errorf("mode: decode %q: %w", env.Kind, ErrUnknownKind)
	}
}

func nonNilPeople(people []model.Person) []model.Person {
	if people == nil {
		return []model.Person{}
	}
	return people
}

func nonNilPOIs(pois []model.POI) []model.POI {
	if pois == nil {
		return []model.POI{}
	}
	return pois
}

// internal/model/person.go
//
// Person is one participant in a query: who they are, where they start,
// and how long they are willing to travel.

package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// Person is an immutable query participant. Name is the join key against
// POI.TimesPerPerson and must be unique within one query.
type Person struct {
	Name string `json:"name"`
	// Home is [lon, lat] in WGS84.
	Home           orb.Point `json:"home"`
	MaxTimeMinutes float64   `json:"maxTimeMinutes"`
}

// FieldError reports which field of a record failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks a single person as entered by the user.
func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &FieldError{Field: "name", Message: "is required"}
	}
	lon, lat := p.Home.Lon(), p.Home.Lat()
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return &FieldError{Field: "home.lon", Message: "must be between -180 and 180"}
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return &FieldError{Field: "home.lat", Message: "must be between -90 and 90"}
	}
	if math.IsNaN(p.MaxTimeMinutes) || math.IsInf(p.MaxTimeMinutes, 0) || p.MaxTimeMinutes <= 0 {
		return &FieldError{Field: "maxTimeMinutes", Message: "must be a positive number"}
	}
	return nil
}

// ValidatePeople validates every person and rejects duplicate names.
func ValidatePeople(people []Person) error {
	seen := make(map[string]int, len(people))
	for i, p := range people {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("people[%d]: %w", i, err)
		}
		if prev, ok := seen[p.Name]; ok {
			return fmt.Errorf("people[%d]: %w", i, &FieldError{
				Field:   "name",
				Message: fmt.Sprintf("%q already used by people[%d]", p.Name, prev),
			})
		}
		seen[p.Name] = i
	}
	return nil
}

// IndexOf returns the position of the named person, or -1.
func IndexOf(people []Person, name string) int {
	for i, p := range people {
		if p.Name == name {
			return i
		}
	}
	return -1
}

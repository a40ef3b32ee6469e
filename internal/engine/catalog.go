package engine

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const osmBaseURL = "https://www.openstreetmap.org/"

// ErrEmptyCatalog is returned when a catalog has no usable amenities.
var ErrEmptyCatalog = errors.New("engine: catalog has no amenities")

// Amenity is a place the engine can route to.
type Amenity struct {
	OSMURL string
	Point  orb.Point
	Kind   string
	Name   *string
}

// Catalog is the set of amenities loaded for one area.
type Catalog struct {
	Amenities []Amenity
	Bound     orb.Bound
}

// LoadCatalog reads a GeoJSON FeatureCollection from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: read catalog %s: %w", path, err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("engine: catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog builds a catalog from GeoJSON. A feature counts as an
// amenity when it has an "amenity" or "shop" property; that value becomes
// the POI kind. Non-point geometries are placed at their bound's center.
func ParseCatalog(data []byte) (*Catalog, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("engine: parse geojson: %w", err)
	}
	catalog := &Catalog{}
	seen := map[string]struct{}{}
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		kind := amenityKind(f.Properties)
		if kind == "" {
			continue
		}
		url := osmURL(f, i)
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}

		var pt orb.Point
		if p, ok := f.Geometry.(orb.Point); ok {
			pt = p
		} else {
			pt = f.Geometry.Bound().Center()
		}
		amenity := Amenity{OSMURL: url, Point: pt, Kind: kind}
		if name, ok := f.Properties["name"].(string); ok && strings.TrimSpace(name) != "" {
			name = strings.TrimSpace(name)
			amenity.Name = &name
		}
		if len(catalog.Amenities) == 0 {
			catalog.Bound = pt.Bound()
		} else {
			catalog.Bound = catalog.Bound.Extend(pt)
		}
		catalog.Amenities = append(catalog.Amenities, amenity)
	}
	if len(catalog.Amenities) == 0 {
		return nil, ErrEmptyCatalog
	}
	sort.Slice(catalog.Amenities, func(a, b int) bool {
		return catalog.Amenities[a].OSMURL < catalog.Amenities[b].OSMURL
	})
	return catalog, nil
}

func amenityKind(props geojson.Properties) string {
	for _, key := range []string{"amenity", "shop"} {
		if v, ok := props[key].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// osmURL prefers an osm_id property ("node/123"), then the feature ID, and
// falls back to the feature's position in the collection.
func osmURL(f *geojson.Feature, index int) string {
	var id string
	if v, ok := f.Properties["osm_id"]; ok && v != nil {
		id = idString(v)
	}
	if id == "" && f.ID != nil {
		id = idString(f.ID)
	}
	if id == "" {
		id = fmt.Sprintf("feature/%d", index)
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	return osmBaseURL + strings.TrimPrefix(id, "/")
}

// idString formats JSON numbers without exponents so large OSM ids survive.
func idString(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

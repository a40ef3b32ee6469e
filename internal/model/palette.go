package model

// Palette is the fixed set of person colors. Index it with ColorOf.
var Palette = [7]string{
	"#E6194B",
	"#3CB44B",
	"#4363D8",
	"#F58231",
	"#911EB4",
	"#42D4F4",
	"#F032E6",
}

// ColorOf returns the color for the person at position i, wrapping around
// the palette.
func ColorOf(i int) string {
	n := len(Palette)
	return Palette[((i%n)+n)%n]
}

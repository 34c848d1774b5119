package domain

import "fmt"

// ShapeTable is the fixed display-name vocabulary. Numbers are assigned per
// room in join order and the table recycles once it is exhausted.
var ShapeTable = []string{
	"POINT",
	"LINE",
	"TRIANGLE",
	"SQUARE",
	"PENTAGON",
	"HEXAGON",
	"HEPTAGON",
	"OCTAGON",
	"NONAGON",
	"DECAGON",
	"CIRCLE",
	"SPIRAL",
	"CUBE",
	"SPHERE",
	"PYRAMID",
	"TORUS",
}

// ShapeName derives the display name for a user number. A loop count is
// appended once the table has recycled. Number 0 means "not yet computed"
// and renders empty.
func ShapeName(number int) string {
	if number <= 0 {
		return ""
	}
	name := ShapeTable[(number-1)%len(ShapeTable)]
	loop := (number-1)/len(ShapeTable) + 1
	if loop > 1 {
		return fmt.Sprintf("%s %d", name, loop)
	}
	return name
}

package skeleton

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ParentRef is an optional reference to a parent point id.
type ParentRef struct {
	ID    int
	Valid bool
}

// NoParent returns the reference of a root point.
func NoParent() ParentRef { return ParentRef{} }

// ParentOf returns a reference to the point with the given id.
func ParentOf(id int) ParentRef { return ParentRef{ID: id, Valid: true} }

// Point is a single skeleton node.
type Point struct {
	ID     int
	Label  int
	Pos    r3.Vec
	Radius float64
	Parent ParentRef
}

// IsRoot reports whether p has no parent and therefore no segment.
func (p Point) IsRoot() bool { return !p.Parent.Valid }

const recordFields = 7

// ParsePoint parses one whitespace-delimited point record of the form
//
//	id label x y z radius parent
//
// A negative parent id denotes a root. Extra trailing fields are ignored.
func ParsePoint(record string) (Point, error) {
	fields := strings.Fields(record)
	if len(fields) < recordFields {
		return Point{}, &ParseError{Value: record}
	}

	var (
		p   Point
		err error
	)

	if p.ID, err = parseInt("id", fields[0]); err != nil {
		return Point{}, err
	}
	if p.ID < 0 {
		return Point{}, &ParseError{Field: "id", Value: fields[0]}
	}
	if p.Label, err = parseInt("label", fields[1]); err != nil {
		return Point{}, err
	}

	var c [3]float64
	for i, name := range [...]string{"x", "y", "z"} {
		if c[i], err = parseFloat(name, fields[2+i]); err != nil {
			return Point{}, err
		}
	}
	p.Pos = r3.Vec{X: c[0], Y: c[1], Z: c[2]}

	if p.Radius, err = parseFloat("radius", fields[5]); err != nil {
		return Point{}, err
	}

	parent, err := parseInt("parent", fields[6])
	if err != nil {
		return Point{}, err
	}
	if parent >= 0 {
		p.Parent = ParentOf(parent)
	}

	return p, nil
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		// Some exporters write integral columns as floats ("12.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, &ParseError{Field: field, Value: s, cause: err}
		}
		return int(f), nil
	}
	return v, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: s, cause: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Field: field, Value: s}
	}
	return v, nil
}

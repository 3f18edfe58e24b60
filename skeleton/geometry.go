package skeleton

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/nblast/internal/errs"
)

// AngleMode selects how the alignment of two directions is reported.
type AngleMode int

const (
	// Cosine reports |cos θ|: 1 for parallel, 0 for orthogonal directions.
	Cosine AngleMode = iota
	// Sine reports sin θ: 0 for parallel, 1 for orthogonal directions.
	Sine
)

// String returns the mode name.
func (m AngleMode) String() string {
	switch m {
	case Cosine:
		return "cosine"
	case Sine:
		return "sine"
	default:
		return fmt.Sprintf("AngleMode(%d)", int(m))
	}
}

// Label returns the short column label used in score table headers.
func (m AngleMode) Label() string {
	if m == Sine {
		return "sin"
	}
	return "cos"
}

// ParseAngleMode accepts "cosine", "cos", "sine" or "sin" (case-insensitive).
func ParseAngleMode(s string) (AngleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cosine", "cos", "":
		return Cosine, nil
	case "sine", "sin":
		return Sine, nil
	default:
		return 0, fmt.Errorf("%w: unknown angle mode %q", errs.ErrConfiguration, s)
	}
}

// Angle is the result of an angle measurement. The zero value is undefined.
type Angle struct {
	value   float64
	defined bool
}

// DefinedAngle returns a defined Angle with the given value.
func DefinedAngle(v float64) Angle { return Angle{value: v, defined: true} }

// UndefinedAngle returns the result for a zero-length input direction.
func UndefinedAngle() Angle { return Angle{} }

// Value returns the measure and whether it is defined.
func (a Angle) Value() (float64, bool) { return a.value, a.defined }

// Undefined reports whether the measure is undefined.
func (a Angle) Undefined() bool { return !a.defined }

// String formats the measure, or "NA" when undefined.
func (a Angle) String() string {
	if !a.defined {
		return "NA"
	}
	return fmt.Sprintf("%g", a.value)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b r3.Vec) r3.Vec {
	return r3.Add(a, r3.Scale(0.5, r3.Sub(b, a)))
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// AngleMeasure compares the directions of u and v, ignoring orientation.
//
// With d = |u·v| / (|u|·|v|) clamped to [0,1], Cosine mode yields d and Sine
// mode yields sin(acos(d)). A zero-length input yields an undefined Angle.
func AngleMeasure(u, v r3.Vec, mode AngleMode) Angle {
	u, v = unitScale(u), unitScale(v)
	uu, vv := r3.Dot(u, u), r3.Dot(v, v)
	if uu == 0 || vv == 0 {
		return UndefinedAngle()
	}

	// sqrt(|u|²|v|²) is exact for u == v, so parallel copies measure exactly 1.
	d := math.Abs(r3.Dot(u, v)) / math.Sqrt(uu*vv)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return UndefinedAngle()
	}
	d = math.Min(1, math.Max(0, d))

	if mode == Sine {
		return DefinedAngle(math.Sin(math.Acos(d)))
	}
	return DefinedAngle(d)
}

// unitScale divides v by its largest absolute component, so that squared
// norms of nonzero vectors lie in [1,3] at any magnitude. The zero vector is
// returned unchanged.
func unitScale(v r3.Vec) r3.Vec {
	m := math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
	if m == 0 {
		return v
	}
	return r3.Vec{X: v.X / m, Y: v.Y / m, Z: v.Z / m}
}

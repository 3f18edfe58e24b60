package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/nblast/skeleton"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformPoints generates n points with coordinates in [0, extent).
func (r *RNG) UniformPoints(n int, extent float64) []r3.Vec {
	r.mu.Lock()
	defer r.mu.Unlock()

	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{
			X: r.rand.Float64() * extent,
			Y: r.rand.Float64() * extent,
			Z: r.rand.Float64() * extent,
		}
	}
	return pts
}

// UnitVector returns a random direction uniformly distributed on the sphere.
func (r *RNG) UnitVector() r3.Vec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unitVectorLocked()
}

func (r *RNG) unitVectorLocked() r3.Vec {
	for {
		v := r3.Vec{X: r.rand.NormFloat64(), Y: r.rand.NormFloat64(), Z: r.rand.NormFloat64()}
		if n := r3.Norm(v); n > 1e-9 {
			return r3.Scale(1/n, v)
		}
	}
}

// RandomSkeleton grows a random tree of n points. Each new point attaches to a
// uniformly chosen earlier point, offset by step in a random direction.
// Ids are contiguous from 0 and point 0 is the root.
func (r *RNG) RandomSkeleton(name string, n int, step float64) *skeleton.Skeleton {
	r.mu.Lock()
	points := make([]skeleton.Point, 0, n)
	for i := range n {
		p := skeleton.Point{ID: i, Label: 3, Radius: 1}
		if i > 0 {
			parent := r.rand.Intn(i)
			p.Parent = skeleton.ParentOf(parent)
			p.Pos = r3.Add(points[parent].Pos, r3.Scale(step, r.unitVectorLocked()))
		}
		points = append(points, p)
	}
	r.mu.Unlock()

	sk, err := skeleton.New(name, points)
	if err != nil {
		panic(err) // generated trees are always valid
	}
	return sk
}

// Jitter returns a copy of sk with every coordinate displaced by a uniform
// offset in [-amount, amount).
func (r *RNG) Jitter(sk *skeleton.Skeleton, name string, amount float64) *skeleton.Skeleton {
	r.mu.Lock()
	points := sk.Points()
	for i := range points {
		points[i].Pos = r3.Add(points[i].Pos, r3.Vec{
			X: (r.rand.Float64()*2 - 1) * amount,
			Y: (r.rand.Float64()*2 - 1) * amount,
			Z: (r.rand.Float64()*2 - 1) * amount,
		})
	}
	r.mu.Unlock()

	out, err := skeleton.New(name, points)
	if err != nil {
		panic(err)
	}
	return out
}

// Line builds a straight chain of n points along dir starting at origin.
func Line(name string, origin, dir r3.Vec, n int) *skeleton.Skeleton {
	points := make([]skeleton.Point, n)
	for i := range points {
		points[i] = skeleton.Point{ID: i, Pos: r3.Add(origin, r3.Scale(float64(i), dir))}
		if i > 0 {
			points[i].Parent = skeleton.ParentOf(i - 1)
		}
	}
	sk, err := skeleton.New(name, points)
	if err != nil {
		panic(err)
	}
	return sk
}

// SWC renders sk in SWC format.
func SWC(sk *skeleton.Skeleton) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", sk.Name())
	for _, p := range sk.Points() {
		parent := -1
		if p.Parent.Valid {
			parent = p.Parent.ID
		}
		fmt.Fprintf(&b, "%d %d %g %g %g %g %d\n", p.ID, p.Label, p.Pos.X, p.Pos.Y, p.Pos.Z, p.Radius, parent)
	}
	return b.String()
}

// BruteForceNearest returns the index of the point closest to q and its
// squared distance. Ties resolve to the lowest index.
func BruteForceNearest(points []r3.Vec, q r3.Vec) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, p := range points {
		if d := r3.Norm2(r3.Sub(p, q)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

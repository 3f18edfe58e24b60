package match

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/hupe1980/nblast/internal/errs"
	"github.com/hupe1980/nblast/skeleton"
	"github.com/hupe1980/nblast/spatial"
)

// ErrNoSegments is returned when a target skeleton has no segments to match
// against.
var ErrNoSegments = fmt.Errorf("%w: %w", errs.ErrDegenerate, errors.New("match: target has no segments"))

// Match pairs one query segment with its nearest target segment.
type Match struct {
	// QueryID is the id of the query point owning the segment.
	QueryID int
	// TargetID is the id of the matched target point.
	TargetID int
	// Distance is the Euclidean distance between the segment midpoints.
	Distance float64
	// Angle compares the two segment directions.
	Angle skeleton.Angle
}

// Target is a skeleton prepared for matching.
type Target struct {
	sk    *skeleton.Skeleton
	index spatial.Index
}

// Skeleton returns the underlying skeleton.
func (t *Target) Skeleton() *skeleton.Skeleton { return t.sk }

// Options configures a Matcher.
type Options struct {
	// Mode selects the angle convention.
	Mode skeleton.AngleMode
	// Index builds the spatial index over target midpoints.
	Index spatial.Builder
	// Sink, if set, receives one line per match.
	Sink io.Writer
}

// DefaultOptions matches in cosine mode with a k-d tree.
var DefaultOptions = Options{
	Mode:  skeleton.Cosine,
	Index: spatial.KDTreeBuilder,
}

// Option configures a Matcher.
type Option func(*Options)

// WithAngleMode selects the angle convention.
func WithAngleMode(mode skeleton.AngleMode) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

// WithIndex selects the spatial index implementation.
func WithIndex(build spatial.Builder) Option {
	return func(o *Options) {
		if build != nil {
			o.Index = build
		}
	}
}

// WithSink writes every Match call to w as a sample block: a
// "# query target" header followed by one "qid tid distance angle" line per
// match. Blocks are written atomically, so one sink may be shared across
// goroutines.
func WithSink(w io.Writer) Option {
	return func(o *Options) {
		o.Sink = w
	}
}

// Matcher computes directional segment matches. It is safe for concurrent use.
type Matcher struct {
	opts Options
	mu   sync.Mutex
}

// New creates a Matcher.
func New(optFns ...Option) *Matcher {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Matcher{opts: opts}
}

// Mode returns the configured angle convention.
func (m *Matcher) Mode() skeleton.AngleMode { return m.opts.Mode }

// Prepare builds the spatial index over the target's segment midpoints.
func (m *Matcher) Prepare(sk *skeleton.Skeleton) (*Target, error) {
	mids := sk.Midpoints()
	if len(mids) == 0 {
		return nil, fmt.Errorf("%s: %w", sk.Name(), ErrNoSegments)
	}
	idx, err := m.opts.Index(mids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sk.Name(), err)
	}
	return &Target{sk: sk, index: idx}, nil
}

// Match emits at most one Match per non-root query point, in query order.
func (m *Matcher) Match(query *skeleton.Skeleton, target *Target) ([]Match, error) {
	qsegs := query.Segments()
	tsegs := target.sk.Segments()

	matches := make([]Match, 0, len(qsegs))
	for _, qs := range qsegs {
		nb := target.index.Nearest(qs.Midpoint)
		ts := tsegs[nb.Index]
		matches = append(matches, Match{
			QueryID:  qs.ID,
			TargetID: ts.ID,
			Distance: math.Sqrt(nb.SquaredDistance),
			Angle:    skeleton.AngleMeasure(qs.Vector, ts.Vector, m.opts.Mode),
		})
	}

	if m.opts.Sink != nil {
		if err := m.write(query.Name(), target.sk.Name(), matches); err != nil {
			return nil, err
		}
	}

	return matches, nil
}

// MatchSkeletons prepares target and matches query against it.
func (m *Matcher) MatchSkeletons(query, target *skeleton.Skeleton) ([]Match, error) {
	t, err := m.Prepare(target)
	if err != nil {
		return nil, err
	}
	return m.Match(query, t)
}

func (m *Matcher) write(query, target string, matches []Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bw := bufio.NewWriter(m.opts.Sink)
	if err := WriteHeader(bw, query, target); err != nil {
		return err
	}
	for _, mt := range matches {
		if err := WriteMatch(bw, mt); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteMatch writes mt as a single "qid tid distance angle" line. Undefined
// angles are written as NA.
func WriteMatch(w io.Writer, mt Match) error {
	_, err := fmt.Fprintf(w, "%d %d %s %s\n",
		mt.QueryID, mt.TargetID,
		strconv.FormatFloat(mt.Distance, 'g', -1, 64),
		mt.Angle.String(),
	)
	return err
}

// WriteHeader writes the "# query target" line that opens a pair's block in
// a sample stream.
func WriteHeader(w io.Writer, query, target string) error {
	_, err := fmt.Fprintf(w, "# %s %s\n", query, target)
	return err
}

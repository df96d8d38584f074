package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/papapumpkin/graha/internal/angle"
	"github.com/papapumpkin/graha/internal/aspect"
	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/cycle"
	"github.com/papapumpkin/graha/internal/ephemeris"
	"github.com/papapumpkin/graha/internal/house"
	"github.com/papapumpkin/graha/internal/saham"
	"github.com/papapumpkin/graha/internal/yoga"
)

// ErrPositions wraps a position provider failure. The provider's own error
// stays reachable with errors.Is/As.
var ErrPositions = errors.New("positions unavailable")

// Analyzer runs analyses against one read-only catalogue. It holds no
// per-request state and is safe for concurrent use as long as its Observer
// is.
type Analyzer struct {
	catalog  *catalog.Catalog
	log      logrus.FieldLogger
	observer Observer
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for stage transitions. The default
// discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Analyzer) { a.log = l }
}

// WithObserver sets the observer notified of stage transitions.
func WithObserver(o Observer) Option {
	return func(a *Analyzer) { a.observer = o }
}

// New creates an Analyzer for c.
func New(c *catalog.Catalog, opts ...Option) *Analyzer {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	a := &Analyzer{catalog: c, log: discard}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// run tracks the stage of a single analysis.
type run struct {
	stage    Stage
	mark     time.Time
	log      logrus.FieldLogger
	observer Observer
}

func (a *Analyzer) start() *run {
	return &run{
		stage:    StageCreated,
		mark:     time.Now(),
		log:      a.log.WithField("catalog", a.catalog.Source),
		observer: a.observer,
	}
}

// advance moves to the next stage. Skipping or repeating a stage is a
// programming error.
func (r *run) advance(to Stage) {
	if to != r.stage+1 {
		panic(fmt.Sprintf("report: illegal transition %s -> %s", r.stage, to))
	}
	now := time.Now()
	elapsed := now.Sub(r.mark)
	from := r.stage
	r.stage, r.mark = to, now

	r.log.WithFields(logrus.Fields{
		"from":    from.String(),
		"to":      to.String(),
		"elapsed": elapsed,
	}).Debug("analysis stage")
	if r.observer != nil {
		r.observer.StageEntered(from, to, elapsed)
	}
}

// fail abandons the analysis while working towards the next stage.
func (r *run) fail(err error) error {
	next := r.stage + 1
	r.log.WithError(err).WithField("stage", next.String()).Warn("analysis failed")
	if r.observer != nil {
		r.observer.Failed(next, err)
	}
	return err
}

// Analyze runs every stage over req and returns the finished report. Only
// the derived-point stage can fail; on failure no report is returned.
func (a *Analyzer) Analyze(req Request) (*Report, error) {
	return a.compute(a.start(), req)
}

// AnalyzeAt fetches the transiting bodies for q from p and analyses them
// together with base.Natal, base.Ascendant, and base.Night. base.Bodies is
// ignored. A provider failure aborts with an error wrapping ErrPositions.
func (a *Analyzer) AnalyzeAt(ctx context.Context, p ephemeris.Provider, q ephemeris.Query, base Request) (*Report, error) {
	r := a.start()
	r.log = r.log.WithField("instant", q.Instant.Format(time.RFC3339))
	set, err := p.Positions(ctx, q)
	if err != nil {
		return nil, r.fail(fmt.Errorf("%w: %w", ErrPositions, err))
	}
	base.Bodies = set
	return a.compute(r, base)
}

func (a *Analyzer) compute(r *run, req Request) (*Report, error) {
	c := a.catalog
	rep := &Report{
		Catalog: c.Source,
		Night:   req.Night,
		Bodies:  req.Bodies.Bodies(),
	}
	if req.Ascendant != nil {
		asc := angle.Normalize(*req.Ascendant)
		rep.Ascendant = &asc
	}
	r.advance(StagePositionsLoaded)

	rep.Aspects = nonNil(aspect.Pairs(req.Bodies, c.Aspects))
	rep.CrossAspects = []aspect.Match{}
	rep.Returns = []cycle.Event{}
	if req.Natal != nil {
		rep.CrossAspects = nonNil(aspect.Cross(req.Bodies, *req.Natal, c.Aspects))
		rep.Returns = returns(req, c.ReturnTolerance)
	}
	rep.Houses = []house.Assignment{}
	if rep.Ascendant != nil {
		rep.Houses = house.LocateSet(req.Bodies, *rep.Ascendant)
	}
	r.advance(StageRelationshipsComputed)

	rep.Patterns = nonNil(yoga.Detect(req.Bodies, c.Patterns, c.Env()))
	r.advance(StagePatternsComputed)

	src := pointSource{bodies: req.Bodies, natal: req.Natal, ascendant: rep.Ascendant}
	points, err := saham.Evaluate(c.Formulas, src, saham.Options{
		Night:     req.Night,
		Reference: rep.Ascendant,
	})
	if err != nil {
		return nil, r.fail(err)
	}
	rep.Points = nonNil(points)
	r.advance(StageDerivedPointsComputed)

	r.advance(StageFinalized)
	return rep, nil
}

// returns measures every transiting body that also has a natal position.
func returns(req Request, tolerance float64) []cycle.Event {
	out := []cycle.Event{}
	for _, b := range req.Bodies.Bodies() {
		natal, ok := req.Natal.Longitude(b.Name)
		if !ok {
			continue
		}
		out = append(out, cycle.Detect(b.Name, b.Longitude, natal, tolerance, cycle.MotionOf(b)))
	}
	return out
}

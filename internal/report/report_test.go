package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/papapumpkin/graha/internal/aspect"
	"github.com/papapumpkin/graha/internal/catalog"
	"github.com/papapumpkin/graha/internal/chart"
	"github.com/papapumpkin/graha/internal/ephemeris"
	"github.com/papapumpkin/graha/internal/house"
	"github.com/papapumpkin/graha/internal/saham"
)

// recorder is an Observer that keeps every notification.
type recorder struct {
	mu      sync.Mutex
	entered []Stage
	failed  []Stage
	errs    []error
}

func (r *recorder) StageEntered(_, to Stage, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entered = append(r.entered, to)
}

func (r *recorder) Failed(stage Stage, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, stage)
	r.errs = append(r.errs, err)
}

func testCatalog(t *testing.T, f catalog.File) *catalog.Catalog {
	t.Helper()
	if f.ReturnTolerance == 0 {
		f.ReturnTolerance = 1
	}
	c, err := catalog.Build(f, "test")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func conjOpp() []aspect.Rule {
	return []aspect.Rule{
		{Name: "conjunction", Angle: 0, Orb: 1},
		{Name: "opposition", Angle: 180, Orb: 1},
	}
}

func ptr(v float64) *float64 { return &v }

func scenario() Request {
	return Request{
		Bodies: chart.MustSet(
			chart.NewBody("Sun", 100),
			chart.NewBody("Moon", 100.5),
			chart.NewBody("Mars", 280.5),
		),
		Ascendant: ptr(0),
	}
}

func TestAnalyze_Scenario(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t, catalog.File{Aspects: conjOpp()}))
	rep, err := a.Analyze(scenario())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	wantAspects := []aspect.Match{
		{First: "Sun", Second: "Moon", Rule: "conjunction", Angle: 0, Separation: 0.5, Orb: 0.5, Strength: 50},
		{First: "Sun", Second: "Mars", Rule: "opposition", Angle: 180, Separation: 179.5, Orb: 0.5, Strength: 50},
		{First: "Moon", Second: "Mars", Rule: "opposition", Angle: 180, Separation: 180, Orb: 0, Strength: 100},
	}
	if diff := cmp.Diff(wantAspects, rep.Aspects, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("aspects mismatch (-want +got):\n%s", diff)
	}

	wantHouses := []house.Assignment{
		{Body: "Sun", House: 4},
		{Body: "Moon", House: 4},
		{Body: "Mars", House: 10},
	}
	if diff := cmp.Diff(wantHouses, rep.Houses); diff != "" {
		t.Errorf("houses mismatch (-want +got):\n%s", diff)
	}

	if len(rep.Patterns) != 0 || len(rep.Points) != 0 || len(rep.CrossAspects) != 0 || len(rep.Returns) != 0 {
		t.Errorf("unexpected extras: %+v", rep)
	}
}

func TestAnalyze_EmptyCollectionsEncodeAsArrays(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t, catalog.File{Aspects: conjOpp()}))
	rep, err := a.Analyze(Request{Bodies: chart.MustSet(chart.NewBody("Sun", 0), chart.NewBody("Moon", 90))})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"aspects":[]`, `"houses":[]`, `"patterns":[]`, `"points":[]`, `"returns":[]`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("report JSON lacks %s: %s", key, data)
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	t.Parallel()

	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	req := Request{
		Bodies: chart.MustSet(
			chart.NewBody("Sun", 100).WithSpeed(0.98),
			chart.NewBody("Moon", 160).WithSpeed(13.2),
			chart.NewBody("Mars", 280.5).WithSpeed(0.6),
			chart.NewBody("Mercury", 110).WithSpeed(1.4),
			chart.NewBody("Jupiter", 40).WithSpeed(0.1),
			chart.NewBody("Venus", 130).WithSpeed(1.2),
			chart.NewBody("Saturn", 330).WithSpeed(-0.05),
		),
		Natal:     func() *chart.Set { s := chart.MustSet(chart.NewBody("Sun", 99.5)); return &s }(),
		Ascendant: ptr(10),
	}

	a := New(c)
	first, err := a.Analyze(req)
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	second, err := a.Analyze(req)
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	b1, _ := json.Marshal(first)
	b2, _ := json.Marshal(second)
	if !bytes.Equal(b1, b2) {
		t.Errorf("reports differ:\n%s\n%s", b1, b2)
	}
	if len(first.Points) != len(c.Formulas) {
		t.Errorf("got %d points, want %d", len(first.Points), len(c.Formulas))
	}
}

func TestAnalyze_NatalReturnsAndCrossAspects(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t, catalog.File{Aspects: conjOpp()}))
	natal := chart.MustSet(chart.NewBody("Sun", 0.2), chart.NewBody("Moon", 200))
	rep, err := a.Analyze(Request{
		Bodies: chart.MustSet(
			chart.NewBody("Sun", 359.5).WithSpeed(1),
			chart.NewBody("Mars", 50),
		),
		Natal: &natal,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(rep.Returns) != 1 {
		t.Fatalf("got %d returns, want 1 (Sun only)", len(rep.Returns))
	}
	ev := rep.Returns[0]
	if ev.Body != "Sun" || !ev.Within || ev.Approaching == nil || !*ev.Approaching {
		t.Errorf("return = %+v, want Sun within tolerance and approaching", ev)
	}
	if len(rep.CrossAspects) != 1 || rep.CrossAspects[0].First != "Sun" || rep.CrossAspects[0].Second != "Sun" {
		t.Errorf("cross aspects = %+v, want Sun conjunct natal Sun", rep.CrossAspects)
	}
	if len(rep.Houses) != 0 {
		t.Errorf("houses without an ascendant: %+v", rep.Houses)
	}
}

func TestAnalyze_DerivedPointsUseAscendantAndNatal(t *testing.T) {
	t.Parallel()

	c := testCatalog(t, catalog.File{Sahams: []catalog.FormulaSpec{
		{Name: "punya", Day: "Moon - Sun + Ascendant", Night: "Sun - Moon + Ascendant"},
		{Name: "drift", Day: "Sun - natal.Sun"},
	}})
	natal := chart.MustSet(chart.NewBody("Sun", 90))
	req := Request{
		Bodies:    chart.MustSet(chart.NewBody("Sun", 100), chart.NewBody("Moon", 160)),
		Natal:     &natal,
		Ascendant: ptr(10),
		Night:     true,
	}

	rep, err := New(c).Analyze(req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := []saham.Point{
		{Name: "punya", Longitude: 310, Sign: 10, House: &house.Assignment{Body: "punya", House: 11, Reference: 10}},
		{Name: "drift", Longitude: 10, Sign: 0, House: &house.Assignment{Body: "drift", House: 1, Reference: 10}},
	}
	if diff := cmp.Diff(want, rep.Points, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_MissingInputAborts(t *testing.T) {
	t.Parallel()

	c := testCatalog(t, catalog.File{Sahams: []catalog.FormulaSpec{
		{Name: "guru", Day: "Jupiter - Sun + Ascendant"},
	}})
	rec := &recorder{}
	rep, err := New(c, WithObserver(rec)).Analyze(scenario())
	if !errors.Is(err, saham.ErrMissingInput) {
		t.Fatalf("got %v, want ErrMissingInput", err)
	}
	if rep != nil {
		t.Errorf("partial report returned: %+v", rep)
	}
	wantEntered := []Stage{StagePositionsLoaded, StageRelationshipsComputed, StagePatternsComputed}
	if diff := cmp.Diff(wantEntered, rec.entered); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Stage{StageDerivedPointsComputed}, rec.failed); diff != "" {
		t.Errorf("failed stage mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_ObserverSeesEveryStage(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	a := New(testCatalog(t, catalog.File{Aspects: conjOpp()}), WithObserver(Observers{rec}))
	if _, err := a.Analyze(scenario()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := []Stage{
		StagePositionsLoaded,
		StageRelationshipsComputed,
		StagePatternsComputed,
		StageDerivedPointsComputed,
		StageFinalized,
	}
	if diff := cmp.Diff(want, rec.entered); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if len(rec.failed) != 0 {
		t.Errorf("unexpected failures: %v", rec.errs)
	}
}

func TestAnalyzeAt(t *testing.T) {
	t.Parallel()

	c := testCatalog(t, catalog.File{Aspects: conjOpp()})
	a := New(c)
	ctx := context.Background()

	ok := ephemeris.ProviderFunc(func(context.Context, ephemeris.Query) (chart.Set, error) {
		return scenario().Bodies, nil
	})
	rep, err := a.AnalyzeAt(ctx, ok, ephemeris.Query{}, Request{Ascendant: ptr(0)})
	if err != nil {
		t.Fatalf("AnalyzeAt: %v", err)
	}
	if len(rep.Aspects) != 3 || len(rep.Houses) != 3 {
		t.Errorf("report = %+v", rep)
	}

	rec := &recorder{}
	failing := ephemeris.ProviderFunc(func(context.Context, ephemeris.Query) (chart.Set, error) {
		return chart.Set{}, ephemeris.ErrUnavailable
	})
	rep, err = New(c, WithObserver(rec)).AnalyzeAt(ctx, failing, ephemeris.Query{}, Request{})
	if !errors.Is(err, ErrPositions) || !errors.Is(err, ephemeris.ErrUnavailable) {
		t.Errorf("got %v, want ErrPositions wrapping ErrUnavailable", err)
	}
	if rep != nil {
		t.Error("report returned after provider failure")
	}
	if diff := cmp.Diff([]Stage{StagePositionsLoaded}, rec.failed); diff != "" {
		t.Errorf("failed stage mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	t.Parallel()

	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	patternsOnly := *c
	patternsOnly.Formulas = nil
	a := New(&patternsOnly)
	req := Request{Bodies: chart.MustSet(chart.NewBody("Sun", 100), chart.NewBody("Moon", 100.5))}

	var wg sync.WaitGroup
	reports := make([]*Report, 8)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i], _ = a.Analyze(req)
		}()
	}
	wg.Wait()
	for i, r := range reports {
		if r == nil || len(r.Patterns) != 1 {
			t.Errorf("report %d = %+v, want one yuti", i, r)
		}
	}
}

func TestStage_String(t *testing.T) {
	t.Parallel()

	if got := StageDerivedPointsComputed.String(); got != "derived_points_computed" {
		t.Errorf("String() = %q", got)
	}
	if got := Stage(42).String(); got != "stage(42)" {
		t.Errorf("String() = %q", got)
	}
}

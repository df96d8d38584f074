package report

import (
	"fmt"
	"time"
)

// Stage is a step of one analysis. Stages only move forward, one at a time,
// and Finalized is terminal.
type Stage int

// Stages in the order an analysis passes through them.
const (
	StageCreated Stage = iota
	StagePositionsLoaded
	StageRelationshipsComputed
	StagePatternsComputed
	StageDerivedPointsComputed
	StageFinalized
)

var stageNames = [...]string{
	StageCreated:               "created",
	StagePositionsLoaded:       "positions_loaded",
	StageRelationshipsComputed: "relationships_computed",
	StagePatternsComputed:      "patterns_computed",
	StageDerivedPointsComputed: "derived_points_computed",
	StageFinalized:             "finalized",
}

// String returns the snake_case stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Observer is notified as an analysis moves through its stages. It is
// called synchronously from the analysing goroutine; implementations shared
// between concurrent analyses must be safe for concurrent use.
type Observer interface {
	// StageEntered reports a completed transition and how long the work
	// leading to it took.
	StageEntered(from, to Stage, elapsed time.Duration)
	// Failed reports that the work towards stage failed and the analysis
	// was abandoned.
	Failed(stage Stage, err error)
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

// StageEntered forwards to every observer.
func (obs Observers) StageEntered(from, to Stage, elapsed time.Duration) {
	for _, o := range obs {
		o.StageEntered(from, to, elapsed)
	}
}

// Failed forwards to every observer.
func (obs Observers) Failed(stage Stage, err error) {
	for _, o := range obs {
		o.Failed(stage, err)
	}
}

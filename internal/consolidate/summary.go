package consolidate

import (
	"time"

	"github.com/jackzampolin/bookshelf/internal/scan"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess Status = "success"
	// StatusPartial means at least one unit failed and was skipped.
	StatusPartial Status = "partial_failure"
	// StatusFailure means the run aborted.
	StatusFailure Status = "failure"
)

// State is a phase of the run.
type State string

const (
	StateScanning    State = "scanning"
	StatePlanning    State = "planning"
	StateExecuting   State = "executing"
	StateSummarizing State = "summarizing"
	StateDone        State = "done"
)

// Step names where a unit failed.
const (
	StepScan    = "scan"
	StepPlan    = "plan"
	StepPrepare = "prepare"
	StepCommit  = "commit"
)

// Outcome is the result for one source unit.
type Outcome struct {
	Kind   scan.Kind `json:"kind" yaml:"kind"`
	Source string    `json:"source" yaml:"source"`

	// Proposed is the name asked for; Output the name received.
	Proposed string `json:"proposed,omitempty" yaml:"proposed,omitempty"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`

	Plugin string  `json:"plugin,omitempty" yaml:"plugin,omitempty"`
	Score  float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Pages  int     `json:"pages,omitempty" yaml:"pages,omitempty"`

	// Files are the merged documents in order; Excluded were dropped.
	Files    []string `json:"files,omitempty" yaml:"files,omitempty"`
	Excluded []string `json:"excluded,omitempty" yaml:"excluded,omitempty"`

	Step  string `json:"step,omitempty" yaml:"step,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	Err   error  `json:"-" yaml:"-"`
}

// Failed reports whether the unit was skipped.
func (o *Outcome) Failed() bool { return o.Err != nil }

// Renamed reports whether the output name differs from the proposed one.
func (o *Outcome) Renamed() bool {
	return o.Output != "" && o.Output != o.Proposed
}

func (o *Outcome) fail(step string, err error) {
	o.Step = step
	o.Err = err
	o.Error = err.Error()
}

// Conflict records a name collision and its resolution.
type Conflict struct {
	Source   string `json:"source" yaml:"source"`
	Proposed string `json:"proposed" yaml:"proposed"`
	Final    string `json:"final" yaml:"final"`
}

// Summary is the report of one run.
type Summary struct {
	RunID  string `json:"run_id" yaml:"run_id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	DryRun bool   `json:"dry_run" yaml:"dry_run"`

	Status Status `json:"status" yaml:"status"`
	State  State  `json:"state" yaml:"state"`

	// Empty is set when the source held no documents at all, excluded
	// ones included.
	Empty bool `json:"empty" yaml:"empty"`

	Units     []Outcome  `json:"units" yaml:"units"`
	Excluded  []string   `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	Conflicts []Conflict `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	Copied int `json:"copied" yaml:"copied"`
	Merged int `json:"merged" yaml:"merged"`
	Failed int `json:"failed" yaml:"failed"`

	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// Error holds the fatal error for StatusFailure.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Books is the number of output documents produced (or planned, on a dry run).
func (s *Summary) Books() int { return s.Copied + s.Merged }

// Skipped returns the failed outcomes.
func (s *Summary) Skipped() []Outcome {
	var out []Outcome
	for _, u := range s.Units {
		if u.Failed() {
			out = append(out, u)
		}
	}
	return out
}

// OK reports whether the run fully succeeded.
func (s *Summary) OK() bool { return s.Status == StatusSuccess }

func (s *Summary) record(o Outcome) {
	s.Units = append(s.Units, o)
	switch {
	case o.Failed():
		s.Failed++
	case o.Kind == scan.Collection:
		s.Merged++
	default:
		s.Copied++
	}
	if o.Renamed() {
		s.Conflicts = append(s.Conflicts, Conflict{Source: o.Source, Proposed: o.Proposed, Final: o.Output})
	}
}

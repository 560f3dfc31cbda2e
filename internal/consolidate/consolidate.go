// Package consolidate flattens a tree of book documents into a single
// bookshelf directory: single documents are copied, multi-file folders are
// merged in the order their naming convention implies.
package consolidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/bookshelf/internal/home"
	"github.com/jackzampolin/bookshelf/internal/naming"
	"github.com/jackzampolin/bookshelf/internal/pdfdoc"
	"github.com/jackzampolin/bookshelf/internal/plan"
	"github.com/jackzampolin/bookshelf/internal/plugins"
	"github.com/jackzampolin/bookshelf/internal/scan"
)

// Config configures an Orchestrator.
type Config struct {
	// Adapter defaults to the pdfcpu implementation.
	Adapter pdfdoc.Adapter

	// Registry defaults to the builtin conventions.
	Registry *plugins.Registry

	// Extensions and Exclude are passed to the scanner.
	Extensions []string
	Exclude    []string

	// Workers bounds how many units are prepared ahead of the commit
	// position. Values below 1 mean 1.
	Workers int

	// CommitRetries is the number of publish attempts per output.
	CommitRetries    int
	CommitRetryDelay time.Duration

	// VerifyStandalone opens single documents before copying them so
	// corrupt files are reported instead of copied.
	VerifyStandalone bool

	// Home provides the lock directory. Nil disables target locking.
	Home *home.Dir

	// OnEvent receives progress events.
	OnEvent EventHandler

	Logger *slog.Logger
}

// Request identifies one run.
type Request struct {
	Source string
	Target string

	// DryRun scans, plans and names without touching the target.
	DryRun bool
}

// Orchestrator runs consolidations. It is safe to reuse across runs; all
// run state lives in the run.
type Orchestrator struct {
	adapter    pdfdoc.Adapter
	planner    *plan.Planner
	extensions []string
	exclude    []string
	workers    int
	retries    int
	retryDelay time.Duration
	verify     bool
	home       *home.Dir
	onEvent    EventHandler
	logger     *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	adapter := cfg.Adapter
	if adapter == nil {
		adapter = pdfdoc.New(pdfdoc.Config{Logger: logger})
	}

	planner, err := plan.New(plan.Config{Registry: cfg.Registry, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create planner: %w", err)
	}

	return &Orchestrator{
		adapter:    adapter,
		planner:    planner,
		extensions: cfg.Extensions,
		exclude:    cfg.Exclude,
		workers:    max(cfg.Workers, 1),
		retries:    max(cfg.CommitRetries, 1),
		retryDelay: max(cfg.CommitRetryDelay, 0),
		verify:     cfg.VerifyStandalone,
		home:       cfg.Home,
		onEvent:    cfg.OnEvent,
		logger:     logger.With("component", "consolidate"),
	}, nil
}

// run holds the state of one Consolidate call.
type run struct {
	*Orchestrator
	logger  *slog.Logger
	summary *Summary
	namer   *naming.Namer
	target  string
	dryRun  bool
}

// Consolidate processes every unit under req.Source into req.Target.
//
// Per-unit failures are recorded in the summary and do not stop the run.
// The returned error is non-nil only when the run aborted: the source could
// not be scanned, the target could not be prepared, or the target is
// locked. A summary is returned in every case.
func (o *Orchestrator) Consolidate(ctx context.Context, req Request) (*Summary, error) {
	start := time.Now()
	sum := &Summary{
		RunID:     uuid.NewString(),
		DryRun:    req.DryRun,
		Units:     []Outcome{},
		StartedAt: start.UTC(),
	}
	r := &run{
		Orchestrator: o,
		logger:       o.logger.With("run_id", sum.RunID),
		summary:      sum,
		namer:        naming.New(0),
		dryRun:       req.DryRun,
	}

	err := r.execute(ctx, req)
	sum.Duration = time.Since(start)
	if err != nil {
		sum.Status = StatusFailure
		sum.Error = err.Error()
		r.logger.Error("consolidation failed", "error", err)
		return sum, err
	}

	r.logger.Info("consolidation complete",
		"status", sum.Status,
		"books", sum.Books(),
		"copied", sum.Copied,
		"merged", sum.Merged,
		"failed", sum.Failed,
		"duration", sum.Duration)
	return sum, nil
}

func (r *run) execute(ctx context.Context, req Request) error {
	source, err := filepath.Abs(req.Source)
	if err != nil {
		return &scan.Error{Path: req.Source, Err: err}
	}
	target, err := filepath.Abs(req.Target)
	if err != nil {
		return fmt.Errorf("resolve target %s: %w", req.Target, err)
	}
	if source == target {
		return fmt.Errorf("target %s is the source directory", target)
	}
	r.summary.Source, r.summary.Target, r.target = source, target, target
	r.logger = r.logger.With("source", source, "target", target)

	r.enter(StateScanning)
	scanner, err := scan.New(scan.Config{
		Extensions: r.extensions,
		Exclude:    r.exclude,
		Skip:       []string{target},
		Logger:     r.logger,
	})
	if err != nil {
		return err
	}
	scanned, err := scanner.Scan(ctx, source)
	if err != nil {
		return err
	}
	units := scanned.Units
	r.summary.Excluded = scanned.Excluded
	r.emit(Event{Kind: EventScanned, Total: len(units)})
	r.logger.Info("scanned source", "units", len(units), "excluded", len(scanned.Excluded))

	if !r.dryRun {
		release, err := r.prepareTarget()
		if err != nil {
			return err
		}
		defer release()
	}
	if err := r.namer.Seed(target); err != nil {
		return err
	}

	r.enter(StatePlanning)
	plans, planErrs := r.planAll(units)

	r.enter(StateExecuting)
	r.executeUnits(ctx, units, plans, planErrs)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}

	r.enter(StateSummarizing)
	r.summary.Empty = len(units) == 0 && len(r.summary.Excluded) == 0
	r.summary.Status = StatusSuccess
	if r.summary.Failed > 0 {
		r.summary.Status = StatusPartial
	}
	r.enter(StateDone)
	return nil
}

// prepareTarget creates and locks the target. The returned func releases
// the lock.
func (r *run) prepareTarget() (func(), error) {
	if err := os.MkdirAll(r.target, 0o755); err != nil {
		return nil, fmt.Errorf("create target %s: %w", r.target, err)
	}
	info, err := os.Stat(r.target)
	if err != nil {
		return nil, fmt.Errorf("stat target %s: %w", r.target, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target %s is not a directory", r.target)
	}

	release := func() {}
	if r.home != nil {
		path, err := r.home.LockPath(r.target)
		if err != nil {
			return nil, err
		}
		lock, err := lockTarget(path)
		if err != nil {
			return nil, err
		}
		release = func() {
			if err := lock.unlock(); err != nil {
				r.logger.Warn("failed to release target lock", "error", err)
			}
		}
	}

	r.sweepStaging(r.target)
	return release, nil
}

func (r *run) planAll(units []scan.Unit) ([]*plan.MergePlan, []error) {
	plans := make([]*plan.MergePlan, len(units))
	errs := make([]error, len(units))
	for i := range units {
		if units[i].Kind != scan.Collection {
			continue
		}
		mp, err := r.planner.Plan(units[i])
		if err != nil {
			errs[i] = err
			r.logger.Warn("cannot plan collection", "unit", units[i].Path, "error", err)
			continue
		}
		plans[i] = mp
		r.emit(Event{Kind: EventPlanned, Index: i, Total: len(units), Unit: &units[i], Plan: mp})
	}
	return plans, errs
}

// prepared is the outcome of the parallel part of a unit.
type prepared struct {
	staged string
	pages  int
	step   string
	err    error
	// slot is set when the unit holds a window slot.
	slot bool
}

// executeUnits prepares up to r.workers units ahead of the commit position
// and commits strictly in scan order, so name claims and events never
// depend on scheduling.
func (r *run) executeUnits(ctx context.Context, units []scan.Unit, plans []*plan.MergePlan, planErrs []error) {
	n := len(units)
	results := make([]chan prepared, n)
	for i := range results {
		results[i] = make(chan prepared, 1)
	}
	window := make(chan struct{}, r.workers)

	go func() {
		for i := range units {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				for j := i; j < n; j++ {
					results[j] <- prepared{step: StepPrepare, err: ctx.Err()}
				}
				return
			}
			go func(i int) {
				res := r.prepare(units[i], plans[i], planErrs[i])
				res.slot = true
				results[i] <- res
			}(i)
		}
	}()

	for i := range units {
		res := <-results[i]
		out := r.commit(ctx, &units[i], plans[i], res)
		if res.slot {
			<-window
		}
		r.summary.record(out)
		r.emit(Event{Kind: EventUnit, Index: i, Total: n, Unit: &units[i], Plan: plans[i], Outcome: &out})
	}
}

func (r *run) prepare(unit scan.Unit, mp *plan.MergePlan, planErr error) prepared {
	switch {
	case unit.Kind == scan.Unreadable:
		return prepared{step: StepScan, err: unit.Err}
	case planErr != nil:
		return prepared{step: StepPlan, err: planErr}
	case r.dryRun:
		return prepared{}
	case unit.Kind == scan.Collection:
		return r.prepareMerge(mp)
	default:
		return r.prepareCopy(unit.Path)
	}
}

func (r *run) prepareCopy(path string) prepared {
	pages := 0
	if r.verify {
		doc, err := r.adapter.Open(path)
		if err != nil {
			return prepared{step: StepPrepare, err: err}
		}
		pages = r.adapter.PageCount(doc)
	}

	staged, err := copyStaged(path, r.target)
	if err != nil {
		return prepared{step: StepPrepare, err: fmt.Errorf("copy %s: %w", path, err)}
	}
	return prepared{staged: staged, pages: pages}
}

func (r *run) prepareMerge(mp *plan.MergePlan) prepared {
	docs := make([]*pdfdoc.Document, 0, len(mp.Files))
	for _, f := range mp.Files {
		doc, err := r.adapter.Open(f)
		if err != nil {
			return prepared{step: StepPrepare, err: err}
		}
		docs = append(docs, doc)
	}

	merged, err := r.adapter.Concatenate(docs)
	if err != nil {
		return prepared{step: StepPrepare, err: fmt.Errorf("merge %s: %w", mp.Source, err)}
	}

	// Title and author come from the first document in merge order.
	md := r.adapter.ReadMetadata(docs[0])
	if err := r.adapter.WriteMetadata(merged, md); err != nil {
		return prepared{step: StepPrepare, err: fmt.Errorf("set metadata for %s: %w", mp.Source, err)}
	}

	staged := stagePath(r.target)
	if err := r.adapter.Save(merged, staged); err != nil {
		return prepared{step: StepPrepare, err: err}
	}
	return prepared{staged: staged, pages: r.adapter.PageCount(merged)}
}

// commit claims the unit's output name and publishes its staged file.
func (r *run) commit(ctx context.Context, unit *scan.Unit, mp *plan.MergePlan, res prepared) Outcome {
	out := Outcome{Kind: unit.Kind, Source: unit.Path, Proposed: unit.Name}
	if mp != nil {
		out.Proposed = mp.OutputName()
		out.Plugin = mp.Plugin
		out.Score = mp.Score
		out.Files = mp.Files
		out.Excluded = mp.Excluded
	}
	logger := r.logger.With("unit", unit.Path)

	// Units that never got a plan do not claim a name.
	if res.step == StepScan || res.step == StepPlan {
		out.Proposed = ""
		out.fail(res.step, res.err)
		logger.Warn("skipped unit", "step", res.step, "error", res.err)
		return out
	}

	name, err := r.namer.Claim(out.Proposed)
	if err != nil {
		r.discard(res.staged)
		out.fail(StepCommit, err)
		logger.Warn("skipped unit", "step", StepCommit, "error", err)
		return out
	}

	if res.err != nil {
		out.fail(res.step, res.err)
		logger.Warn("skipped unit", "step", res.step, "error", res.err)
		return out
	}

	if !r.dryRun {
		name, err = r.publish(ctx, res.staged, r.target, out.Proposed, name)
		if err != nil {
			out.fail(StepCommit, err)
			logger.Warn("skipped unit", "step", StepCommit, "error", err)
			return out
		}
	}
	out.Output = name
	out.Pages = res.pages

	if unit.Kind == scan.Collection {
		logger.Info("merged collection", "output", name, "plugin", out.Plugin, "pages", out.Pages, "files", len(out.Files))
	} else {
		logger.Info("copied document", "output", name, "pages", out.Pages)
	}
	return out
}

func (r *run) discard(staged string) {
	if staged == "" {
		return
	}
	if err := os.Remove(staged); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("failed to remove staging file", "path", staged, "error", err)
	}
}

func (r *run) enter(s State) {
	r.summary.State = s
	r.logger.Debug("entering state", "state", s)
	r.emit(Event{Kind: EventState, State: s})
}

func (r *run) emit(e Event) {
	if e.State == "" {
		e.State = r.summary.State
	}
	if r.onEvent != nil {
		r.onEvent(e)
	}
}

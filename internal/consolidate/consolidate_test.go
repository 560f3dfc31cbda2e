package consolidate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/bookshelf/internal/config"
	"github.com/jackzampolin/bookshelf/internal/home"
	"github.com/jackzampolin/bookshelf/internal/pdfdoc"
	"github.com/jackzampolin/bookshelf/internal/plan"
	"github.com/jackzampolin/bookshelf/internal/scan"
	"github.com/jackzampolin/bookshelf/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(t *testing.T, mutate func(*Config)) *Orchestrator {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New failed: %v", err)
	}
	cfg := Config{
		Workers:          4,
		CommitRetries:    2,
		CommitRetryDelay: time.Millisecond,
		VerifyStandalone: true,
		Home:             h,
		Logger:           discardLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	o, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o
}

func consolidate(t *testing.T, o *Orchestrator, source, target string) *Summary {
	t.Helper()
	sum, err := o.Consolidate(context.Background(), Request{Source: source, Target: target})
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	return sum
}

func pages(t *testing.T, path string) int {
	t.Helper()
	n, err := pdfdoc.CountPages(path)
	if err != nil {
		t.Fatalf("CountPages(%s) failed: %v", path, err)
	}
	return n
}

var mitpBook = testutil.Tree{
	"Netzwerke/Cover.pdf":              {Pages: 1, Title: "Netzwerke", Author: "J. Mueller"},
	"Netzwerke/Titel.pdf":              {Pages: 1, Title: "Titelseite"},
	"Netzwerke/Inhaltsverzeichnis.pdf": {Pages: 2},
	"Netzwerke/Einleitung.pdf":         {Pages: 1},
	"Netzwerke/Kapitel_1_a.pdf":        {Pages: 3},
	"Netzwerke/Kapitel_2_b.pdf":        {Pages: 4},
	"Netzwerke/Kapitel_2_b(1).pdf":     {Pages: 4},
	"Netzwerke/Kapitel_10_j.pdf":       {Pages: 2},
	"Netzwerke/Anhang_A_x.pdf":         {Pages: 1},
}

func TestConsolidate_MixedTree(t *testing.T) {
	source, target := t.TempDir(), filepath.Join(t.TempDir(), "shelf")
	testutil.Tree{
		"book1.pdf":          {Pages: 2},
		"folder1/book2.pdf":  {Pages: 3},
		"Collection1/a.pdf":  {Pages: 1},
		"Collection1/b.pdf":  {Pages: 2},
		"Collection1/c.txt":  {},
		"deep/er/book3.pdf":  {Pages: 1},
		"deep/er/notes.epub": {},
	}.Build(t, source)
	before := testutil.Snapshot(t, source)

	sum := consolidate(t, newOrchestrator(t, nil), source, target)

	if sum.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%+v)", sum.Status, sum.Skipped())
	}
	if sum.State != StateDone {
		t.Errorf("expected state done, got %s", sum.State)
	}
	if sum.Copied != 3 || sum.Merged != 1 || sum.Books() != 4 {
		t.Errorf("expected 3 copied and 1 merged, got %d and %d", sum.Copied, sum.Merged)
	}

	want := []string{"Collection1.pdf", "book1.pdf", "book2.pdf", "book3.pdf"}
	if got := testutil.Entries(t, target); !slices.Equal(got, want) {
		t.Errorf("target mismatch\nwant %v\ngot  %v", want, got)
	}
	if n := pages(t, filepath.Join(target, "Collection1.pdf")); n != 3 {
		t.Errorf("expected 3 merged pages, got %d", n)
	}

	orig, _ := os.ReadFile(filepath.Join(source, "folder1", "book2.pdf"))
	copied, _ := os.ReadFile(filepath.Join(target, "book2.pdf"))
	if !bytes.Equal(orig, copied) {
		t.Error("standalone copy is not byte-identical")
	}

	if after := testutil.Snapshot(t, source); len(after) != len(before) {
		t.Errorf("source changed: %d files before, %d after", len(before), len(after))
	} else {
		for k, v := range before {
			if after[k] != v {
				t.Errorf("source file %s modified", k)
			}
		}
	}
}

func TestConsolidate_MitpCollection(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	mitpBook.Build(t, source)

	sum := consolidate(t, newOrchestrator(t, nil), source, target)
	if sum.Status != StatusSuccess || len(sum.Units) != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	u := sum.Units[0]
	if u.Plugin != "mitp" {
		t.Errorf("expected mitp, got %q", u.Plugin)
	}
	if u.Output != "Netzwerke.pdf" {
		t.Errorf("expected Netzwerke.pdf, got %q", u.Output)
	}
	if len(u.Excluded) != 1 || filepath.Base(u.Excluded[0]) != "Kapitel_2_b(1).pdf" {
		t.Errorf("expected the duplicate chapter excluded, got %v", u.Excluded)
	}
	if len(u.Files) != 8 || filepath.Base(u.Files[0]) != "Cover.pdf" {
		t.Errorf("unexpected merge order: %v", u.Files)
	}

	out := filepath.Join(target, "Netzwerke.pdf")
	if n := pages(t, out); n != 15 || u.Pages != 15 {
		t.Errorf("expected 15 pages, file has %d, outcome says %d", n, u.Pages)
	}

	a := pdfdoc.New(pdfdoc.Config{Logger: discardLogger()})
	doc, err := a.Open(out)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	md := a.ReadMetadata(doc)
	if md.Title != "Netzwerke" || md.Author != "J. Mueller" {
		t.Errorf("expected metadata of Cover.pdf, got %+v", md)
	}
}

func TestConsolidate_NameConflicts(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{
		"Book.pdf":        {Pages: 1},
		"Book/Book.pdf":   {Pages: 2},
		"Other/Book.pdf":  {Pages: 3},
		"Taken/Taken.pdf": {Pages: 1},
	}.Build(t, source)
	testutil.WritePDF(t, filepath.Join(target, "Taken.pdf"), testutil.PDF{Pages: 9})
	existing := testutil.Snapshot(t, target)

	sum := consolidate(t, newOrchestrator(t, nil), source, target)
	if sum.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", sum.Status)
	}

	want := []string{"Book.pdf", "Book_1.pdf", "Book_2.pdf", "Taken.pdf", "Taken_1.pdf"}
	if got := testutil.Entries(t, target); !slices.Equal(got, want) {
		t.Errorf("target mismatch\nwant %v\ngot  %v", want, got)
	}

	// Scan order: root files, then sub-directories lexically.
	if n := pages(t, filepath.Join(target, "Book.pdf")); n != 1 {
		t.Errorf("Book.pdf should come from the root file, has %d pages", n)
	}
	if n := pages(t, filepath.Join(target, "Book_1.pdf")); n != 2 {
		t.Errorf("Book_1.pdf should come from Book/, has %d pages", n)
	}
	if n := pages(t, filepath.Join(target, "Book_2.pdf")); n != 3 {
		t.Errorf("Book_2.pdf should come from Other/, has %d pages", n)
	}
	if testutil.Snapshot(t, target)["Taken.pdf"] != existing["Taken.pdf"] {
		t.Error("pre-existing target file was overwritten")
	}

	if len(sum.Conflicts) != 3 {
		t.Fatalf("expected 3 conflicts, got %+v", sum.Conflicts)
	}
	if c := sum.Conflicts[2]; c.Proposed != "Taken.pdf" || c.Final != "Taken_1.pdf" {
		t.Errorf("unexpected conflict %+v", c)
	}
}

func TestConsolidate_EmptySource(t *testing.T) {
	source, target := t.TempDir(), filepath.Join(t.TempDir(), "out")
	testutil.Tree{"notes.txt": {}, "dir/readme.md": {}}.Build(t, source)

	sum := consolidate(t, newOrchestrator(t, nil), source, target)
	if sum.Status != StatusSuccess || !sum.Empty || sum.Books() != 0 {
		t.Errorf("expected empty success, got %+v", sum)
	}
	if got := testutil.Entries(t, target); len(got) != 0 {
		t.Errorf("expected empty target, got %v", got)
	}
}

func TestConsolidate_DefaultExclude(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{
		".scan.pdf":         {Pages: 1},
		".archive/book.pdf": {Pages: 2},
		"._book.pdf":        {Pages: 1},
	}.Build(t, source)

	o := newOrchestrator(t, func(c *Config) {
		c.Exclude = config.DefaultConfig().Exclude
	})
	sum := consolidate(t, o, source, target)
	if sum.Status != StatusSuccess || sum.Books() != 2 {
		t.Fatalf("expected 2 books, got %d (%s)", sum.Books(), sum.Status)
	}
	if sum.Empty {
		t.Error("source with documents reported empty")
	}
	if len(sum.Excluded) != 1 || filepath.Base(sum.Excluded[0]) != "._book.pdf" {
		t.Errorf("expected ._book.pdf excluded, got %v", sum.Excluded)
	}

	want := []string{".scan.pdf", "book.pdf"}
	if got := testutil.Entries(t, target); !slices.Equal(got, want) {
		t.Errorf("target mismatch\nwant %v\ngot  %v", want, got)
	}
}

func TestConsolidate_OnlyExcluded(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{"._book.pdf": {Pages: 1}}.Build(t, source)

	o := newOrchestrator(t, func(c *Config) {
		c.Exclude = config.DefaultConfig().Exclude
	})
	sum := consolidate(t, o, source, target)
	if sum.Empty || sum.Books() != 0 || len(sum.Excluded) != 1 {
		t.Errorf("expected one excluded document and no books, got %+v", sum)
	}
}

func TestConsolidate_CorruptDocument(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{
		"good.pdf":     {Pages: 1},
		"Merge/a.pdf":  {Pages: 1},
		"Merge/b.pdf":  {Pages: 1},
		"Solo/one.pdf": {Pages: 1},
	}.Build(t, source)
	for _, p := range []string{"broken.pdf", "Merge/c.pdf"} {
		if err := os.WriteFile(filepath.Join(source, p), []byte("this is not a pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sum := consolidate(t, newOrchestrator(t, nil), source, target)
	if sum.Status != StatusPartial {
		t.Fatalf("expected partial_failure, got %s", sum.Status)
	}
	if sum.Failed != 2 || sum.Books() != 2 {
		t.Errorf("expected 2 failed and 2 books, got %d and %d", sum.Failed, sum.Books())
	}
	for _, u := range sum.Skipped() {
		if u.Step != StepPrepare {
			t.Errorf("%s failed at %q, expected prepare", u.Source, u.Step)
		}
		var re *pdfdoc.ReadError
		if !errors.As(u.Err, &re) {
			t.Errorf("%s: expected ReadError, got %v", u.Source, u.Err)
		}
	}

	want := []string{"good.pdf", "one.pdf"}
	if got := testutil.Entries(t, target); !slices.Equal(got, want) {
		t.Errorf("target mismatch\nwant %v\ngot  %v", want, got)
	}
}

func TestConsolidate_NonASCIIMetadata(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{
		"Buch/a.pdf": {Pages: 1, Title: "Netze", IndirectTitle: true, RawAuthor: `(J. M\374ller)`},
		"Buch/b.pdf": {Pages: 2},
	}.Build(t, source)

	sum := consolidate(t, newOrchestrator(t, nil), source, target)
	if sum.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%+v)", sum.Status, sum.Skipped())
	}

	a := pdfdoc.New(pdfdoc.Config{Logger: discardLogger()})
	doc, err := a.Open(filepath.Join(target, "Buch.pdf"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	want := pdfdoc.Metadata{Title: "Netze", Author: "J. Müller"}
	if got := a.ReadMetadata(doc); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestConsolidate_AllDuplicatesCollection(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{
		"Dupes/Cover(1).pdf":       {Pages: 1},
		"Dupes/Titel(2).pdf":       {Pages: 1},
		"Dupes/Kapitel_1_a(1).pdf": {Pages: 1},
		"Dupes/Glossar(1).pdf":     {Pages: 1},
		"other/Dupes.pdf":          {Pages: 1},
	}.Build(t, source)

	sum := consolidate(t, newOrchestrator(t, nil), source, target)
	if sum.Status != StatusPartial {
		t.Fatalf("expected partial_failure, got %s", sum.Status)
	}

	skipped := sum.Skipped()
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped unit, got %+v", skipped)
	}
	u := skipped[0]
	if u.Step != StepPlan {
		t.Errorf("expected plan step, got %q", u.Step)
	}
	var ece *plan.EmptyCollectionError
	if !errors.As(u.Err, &ece) {
		t.Errorf("expected EmptyCollectionError, got %v", u.Err)
	}
	if u.Proposed != "" {
		t.Errorf("expected no claimed name, got %q", u.Proposed)
	}

	// The failed collection must not have reserved its name.
	want := []string{"Dupes.pdf"}
	if got := testutil.Entries(t, target); !slices.Equal(got, want) {
		t.Errorf("target mismatch\nwant %v\ngot  %v", want, got)
	}
}

// failingSave is an adapter whose Save always fails.
type failingSave struct {
	*pdfdoc.PDFCPU
}

func (failingSave) Save(_ *pdfdoc.Document, path string) error {
	return &pdfdoc.WriteError{Path: path, Err: errors.New("no space left on device")}
}

func TestConsolidate_SaveFailure(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{
		"good.pdf":    {Pages: 1},
		"Merge/a.pdf": {Pages: 1},
		"Merge/b.pdf": {Pages: 1},
	}.Build(t, source)

	o := newOrchestrator(t, func(c *Config) {
		c.Adapter = failingSave{pdfdoc.New(pdfdoc.Config{Logger: discardLogger()})}
	})
	sum := consolidate(t, o, source, target)
	if sum.Status != StatusPartial {
		t.Fatalf("expected partial_failure, got %s", sum.Status)
	}

	skipped := sum.Skipped()
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped unit, got %+v", skipped)
	}
	if skipped[0].Step != StepPrepare {
		t.Errorf("expected prepare step, got %q", skipped[0].Step)
	}
	var we *pdfdoc.WriteError
	if !errors.As(skipped[0].Err, &we) {
		t.Errorf("expected WriteError, got %v", skipped[0].Err)
	}

	// No output and no staging leftovers for the failed merge.
	want := []string{"good.pdf"}
	if got := testutil.Entries(t, target); !slices.Equal(got, want) {
		t.Errorf("target mismatch\nwant %v\ngot  %v", want, got)
	}
}

func TestConsolidate_CopyWithoutVerify(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(source, "odd.pdf"), []byte("not really"), 0o644); err != nil {
		t.Fatal(err)
	}

	o := newOrchestrator(t, func(c *Config) { c.VerifyStandalone = false })
	sum := consolidate(t, o, source, target)
	if sum.Status != StatusSuccess || sum.Copied != 1 {
		t.Errorf("expected unverified copy to succeed, got %+v", sum)
	}
}

func TestConsolidate_PreservesModTime(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	src := filepath.Join(source, "old.pdf")
	testutil.WritePDF(t, src, testutil.PDF{Pages: 1})
	mtime := time.Unix(1_600_000_000, 0)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	consolidate(t, newOrchestrator(t, nil), source, target)

	info, err := os.Stat(filepath.Join(target, "old.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("expected mtime %v, got %v", mtime, info.ModTime())
	}
}

func TestConsolidate_DryRun(t *testing.T) {
	source, target := t.TempDir(), filepath.Join(t.TempDir(), "never")
	mitpBook.Build(t, source)
	testutil.Tree{"loose.pdf": {Pages: 1}, "dup/loose.pdf": {Pages: 1}}.Build(t, source)

	o := newOrchestrator(t, nil)
	sum, err := o.Consolidate(context.Background(), Request{Source: source, Target: target, DryRun: true})
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	if !sum.DryRun || sum.Status != StatusSuccess || sum.Books() != 3 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run created the target: %v", err)
	}

	var outputs []string
	for _, u := range sum.Units {
		outputs = append(outputs, u.Output)
	}
	want := []string{"loose.pdf", "Netzwerke.pdf", "loose_1.pdf"}
	if !slices.Equal(outputs, want) {
		t.Errorf("expected planned names %v, got %v", want, outputs)
	}
}

func TestConsolidate_WorkerCountDoesNotChangeResult(t *testing.T) {
	source := t.TempDir()
	tree := testutil.Tree{}
	for _, d := range []string{"a", "b", "c", "d", "e", "f"} {
		tree[d+"/x.pdf"] = testutil.PDF{Pages: 1}
		tree[d+"/y.pdf"] = testutil.PDF{Pages: 2}
		tree["single_"+d+"/same.pdf"] = testutil.PDF{Pages: 1}
	}
	tree.Build(t, source)

	var results [][]string
	for _, workers := range []int{1, 8} {
		target := t.TempDir()
		o := newOrchestrator(t, func(c *Config) { c.Workers = workers })
		sum := consolidate(t, o, source, target)

		var got []string
		for _, u := range sum.Units {
			got = append(got, u.Source+"->"+u.Output)
		}
		results = append(results, got)
	}
	if !slices.Equal(results[0], results[1]) {
		t.Errorf("results differ\n1 worker:  %v\n8 workers: %v", results[0], results[1])
	}
}

func TestConsolidate_TargetInsideSource(t *testing.T) {
	source := t.TempDir()
	target := filepath.Join(source, "shelf")
	testutil.Tree{"a.pdf": {Pages: 1}, "shelf/old.pdf": {Pages: 1}}.Build(t, source)

	sum := consolidate(t, newOrchestrator(t, nil), source, target)
	if sum.Books() != 1 {
		t.Errorf("expected only a.pdf processed, got %+v", sum.Units)
	}
	want := []string{"a.pdf", "old.pdf"}
	if got := testutil.Entries(t, target); !slices.Equal(got, want) {
		t.Errorf("target mismatch\nwant %v\ngot  %v", want, got)
	}
}

func TestConsolidate_FatalErrors(t *testing.T) {
	dir := t.TempDir()
	o := newOrchestrator(t, nil)

	tests := []struct {
		name   string
		source string
		target string
	}{
		{"missing source", filepath.Join(dir, "nope"), filepath.Join(dir, "out")},
		{"source is target", dir, dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := o.Consolidate(context.Background(), Request{Source: tt.source, Target: tt.target})
			if err == nil {
				t.Fatal("expected error")
			}
			if sum == nil || sum.Status != StatusFailure || sum.Error == "" {
				t.Errorf("expected failure summary, got %+v", sum)
			}
		})
	}

	var se *scan.Error
	_, err := o.Consolidate(context.Background(), Request{Source: filepath.Join(dir, "nope"), Target: filepath.Join(dir, "out")})
	if !errors.As(err, &se) {
		t.Errorf("expected scan.Error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); !errors.Is(err, os.ErrNotExist) {
		t.Error("target created despite scan failure")
	}
}

func TestConsolidate_TargetLocked(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{"a.pdf": {Pages: 1}}.Build(t, source)

	h, _ := home.New(t.TempDir())
	path, err := h.LockPath(target)
	if err != nil {
		t.Fatal(err)
	}
	held, err := lockTarget(path)
	if err != nil {
		t.Fatalf("lockTarget failed: %v", err)
	}

	o := newOrchestrator(t, func(c *Config) { c.Home = h })
	if _, err := o.Consolidate(context.Background(), Request{Source: source, Target: target}); !errors.Is(err, ErrTargetLocked) {
		t.Errorf("expected ErrTargetLocked, got %v", err)
	}

	if err := held.unlock(); err != nil {
		t.Fatal(err)
	}
	if sum := consolidate(t, o, source, target); sum.Copied != 1 {
		t.Errorf("expected run to succeed after unlock, got %+v", sum)
	}
}

func TestConsolidate_SweepsStaleStaging(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{"a.pdf": {Pages: 1}}.Build(t, source)
	stale := filepath.Join(target, stagePrefix+"leftover"+stageSuffix)
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	consolidate(t, newOrchestrator(t, nil), source, target)

	want := []string{"a.pdf"}
	if got := testutil.Entries(t, target); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestConsolidate_Events(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	mitpBook.Build(t, source)
	testutil.Tree{"a.pdf": {Pages: 1}, "b.pdf": {Pages: 1}}.Build(t, source)

	var states []State
	var unitIdx []int
	planned := 0
	o := newOrchestrator(t, func(c *Config) {
		c.OnEvent = func(e Event) {
			switch e.Kind {
			case EventState:
				states = append(states, e.State)
			case EventPlanned:
				planned++
				if e.Plan == nil || e.Plan.Plugin != "mitp" {
					t.Errorf("unexpected plan event %+v", e)
				}
			case EventUnit:
				unitIdx = append(unitIdx, e.Index)
				if e.Outcome == nil || e.Total != 3 {
					t.Errorf("unexpected unit event %+v", e)
				}
			}
		}
	})
	consolidate(t, o, source, target)

	wantStates := []State{StateScanning, StatePlanning, StateExecuting, StateSummarizing, StateDone}
	if !slices.Equal(states, wantStates) {
		t.Errorf("expected states %v, got %v", wantStates, states)
	}
	if !slices.Equal(unitIdx, []int{0, 1, 2}) {
		t.Errorf("expected units in scan order, got %v", unitIdx)
	}
	if planned != 1 {
		t.Errorf("expected 1 planned event, got %d", planned)
	}
}

func TestConsolidate_Cancelled(t *testing.T) {
	source, target := t.TempDir(), t.TempDir()
	testutil.Tree{"a.pdf": {Pages: 1}}.Build(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newOrchestrator(t, nil).Consolidate(ctx, Request{Source: source, Target: target})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	for _, name := range testutil.Entries(t, target) {
		if strings.HasPrefix(name, stagePrefix) {
			t.Errorf("staging file left behind: %s", name)
		}
	}
}

func TestConsolidate_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		tree  testutil.Tree
		pages map[string]int
	}{
		{
			name: "flatten standalone books",
			tree: testutil.Tree{
				"book1.pdf":         {Pages: 1},
				"folder1/book2.pdf": {Pages: 1},
				"folder2/book3.pdf": {Pages: 1},
			},
			pages: map[string]int{"book1.pdf": 1, "book2.pdf": 1, "book3.pdf": 1},
		},
		{
			name: "merge collections",
			tree: testutil.Tree{
				"Collection1/chapter1.pdf": {Pages: 1},
				"Collection1/chapter2.pdf": {Pages: 1},
				"Collection2/part1.pdf":    {Pages: 1},
				"Collection2/part2.pdf":    {Pages: 1},
				"Collection2/part3.pdf":    {Pages: 1},
			},
			pages: map[string]int{"Collection1.pdf": 2, "Collection2.pdf": 3},
		},
		{
			name: "duplicate names",
			tree: testutil.Tree{
				"duplicate.pdf":         {Pages: 1},
				"folder1/duplicate.pdf": {Pages: 2},
				"folder2/duplicate.pdf": {Pages: 3},
			},
			pages: map[string]int{"duplicate.pdf": 1, "duplicate_1.pdf": 2, "duplicate_2.pdf": 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, target := t.TempDir(), t.TempDir()
			tt.tree.Build(t, source)

			sum := consolidate(t, newOrchestrator(t, nil), source, target)
			if sum.Status != StatusSuccess || sum.Books() != len(tt.pages) {
				t.Fatalf("unexpected summary: %+v", sum)
			}

			entries := testutil.Entries(t, target)
			if len(entries) != len(tt.pages) {
				t.Fatalf("expected %d outputs, got %v", len(tt.pages), entries)
			}
			for _, name := range entries {
				want, ok := tt.pages[name]
				if !ok {
					t.Errorf("unexpected output %s", name)
					continue
				}
				if got := pages(t, filepath.Join(target, name)); got != want {
					t.Errorf("%s: expected %d pages, got %d", name, want, got)
				}
			}
		})
	}
}

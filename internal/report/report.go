// Package report renders consolidation progress, run summaries and bookshelf
// listings for humans.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/jackzampolin/bookshelf/internal/config"
	"github.com/jackzampolin/bookshelf/internal/consolidate"
	"github.com/jackzampolin/bookshelf/internal/scan"
	"github.com/jackzampolin/bookshelf/internal/shelf"
)

// Printer writes human-readable output. Color is used only when the writer
// is a terminal.
type Printer struct {
	w     io.Writer
	color bool
	mu    sync.Mutex
}

// New creates a Printer on w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, color: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Header announces a run.
func (p *Printer) Header(source, target string, dryRun bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	title := "Consolidating bookshelf"
	if dryRun {
		title += " (dry run, nothing will be written)"
	}
	p.printf("%s\n", p.paint(color.Bold).Sprint(title))
	p.printf("  Source: %s\n", source)
	p.printf("  Target: %s\n\n", target)
}

// Event prints one line per finished unit. It can be passed directly as a
// consolidate.EventHandler.
func (p *Printer) Event(e consolidate.Event) {
	if e.Kind != consolidate.EventUnit || e.Outcome == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	o := e.Outcome
	progress := p.paint(color.FgHiBlack).Sprintf("[%d/%d]", e.Index+1, e.Total)
	name := filepath.Base(o.Source)

	switch {
	case o.Failed():
		p.printf("%s %s %s (%s)\n", progress, p.paint(color.FgRed).Sprint("Skipped:"), name, reason(o))
	case o.Kind == scan.Collection:
		p.printf("%s %s %s (%s, %d files)%s\n", progress, p.paint(color.FgCyan).Sprint("Merging collection:"),
			name, o.Plugin, len(o.Files), p.renamed(o))
	default:
		p.printf("%s %s %s%s\n", progress, p.paint(color.FgGreen).Sprint("Copying individual PDF:"), name, p.renamed(o))
	}
}

func (p *Printer) renamed(o *consolidate.Outcome) string {
	if !o.Renamed() {
		return ""
	}
	return p.paint(color.FgYellow).Sprintf(" -> %s", o.Output)
}

func reason(o *consolidate.Outcome) string {
	if o.Step == "" {
		return o.Error
	}
	return o.Step + ": " + o.Error
}

// Summary prints the run summary: totals, conflicts, skipped units and the
// final verdict.
func (p *Printer) Summary(sum *consolidate.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sum.Empty {
		p.printf("%s\n", p.paint(color.FgYellow).Sprint("Source directory is empty: nothing to consolidate"))
		p.printf("Total books: 0\n\n")
		p.verdict(sum)
		return
	}

	t := newTable().
		Headers("Summary", "").
		Row("Total books", strconv.Itoa(sum.Books())).
		Row("Individual PDFs copied", strconv.Itoa(sum.Copied)).
		Row("Collections merged", strconv.Itoa(sum.Merged)).
		Row("Naming conflicts resolved", strconv.Itoa(len(sum.Conflicts))).
		Row("Failures", strconv.Itoa(sum.Failed)).
		Row("Excluded by pattern", strconv.Itoa(len(sum.Excluded))).
		Row("Duration", sum.Duration.Round(time.Millisecond).String())
	p.printf("\n%s\n", t.String())

	if len(sum.Conflicts) > 0 {
		p.printf("\n%s\n", p.paint(color.FgYellow).Sprint("Naming conflicts:"))
		for _, c := range sum.Conflicts {
			p.printf("  %s -> %s (%s)\n", c.Proposed, c.Final, c.Source)
		}
	}

	if skipped := sum.Skipped(); len(skipped) > 0 {
		p.printf("\n%s\n", p.paint(color.FgRed).Sprint("Skipped:"))
		for i := range skipped {
			p.printf("  %s: %s\n", skipped[i].Source, reason(&skipped[i]))
		}
	}

	if len(sum.Excluded) > 0 {
		p.printf("\n%s\n", p.paint(color.FgYellow).Sprint("Excluded by pattern:"))
		for _, path := range sum.Excluded {
			p.printf("  %s\n", path)
		}
	}

	p.printf("\n")
	p.verdict(sum)
}

func (p *Printer) verdict(sum *consolidate.Summary) {
	switch {
	case sum.Status == consolidate.StatusSuccess && sum.DryRun:
		p.printf("%s\n", p.paint(color.FgGreen, color.Bold).Sprint("Dry run completed successfully!"))
	case sum.Status == consolidate.StatusSuccess:
		p.printf("%s\n", p.paint(color.FgGreen, color.Bold).Sprint("Consolidation completed successfully!"))
	default:
		p.printf("%s\n", p.paint(color.FgRed, color.Bold).Sprint("Consolidation completed with failures"))
	}
}

// Failure prints a fatal run error.
func (p *Printer) Failure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printf("%s %v\n", p.paint(color.FgRed, color.Bold).Sprint("Consolidation failed:"), err)
}

// Listing prints the books on a shelf.
func (p *Printer) Listing(l *shelf.Listing, details bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(l.Books) == 0 {
		p.printf("%s\n", p.paint(color.FgYellow).Sprintf("Bookshelf is empty: %s", l.Dir))
		return
	}

	headers := []string{"Title", "Size", "Modified"}
	if details {
		headers = append(headers, "Pages")
	}
	t := newTable().Headers(headers...)
	for _, b := range l.Books {
		row := []string{b.Title, FormatSize(b.Size), b.ModTime.Format("2006-01-02 15:04")}
		if details {
			pages := "?"
			if b.Pages != nil {
				pages = strconv.Itoa(*b.Pages)
			}
			row = append(row, pages)
		}
		t.Row(row...)
	}
	p.printf("%s\n%d books\n", t.String(), len(l.Books))
}

// Config prints the effective configuration and the active naming
// conventions in selection order.
func (p *Printer) Config(source string, entries []config.Entry, plugins []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.printf("%s\n", p.paint(color.Bold).Sprintf("Configuration (%s)", source))
	t := newTable().Headers("Key", "Value", "Description")
	for _, e := range entries {
		t.Row(e.Key, config.FormatValue(e.Value), e.Description)
	}
	p.printf("%s\n", t.String())
	p.printf("Active plugins: %s\n", strings.Join(plugins, ", "))
}

func newTable() *table.Table {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cell })
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

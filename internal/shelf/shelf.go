// Package shelf lists the books in a consolidated bookshelf directory.
package shelf

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jackzampolin/bookshelf/internal/pdfdoc"
)

// SortField selects the listing order.
type SortField string

const (
	SortTitle SortField = "title"
	SortSize  SortField = "size"
	SortDate  SortField = "date"
	SortPages SortField = "pages"
)

// ParseSortField validates a sort field name. Empty means SortTitle.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(s)); f {
	case "":
		return SortTitle, nil
	case SortTitle, SortSize, SortDate, SortPages:
		return f, nil
	default:
		return "", fmt.Errorf("invalid sort field %q (use title, size, date or pages)", s)
	}
}

// Book is one document on the shelf.
type Book struct {
	Title   string    `json:"title" yaml:"title"`
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"modified" yaml:"modified"`

	// Pages is nil unless details were requested and the document could be read.
	Pages *int `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// Options controls a listing.
type Options struct {
	// Filter keeps books whose title contains it, ignoring case.
	Filter  string
	Sort    SortField
	Reverse bool
	// Details reads each document to count its pages.
	Details bool

	// Extensions defaults to ".pdf".
	Extensions []string
	Logger     *slog.Logger
}

// Listing is the result of List.
type Listing struct {
	Dir   string `json:"dir" yaml:"dir"`
	Books []Book `json:"books" yaml:"books"`
}

// List reads the books directly in dir. The directory is never modified.
func List(ctx context.Context, dir string, opts Options) (*Listing, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "shelf")

	sortBy, err := ParseSortField(string(opts.Sort))
	if err != nil {
		return nil, err
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".pdf"}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("bookshelf directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("bookshelf directory %s: not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read bookshelf %s: %w", dir, err)
	}

	filter := strings.ToLower(opts.Filter)
	books := []Book{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(exts, ext) {
			continue
		}

		title := strings.TrimSuffix(name, filepath.Ext(name))
		if filter != "" && !strings.Contains(strings.ToLower(title), filter) {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			logger.Warn("cannot stat book", "path", name, "error", err)
			continue
		}
		b := Book{
			Title:   title,
			Path:    filepath.Join(dir, name),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}
		if opts.Details {
			n, err := pdfdoc.CountPages(b.Path)
			if err != nil {
				logger.Warn("unable to read page count", "path", b.Path, "error", err)
			} else {
				b.Pages = &n
			}
		}
		books = append(books, b)
	}

	sortBooks(books, sortBy, opts.Reverse)
	logger.Debug("listed bookshelf", "dir", dir, "books", len(books))
	return &Listing{Dir: dir, Books: books}, nil
}

// sortBooks orders books stably. Books without a page count stay last when
// sorting by pages, in either direction.
func sortBooks(books []Book, by SortField, reverse bool) {
	less := func(a, b Book) int {
		switch by {
		case SortSize:
			return cmp.Compare(a.Size, b.Size)
		case SortDate:
			return a.ModTime.Compare(b.ModTime)
		case SortPages:
			return cmp.Compare(*a.Pages, *b.Pages)
		default:
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	}

	slices.SortStableFunc(books, func(a, b Book) int {
		if by == SortPages {
			switch {
			case a.Pages == nil && b.Pages == nil:
				return 0
			case a.Pages == nil:
				return 1
			case b.Pages == nil:
				return -1
			}
		}
		c := less(a, b)
		if reverse {
			c = -c
		}
		return c
	})
}

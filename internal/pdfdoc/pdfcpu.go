package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

var _ Adapter = (*PDFCPU)(nil)

// PDFCPU implements Adapter with pdfcpu.
type PDFCPU struct {
	logger *slog.Logger
}

// Config configures a PDFCPU adapter.
type Config struct {
	Logger *slog.Logger
}

// New creates a pdfcpu-backed adapter.
func New(cfg Config) *PDFCPU {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// pdfcpu otherwise installs a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	return &PDFCPU{logger: logger.With("component", "pdfdoc")}
}

// newConf returns a relaxed configuration; scanned books are rarely well-formed.
func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open reads path fully into memory, then parses and validates it.
func (a *PDFCPU) Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	ctx, err := readContext(data)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	a.logger.Debug("opened document", "path", path, "pages", ctx.PageCount)
	return &Document{path: path, ctx: ctx}, nil
}

func readContext(data []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), newConf())
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return ctx, nil
}

// PageCount returns the number of pages in doc.
func (a *PDFCPU) PageCount(doc *Document) int {
	return doc.ctx.PageCount
}

// ReadMetadata returns the Title and Author entries of the Info dictionary.
// Entries may be indirect. Missing or undecodable entries are returned empty.
func (a *PDFCPU) ReadMetadata(doc *Document) Metadata {
	d, err := infoDict(doc.ctx, false)
	if err != nil {
		a.logger.Debug("no readable info dict", "path", doc.path, "error", err)
		return Metadata{}
	}
	if d == nil {
		return Metadata{}
	}
	return Metadata{
		Title:  a.infoText(doc, d, "Title"),
		Author: a.infoText(doc, d, "Author"),
	}
}

// infoText decodes a text entry: PDFDocEncoding, CP1252 or UTF-16BE.
func (a *PDFCPU) infoText(doc *Document, d types.Dict, key string) string {
	obj, ok := d[key]
	if !ok || obj == nil {
		return ""
	}
	s, err := doc.ctx.DereferenceText(obj)
	if err != nil {
		a.logger.Debug("undecodable info entry", "path", doc.path, "key", key, "error", err)
		return ""
	}
	return s
}

// Concatenate merges docs in order. Every doc must have been opened from a file.
func (a *PDFCPU) Concatenate(docs []*Document) (*Document, error) {
	if len(docs) == 0 {
		return nil, errors.New("concatenate: no documents")
	}
	for _, d := range docs {
		if d.path == "" {
			return nil, errors.New("concatenate: document has no backing file")
		}
	}

	if len(docs) == 1 {
		data, err := os.ReadFile(docs[0].path)
		if err != nil {
			return nil, &ReadError{Path: docs[0].path, Err: err}
		}
		ctx, err := readContext(data)
		if err != nil {
			return nil, &ReadError{Path: docs[0].path, Err: err}
		}
		return &Document{ctx: ctx}, nil
	}

	readers := make([]io.ReadSeeker, 0, len(docs))
	for _, d := range docs {
		data, err := os.ReadFile(d.path)
		if err != nil {
			return nil, &ReadError{Path: d.path, Err: err}
		}
		readers = append(readers, bytes.NewReader(data))
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConf()); err != nil {
		return nil, fmt.Errorf("merge %d documents: %w", len(docs), err)
	}

	ctx, err := readContext(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("reload merged document: %w", err)
	}

	a.logger.Debug("concatenated documents", "inputs", len(docs), "pages", ctx.PageCount)
	return &Document{ctx: ctx}, nil
}

// WriteMetadata sets Title and Author on doc. Empty values remove the entry.
// A value that cannot be encoded is dropped with a warning; metadata never
// fails a merge.
func (a *PDFCPU) WriteMetadata(doc *Document, md Metadata) error {
	if md.IsZero() && doc.ctx.Info == nil {
		return nil
	}
	d, err := infoDict(doc.ctx, true)
	if err != nil {
		return fmt.Errorf("info dict: %w", err)
	}
	// Keep the parsed copies in sync; the writer refreshes the Info dict from them.
	doc.ctx.Title = a.setInfoText(d, "Title", md.Title)
	doc.ctx.Author = a.setInfoText(d, "Author", md.Author)
	return nil
}

// setInfoText stores value under key and returns what was stored.
func (a *PDFCPU) setInfoText(d types.Dict, key, value string) string {
	if value == "" {
		delete(d, key)
		return ""
	}
	obj, err := encodeText(value)
	if err != nil {
		a.logger.Warn("dropping metadata entry", "key", key, "error", err)
		delete(d, key)
		return ""
	}
	d[key] = obj
	return value
}

// Save writes doc to path, which must not already exist.
// A partially written file is removed.
func (a *PDFCPU) Save(doc *Document, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	if err := api.WriteContext(doc.ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return &WriteError{Path: path, Err: err}
	}

	a.logger.Debug("saved document", "path", path, "pages", doc.ctx.PageCount)
	return nil
}

// CountPages returns the page count of the PDF at path without a full validation pass.
func CountPages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	n, err := api.PageCount(f, newConf())
	if err != nil {
		return 0, &ReadError{Path: path, Err: err}
	}
	return n, nil
}

func infoDict(ctx *model.Context, create bool) (types.Dict, error) {
	if ctx.Info == nil {
		if !create {
			return nil, nil
		}
		d := types.NewDict()
		ir, err := ctx.IndRefForNewObject(d)
		if err != nil {
			return nil, err
		}
		ctx.Info = ir
		return d, nil
	}
	return ctx.DereferenceDict(*ctx.Info)
}

// encodeText produces a literal for ASCII input and a UTF-16BE hex string otherwise.
func encodeText(s string) (types.Object, error) {
	if isASCII(s) {
		escaped, err := types.Escape(s)
		if err != nil {
			return nil, err
		}
		return types.StringLiteral(*escaped), nil
	}
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("invalid utf-8 in %q", s)
	}
	return types.NewHexLiteral([]byte(types.EncodeUTF16String(s))), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

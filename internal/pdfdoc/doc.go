// Package pdfdoc wraps pdfcpu behind the small set of document primitives the
// consolidator needs: open, page count, Info metadata, concatenation and save.
package pdfdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Metadata is the part of the document information dictionary carried from
// source documents onto merged output.
type Metadata struct {
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
}

// IsZero reports whether neither field is set.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Author == ""
}

// Document is an opened and validated PDF.
// Documents produced by Concatenate have no backing path until saved.
type Document struct {
	path string
	ctx  *model.Context
}

// Path returns the file the document was opened from, or "" for merged output.
func (d *Document) Path() string {
	return d.path
}

// Adapter is the document primitive boundary.
type Adapter interface {
	// Open reads and validates a document. Failures are *ReadError.
	Open(path string) (*Document, error)

	// PageCount returns the number of pages in doc.
	PageCount(doc *Document) int

	// ReadMetadata returns the Title and Author of doc.
	ReadMetadata(doc *Document) Metadata

	// Concatenate appends the pages of docs, in order, into a new document.
	Concatenate(docs []*Document) (*Document, error)

	// WriteMetadata replaces Title and Author on doc.
	WriteMetadata(doc *Document, md Metadata) error

	// Save writes doc to path. path must not exist. Failures are *WriteError.
	Save(doc *Document, path string) error
}

// ReadError reports a document that could not be opened or parsed.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read document %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a document that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write document %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Package testutil builds on-disk fixtures for tests: small but real PDFs and
// nested source trees.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TestingT is the subset of testing.T the helpers need.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// PDF describes a synthetic document.
type PDF struct {
	Pages  int
	Title  string
	Author string

	// RawAuthor is written verbatim as the Author object, e.g. `(J. M\374ller)`
	// for a CP1252 literal. It takes precedence over Author.
	RawAuthor string

	// IndirectTitle stores Title in its own object referenced from Info.
	IndirectTitle bool
}

// WritePDF writes a minimal valid PDF with blank letter-size pages.
// Parent directories are created.
func WritePDF(t TestingT, path string, doc PDF) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, BuildPDF(doc), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// BuildPDF renders doc as PDF 1.4 bytes with a correct cross-reference table.
func BuildPDF(doc PDF) []byte {
	pages := doc.Pages
	if pages < 1 {
		pages = 1
	}

	// 1: catalog, 2: page tree, 3..3+pages-1: pages, then optional title and info.
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))

	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	infoRef := ""
	if doc.Title != "" || doc.Author != "" || doc.RawAuthor != "" {
		var info strings.Builder
		info.WriteString("<<")
		if doc.Title != "" {
			title := fmt.Sprintf("(%s)", escape(doc.Title))
			if doc.IndirectTitle {
				objects = append(objects, title)
				title = fmt.Sprintf("%d 0 R", len(objects))
			}
			fmt.Fprintf(&info, " /Title %s", title)
		}
		switch {
		case doc.RawAuthor != "":
			fmt.Fprintf(&info, " /Author %s", doc.RawAuthor)
		case doc.Author != "":
			fmt.Fprintf(&info, " /Author (%s)", escape(doc.Author))
		}
		info.WriteString(" >>")
		objects = append(objects, info.String())
		infoRef = fmt.Sprintf(" /Info %d 0 R", len(objects))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\n", len(objects)+1, infoRef)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)

	return buf.Bytes()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

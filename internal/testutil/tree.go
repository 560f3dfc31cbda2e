package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Tree maps slash-separated relative paths to documents.
// Paths ending in ".pdf" get PDF content; anything else gets a few bytes of text.
type Tree map[string]PDF

// Build creates the tree under root.
func (tr Tree) Build(t TestingT, root string) {
	t.Helper()

	for rel, doc := range tr {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if filepath.Ext(path) == ".pdf" {
			WritePDF(t, path, doc)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("not a document\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// Snapshot returns a content hash for every regular file under root, keyed by
// slash-separated relative path.
func Snapshot(t TestingT, root string) map[string]string {
	t.Helper()

	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		out[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot %s: %v", root, err)
	}
	return out
}

// Entries lists the names directly under dir, sorted, with a trailing "/" on directories.
func Entries(t TestingT, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

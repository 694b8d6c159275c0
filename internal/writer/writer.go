// Package writer persists a downloaded policy document. The
// destination is acquired as a pending temp file before the download
// starts; Abort removes it on any failure or interrupt, and Commit
// validates and renames it into place, so a partial download never
// survives at the destination path.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
)

// PendingFile is a destination path acquired for writing but not yet
// committed.
type PendingFile struct {
	path      string
	tmp       string
	f         *os.File
	committed bool
}

// Begin opens <path>.tmp for writing. The caller must ensure the parent
// directory exists.
func Begin(path string) (*PendingFile, error) {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", tmp, err)
	}
	return &PendingFile{path: path, tmp: tmp, f: f}, nil
}

// Commit validates doc as well-formed JSON, writes it, and renames the
// temp file onto the destination. The document bytes are written
// verbatim, not reformatted.
func (p *PendingFile) Commit(doc []byte) error {
	if !json.Valid(doc) {
		return fmt.Errorf("fetched document is not well-formed JSON")
	}
	if _, err := p.f.Write(doc); err != nil {
		return fmt.Errorf("writing %s: %w", p.tmp, err)
	}
	if err := p.f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", p.tmp, err)
	}
	if err := p.f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", p.tmp, err)
	}
	if err := os.Rename(p.tmp, p.path); err != nil {
		return fmt.Errorf("renaming %s: %w", p.tmp, err)
	}
	p.committed = true
	return nil
}

// Abort discards the pending file. Safe to call after Commit and safe
// to call twice; intended for use in a defer.
func (p *PendingFile) Abort() {
	if p.committed {
		return
	}
	p.committed = true
	p.f.Close()
	os.Remove(p.tmp)
}

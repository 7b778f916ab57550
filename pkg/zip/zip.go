// Package zip packs a session's generated artifacts and manifest into one
// downloadable archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Entry is one file in the bundle.
type Entry struct {
	Name string
	Data []byte
}

// Archive packs the entries in order. Entries without data are skipped so
// callers can list optional artifacts unconditionally.
func Archive(entries []Entry, modified time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		if len(entry.Data) == 0 {
			continue
		}
		header := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate, Modified: modified}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}

// Package zip assembles in-memory zip containers, used for OOXML
// document output.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Part is one named member of a container. Parts are written in slice
// order so identical inputs produce identical archives.
type Part struct {
	Name string
	Data []byte
}

// Archive builds a zip container from parts.
func Archive(parts []Part) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, part := range parts {
		w, err := zw.Create(part.Name)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", part.Name, err)
		}
		if _, err := w.Write(part.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", part.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}

// Extract returns the named member of a zip container.
func Extract(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip: open container: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("zip: open %s: %w", name, err)
		}
		defer func() {
			_ = rc.Close()
		}()
		buf := &bytes.Buffer{}
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("zip: read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("zip: member %s not found", name)
}

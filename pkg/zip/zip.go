// Package zip builds downloadable archives of generated mini app assets.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Asset is one file to place in the archive.
type Asset struct {
	Filename string
	Data     []byte
}

// Archive writes the assets, plus an optional manifest as the first entry,
// into a single zip and returns its bytes.
func Archive(manifest []byte, assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	if len(manifest) > 0 {
		w, err := zw.Create("manifest.json")
		if err != nil {
			return nil, fmt.Errorf("create manifest entry: %w", err)
		}
		if _, err := w.Write(manifest); err != nil {
			return nil, fmt.Errorf("write manifest: %w", err)
		}
	}
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

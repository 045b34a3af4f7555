// Package ingest reads detector+tracker output files. The core has no
// opinion on how frames are produced; this package covers the batch
// case of a JSON file holding the whole ordered frame sequence.
package ingest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Benoitbolivard/Project-basket/internal/model"
)

// File is one decoded detector+tracker output file.
type File struct {
	SourceHash    string              `json:"-"`
	VideoMetadata map[string]any      `json:"video_metadata"`
	Frames        []model.FrameRecord `json:"frames"`
}

// Load reads and decodes the frames file at path. The file content is
// hashed for idempotency so re-analyzing the same input is detected by
// the storage layer.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frames file: %w", err)
	}
	defer f.Close()

	// Hash file for idempotency key.
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash frames file: %w", err)
	}

	// Seek back to start for the decoder.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek frames file: %w", err)
	}

	var out File
	dec := json.NewDecoder(f)
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode frames file: %w", err)
	}
	if len(out.Frames) == 0 {
		return nil, fmt.Errorf("frames file %s holds no frames", path)
	}
	out.SourceHash = fmt.Sprintf("%x", h.Sum(nil))
	return &out, nil
}

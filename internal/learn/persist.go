package learn

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// blobStore persists one JSON document at a fixed path. The filesystem is
// injected so tests run against an in-memory fs.
type blobStore struct {
	fs   afero.Fs
	path string
}

// load unmarshals the blob into v and reports whether v now holds a valid
// document. A missing file or a malformed payload is not an error: the caller
// falls back to zero-valued defaults.
func (b *blobStore) load(v any) (bool, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("discarding malformed learning state", "path", b.path, "error", err)
		return false, nil
	}
	return true, nil
}

func (b *blobStore) save(v any) error {
	if dir := filepath.Dir(b.path); dir != "." {
		if err := b.fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(b.fs, b.path, data, 0644)
}

package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
)

// FileKV keeps all keys in one JSON document. Writes go to a temporary file
// that is renamed over the target, so a reader never sees a partial document.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV creates a file store at path. The file is created on first write.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// DefaultFilePath returns credentials.json inside dir.
func DefaultFilePath(dir string) string {
	return filepath.Join(dir, "credentials.json")
}

// Name identifies the store in logs.
func (f *FileKV) Name() string { return "file" }

// Path returns the document location.
func (f *FileKV) Path() string { return f.path }

// Get implements KV.
func (f *FileKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements KV.
func (f *FileKV) Set(_ context.Context, pairs map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	for k, v := range pairs {
		values[k] = v
	}
	return f.store(values)
}

// Delete implements KV. The document is removed once it holds no keys.
func (f *FileKV) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to remove credential file", err)
		}
		return nil
	}
	return f.store(values)
}

func (f *FileKV) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read credential file", err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.NewFileUnmarshalError(f.path, "JSON", err)
	}
	return values, nil
}

func (f *FileKV) store(values map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create credential directory", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to encode credentials", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create temporary credential file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to restrict credential file", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write credential file", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write credential file", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to replace %s", f.path), err)
	}
	return nil
}

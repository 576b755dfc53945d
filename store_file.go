package console

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	goerrors "github.com/goliatone/go-errors"
)

// FileStore persists the session as a JSON document on disk, the desktop
// analog of the browser's local storage. Credentials are written 0600.
type FileStore struct {
	path string
}

var _ SessionStore = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) (*Session, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read session file")
	}

	record := storageRecord{}
	if err := json.Unmarshal(raw, &record); err != nil {
		// a corrupt session file reads as unauthenticated
		return nil, nil
	}

	return decodeRecord(record)
}

func (f *FileStore) Save(_ context.Context, session Session) error {
	record, err := encodeRecord(session)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize session record")
	}

	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session directory")
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write session file")
	}

	if err := os.Rename(tmp, f.path); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace session file")
	}

	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove session file")
	}
	return nil
}

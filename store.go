package console

import (
	"context"
	"encoding/json"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Storage record keys, fixed names mirroring the browser storage contract.
const (
	StorageKeyToken   = "authToken"
	StorageKeyProfile = "user"
)

// storageRecord is the serialized shape shared by the file and bun stores:
// the opaque token under one key, the cached profile under the other.
type storageRecord struct {
	AuthToken string          `json:"authToken,omitempty"`
	User      json.RawMessage `json:"user,omitempty"`
}

func encodeRecord(session Session) (storageRecord, error) {
	profile := session
	profile.Token = ""

	raw, err := json.Marshal(profile)
	if err != nil {
		return storageRecord{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize session profile")
	}

	return storageRecord{
		AuthToken: session.Token,
		User:      raw,
	}, nil
}

func decodeRecord(record storageRecord) (*Session, error) {
	if record.AuthToken == "" || len(record.User) == 0 {
		// partial state is invalid, read as unauthenticated
		return nil, nil
	}

	session := &Session{}
	if err := json.Unmarshal(record.User, session); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse stored session profile")
	}

	session.Token = record.AuthToken
	if !session.Valid() {
		return nil, nil
	}

	return session, nil
}

// MemoryStore is a volatile SessionStore, handy for tests and for callers
// that never want credentials written to disk.
type MemoryStore struct {
	mu     sync.Mutex
	record *storageRecord
}

var _ SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record == nil {
		return nil, nil
	}
	return decodeRecord(*m.record)
}

func (m *MemoryStore) Save(_ context.Context, session Session) error {
	record, err := encodeRecord(session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = &record
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}

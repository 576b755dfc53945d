package console

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// StoredSession is the persisted session row for the sqlite-backed store.
type StoredSession struct {
	bun.BaseModel `bun:"table:console_sessions,alias:cses"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	AuthToken     string     `bun:"auth_token,notnull" json:"authToken,omitempty"`
	Profile       string     `bun:"profile,notnull" json:"user,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BunStore keeps the session in a sqlite database so a console server can
// survive restarts without forcing a fresh login.
type BunStore struct {
	db       *bun.DB
	sessions repository.Repository[*StoredSession]
	recordID uuid.UUID
}

var _ SessionStore = (*BunStore)(nil)

// NewBunStore wraps an existing bun DB. The single session row uses a
// deterministic id derived from the storage key so saves upsert in place.
func NewBunStore(db *bun.DB) (*BunStore, error) {
	recordID, err := hashid.NewUUID(StorageKeyToken)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive session record id")
	}

	repo := repository.NewRepository[*StoredSession](db, repository.ModelHandlers[*StoredSession]{
		NewRecord: func() *StoredSession { return &StoredSession{} },
		GetID: func(s *StoredSession) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *StoredSession, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "auth_token"
		},
	})

	return &BunStore{
		db:       db,
		sessions: repo,
		recordID: recordID,
	}, nil
}

// OpenSQLiteStore opens (or creates) a sqlite database at path and returns a
// ready BunStore.
func OpenSQLiteStore(ctx context.Context, path string) (*BunStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open session database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*StoredSession)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session table")
	}

	return NewBunStore(db)
}

func (b *BunStore) Load(ctx context.Context) (*Session, error) {
	record, err := b.sessions.GetByID(ctx, b.recordID.String())
	if err != nil {
		// a missing record is the expected cold-start flow, not an error
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load stored session")
	}

	return decodeRecord(storageRecord{
		AuthToken: record.AuthToken,
		User:      json.RawMessage(record.Profile),
	})
}

func (b *BunStore) Save(ctx context.Context, session Session) error {
	record, err := encodeRecord(session)
	if err != nil {
		return err
	}

	now := time.Now()
	stored := &StoredSession{
		ID:        b.recordID,
		AuthToken: record.AuthToken,
		Profile:   string(record.User),
		UpdatedAt: &now,
	}

	if _, err := b.sessions.Upsert(ctx, stored); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session")
	}

	return nil
}

func (b *BunStore) Clear(ctx context.Context) error {
	if _, err := b.db.NewDelete().
		Model((*StoredSession)(nil)).
		Where("id = ?", b.recordID).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear stored session")
	}
	return nil
}

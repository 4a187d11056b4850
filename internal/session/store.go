package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by GetSession for an identity that has never been seen.
var ErrNotFound = errors.New("session not found")

// Session is the stored state for one identity.
type Session struct {
	UserID      string
	Credential  string
	LastEventID string
	UpdatedAt   time.Time
}

// Authorized reports whether a credential is on file.
func (s *Session) Authorized() bool {
	return s != nil && s.Credential != ""
}

// Store persists sessions. Implementations are safe for concurrent use and
// writes are last-write-wins.
type Store interface {
	// GetSession returns ErrNotFound for an unknown identity.
	GetSession(ctx context.Context, userID string) (*Session, error)
	SaveCredential(ctx context.Context, userID, credential string) error
	SaveLastEventID(ctx context.Context, userID, eventID string) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendValkey    = "valkey"
	BackendFirestore = "firestore"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	SQLitePath string

	Valkey    ValkeyConfig
	Firestore FirestoreConfig

	// EncryptionKey is a 32-byte AES key. Empty disables encryption.
	EncryptionKey []byte
}

// Validate reports settings missing for the selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, "":
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite session store requires a database path")
		}
	case BackendValkey:
		if c.Valkey.URL == "" {
			return fmt.Errorf("valkey session store requires a URL")
		}
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore session store requires a project id")
		}
	default:
		return fmt.Errorf("unknown session store %q, must be one of: memory, sqlite, valkey, firestore", c.Backend)
	}
	if len(c.EncryptionKey) != 0 && len(c.EncryptionKey) != 32 {
		return fmt.Errorf("encryption key must be 32 bytes, got %d", len(c.EncryptionKey))
	}
	return nil
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case BackendMemory, "":
		store = NewMemoryStore()
	case BackendSQLite:
		store, err = NewSQLiteStore(ctx, cfg.SQLitePath)
	case BackendValkey:
		store, err = NewValkeyStore(cfg.Valkey)
	case BackendFirestore:
		store, err = NewFirestoreStore(ctx, cfg.Firestore)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s session store: %w", cfg.Backend, err)
	}

	if len(cfg.EncryptionKey) > 0 {
		enc, err := NewEncryptor(cfg.EncryptionKey)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		store = NewEncryptedStore(store, enc)
	}
	return store, nil
}

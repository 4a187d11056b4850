package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the Store contract shared by every backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	const user = "whatsapp:+56912345678"

	_, err := store.GetSession(ctx, user)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveCredential(ctx, user, "refresh-1"))
	sess, err := store.GetSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, user, sess.UserID)
	assert.Equal(t, "refresh-1", sess.Credential)
	assert.Empty(t, sess.LastEventID)
	assert.True(t, sess.Authorized())

	// Saving the event id keeps the credential.
	require.NoError(t, store.SaveLastEventID(ctx, user, "evt-1"))
	sess, err = store.GetSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", sess.Credential)
	assert.Equal(t, "evt-1", sess.LastEventID)
	assert.False(t, sess.UpdatedAt.IsZero())

	// Re-authorizing keeps the event id.
	require.NoError(t, store.SaveCredential(ctx, user, "refresh-2"))
	sess, err = store.GetSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", sess.Credential)
	assert.Equal(t, "evt-1", sess.LastEventID)

	// An event id without credential does not authorize.
	require.NoError(t, store.SaveLastEventID(ctx, "other", "evt-9"))
	sess, err = store.GetSession(ctx, "other")
	require.NoError(t, err)
	assert.False(t, sess.Authorized())

	assert.Error(t, store.SaveCredential(ctx, "", "x"))
	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SaveCredential(ctx, "u", "c"))

	sess, err := store.GetSession(ctx, "u")
	require.NoError(t, err)
	sess.Credential = "mutated"

	again, err := store.GetSession(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "c", again.Credential)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.SaveLastEventID(ctx, "u", "evt")
			_, _ = store.GetSession(ctx, "u")
		}()
	}
	wg.Wait()

	sess, err := store.GetSession(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "evt", sess.LastEventID)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "sessions.db")

	store, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.SaveCredential(ctx, "u", "c"))
	require.NoError(t, store.Close())

	// Migrations are idempotent and data survives.
	store, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	sess, err := store.GetSession(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "c", sess.Credential)
}

func TestEncryptedStore(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	inner := NewMemoryStore()
	exerciseStore(t, NewEncryptedStore(inner, enc))

	raw, err := inner.GetSession(context.Background(), "whatsapp:+56912345678")
	require.NoError(t, err)
	assert.NotEqual(t, "refresh-2", raw.Credential)
	assert.Contains(t, raw.Credential, sealedPrefix)
}

func TestEncryptedStore_ReadsLegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.SaveCredential(ctx, "u", "plain-refresh"))

	key, _ := GenerateKey()
	enc, _ := NewEncryptor(key)

	sess, err := NewEncryptedStore(inner, enc).GetSession(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "plain-refresh", sess.Credential)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default memory", Config{}, false},
		{"sqlite with path", Config{Backend: BackendSQLite, SQLitePath: "x.db"}, false},
		{"sqlite without path", Config{Backend: BackendSQLite}, true},
		{"valkey without url", Config{Backend: BackendValkey}, true},
		{"firestore without project", Config{Backend: BackendFirestore}, true},
		{"unknown backend", Config{Backend: "postgres"}, true},
		{"short key", Config{EncryptionKey: []byte("short")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpen_MemoryWithEncryption(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	store, err := Open(context.Background(), Config{Backend: BackendMemory, EncryptionKey: key})
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*EncryptedStore)
	assert.True(t, ok)
}

func TestOpen_SQLite(t *testing.T) {
	store, err := Open(context.Background(), Config{
		Backend:    BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "s.db"),
	})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.GetSession(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

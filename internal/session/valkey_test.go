package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValkeyClientOption(t *testing.T) {
	opt, err := valkeyClientOption(ValkeyConfig{URL: "valkey:6379", Password: "pw", DB: 2, TLSEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"valkey:6379"}, opt.InitAddress)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.SelectDB)
	assert.NotNil(t, opt.TLSConfig)

	opt, err = valkeyClientOption(ValkeyConfig{URL: "redis://:secret@cache:6380/3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cache:6380"}, opt.InitAddress)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 3, opt.SelectDB)
	assert.Nil(t, opt.TLSConfig)
}

func TestSessionFromHash(t *testing.T) {
	_, err := sessionFromHash("u", map[string]string{})
	assert.True(t, errors.Is(err, ErrNotFound))

	sess, err := sessionFromHash("u", map[string]string{
		fieldCredential:  "c",
		fieldLastEventID: "e",
		fieldUpdatedAt:   "1704873600",
	})
	require.NoError(t, err)
	assert.Equal(t, "c", sess.Credential)
	assert.Equal(t, "e", sess.LastEventID)
	assert.Equal(t, time.Unix(1704873600, 0), sess.UpdatedAt)

	_, err = sessionFromHash("u", map[string]string{fieldUpdatedAt: "yesterday"})
	assert.Error(t, err)
}

func TestFirestoreSession_ToSession(t *testing.T) {
	now := time.Now()
	sess := firestoreSession{RefreshToken: "r", LastEventID: "e", UpdatedAt: now}.toSession("u")
	assert.Equal(t, &Session{UserID: "u", Credential: "r", LastEventID: "e", UpdatedAt: now}, sess)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biomed-search/cache"
)

func newTestSessions() *SessionManager {
	return NewSessionManager(cache.NewMemoryStore(time.Hour, time.Hour), time.Hour)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := newTestSessions()

	s, err := m.New(ctx)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
	assert.Len(t, s.CSRFToken, 64)

	s.UserID = 5
	s.Next = "/collections"
	require.NoError(t, m.Save(ctx, s))

	loaded, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.Authenticated())
	assert.Equal(t, "/collections", loaded.Next)

	require.NoError(t, m.Destroy(ctx, s.ID))
	loaded, err = m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionGetIgnoresMalformedIDs(t *testing.T) {
	s, err := newTestSessions().Get(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionRotate(t *testing.T) {
	ctx := context.Background()
	m := newTestSessions()

	s, err := m.New(ctx)
	require.NoError(t, err)
	s.UserID = 9

	rotated, err := m.Rotate(ctx, s)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, rotated.ID)
	assert.NotEqual(t, s.CSRFToken, rotated.CSRFToken)
	assert.Equal(t, uint(9), rotated.UserID)

	old, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestValidCSRF(t *testing.T) {
	s := &Session{CSRFToken: "abc123"}
	assert.True(t, ValidCSRF(s, "abc123"))
	assert.False(t, ValidCSRF(s, "abc124"))
	assert.False(t, ValidCSRF(s, ""))
	assert.False(t, ValidCSRF(nil, "abc123"))
	assert.False(t, ValidCSRF(&Session{}, ""))
}

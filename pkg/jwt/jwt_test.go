package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	tok, err := m.Generate("u1", "alice")
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	tok, err := m.Generate("u1", "alice")
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewManager("secret", time.Nanosecond)
	old, err := expired.Generate("u1", "alice")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = expired.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

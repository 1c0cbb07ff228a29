package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrm-io/gocrm-ce/internal/repository"
	"github.com/gocrm-io/gocrm-ce/internal/repository/memory"
)

func TestSessionLifecycle(t *testing.T) {
	svc := NewSessionService(memory.NewSessionRepository(), time.Hour)

	id, err := svc.CreateSession(context.Background(), 7, "jdoe", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	session, err := svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.AgentID)
	assert.Equal(t, "jdoe", session.Username)

	require.NoError(t, svc.KillSession(context.Background(), id))

	_, err = svc.GetSession(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionExpiry(t *testing.T) {
	svc := NewSessionService(memory.NewSessionRepository(), -time.Minute)

	id, err := svc.CreateSession(context.Background(), 7, "jdoe", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	// Already past its expiry; the lookup reaps it.
	_, err = svc.GetSession(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionTouch(t *testing.T) {
	store := memory.NewSessionRepository()
	svc := NewSessionService(store, time.Hour)

	id, err := svc.CreateSession(context.Background(), 7, "jdoe", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	before, err := store.Get(context.Background(), id)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.TouchSession(context.Background(), id))

	after, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, after.LastRequest.After(before.LastRequest))
}

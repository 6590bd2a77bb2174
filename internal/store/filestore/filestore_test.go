package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Popolzen/shortly/internal/model"
)

func TestURLStore_PersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	s := NewURLStore(path)
	require.NoError(t, s.PutIfAbsent(ctx, model.URL{
		ShortCode:   "abc1234",
		OriginalURL: "https://example.com",
		OwnerID:     "alice",
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
	}))
	_, err := s.IncrementClicks(ctx, "abc1234")
	require.NoError(t, err)

	// Новый экземпляр поднимает состояние из файла
	reloaded := NewURLStore(path)
	got, err := reloaded.Get(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.OriginalURL)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, int64(1), got.TotalClicks)
	assert.True(t, got.IsActive)
}

func TestURLStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	s := NewURLStore(path)
	_, err := s.Get(context.Background(), "abc1234")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestURLStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken json\n"), 0644))

	s := NewURLStore(path)
	_, err := s.Get(context.Background(), "abc1234")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestURLStore_DeleteSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	s := NewURLStore(path)
	require.NoError(t, s.PutIfAbsent(ctx, model.URL{ShortCode: "stay000", OriginalURL: "https://example.com/stay"}))
	require.NoError(t, s.PutIfAbsent(ctx, model.URL{ShortCode: "gone000", OriginalURL: "https://example.com/gone"}))
	require.NoError(t, s.Delete(ctx, "gone000"))

	reloaded := NewURLStore(path)
	_, err := reloaded.Get(ctx, "gone000")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = reloaded.Get(ctx, "stay000")
	assert.NoError(t, err)
}

func TestURLStore_SnapshotFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	ctx := context.Background()

	s := NewURLStore(path)
	require.NoError(t, s.PutIfAbsent(ctx, model.URL{ShortCode: "abc1234", OriginalURL: "https://example.com"}))
	require.NoError(t, s.PutIfAbsent(ctx, model.URL{ShortCode: "def5678", OriginalURL: "https://example.org"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Одна JSON-строка на запись
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{"))
	}
}

func TestUserStore_PersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	ctx := context.Background()

	s := NewUserStore(path)
	require.NoError(t, s.PutIfAbsent(ctx, model.User{
		UserID:         "id-1",
		Username:       "alice",
		PasswordDigest: "digest",
		Role:           "User",
		IsActive:       true,
	}))

	err := s.PutIfAbsent(ctx, model.User{UserID: "id-2", Username: "alice"})
	assert.ErrorIs(t, err, model.ErrKeyExists)

	reloaded := NewUserStore(path)
	byName, err := reloaded.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byName.UserID)

	byID, err := reloaded.GetByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

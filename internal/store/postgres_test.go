package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileuploader-backend/internal/domain"
)

// newTestPostgresStore connects to the database named in TEST_DATABASE_URL
// and applies migrations. Skipped when the variable is unset.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	conn := os.Getenv("TEST_DATABASE_URL")
	if conn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres store tests")
	}
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn, slog.Default()))
	s, err := NewPostgresStore(ctx, conn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresInsertConflictAndLifecycle(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	name := fmt.Sprintf("pg-test-%d", time.Now().UnixNano())
	asset := &domain.Asset{
		Name:       name,
		Extension:  ".bin",
		Location:   "filesLibrary/" + name + ".bin",
		UploadDate: time.Now().UTC(),
		Status:     domain.StatusInProgress,
	}

	id, err := s.Insert(ctx, asset)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Delete(ctx, id) })

	_, err = s.Insert(ctx, &domain.Asset{
		Name:       name,
		Extension:  ".bin",
		Location:   "filesLibrary/other.bin",
		UploadDate: time.Now().UTC(),
		Status:     domain.StatusInProgress,
	})
	assert.ErrorIs(t, err, ErrDuplicateName)

	exists, err := s.ExistsByName(ctx, name, ".bin")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.UpdateStatusAndSize(ctx, id, domain.StatusComplete, 42))
	got, err := s.FindByName(ctx, name, ".bin")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Size)
	assert.Equal(t, domain.StatusComplete, got.Status)

	completed, err := s.ListByStatus(ctx, domain.StatusComplete)
	require.NoError(t, err)
	found := false
	for _, a := range completed {
		if a.ID == id {
			found = true
		}
	}
	assert.True(t, found)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.FindByName(ctx, name, ".bin")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

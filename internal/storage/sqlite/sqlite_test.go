package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-roster/internal/types"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadEmpty(t *testing.T) {
	db := newTestDB(t)
	students, err := db.LoadStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	first := []types.Student{
		{ID: "S2", Name: "Alan", GPA: 4.0},
		{ID: "S1", Name: "Ada", GPA: 3.9},
	}
	require.NoError(t, db.SaveStudents(ctx, first))

	got, err := db.LoadStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Student{first[1], first[0]}, got)

	second := []types.Student{{ID: "S3", Name: "Grace", GPA: 0}}
	require.NoError(t, db.SaveStudents(ctx, second))

	got, err = db.LoadStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestReopenKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveStudents(ctx, []types.Student{{ID: "S1", Name: "Ada", GPA: 3.9}}))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.LoadStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSaveCancelledContext(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SaveStudents(context.Background(), []types.Student{{ID: "S1", Name: "Ada", GPA: 3.9}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, db.SaveStudents(ctx, []types.Student{{ID: "S2", Name: "Alan", GPA: 4}}))

	got, err := db.LoadStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "S1", got[0].ID)
}

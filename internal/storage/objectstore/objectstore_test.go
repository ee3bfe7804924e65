package objectstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-roster/internal/types"
)

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Config{Endpoint: "localhost:9000", Bucket: "roster"})
	assert.ErrorContains(t, err, "must provide")
}

func TestSnapshotEncoding(t *testing.T) {
	students := []types.Student{
		{ID: "S1", Name: "Ada", GPA: 3.9},
		{ID: "S2", Name: "Alan", GPA: 4},
	}

	for _, object := range []string{"students.txt", "students.txt.zst", "students.txt.br", "students.txt.gz"} {
		t.Run(object, func(t *testing.T) {
			data, err := encodeSnapshot(object, students)
			require.NoError(t, err)

			got, err := decodeSnapshot(object, bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, students, got)
		})
	}

	plain, err := encodeSnapshot("students.txt", students)
	require.NoError(t, err)
	assert.Equal(t, "S1,Ada,3.9\nS2,Alan,4.0\n", string(plain))
}

func TestDecodeEmptySnapshot(t *testing.T) {
	data, err := encodeSnapshot("students.txt.zst", nil)
	require.NoError(t, err)

	got, err := decodeSnapshot("students.txt.zst", bytes.NewReader(data))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func newTestStore(t *testing.T, object string) (*fakeS3, *Store) {
	t.Helper()
	fake, endpoint := newFakeS3(t, "roster")
	st, err := New(context.Background(), Config{
		Endpoint:  endpoint,
		AccessKey: "roster-access",
		SecretKey: "roster-secret-key",
		Bucket:    "roster",
		Region:    "us-east-1",
		Object:    object,
		Secure:    false,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return fake, st
}

func TestLoadMissingObjectIsEmpty(t *testing.T) {
	_, st := newTestStore(t, "students.txt.zst")

	got, err := st.LoadStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	students := []types.Student{
		{ID: "S1", Name: "Ada Lovelace", GPA: 3.9},
		{ID: "S2", Name: "Alan Turing", GPA: 4},
		{ID: "S3", Name: "Grace Hopper", GPA: 0},
	}

	for _, object := range []string{"students.txt", "students.txt.zst"} {
		t.Run(object, func(t *testing.T) {
			fake, st := newTestStore(t, object)
			require.NoError(t, st.SaveStudents(ctx, students))

			stored, ok := fake.object(object)
			require.True(t, ok)
			decoded, err := decodeSnapshot(object, bytes.NewReader(stored))
			require.NoError(t, err)
			assert.Equal(t, students, decoded)

			got, err := st.LoadStudents(ctx)
			require.NoError(t, err)
			assert.Equal(t, students, got)

			require.NoError(t, st.SaveStudents(ctx, students[:1]))
			got, err = st.LoadStudents(ctx)
			require.NoError(t, err)
			assert.Equal(t, students[:1], got)
		})
	}
}

func TestSavePlainObjectFormat(t *testing.T) {
	fake, st := newTestStore(t, "students.txt")
	require.NoError(t, st.SaveStudents(context.Background(), []types.Student{
		{ID: "S2", Name: "Alan", GPA: 4},
		{ID: "S1", Name: "Ada", GPA: 3.5},
	}))

	stored, ok := fake.object("students.txt")
	require.True(t, ok)
	assert.Equal(t, "S2,Alan,4.0\nS1,Ada,3.5\n", string(stored))
}

func TestNewMissingBucket(t *testing.T) {
	_, endpoint := newFakeS3(t, "roster")
	_, err := New(context.Background(), Config{
		Endpoint:  endpoint,
		AccessKey: "roster-access",
		SecretKey: "roster-secret-key",
		Bucket:    "archive",
		Region:    "us-east-1",
		Object:    "students.txt",
	})
	assert.ErrorContains(t, err, "bucket 'archive' doesn't exist")
}

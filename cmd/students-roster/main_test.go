package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-roster/internal/config"
	rosterapi "github.com/aanand-mishra/students-roster/internal/http/handlers/roster"
	"github.com/aanand-mishra/students-roster/internal/roster"
)

func TestAutoload(t *testing.T) {
	dir := t.TempDir()
	st := roster.New()
	require.NoError(t, autoload(st, filepath.Join(dir, "missing.txt")))
	assert.Equal(t, 0, st.Len())

	path := filepath.Join(dir, "students.txt")
	require.NoError(t, os.WriteFile(path, []byte("S1,Ada,3.9\n"), 0o644))
	require.NoError(t, autoload(st, path))
	assert.Equal(t, 1, st.Len())
}

func TestSetupBackups(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Backup{
		SQLitePath: filepath.Join(t.TempDir(), "backup.db"),
		Redis:      config.Redis{Addr: mr.Addr(), Key: "roster:test"},
	}

	m, err := setupBackups(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	assert.Equal(t, []string{"redis", "sqlite"}, m.Names())
}

func TestSetupBackupsNone(t *testing.T) {
	m, err := setupBackups(context.Background(), config.Backup{})
	require.NoError(t, err)
	assert.Empty(t, m.Names())
}

func TestSetupBackupsBadObjectStore(t *testing.T) {
	_, err := setupBackups(context.Background(), config.Backup{
		ObjectStore: config.ObjectStore{Endpoint: "localhost:9000"},
	})
	assert.ErrorContains(t, err, "object store")
}

func TestRouterEndToEnd(t *testing.T) {
	dir := t.TempDir()
	mr := miniredis.RunT(t)
	backups, err := setupBackups(context.Background(), config.Backup{
		Redis: config.Redis{Addr: mr.Addr(), Key: "roster:students"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = backups.Close() })

	st := roster.New()
	router := newRouter(st, backups, rosterapi.Files{
		DataDir:    dir,
		RosterPath: filepath.Join(dir, "students.txt"),
	})
	send := func(method, target, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
		return rec
	}

	require.Equal(t, http.StatusCreated, send(http.MethodPost, "/api/students", `{"id":"S1","name":"Ada","gpa":3.9}`).Code)
	require.Equal(t, http.StatusCreated, send(http.MethodPost, "/api/students", `{"id":"S2","name":"Alan","gpa":2.9}`).Code)

	rec := send(http.MethodGet, "/api/students/filter", "")
	assert.JSONEq(t, `[{"id":"S1","name":"Ada","gpa":3.9}]`, rec.Body.String())

	require.Equal(t, http.StatusOK, send(http.MethodPost, "/api/roster/save", "").Code)
	require.Equal(t, http.StatusOK, send(http.MethodPost, "/api/roster/backups/redis", "").Code)
	assert.True(t, mr.Exists("roster:students"))

	require.Equal(t, http.StatusOK, send(http.MethodDelete, "/api/students/S1", "").Code)
	require.Equal(t, http.StatusOK, send(http.MethodPost, "/api/roster/load", "").Code)
	_, ok := st.Get("S1")
	assert.True(t, ok)

	st.Clear()
	rec = send(http.MethodPost, "/api/roster/backups/redis/restore", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, st.Len())
}

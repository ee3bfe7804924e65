// Package roster contains the HTTP handlers that move the whole roster:
// saving it to and loading it from roster files, and copying it to and
// from the configured backup targets.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/students-roster/internal/backup"
	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	rstore "github.com/aanand-mishra/students-roster/internal/roster"
	"github.com/aanand-mishra/students-roster/internal/utils/response"
)

// Files tells the save and load handlers where roster files live.
type Files struct {
	// DataDir is where client-supplied file names are resolved.
	DataDir string
	// RosterPath is used when the client names no file.
	RosterPath string
}

// Backups is the part of *backup.Manager the handlers use.
type Backups interface {
	Names() []string
	Backup(ctx context.Context, name string, st *rstore.Store) (backup.Result, error)
	BackupAll(ctx context.Context, st *rstore.Store) ([]backup.Result, error)
	Restore(ctx context.Context, name string, st *rstore.Store) (int, error)
}

var _ Backups = (*backup.Manager)(nil)

type fileRequest struct {
	File string `json:"file"`
}

// FileResult is the success body of save and load.
type FileResult struct {
	Status   string `json:"status"`
	File     string `json:"file"`
	Students int    `json:"students"`
}

// resolve maps the optional file in the request body to a path. Only bare
// file names are accepted so clients cannot reach outside DataDir.
func (f Files) resolve(r *http.Request) (string, error) {
	var req fileRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", rerrors.NewValidationError("", "malformed JSON: "+err.Error())
	}

	name := strings.TrimSpace(req.File)
	if name == "" {
		return f.RosterPath, nil
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", rerrors.NewValidationError("file", "must be a bare file name")
	}
	return filepath.Join(f.DataDir, name), nil
}

// Save handles POST /api/roster/save.
//
// Request body (JSON, optional):
//
//	{ "file": "students.txt" }
//
// Without a file the configured roster path is written.
func Save(st *rstore.Store, files Files) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := files.resolve(r)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		slog.Info("saving roster", slog.String("file", path))

		n := st.Len()
		if err := st.SaveTo(path); err != nil {
			slog.Error("failed to save roster", slog.String("file", path), slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, FileResult{Status: response.StatusOK, File: path, Students: n})
	}
}

// Load handles POST /api/roster/load. The body is the same as for Save.
//
// Error responses:
//
//	404 Not Found            - the file does not exist; the roster is unchanged
//	422 Unprocessable Entity - a GPA did not parse; the lines before it stay loaded
func Load(st *rstore.Store, files Files) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := files.resolve(r)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		slog.Info("loading roster", slog.String("file", path))

		if err := st.LoadFrom(path); err != nil {
			slog.Error("failed to load roster", slog.String("file", path), slog.String("error", err.Error()))
			if errors.Is(err, fs.ErrNotExist) {
				err = &rerrors.NotFoundError{Kind: "roster file", Key: filepath.Base(path)}
			}
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, FileResult{Status: response.StatusOK, File: path, Students: st.Len()})
	}
}

// ListBackups handles GET /api/roster/backups.
func ListBackups(m Backups) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string][]string{"targets": m.Names()})
	}
}

// BackupAll handles POST /api/roster/backups.
// Every target receives the same snapshot. When a target fails the
// response is an error; the targets that succeeded keep their copy.
func BackupAll(st *rstore.Store, m Backups) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := m.BackupAll(r.Context(), st)
		if err != nil {
			slog.Error("backup failed",
				slog.Int("succeeded", len(results)),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, results)
	}
}

// Backup handles POST /api/roster/backups/{target}.
func Backup(st *rstore.Store, m Backups) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := m.Backup(r.Context(), r.PathValue("target"), st)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, res)
	}
}

// Restore handles POST /api/roster/backups/{target}/restore.
// The roster is replaced only once the snapshot has been read in full.
func Restore(st *rstore.Store, m Backups) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.PathValue("target")
		n, err := m.Restore(r.Context(), target, st)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"status":   response.StatusOK,
			"target":   target,
			"students": n,
		})
	}
}

// Package student contains the HTTP handlers for the Student resource.
//
// HANDLER PATTERN - THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// The router expects handlers with the signature
//
//	func(http.ResponseWriter, *http.Request)
//
// which has no room for the roster. Every handler is therefore built by a
// factory that receives its dependencies and returns the closure the
// router needs:
//
//	router.HandleFunc("POST /api/students", student.New(st))
//	//                                                 ^^
//	//                         New(st) runs ONCE at startup.
//	//                         The returned closure runs on EVERY request.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	"github.com/aanand-mishra/students-roster/internal/roster"
	"github.com/aanand-mishra/students-roster/internal/types"
	"github.com/aanand-mishra/students-roster/internal/utils/response"
)

// Roster is the part of *roster.Store the handlers use.
type Roster interface {
	Insert(s types.Student)
	Get(id string) (types.Student, bool)
	Delete(id string) bool
	Filter(keep func(types.Student) bool) []types.Student
	SortedBy(compare func(a, b types.Student) int) []types.Student
}

var _ Roster = (*roster.Store)(nil)

// studentRequest accepts gpa as a JSON number or as numeric text, the
// way it is typed into a form.
type studentRequest struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	GPA  json.RawMessage `json:"gpa"`
}

func decodeStudent(r *http.Request) (types.Student, error) {
	var req studentRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		// io.EOF means the body was completely empty.
		return types.Student{}, rerrors.NewValidationError("", "request body is empty")
	}
	if err != nil {
		return types.Student{}, rerrors.NewValidationError("", "malformed JSON: "+err.Error())
	}

	// gpa has no zero value to fall back on: 0.0 is a real GPA, so an
	// absent field must be told apart from "gpa": 0.
	if len(req.GPA) == 0 || string(req.GPA) == "null" {
		return types.Student{}, rerrors.NewValidationError("GPA", "is required")
	}
	text := string(req.GPA)
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(req.GPA, &text); err != nil {
			return types.Student{}, rerrors.NewValidationError("GPA", "must be a numeric value")
		}
	}
	gpa, err := types.ParseGPA(text)
	if err != nil {
		return types.Student{}, err
	}

	s := types.Student{ID: req.ID, Name: req.Name, GPA: gpa}
	s.Normalize()
	return s, nil
}

// writeInvalid reports every broken field rule in one response and
// returns true, or returns false when the record is valid.
func writeInvalid(w http.ResponseWriter, s types.Student) bool {
	fieldErrs := s.FieldErrors()
	if len(fieldErrs) == 0 {
		return false
	}
	response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(fieldErrs))
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
// Adds the student, replacing any record with the same id.
//
// Request body (JSON):
//
//	{ "id": "S1", "name": "Ada Lovelace", "gpa": 3.9 }
//
// Success response (201 Created): the stored record.
//
// Error responses:
//
//	400 Bad Request  - empty body, malformed JSON, or failed validation;
//	                   validation failures list every broken field
//
// ─────────────────────────────────────────────────────────────────────────────
func New(st Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("adding a student")

		// ── Step 1: Decode the JSON body ──────────────────────────────
		student, err := decodeStudent(r)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		// ── Step 2: Validate the decoded record ───────────────────────
		if writeInvalid(w, student) {
			return
		}

		// ── Step 3: Store it; Insert overwrites an existing id ────────
		st.Insert(student)
		slog.Info("student added", slog.String("id", student.ID))

		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Success response (200 OK):
//
//	{ "id": "S1", "name": "Ada Lovelace", "gpa": 3.9 }
//
// Error responses:
//
//	404 Not Found - no student with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(st Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.PathValue reads the {id} segment of the ServeMux pattern.
		id := strings.TrimSpace(r.PathValue("id"))
		slog.Info("getting a student", slog.String("id", id))

		student, ok := st.Get(id)
		if !ok {
			response.WriteError(w, rerrors.NewNotFoundError(id))
			return
		}
		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/students
// Returns every student ordered by id.
//
// Returns an empty array [] (not null) when the roster is empty.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(st Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")
		response.WriteJSON(w, http.StatusOK, st.SortedBy(roster.ByID))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces the whole record stored under the path id, creating it when
// absent.
//
// Request body (JSON); id is optional and must match the path if given:
//
//	{ "name": "Ada Lovelace", "gpa": 3.95 }
//
// Error responses:
//
//	400 Bad Request  - malformed body, id mismatch, or failed validation
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(st Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.PathValue("id"))
		slog.Info("updating a student", slog.String("id", id))

		// ── Step 1: Decode, then reconcile the body id with the path ──
		student, err := decodeStudent(r)
		if err == nil && student.ID != "" && student.ID != id {
			err = rerrors.NewValidationError("ID", "does not match the path")
		}
		if err != nil {
			response.WriteError(w, err)
			return
		}
		student.ID = id

		// ── Step 2: Validate, then overwrite ──────────────────────────
		if writeInvalid(w, student) {
			return
		}
		st.Insert(student)
		slog.Info("student updated", slog.String("id", id))

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/students/{id}
//
// Success response (200 OK): the removed record.
//
// Error responses:
//
//	404 Not Found - no student with that id
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(st Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.PathValue("id"))
		slog.Info("deleting a student", slog.String("id", id))

		// The record is read first so the response can echo it; a
		// concurrent delete between the two calls is reported as 404.
		student, ok := st.Get(id)
		if !ok || !st.Delete(id) {
			response.WriteError(w, rerrors.NewNotFoundError(id))
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Filter handles GET /api/students/filter
//
// Query parameters:
//
//	min_gpa - keep students whose GPA is strictly above it (default 3.0)
//	name    - keep students whose name contains it, ignoring case
//
// Results are ordered by descending GPA, ties by id.
// ─────────────────────────────────────────────────────────────────────────────
func Filter(st Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		minGPA := roster.DefaultMinGPA
		if v := q.Get("min_gpa"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				response.WriteError(w, rerrors.NewValidationError("min_gpa", "must be a numeric value"))
				return
			}
			minGPA = f
		}
		name := q.Get("name")
		slog.Info("filtering students",
			slog.Float64("min_gpa", minGPA),
			slog.String("name", name))

		above := roster.GPAAbove(minGPA)
		nameMatch := roster.NameContains(name)
		res := st.Filter(func(s types.Student) bool {
			return above(s) && nameMatch(s)
		})
		sortDescGPA(res)
		response.WriteJSON(w, http.StatusOK, res)
	}
}

func sortDescGPA(res []types.Student) {
	slices.SortFunc(res, roster.ByID)
	slices.SortStableFunc(res, roster.Descending(roster.ByGPA))
}

// ─────────────────────────────────────────────────────────────────────────────
// Sorted handles GET /api/students/sorted
//
// Query parameters:
//
//	by    - gpa (default), name or id
//	order - asc or desc; defaults to desc for gpa and asc otherwise
//
// ─────────────────────────────────────────────────────────────────────────────
func Sorted(st Roster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		by := q.Get("by")
		if by == "" {
			by = "gpa"
		}
		compare, err := roster.Comparator(by, q.Get("order"))
		if err != nil {
			response.WriteError(w, err)
			return
		}
		slog.Info("sorting students", slog.String("by", by))
		response.WriteJSON(w, http.StatusOK, st.SortedBy(compare))
	}
}

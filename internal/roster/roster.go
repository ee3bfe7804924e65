// Package roster holds the in-memory student roster: a map from student id
// to record with point lookup, delete, enumeration, filtering, sorting and
// load/save to the line-oriented roster file.
//
// The roster never validates. Callers run types.Student.Validate before
// Insert.
//
// A Store is safe for concurrent use. Mutations (Insert, Delete, Clear,
// Replace, Import, LoadFrom) take the write lock; everything else shares
// the read lock.
package roster

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aanand-mishra/students-roster/internal/codec"
	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	"github.com/aanand-mishra/students-roster/internal/storage"
	"github.com/aanand-mishra/students-roster/internal/types"
)

// Store is the roster. The zero value is not usable; call New.
type Store struct {
	mu       sync.RWMutex
	students map[string]types.Student
}

// New returns an empty roster.
func New() *Store {
	return &Store{students: make(map[string]types.Student)}
}

// Insert adds s, replacing any record with the same id.
func (st *Store) Insert(s types.Student) {
	st.mu.Lock()
	st.students[s.ID] = s
	st.mu.Unlock()
}

// Get returns the record for id. ok is false when there is none.
func (st *Store) Get(id string) (s types.Student, ok bool) {
	st.mu.RLock()
	s, ok = st.students[id]
	st.mu.RUnlock()
	return s, ok
}

// Delete removes the record for id and reports whether it existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.students[id]; !ok {
		return false
	}
	delete(st.students, id)
	return true
}

// Len returns the number of records.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.students)
}

// All returns a copy of every record. The order is unspecified. The result
// is never nil.
func (st *Store) All() []types.Student {
	st.mu.RLock()
	defer st.mu.RUnlock()
	res := make([]types.Student, 0, len(st.students))
	for _, s := range st.students {
		res = append(res, s)
	}
	return res
}

// Filter returns the records for which keep returns true, in unspecified
// order. The result is never nil.
func (st *Store) Filter(keep func(types.Student) bool) []types.Student {
	st.mu.RLock()
	defer st.mu.RUnlock()
	res := make([]types.Student, 0)
	for _, s := range st.students {
		if keep(s) {
			res = append(res, s)
		}
	}
	return res
}

// SortedBy returns every record ordered by compare. Records that compare
// equal come out in id order.
func (st *Store) SortedBy(compare func(a, b types.Student) int) []types.Student {
	res := st.All()
	slices.SortFunc(res, ByID)
	slices.SortStableFunc(res, compare)
	return res
}

// Clear removes every record.
func (st *Store) Clear() {
	st.mu.Lock()
	clear(st.students)
	st.mu.Unlock()
}

// Replace swaps the whole roster for students in one step. Later records
// win over earlier ones with the same id.
func (st *Store) Replace(students []types.Student) {
	m := make(map[string]types.Student, len(students))
	for _, s := range students {
		m[s.ID] = s
	}
	st.mu.Lock()
	st.students = m
	st.mu.Unlock()
}

// Export writes every record to w in the roster file format, ordered by id.
func (st *Store) Export(w io.Writer) error {
	return codec.Encode(w, st.SortedBy(ByID))
}

// Import clears the roster and then inserts every well-formed line of r.
// Lines without exactly three fields are skipped and counted.
//
// Import is not atomic: when a GPA fails to parse, the records read before
// that line stay in the roster and the *errors.ParseError is returned.
func (st *Store) Import(r io.Reader) (skipped int, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	clear(st.students)
	return codec.Decode(r, func(s types.Student) {
		st.students[s.ID] = s
	})
}

// SaveTo writes the roster to the file at path. The file is replaced
// atomically; a .gz, .zst or .br extension selects compression.
func (st *Store) SaveTo(path string) error {
	f, err := codec.Create(path)
	if err != nil {
		return err
	}
	defer f.Abort()

	if err := st.Export(f); err != nil {
		return err
	}
	return f.Close()
}

// LoadFrom replaces the roster with the contents of the file at path.
// It has the semantics of Import: the roster is cleared only once the file
// is open, and a malformed GPA leaves a partially loaded roster.
func (st *Store) LoadFrom(path string) error {
	r, err := codec.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	skipped, err := st.Import(r)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if skipped > 0 {
		slog.Debug("skipped malformed roster lines",
			slog.String("path", path),
			slog.Int("skipped", skipped))
	}
	return nil
}

// Backup writes a snapshot of the roster to backend.
func (st *Store) Backup(ctx context.Context, backend storage.Storage) error {
	return backend.SaveStudents(ctx, st.SortedBy(ByID))
}

// Restore replaces the roster with the backend's snapshot. The snapshot is
// read in full before the swap, so a failed Restore changes nothing.
func (st *Store) Restore(ctx context.Context, backend storage.Storage) error {
	students, err := backend.LoadStudents(ctx)
	if err != nil {
		return err
	}
	st.Replace(students)
	return nil
}

// ByID orders records by id.
func ByID(a, b types.Student) int {
	return cmp.Compare(a.ID, b.ID)
}

// ByName orders records by name.
func ByName(a, b types.Student) int {
	return cmp.Compare(a.Name, b.Name)
}

// ByGPA orders records by ascending GPA.
func ByGPA(a, b types.Student) int {
	return cmp.Compare(a.GPA, b.GPA)
}

// Descending reverses compare.
func Descending(compare func(a, b types.Student) int) func(a, b types.Student) int {
	return func(a, b types.Student) int {
		return compare(b, a)
	}
}

// DefaultMinGPA is the honours threshold the front ends filter on when
// the caller names none.
const DefaultMinGPA = 3.0

// GPAAbove keeps records whose GPA is strictly greater than threshold.
func GPAAbove(threshold float64) func(types.Student) bool {
	return func(s types.Student) bool {
		return s.GPA > threshold
	}
}

// GPAAtLeast keeps records whose GPA is greater than or equal to threshold.
func GPAAtLeast(threshold float64) func(types.Student) bool {
	return func(s types.Student) bool {
		return s.GPA >= threshold
	}
}

// NameContains keeps records whose name contains sub, ignoring case.
func NameContains(sub string) func(types.Student) bool {
	sub = strings.ToLower(sub)
	return func(s types.Student) bool {
		return strings.Contains(strings.ToLower(s.Name), sub)
	}
}

// Comparator resolves a sort key (gpa, name or id) and an order (asc,
// desc or "" for the key's default: desc for gpa, asc otherwise) into a
// comparison function for SortedBy.
func Comparator(by, order string) (func(a, b types.Student) int, error) {
	var compare func(a, b types.Student) int
	desc := false
	switch by {
	case "gpa":
		compare = ByGPA
		desc = true
	case "name":
		compare = ByName
	case "id":
		compare = ByID
	default:
		return nil, rerrors.NewValidationError("by", "must be one of gpa, name, id")
	}

	switch order {
	case "":
	case "asc":
		desc = false
	case "desc":
		desc = true
	default:
		return nil, rerrors.NewValidationError("order", "must be asc or desc")
	}

	if desc {
		return Descending(compare), nil
	}
	return compare, nil
}

// Package backup keeps the named snapshot targets configured for the
// service and copies the roster to and from them.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	"github.com/aanand-mishra/students-roster/internal/roster"
	"github.com/aanand-mishra/students-roster/internal/storage"
	"github.com/aanand-mishra/students-roster/internal/types"
)

// Result reports one completed backup.
type Result struct {
	Target   string        `json:"target"`
	Students int           `json:"students"`
	Duration time.Duration `json:"duration_ns"`
}

// Manager owns the targets and closes them.
type Manager struct {
	targets map[string]storage.Storage
}

// NewManager returns a manager without targets.
func NewManager() *Manager {
	return &Manager{targets: make(map[string]storage.Storage)}
}

// Add registers backend under name, replacing any previous target of that
// name. Add is meant for startup wiring and is not safe to call while
// backups run.
func (m *Manager) Add(name string, backend storage.Storage) {
	m.targets[name] = backend
}

// Names returns the target names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.targets))
	for name := range m.targets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *Manager) target(name string) (storage.Storage, error) {
	backend, ok := m.targets[name]
	if !ok {
		return nil, &rerrors.NotFoundError{Kind: "backup target", Key: name}
	}
	return backend, nil
}

// Backup writes a snapshot of st to the named target.
func (m *Manager) Backup(ctx context.Context, name string, st *roster.Store) (Result, error) {
	backend, err := m.target(name)
	if err != nil {
		return Result{}, err
	}
	return save(ctx, name, backend, st.SortedBy(roster.ByID))
}

func save(ctx context.Context, name string, backend storage.Storage, students []types.Student) (Result, error) {
	start := time.Now()
	if err := backend.SaveStudents(ctx, students); err != nil {
		return Result{}, rerrors.NewIOError("backup", name, err)
	}
	res := Result{Target: name, Students: len(students), Duration: time.Since(start)}
	slog.Info("roster backed up",
		slog.String("target", name),
		slog.Int("students", res.Students),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// BackupAll takes one snapshot of st and writes it to every target
// concurrently. It waits for all targets and returns the first error, if
// any; results of the targets that succeeded are returned either way.
func (m *Manager) BackupAll(ctx context.Context, st *roster.Store) ([]Result, error) {
	names := m.Names()
	students := st.SortedBy(roster.ByID)
	results := make([]Result, len(names))

	var g errgroup.Group
	for i, name := range names {
		backend := m.targets[name]
		g.Go(func() error {
			res, err := save(ctx, name, backend, students)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()

	done := make([]Result, 0, len(results))
	for _, res := range results {
		if res.Target != "" {
			done = append(done, res)
		}
	}
	return done, err
}

// Restore replaces the roster with the named target's snapshot and returns
// the number of students restored.
func (m *Manager) Restore(ctx context.Context, name string, st *roster.Store) (int, error) {
	backend, err := m.target(name)
	if err != nil {
		return 0, err
	}
	if err := st.Restore(ctx, backend); err != nil {
		return 0, rerrors.NewIOError("restore", name, err)
	}
	n := st.Len()
	slog.Info("roster restored", slog.String("target", name), slog.Int("students", n))
	return n, nil
}

// Close closes every target.
func (m *Manager) Close() error {
	var errs []error
	for _, name := range m.Names() {
		if err := m.targets[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

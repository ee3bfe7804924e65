// Package storage defines the Storage interface, the contract every
// snapshot backend satisfies.
//
// The roster lives in memory. A backend only holds copies of it: Backup
// writes the whole roster to a backend and Restore reads it back. Handlers
// and the roster depend on this interface alone, so a backend is swapped
// by changing the line in main.go that constructs it.
package storage

import (
	"context"

	"github.com/aanand-mishra/students-roster/internal/types"
)

// Storage is the snapshot contract.
type Storage interface {
	// SaveStudents replaces everything the backend holds with students.
	SaveStudents(ctx context.Context, students []types.Student) error

	// LoadStudents returns the last saved snapshot. A backend that has
	// never been written returns an empty slice, not an error.
	LoadStudents(ctx context.Context) ([]types.Student, error)

	// Close releases connections held by the backend.
	Close() error
}

// rosterctl edits a roster file from the command line.
//
// USAGE:
//
//	rosterctl [-file students.txt] <command> [args]
//
// Commands:
//
//	add ID NAME GPA    add a student, replacing any with the same id
//	get ID             show one student
//	delete ID          remove a student
//	list               show every student by id
//	filter [MIN]       show students with GPA above MIN (default 3.0)
//	sort               show students by GPA, highest first
//	backup DB          copy the roster into a SQLite database
//	restore DB         replace the roster with a SQLite database's copy
//
// Commands that change the roster write the file back.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strconv"

	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	"github.com/aanand-mishra/students-roster/internal/roster"
	"github.com/aanand-mishra/students-roster/internal/storage/sqlite"
	"github.com/aanand-mishra/students-roster/internal/types"
)

var errUsage = errors.New("usage: rosterctl [-file PATH] add|get|delete|list|filter|sort|backup|restore [args]")

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("rosterctl", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	path := flags.String("file", "students.txt", "Roster file to read and update")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}
	args = flags.Args()
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	st := roster.New()
	if err := load(st, *path); err != nil {
		return err
	}

	switch cmd {
	case "add":
		if len(args) != 3 {
			return errUsage
		}
		gpa, err := types.ParseGPA(args[2])
		if err != nil {
			return err
		}
		s := types.Student{ID: args[0], Name: args[1], GPA: gpa}
		s.Normalize()
		if err := s.Validate(); err != nil {
			return err
		}
		st.Insert(s)
		if err := st.SaveTo(*path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Student added successfully!\n%s\n", s)

	case "get":
		if len(args) != 1 {
			return errUsage
		}
		s, ok := st.Get(args[0])
		if !ok {
			fmt.Fprintf(out, "No student found with ID: %s\n", args[0])
			return nil
		}
		fmt.Fprintf(out, "Student found:\n%s\n", s)

	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		s, ok := st.Get(args[0])
		if !ok || !st.Delete(args[0]) {
			fmt.Fprintf(out, "No student found with ID: %s\n", args[0])
			return nil
		}
		if err := st.SaveTo(*path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Student deleted successfully:\n%s\n", s)

	case "list":
		students := st.SortedBy(roster.ByID)
		if len(students) == 0 {
			fmt.Fprintln(out, "No students in the database.")
			return nil
		}
		fmt.Fprintf(out, "All Students (%d):\n", len(students))
		printAll(out, students)

	case "filter":
		minGPA := roster.DefaultMinGPA
		if len(args) > 1 {
			return errUsage
		}
		if len(args) == 1 {
			f, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return rerrors.NewValidationError("MIN", "must be a numeric value")
			}
			minGPA = f
		}
		if st.Len() == 0 {
			fmt.Fprintln(out, "No students in the database.")
			return nil
		}
		above := roster.GPAAbove(minGPA)
		students := slices.DeleteFunc(st.SortedBy(roster.Descending(roster.ByGPA)), func(s types.Student) bool {
			return !above(s)
		})
		threshold := strconv.FormatFloat(minGPA, 'f', 1, 64)
		if len(students) == 0 {
			fmt.Fprintf(out, "No students found with GPA > %s\n", threshold)
			return nil
		}
		fmt.Fprintf(out, "Found %d students:\n", len(students))
		fmt.Fprintf(out, "Students with GPA > %s:\n", threshold)
		printAll(out, students)

	case "sort":
		students := st.SortedBy(roster.Descending(roster.ByGPA))
		if len(students) == 0 {
			fmt.Fprintln(out, "No students in the database.")
			return nil
		}
		fmt.Fprintln(out, "Students sorted by GPA (highest first):")
		printAll(out, students)

	case "backup", "restore":
		if len(args) != 1 {
			return errUsage
		}
		return syncDB(ctx, cmd, st, *path, args[0], out)

	default:
		return errUsage
	}
	return nil
}

// load reads the roster file if it exists; a missing file starts an empty
// roster.
func load(st *roster.Store, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return st.LoadFrom(path)
}

func syncDB(ctx context.Context, cmd string, st *roster.Store, path, dbPath string, out io.Writer) error {
	db, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd == "backup" {
		if err := st.Backup(ctx, db); err != nil {
			return err
		}
		fmt.Fprintf(out, "Data saved successfully to:\n%s\n", dbPath)
		return nil
	}

	if err := st.Restore(ctx, db); err != nil {
		return err
	}
	if err := st.SaveTo(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Data loaded successfully from:\n%s\n", dbPath)
	return nil
}

func printAll(out io.Writer, students []types.Student) {
	for _, s := range students {
		fmt.Fprintln(out, s)
	}
}

// Package codec reads and writes the roster file format: one student per
// line, fields joined by a literal comma,
//
//	S1,Ada Lovelace,3.9
//	S2,Alan Turing,4.0
//
// There is no header and no escaping. A comma inside an id or name
// corrupts its line; types.Student.Validate refuses such records so new
// data cannot produce one, but files written elsewhere may still hold them.
package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	"github.com/aanand-mishra/students-roster/internal/types"
)

const (
	separator = ","
	numFields = 3

	// maxLineSize bounds a single roster line.
	maxLineSize = 1 << 20
)

// FormatGPA renders gpa as the shortest fixed-point decimal that parses
// back to the same value, always keeping a fractional digit: 4 -> "4.0",
// 3.25 -> "3.25".
func FormatGPA(gpa float64) string {
	s := strconv.FormatFloat(gpa, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// EncodeLine renders one student without the trailing newline.
func EncodeLine(s types.Student) string {
	return s.ID + separator + s.Name + separator + FormatGPA(s.GPA)
}

// DecodeLine parses one roster line.
//
// Trailing empty fields are dropped before counting, so "S1,Ada," has two
// fields. ok is false when the line does not hold exactly three fields;
// such lines are skipped by Decode. A three-field line whose GPA is not a
// number yields a *errors.ParseError.
func DecodeLine(line string) (s types.Student, ok bool, err error) {
	parts := strings.Split(line, separator)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) != numFields {
		return types.Student{}, false, nil
	}

	gpa, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return types.Student{}, false, &rerrors.ParseError{Field: "gpa", Value: parts[2], Err: err}
	}
	return types.Student{ID: parts[0], Name: parts[1], GPA: gpa}, true, nil
}

// Encode writes every student as one line.
func Encode(w io.Writer, students []types.Student) error {
	bw := bufio.NewWriter(w)
	for _, s := range students {
		if _, err := bw.WriteString(EncodeLine(s)); err != nil {
			return rerrors.NewIOError("write", "", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return rerrors.NewIOError("write", "", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return rerrors.NewIOError("write", "", err)
	}
	return nil
}

// Decode streams r line by line and calls fn for every well-formed record,
// in file order. Malformed lines are skipped; the first GPA that fails to
// parse stops decoding with a *errors.ParseError carrying its line number.
// Records already handed to fn stay handed.
//
// It returns the number of lines skipped.
func Decode(r io.Reader, fn func(types.Student)) (skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		s, ok, err := DecodeLine(scanner.Text())
		if err != nil {
			if pErr, isParse := err.(*rerrors.ParseError); isParse {
				pErr.Line = lineNo
			}
			return skipped, err
		}
		if !ok {
			skipped++
			continue
		}
		fn(s)
	}
	if err := scanner.Err(); err != nil {
		return skipped, rerrors.NewIOError("read", "", fmt.Errorf("line %d: %w", lineNo+1, err))
	}
	return skipped, nil
}

// DecodeAll collects every well-formed record of r.
func DecodeAll(r io.Reader) ([]types.Student, error) {
	var students []types.Student
	_, err := Decode(r, func(s types.Student) {
		students = append(students, s)
	})
	return students, err
}

// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// the roster, its codec, the storage backends and the handlers all import
// types without depending on each other.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
)

// MaxGPA is the top of the grade-point scale.
const MaxGPA = 4.0

// Student represents a student record in the roster.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  controls how the field appears when encoded to JSON.
//
//  2. validate:"..." holds the rules checked by go-playground/validator.
//     GPA has no "required" rule because 0.0 is a legal GPA and
//     "required" rejects zero values.
type Student struct {
	ID   string  `json:"id"   validate:"required,excludesall=0x2C\n\r"`
	Name string  `json:"name" validate:"required,excludesall=0x2C\n\r"`
	GPA  float64 `json:"gpa"  validate:"gte=0,lte=4"`
}

// validate is shared: a validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = validator.New()

// Normalize trims surrounding whitespace from ID and Name, the way the
// entry form does before a record is submitted.
func (s *Student) Normalize() {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
}

// Validate checks the record before it is handed to the roster. The roster
// itself never validates; every front end calls this first.
//
// The first failing field is returned as a *errors.ValidationError.
func (s Student) Validate() error {
	fieldErrs := s.FieldErrors()
	if len(fieldErrs) == 0 {
		return nil
	}
	return FieldError(fieldErrs[0])
}

// FieldErrors returns every rule the record breaks, in field order, or nil
// when the record is valid. The HTTP handlers report all of them at once.
func (s Student) FieldErrors() validator.ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if errors.As(validate.Struct(s), &fieldErrs) {
		return fieldErrs
	}
	return nil
}

// FieldError converts one validator failure into a ValidationError with
// a message a person can act on.
func FieldError(fe validator.FieldError) error {
	switch fe.ActualTag() {
	case "required":
		return rerrors.NewValidationError(fe.Field(), "is required")
	case "gte", "lte":
		return rerrors.NewValidationError(fe.Field(), "must be between 0 and 4.0")
	case "excludesall":
		return rerrors.NewValidationError(fe.Field(), "must not contain commas or line breaks")
	default:
		return rerrors.NewValidationError(fe.Field(), "is invalid")
	}
}

// ParseGPA parses GPA text typed by a user. Non-numeric input is a
// validation error; the range is checked by Validate.
func ParseGPA(s string) (float64, error) {
	gpa, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, rerrors.NewValidationError("GPA", "must be a numeric value")
	}
	return gpa, nil
}

// String renders the record as one display line:
//
//	ID: S1         | Name: Ada Lovelace         | GPA: 3.90
func (s Student) String() string {
	return fmt.Sprintf("ID: %-10s | Name: %-20s | GPA: %.2f", s.ID, s.Name, s.GPA)
}

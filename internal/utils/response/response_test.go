package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	"github.com/aanand-mishra/students-roster/internal/types"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusCreated, map[string]string{"id": "S1"}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"S1"}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{rerrors.NewValidationError("GPA", "must be between 0 and 4.0"), http.StatusBadRequest},
		{rerrors.NewNotFoundError("S1"), http.StatusNotFound},
		{fmt.Errorf("load: %w", &rerrors.ParseError{Line: 1, Field: "gpa", Value: "x"}), http.StatusUnprocessableEntity},
		{rerrors.NewIOError("open", "a.txt", fs.ErrNotExist), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, rerrors.NewNotFoundError("S7")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, Response{Status: StatusError, Error: "no student found with id: S7"}, body)
}

func TestValidationError(t *testing.T) {
	err := validator.New().Struct(types.Student{GPA: 5})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	res := ValidationError(verrs)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t,
		"field ID is required, field Name is required, field GPA must be between 0 and 4.0",
		res.Error)
}

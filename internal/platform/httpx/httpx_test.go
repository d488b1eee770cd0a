package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("restaurants: get 7: %w", ErrNotFound), http.StatusNotFound},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"duplicate", ErrDuplicate, http.StatusConflict},
		{"validation", NewValidationError("name", "is required"), http.StatusBadRequest},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestRespondErrorHidesInternalMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("secret dsn leaked"))

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, GenericMessage, body.Message)
	assert.NotContains(t, rr.Body.String(), "secret")
}

func TestRespondErrorIncludesFieldErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("wrapped: %w", &ValidationError{Fields: map[string]string{"city": "is required"}}))

	var body ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Equal(t, "is required", body.Errors["city"])
}

type sample struct {
	Name     string `json:"name" validate:"required,max=5"`
	Email    string `json:"contact_email" validate:"omitempty,email"`
	Password string `json:"password"`
	Confirm  string `json:"confirm_password" validate:"eqfield=Password"`
}

func TestValidatorUsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := v.Struct(sample{Name: "toolongname", Email: "nope", Password: "a", Confirm: "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at most 5 characters", verr.Fields["name"])
	assert.Equal(t, "must be a valid email address", verr.Fields["contact_email"])
	assert.Equal(t, "must match password", verr.Fields["confirm_password"])
	assert.True(t, IsExpected(err))
}

func TestValidatorAcceptsValidStruct(t *testing.T) {
	assert.NoError(t, NewValidator().Struct(sample{Name: "KFC", Password: "x", Confirm: "x"}))
}

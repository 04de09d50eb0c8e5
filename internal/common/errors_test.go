package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewError(ErrValidation, "All fields are required"), http.StatusBadRequest},
		{NewError(ErrConflict, "Username already exists"), http.StatusBadRequest},
		{NewError(ErrInvalidCredentials, "Invalid username or password"), http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("wrapped: %w", NewError(ErrForbidden, "nope")), http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidTransition, http.StatusConflict},
		{&pgconn.PgError{Code: "23505"}, http.StatusBadRequest},
		{pkgerrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatusFromError(tc.err), "%v", tc.err)
	}
}

func TestClientMessage(t *testing.T) {
	assert.Equal(t, "Assignment not found", ClientMessage(fmt.Errorf("op: %w", NewError(ErrNotFound, "Assignment not found"))))
	assert.Equal(t, ErrNotFound.Error(), ClientMessage(fmt.Errorf("op: %w", ErrNotFound)))
	assert.Equal(t, "Internal server error", ClientMessage(pkgerrors.New("db down")))
}

func TestRespondWithServiceError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithServiceError(rec, "test", NewError(ErrForbidden, "not yours"), false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"not yours"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	RespondWithServiceError(rec, "test", pkgerrors.New("db down"), false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	RespondWithServiceError(rec, "test", pkgerrors.New("db down"), true)
	var body MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Message)
	assert.Contains(t, body.Stack, "db down")
	assert.Contains(t, body.Stack, "errors_test.go")
}

func TestErrorfKeepsCauseStack(t *testing.T) {
	cause := pkgerrors.Wrap(pkgerrors.New("connection refused"), "find user")
	err := Errorf("auth service: login: %w", cause)

	assert.Equal(t, "auth service: login: find user: connection refused", err.Error())
	assert.Equal(t, err.Error(), fmt.Sprintf("%v", err))
	assert.True(t, pkgerrors.Is(err, cause))

	rec := httptest.NewRecorder()
	RespondWithServiceError(rec, "login", err, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Stack, "auth service: login")
	assert.Contains(t, body.Stack, "TestErrorfKeepsCauseStack")
	assert.Contains(t, body.Stack, ".go:")
}

func TestErrorfWithoutStackedCause(t *testing.T) {
	err := Errorf("store: %w", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromError(err))
	assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")

	plain := Errorf("no cause %d", 1)
	assert.Equal(t, "no cause 1", plain.Error())
	assert.Contains(t, fmt.Sprintf("%+v", plain), ".go:")
}

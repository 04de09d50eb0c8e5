package handler

import (
	"assignment_desk/internal/api/middleware"
	"assignment_desk/internal/common"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// responder writes service failures; debug adds stacks to 500 bodies.
type responder struct {
	debug bool
}

func (rs responder) fail(w http.ResponseWriter, op string, err error) {
	common.RespondWithServiceError(w, op, err, rs.debug)
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst
// at its zero value.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized - No Token Provided")
		return "", false
	}
	return userID, true
}

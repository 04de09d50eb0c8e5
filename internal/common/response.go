package common

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, MessageResponse{Message: message})
}

// RespondWithInternalError logs err and writes the generic 500 body. The
// stack trace is only included when debug is set.
func RespondWithInternalError(w http.ResponseWriter, op string, err error, debug bool) {
	log.Printf("ERROR: %s: %v", op, err)
	resp := MessageResponse{Message: "Internal server error"}
	if debug {
		resp.Stack = fmt.Sprintf("%+v", err)
	}
	RespondWithJSON(w, http.StatusInternalServerError, resp)
}

// RespondWithServiceError maps err to a status and writes the matching body.
func RespondWithServiceError(w http.ResponseWriter, op string, err error, debug bool) {
	code := HTTPStatusFromError(err)
	if code == http.StatusInternalServerError {
		RespondWithInternalError(w, op, err, debug)
		return
	}
	RespondWithError(w, code, ClientMessage(err))
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

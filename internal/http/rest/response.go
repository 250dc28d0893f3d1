package rest

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/bwise1/workin/internal/presence"
	"github.com/bwise1/workin/util"
	"github.com/bwise1/workin/util/tracing"
	"github.com/bwise1/workin/util/values"
	"github.com/pkg/errors"
)

type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	log.Printf("[API] %v: %s: %v", tc, message, err)
	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	log.Printf("[API] %s: %v", message, err)
	resp := ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
	body, _ := json.Marshal(resp)
	writeJSONResponse(w, body, resp.StatusCode)
}

func writeJSONResponse(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}

// presenceStatus maps an engine error onto a response status and a message
// safe to show the caller.
func presenceStatus(err error) (string, string) {
	switch {
	case errors.Is(err, presence.ErrUnauthorized):
		return values.NotAuthorised, "not-authorized"
	case errors.Is(err, presence.ErrAlreadyCheckedIn):
		return values.Conflict, "You already have an active check-in"
	case errors.Is(err, presence.ErrNotCheckedIn):
		return values.NotAllowed, "Check in somewhere before asking to join"
	case errors.Is(err, presence.ErrSelfTarget):
		return values.BadRequestBody, "You cannot wave at yourself"
	case errors.Is(err, presence.ErrSelfJoin):
		return values.BadRequestBody, "You cannot join your own check-in"
	case errors.Is(err, presence.ErrAlreadyJoined):
		return values.Conflict, "You already joined this check-in"
	case errors.Is(err, presence.ErrHandleTaken):
		return values.Conflict, "That handle is already taken"
	case errors.Is(err, presence.ErrNotFound):
		return values.NotFound, "Not found"
	case errors.Is(err, presence.ErrInvalid):
		return values.Unprocessable, "Invalid request"
	default:
		return values.Error, "Something went wrong"
	}
}

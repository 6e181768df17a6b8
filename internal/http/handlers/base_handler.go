// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bvetra/internal/modules/chat"
	"bvetra/internal/modules/draft"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeServiceError(c *gin.Context, err error) {
	var verr *draft.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: verr.Reason, Field: string(verr.Field)})
	case errors.Is(err, chat.ErrSessionNotFound):
		writeError(c, http.StatusNotFound, "session not found")
	case errors.Is(err, draft.ErrUnknownField), errors.Is(err, draft.ErrUnknownCarClass):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, draft.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrDispatchUnavailable):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, chat.ErrNoAssistant):
		writeError(c, http.StatusInternalServerError, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// defaultSessionID backs single-visitor clients that do not track sessions.
const defaultSessionID = "default"

func sessionID(v string) string {
	if v == "" {
		return defaultSessionID
	}
	return v
}

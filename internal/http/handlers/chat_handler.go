// README: Chat handlers: blocking reply, streamed reply, widget metadata.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bvetra/internal/modules/chat"
	"bvetra/internal/modules/draft"
	"bvetra/internal/modules/quota"
)

// Quota is satisfied by quota.Service. A nil Quota disables metering.
type Quota interface {
	Use(ctx context.Context, sessionID string) error
}

type ChatHandler struct {
	chat  *chat.Service
	quota Quota
}

func NewChatHandler(svc *chat.Service, q Quota) *ChatHandler {
	return &ChatHandler{chat: svc, quota: q}
}

// checkQuota consumes one unit of the session allowance; reports whether the
// request may proceed.
func (h *ChatHandler) checkQuota(c *gin.Context, id string) bool {
	if h.quota == nil {
		return true
	}
	err := h.quota.Use(c.Request.Context(), id)
	switch {
	case err == nil:
		return true
	case errors.Is(err, quota.ErrExhausted):
		writeError(c, http.StatusTooManyRequests, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
	return false
}

type chatReq struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}
	id := sessionID(req.SessionID)
	if !h.checkQuota(c, id) {
		return
	}
	reply, err := h.chat.SendMessage(c.Request.Context(), id, req.Message, nil)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"reply": reply})
}

// Stream writes the assistant reply as plain-text chunks, flushed as they
// arrive. Errors raised before the first chunk are reported as JSON; once the
// body has started the truncated text is all the client gets.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}

	id := sessionID(req.SessionID)
	if !h.checkQuota(c, id) {
		return
	}

	// Headers go out with the first chunk so pre-stream failures can still
	// respond with JSON.
	streamHeaders := func() {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
	}

	written := 0
	reply, err := h.chat.SendMessage(c.Request.Context(), id, req.Message, func(partial string) {
		if len(partial) <= written {
			return
		}
		if written == 0 {
			streamHeaders()
		}
		_, _ = c.Writer.WriteString(partial[written:])
		written = len(partial)
		c.Writer.Flush()
	})
	if err != nil {
		if written == 0 {
			writeServiceError(c, err)
		}
		return
	}
	// Degraded replies arrive whole rather than chunk by chunk.
	if len(reply) > written {
		if written == 0 {
			streamHeaders()
		}
		_, _ = c.Writer.WriteString(reply[written:])
		c.Writer.Flush()
	}
}

var quickReplies = []string{
	"Заказать трансфер",
	"Трансфер в аэропорт",
	"Встреча с табличкой",
	"Узнать условия",
}

// Meta serves the static widget metadata: suggested prompts and the car
// class catalogue.
func (h *ChatHandler) Meta(c *gin.Context) {
	classes := []draft.CarClass{
		draft.CarClassStandard,
		draft.CarClassComfort,
		draft.CarClassBusiness,
		draft.CarClassPremium,
		draft.CarClassMinivan,
	}
	list := make([]map[string]string, 0, len(classes))
	for _, cc := range classes {
		list = append(list, map[string]string{"value": string(cc), "label": cc.Display()})
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"quickReplies": quickReplies,
		"carClasses":   list,
	})
}

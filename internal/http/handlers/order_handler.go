// README: Stateless order endpoint; validates and fans the order out.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bvetra/internal/modules/dispatch"
	"bvetra/internal/modules/draft"
	"bvetra/internal/phone"
	"bvetra/internal/types"
)

// Dispatcher is satisfied by dispatch.Coordinator.
type Dispatcher interface {
	Dispatch(ctx context.Context, d draft.Draft, history []types.Turn) dispatch.Submission
}

type OrderHandler struct {
	dispatcher Dispatcher
}

func NewOrderHandler(d Dispatcher) *OrderHandler {
	return &OrderHandler{dispatcher: d}
}

type orderFieldsReq struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Pickup   string `json:"pickup"`
	Dropoff  string `json:"dropoff"`
	Datetime string `json:"datetime"`
	CarClass string `json:"carClass"`
	Notes    string `json:"notes"`
}

type historyTurnReq struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createOrderReq struct {
	Order       orderFieldsReq   `json:"order"`
	ChatHistory []historyTurnReq `json:"chatHistory"`
}

// Create accepts a fully-formed order from a client that manages its own
// conversation state. Validation rejects the request before any channel is
// contacted; channel failures afterwards do not fail the request.
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	d := draft.New()
	d.Name = strings.TrimSpace(req.Order.Name)
	d.Phone = phone.Normalize(req.Order.Phone)
	d.Pickup = strings.TrimSpace(req.Order.Pickup)
	d.Dropoff = strings.TrimSpace(req.Order.Dropoff)
	d.Datetime = strings.TrimSpace(req.Order.Datetime)
	d.Notes = strings.TrimSpace(req.Order.Notes)
	if req.Order.CarClass != "" {
		cc, ok := draft.ParseCarClass(req.Order.CarClass)
		if !ok {
			writeJSON(c, http.StatusBadRequest, errorResponse{Error: "unknown car class", Field: string(draft.FieldCarClass)})
			return
		}
		d.CarClass = cc
	}
	if verr := d.Validate(); verr != nil {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: verr.Reason, Field: string(verr.Field)})
		return
	}

	history := make([]types.Turn, 0, len(req.ChatHistory))
	for i, t := range req.ChatHistory {
		history = append(history, types.Turn{Role: types.Role(t.Role), Content: t.Content, Seq: i})
	}

	// Started sends run to completion even if the client disconnects.
	sub := h.dispatcher.Dispatch(context.WithoutCancel(c.Request.Context()), d, history)
	writeJSON(c, http.StatusOK, map[string]any{"ok": true, "results": sub.ResultMap()})
}

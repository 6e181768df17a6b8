// README: Session handlers: draft inspection/editing, confirm, submit, clear.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bvetra/internal/modules/chat"
	"bvetra/internal/modules/draft"
)

type SessionHandler struct {
	chat *chat.Service
}

func NewSessionHandler(svc *chat.Service) *SessionHandler {
	return &SessionHandler{chat: svc}
}

func (h *SessionHandler) GetDraft(c *gin.Context) {
	d, err := h.chat.Draft(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"draft": d})
}

type draftPatchReq struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Pickup   *string `json:"pickup"`
	Dropoff  *string `json:"dropoff"`
	Datetime *string `json:"datetime"`
	CarClass *string `json:"carClass"`
	Notes    *string `json:"notes"`
}

func (h *SessionHandler) PatchDraft(c *gin.Context) {
	var req draftPatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	edits := map[draft.Field]string{}
	add := func(f draft.Field, v *string) {
		if v != nil {
			edits[f] = *v
		}
	}
	add(draft.FieldName, req.Name)
	add(draft.FieldPhone, req.Phone)
	add(draft.FieldPickup, req.Pickup)
	add(draft.FieldDropoff, req.Dropoff)
	add(draft.FieldDatetime, req.Datetime)
	add(draft.FieldCarClass, req.CarClass)
	add(draft.FieldNotes, req.Notes)
	if len(edits) == 0 {
		writeError(c, http.StatusBadRequest, "no fields to edit")
		return
	}

	d, err := h.chat.EditDraft(c.Request.Context(), c.Param("id"), edits)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"draft": d})
}

func (h *SessionHandler) Confirm(c *gin.Context) {
	d, err := h.chat.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"draft": d})
}

func (h *SessionHandler) Submit(c *gin.Context) {
	sub, err := h.chat.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ok": true, "results": sub.ResultMap()})
}

func (h *SessionHandler) History(c *gin.Context) {
	turns, err := h.chat.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"turns": turns})
}

func (h *SessionHandler) Clear(c *gin.Context) {
	if err := h.chat.Clear(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

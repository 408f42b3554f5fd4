package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/domain/receipt"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// ReceivingHandler handles HTTP requests for receiving sessions.
type ReceivingHandler struct {
	*BaseHandler
	service *receipt.Service
}

// NewReceivingHandler creates a new receiving handler.
func NewReceivingHandler(base *BaseHandler, service *receipt.Service) *ReceivingHandler {
	return &ReceivingHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers receiving routes on the group.
func (h *ReceivingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/preview", h.Preview)

	sessions := rg.Group("/sessions")
	sessions.POST("", h.CreateSession)
	sessions.GET("/:sessionId", h.GetSession)
	sessions.DELETE("/:sessionId", h.CancelSession)
	sessions.PATCH("/:sessionId/header", h.UpdateHeader)
	sessions.POST("/:sessionId/slot/select", h.SelectItem)
	sessions.PUT("/:sessionId/slot", h.UpdateSlot)
	sessions.POST("/:sessionId/slot/commit", h.CommitSlot)
	sessions.DELETE("/:sessionId/slot", h.CancelSlot)
	sessions.DELETE("/:sessionId/lines/:lineId", h.RemoveLine)
	sessions.POST("/:sessionId/submit", h.Submit)
}

// sessionContext tags the request context with the session id from the path.
func (h *ReceivingHandler) sessionContext(c *gin.Context) (context.Context, string, bool) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		h.Error(c, apperror.NewValidation("session id is required").WithDetail("field", "sessionId"))
		return nil, "", false
	}
	return appctx.WithSessionID(c.Request.Context(), sessionID), sessionID, true
}

// Preview recomputes figures for an input without touching any session.
// POST /receiving/preview
func (h *ReceivingHandler) Preview(c *gin.Context) {
	var req dto.LineInputRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.OK(c, h.service.Preview(req.ToInput()))
}

// CreateSession starts a new receiving session.
// POST /receiving/sessions
func (h *ReceivingHandler) CreateSession(c *gin.Context) {
	view, err := h.service.NewSession(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, view)
}

// GetSession returns the session, restoring it from storage if needed.
// GET /receiving/sessions/:sessionId
func (h *ReceivingHandler) GetSession(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	view, err := h.service.Get(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// CancelSession discards the session's header and lines.
// DELETE /receiving/sessions/:sessionId
func (h *ReceivingHandler) CancelSession(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	view, err := h.service.Cancel(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// UpdateHeader patches the receipt header.
// PATCH /receiving/sessions/:sessionId/header
func (h *ReceivingHandler) UpdateHeader(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	var req dto.UpdateHeaderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.service.UpdateHeader(ctx, sessionID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// SelectItem loads an item into the session's edit slot.
// POST /receiving/sessions/:sessionId/slot/select
func (h *ReceivingHandler) SelectItem(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	var req dto.SelectItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	slot, err := h.service.SelectItem(ctx, sessionID, req.ItemRef)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, slot)
}

// UpdateSlot replaces the slot input and returns the recomputed figures.
// PUT /receiving/sessions/:sessionId/slot
func (h *ReceivingHandler) UpdateSlot(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	var req dto.LineInputRequest
	if !h.BindJSON(c, &req) {
		return
	}

	slot, err := h.service.UpdateSlot(ctx, sessionID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, slot)
}

// CommitSlot assembles the slot into a receiving line and adds it to the session.
// POST /receiving/sessions/:sessionId/slot/commit
func (h *ReceivingHandler) CommitSlot(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	line, err := h.service.CommitSlot(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, line)
}

// CancelSlot abandons the item being edited.
// DELETE /receiving/sessions/:sessionId/slot
func (h *ReceivingHandler) CancelSlot(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	slot, err := h.service.CancelSlot(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, slot)
}

// RemoveLine removes a receiving line from the session.
// DELETE /receiving/sessions/:sessionId/lines/:lineId
func (h *ReceivingHandler) RemoveLine(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	view, err := h.service.RemoveLine(ctx, sessionID, c.Param("lineId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Submit hands the session to the receipt creator.
// POST /receiving/sessions/:sessionId/submit
func (h *ReceivingHandler) Submit(c *gin.Context) {
	ctx, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromResult(result))
}

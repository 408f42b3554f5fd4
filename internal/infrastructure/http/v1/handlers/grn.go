package handlers

import (
	"github.com/gin-gonic/gin"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/grn"
	"stockroom/internal/infrastructure/http/v1/dto"
)

// GRNHandler serves goods-received notes created by submissions.
type GRNHandler struct {
	*BaseHandler
	service *grn.Service
}

// NewGRNHandler creates a new goods-received note handler.
func NewGRNHandler(base *BaseHandler, service *grn.Service) *GRNHandler {
	return &GRNHandler{BaseHandler: base, service: service}
}

// Get returns a note with its lines.
// GET /receipts/:id
func (h *GRNHandler) Get(c *gin.Context) {
	noteID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("field", "id"))
		return
	}

	note, err := h.service.GetByID(c.Request.Context(), noteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGRN(note))
}

package api

import (
	"docchat/service"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
)

type ProcessHandler struct {
	processor *service.Processor
}

func NewProcessHandler(p *service.Processor) *ProcessHandler {
	return &ProcessHandler{processor: p}
}

func (h *ProcessHandler) HandleProcess(c *fiber.Ctx) error {
	var params types.ProcessParams
	if err := c.BodyParser(&params); err != nil {
		return ErrValidation("invalid JSON request")
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	result, err := h.processor.Process(c.Context(), params.UserID, params.DocumentID)
	if err != nil {
		return err
	}

	return c.JSON(types.ProcessResponse{
		Status:        string(result.Status),
		ChunksCreated: result.ChunksCreated,
		DocumentID:    result.DocumentID,
	})
}

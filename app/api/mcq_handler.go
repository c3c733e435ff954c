package api

import (
	"docchat/service"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
)

type MCQHandler struct {
	mcq *service.MCQ
}

func NewMCQHandler(mcq *service.MCQ) *MCQHandler {
	return &MCQHandler{mcq: mcq}
}

func (h *MCQHandler) HandleGenerate(c *fiber.Ctx) error {
	var params types.MCQParams
	if err := c.BodyParser(&params); err != nil {
		return ErrValidation("invalid JSON request")
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	result, err := h.mcq.Generate(c.Context(),
		params.UserID, params.DocumentID, params.NumQuestions, types.Difficulty(params.Difficulty))
	if err != nil {
		return err
	}

	return c.JSON(types.MCQResponse{
		Questions:      result.Questions,
		DocumentID:     result.DocumentID,
		Difficulty:     string(result.Difficulty),
		GeneratedCount: len(result.Questions),
	})
}

package api

import (
	"docchat/service"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chat *service.Chat
}

func NewChatHandler(chat *service.Chat) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatParams
	if err := c.BodyParser(&params); err != nil {
		return ErrValidation("invalid JSON request")
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	answer, err := h.chat.Answer(c.Context(), params.UserID, params.DocumentID, params.Message)
	if err != nil {
		return err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []types.Source{}
	}
	return c.JSON(types.ChatResponse{
		Answer:  answer.Answer,
		Sources: sources,
	})
}

package api

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"docchat/types"

	"github.com/gofiber/fiber/v2"
)

// Error is the wire shape every failure takes: a type name, a human-readable
// detail, and a stable code for programmatic handling.
type Error struct {
	Status int    `json:"-"`
	Name   string `json:"error"`
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func (e Error) Error() string { return e.Detail }

func NewError(status int, name, detail, code string) Error {
	return Error{Status: status, Name: name, Detail: detail, Code: code}
}

func ErrValidation(detail string) Error {
	return NewError(fiber.StatusUnprocessableEntity, "ValidationError", detail, "VALIDATION_ERROR")
}

// NewValidationError folds per-field violations into one detail string.
func NewValidationError(fields map[string]string) Error {
	parts := make([]string, 0, len(fields))
	for field, msg := range fields {
		parts = append(parts, field+" "+msg)
	}
	sort.Strings(parts)
	return ErrValidation(strings.Join(parts, "; "))
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	apiErr := toAPIError(err)
	if apiErr.Status >= fiber.StatusInternalServerError {
		slog.Default().Error("request failed", "path", c.Path(), "status", apiErr.Status, "error", err)
	}
	return c.Status(apiErr.Status).JSON(apiErr)
}

func toAPIError(err error) Error {
	var apiErr Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var notFound types.NotFoundError
	if errors.As(err, &notFound) {
		return NewError(fiber.StatusNotFound, "NotFoundError", notFound.Detail, "NOT_FOUND")
	}

	var authErr types.AuthorizationError
	if errors.As(err, &authErr) {
		return NewError(fiber.StatusForbidden, "AuthorizationError", authErr.Detail, "AUTHORIZATION_ERROR")
	}

	var inputErr types.InvalidInputError
	if errors.As(err, &inputErr) {
		return ErrValidation(inputErr.Detail)
	}

	var procErr types.ProcessingError
	if errors.As(err, &procErr) {
		return NewError(fiber.StatusInternalServerError, "ProcessingError", procErr.Error(), "PROCESSING_ERROR")
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewError(fiberErr.Code, "Error", fiberErr.Message, "PROCESSING_ERROR")
	}

	return NewError(fiber.StatusInternalServerError, "ProcessingError", err.Error(), "PROCESSING_ERROR")
}

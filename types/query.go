package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Validater interface {
	Validate() map[string]string
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

type ProcessParams struct {
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	DocumentID uuid.UUID `json:"document_id" validate:"required"`
}

type ChatParams struct {
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	DocumentID uuid.UUID `json:"document_id" validate:"required"`
	Message    string    `json:"message" validate:"required"`
}

type MCQParams struct {
	UserID       uuid.UUID `json:"user_id" validate:"required"`
	DocumentID   uuid.UUID `json:"document_id" validate:"required"`
	NumQuestions int       `json:"num_questions" validate:"omitempty,min=1,max=20"`
	Difficulty   string    `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

func (params *ProcessParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *ChatParams) Validate() map[string]string {
	errors := validateStruct(params)
	// whitespace-only messages pass the required tag but are still empty
	if errors == nil && strings.TrimSpace(params.Message) == "" {
		errors = map[string]string{"Message": "failed on 'required' tag"}
	}
	return errors
}

func (params *MCQParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(v any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(v); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

type ProcessResponse struct {
	Status        string    `json:"status"`
	ChunksCreated int       `json:"chunks_created"`
	DocumentID    uuid.UUID `json:"document_id"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type MCQResponse struct {
	Questions      []MCQQuestion `json:"questions"`
	DocumentID     uuid.UUID     `json:"document_id"`
	Difficulty     string        `json:"difficulty"`
	GeneratedCount int           `json:"generated_count"`
}

package types

import "fmt"

// Core failure taxonomy. The API layer maps these onto HTTP statuses and
// stable error codes; everything is terminal for the current request.

type NotFoundError struct {
	Detail string
}

func (e NotFoundError) Error() string { return e.Detail }

type AuthorizationError struct {
	Detail string
}

func (e AuthorizationError) Error() string { return e.Detail }

type InvalidInputError struct {
	Detail string
}

func (e InvalidInputError) Error() string { return e.Detail }

type ProcessingError struct {
	Detail string
	Cause  error
}

func (e ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Cause)
	}
	return e.Detail
}

func (e ProcessingError) Unwrap() error { return e.Cause }

func NewProcessingError(detail string, cause error) ProcessingError {
	return ProcessingError{Detail: detail, Cause: cause}
}

// Package service holds the application use cases that sit between the HTTP
// handlers and the stores.
package service

import (
	"errors"

	"folio/internal/content"
	"folio/internal/models"
	"folio/internal/repository"
	"folio/internal/storage"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// translate turns domain errors into AppErrors. Errors that already are
// AppErrors pass through untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var capErr *content.CapError
	if errors.As(err, &capErr) {
		return &models.AppError{Code: models.CodeConflict, Message: capErr.Error(), Err: err}
	}

	var validationErrs validation.Errors
	var validationErr validation.Error
	if errors.As(err, &validationErrs) || errors.As(err, &validationErr) {
		return models.NewValidationError(err.Error())
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &models.AppError{Code: models.CodeNotFound, Message: "Resource not found", Err: err}
	case errors.Is(err, content.ErrInvalidPath),
		errors.Is(err, content.ErrIndexOutOfRange),
		errors.Is(err, content.ErrUnknownCategory),
		errors.Is(err, content.ErrSchemaViolation),
		errors.Is(err, content.ErrFeatureUnsupported),
		errors.Is(err, content.ErrConfirmationRequired),
		errors.Is(err, storage.ErrInvalidObjectPath),
		errors.Is(err, storage.ErrContentTypeMismatch):
		return models.NewValidationError(err.Error())
	default:
		return models.NewInternalError(err)
	}
}

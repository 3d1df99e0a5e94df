package server

import (
	"folio/internal/models"
	"folio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/editor/media
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	file, err := readUpload(c, "file")
	if err != nil {
		return nil
	}

	result, err := s.mediaService.Upload(c.UserContext(), service.UploadInput{
		Scope:       c.FormValue("scope"),
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Data:        file.Data,
		Subject:     userIDFrom(c),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// DeleteMedia handles DELETE /api/editor/media?path=...
func (s *Server) DeleteMedia(c *fiber.Ctx) error {
	objectPath := c.Query("path")
	if objectPath == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("path is required"))
	}

	if err := s.mediaService.Delete(c.UserContext(), objectPath); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

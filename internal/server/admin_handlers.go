package server

import (
	"folio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminLogin handles POST /admin/login
func (s *Server) AdminLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.publishService.Login(c.UserContext(), &req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(result)
}

// AdminCreatePost handles POST /admin/posts
func (s *Server) AdminCreatePost(c *fiber.Ctx) error {
	var req models.AdminPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	filePath, err := s.publishService.PublishPost(c.UserContext(), &req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"path": filePath})
}

// AdminUpload handles POST /admin/upload
func (s *Server) AdminUpload(c *fiber.Ctx) error {
	file, err := readUpload(c, "file")
	if err != nil {
		return nil
	}

	url, err := s.publishService.UploadFile(c.UserContext(), file.Filename, file.Data)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"url": url})
}

package server

import (
	"encoding/json"

	"folio/internal/content"
	"folio/internal/featureflags"
	"folio/internal/models"
	"folio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// publicCacheControl is sent on public reads while the public_cache flag is on.
const publicCacheControl = "public, max-age=60"

func (s *Server) setPublicCaching(c *fiber.Ctx) {
	if s.featureFlags.On(featureflags.PublicCache) {
		c.Set(fiber.HeaderCacheControl, publicCacheControl)
	}
}

// GetDocument handles GET /api/documents/:name
func (s *Server) GetDocument(c *fiber.Ctx) error {
	doc, err := s.contentService.Get(c.UserContext(), c.Params("name"))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	s.setPublicCaching(c)
	return c.JSON(doc)
}

// ListSchemas handles GET /api/schemas
func (s *Server) ListSchemas(c *fiber.Ctx) error {
	names := content.Names()
	schemas := make([]*content.Schema, 0, len(names))
	for _, name := range names {
		schema, err := s.contentService.Schema(name)
		if err != nil {
			return models.RespondWithError(c, mapServiceError(err), err)
		}
		schemas = append(schemas, schema)
	}
	return c.JSON(schemas)
}

// GetSchema handles GET /api/schemas/:name
func (s *Server) GetSchema(c *fiber.Ctx) error {
	schema, err := s.contentService.Schema(c.Params("name"))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(schema)
}

// GetHome handles GET /api/home
func (s *Server) GetHome(c *fiber.Ctx) error {
	home, err := s.contentService.Home(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	s.setPublicCaching(c)
	return c.JSON(home)
}

// GetEditorDocument handles GET /api/editor/documents/:name
func (s *Server) GetEditorDocument(c *fiber.Ctx) error {
	doc, err := s.contentService.GetForEditor(c.UserContext(), c.Params("name"))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(doc)
}

// SaveDocument handles PUT /api/editor/documents/:name
func (s *Server) SaveDocument(c *fiber.Ctx) error {
	merge, err := parseMergeOverride(c)
	if err != nil {
		return nil
	}

	var doc content.Document
	if err := c.BodyParser(&doc); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	saved, err := s.contentService.Save(c.UserContext(), c.Params("name"), doc, merge)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(saved)
}

// ApplyOperation handles POST /api/editor/documents/:name/ops
func (s *Server) ApplyOperation(c *fiber.Ctx) error {
	var req service.OpRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.contentService.Apply(c.UserContext(), c.Params("name"), req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(result)
}

// ToggleFeatured handles POST /api/editor/documents/:name/featured
func (s *Server) ToggleFeatured(c *fiber.Ctx) error {
	var req service.FeaturedRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.contentService.ToggleFeatured(c.UserContext(), c.Params("name"), req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(result)
}

// UploadDocumentImage handles POST /api/editor/documents/:name/image
func (s *Server) UploadDocumentImage(c *fiber.Ctx) error {
	var target content.Path
	if err := json.Unmarshal([]byte(c.FormValue("path")), &target); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("path must be a JSON array of keys and indexes"))
	}

	file, err := readUpload(c, "file")
	if err != nil {
		return nil
	}

	result, err := s.contentService.UploadImage(c.UserContext(), c.Params("name"), service.ImageRequest{
		Path: target,
		Upload: service.UploadInput{
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Data:        file.Data,
			Subject:     userIDFrom(c),
		},
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(result)
}

// SaveHome handles PUT /api/editor/home
func (s *Server) SaveHome(c *fiber.Ctx) error {
	var req models.HomeSettings
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	home, err := s.contentService.SaveHome(c.UserContext(), &req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(home)
}

package server

import (
	"strings"

	"folio/internal/auth"
	"folio/internal/middleware"
	"folio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminRequired rejects requests without a valid admin bearer token.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err := s.publishService.Authorize(token); err != nil {
			return models.RespondWithError(c, mapServiceError(err), err)
		}
		return c.Next()
	}
}

// SessionRequired verifies the editor's identity token and stores its subject
// in locals and the request context.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := s.authenticate(c); err != nil {
			return nil
		}
		return c.Next()
	}
}

// EditorRequired is SessionRequired restricted to the editor allowlist.
func (s *Server) EditorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, err := s.authenticate(c)
		if err != nil {
			return nil
		}
		if !s.editors.Allows(subject) {
			middleware.Logger.WarnContext(c.UserContext(), "editor access denied")
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Editor access required"))
		}
		return c.Next()
	}
}

// authenticate resolves the session subject. On failure it writes a 401
// response and returns errResponseWritten.
func (s *Server) authenticate(c *fiber.Ctx) (string, error) {
	if s.identity == nil {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Editor sign-in is not available"))
		return "", errResponseWritten
	}

	token := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return "", errResponseWritten
	}

	claims, err := s.identity.VerifyToken(token)
	if err != nil {
		middleware.Logger.DebugContext(c.UserContext(), "editor token rejected", "error", err)
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
		return "", errResponseWritten
	}

	c.Locals(middleware.LocalUserID, claims.Subject)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.Subject))
	return claims.Subject, nil
}

func methodNotAllowed(allowed ...string) fiber.Handler {
	allow := strings.Join(allowed, ", ")
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, allow)
		return models.RespondWithError(c, fiber.StatusMethodNotAllowed,
			&models.AppError{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"})
	}
}

func userIDFrom(c *fiber.Ctx) string {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	return userID
}

package server

import (
	"recipebox/internal/featureflags"
	"recipebox/internal/middleware"
	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// CatalogWebsocket handles GET /api/ws. Each connection receives catalog events
// ({"type":"recipe.updated","id":"..."}) as hints to reload.
func (s *Server) CatalogWebsocket() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)

		watcher, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("catalog websocket rejected", "user_id", userID, "error", err.Error())
			_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
			_ = conn.Close()
			return
		}

		watcher.Serve()
	})

	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(string)
		if !s.featureFlags.Enabled(featureflags.Realtime, userID) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				&models.AppError{Code: models.CodeNotFound, Message: "Realtime updates are disabled"})
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return upgrade(c)
	}
}

// GetFeatureFlags handles GET /api/feature-flags
// @Summary Feature flags
// @Description Evaluated feature flags for the signed-in user
// @Tags flags
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,flags=map[string]bool}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	return c.JSON(fiber.Map{
		"success": true,
		"flags":   s.featureFlags.Snapshot(userID),
	})
}

package router

import (
	"video_sharing_service/internal/media/api/handlers"
	"video_sharing_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册影片相關的路由
func RegisterRoutes(app *fiber.App, mediaHandler *handlers.MediaHandler) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("media service")
	})

	mediaRoutes := app.Group("/media")
	mediaRoutes.Use(middlewares.JWTMiddleware())
	mediaRoutes.Post("/upload", mediaHandler.UploadVideo)
	mediaRoutes.Get("/videos/:id/url", mediaHandler.GetVideoURL)
	mediaRoutes.Get("/videos/:id/thumbnail", mediaHandler.GetThumbnailURL)
	mediaRoutes.Delete("/videos/:id", mediaHandler.DeleteVideo)
}

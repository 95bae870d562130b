package server

import (
	"github.com/flowbaker/sortinghat/internal/controllers"
	"github.com/flowbaker/sortinghat/internal/middlewares"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// multipartOverhead leaves room for form fields and boundaries around the image part
const multipartOverhead = 64 * 1024

type HTTPServerDependencies struct {
	SortingController *controllers.SortingController
	MaxUploadBytes    int
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName:      "sortinghat",
		BodyLimit:    deps.MaxUploadBytes + multipartOverhead,
		ErrorHandler: controllers.ErrorHandler,
	})

	router.Use(cors.New())
	router.Use(middlewares.RequestLogger())

	api := router.Group("/api")

	api.Get("/health", deps.SortingController.Health)

	sort := api.Group("/sort")
	sort.Post("/image", deps.SortingController.SortImage)
	sort.Post("/text", deps.SortingController.SortText)
	sort.Post("/url", deps.SortingController.SortURL)

	api.Post("/transform", deps.SortingController.Transform)

	return router
}

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/pyq-analyzer/database"
	"github.com/sahilchouksey/pyq-analyzer/handlers"
	analysis_handlers "github.com/sahilchouksey/pyq-analyzer/handlers/analysis"
	"github.com/sahilchouksey/pyq-analyzer/services"
	"github.com/sahilchouksey/pyq-analyzer/utils"
	"github.com/sahilchouksey/pyq-analyzer/utils/middleware"
)

// Dependencies are the constructed collaborators routes are bound to
type Dependencies struct {
	Store    database.Storage
	Analysis *services.AnalysisService
	Cache    handlers.Pinger // optional
	Security middleware.SecurityConfig
	Logger   *utils.Logger
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Cache)
	analysisHandler := analysis_handlers.NewAnalysisHandler(deps.Analysis, deps.Logger)

	app.Get("/ping", healthHandler.HandleCheckHealth)

	api := app.Group("/api")

	// Analysis routes
	api.Post("/analyze", middleware.AnalyzeLimiter(deps.Security), analysisHandler.AnalyzePDFs)
	api.Get("/batches", analysisHandler.ListBatches)

	// Question routes
	questions := api.Group("/questions")
	questions.Get("/", analysisHandler.ListQuestions)
	questions.Get("/:id", analysisHandler.GetQuestion)
}

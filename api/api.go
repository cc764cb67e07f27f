package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/pyq-analyzer/utils"
	"github.com/sahilchouksey/pyq-analyzer/utils/response"
)

// BodyLimit leaves room for several question papers in one upload
const BodyLimit = 100 * 1024 * 1024

type APIServer struct {
	app           *fiber.App
	listenAddress string
	logger        *utils.Logger
}

func NewAPIServer(listenAddress string, logger *utils.Logger) *APIServer {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "pyq-analyzer",
			BodyLimit:    BodyLimit,
			ErrorHandler: errorHandler(logger),
		}),
		listenAddress: listenAddress,
		logger:        logger,
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.logger.Info("starting API server", "address", s.listenAddress)
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders fiber errors with their status and everything else as a 500
func errorHandler(logger *utils.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return response.Error(c, fiberErr.Code, fiberErr.Message, "")
		}

		logger.Error("unhandled request error", "method", c.Method(), "path", c.Path(), "error", err)
		return response.InternalServerError(c, "Internal server error")
	}
}

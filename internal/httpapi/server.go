// Package httpapi exposes the Excel and PowerPoint backends over HTTP.
package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/crunched/internal/config"
	"github.com/ChamsBouzaiene/crunched/internal/orchestrator"
	"github.com/ChamsBouzaiene/crunched/internal/slides"
)

type Server struct {
	app    *fiber.App
	port   string
	logger *zap.Logger
}

// NewExcelServer serves /chat and /agent on cfg.App.Port.
func NewExcelServer(cfg *config.Config, orch *orchestrator.Orchestrator, logger *zap.Logger) *Server {
	app := newApp(cfg, logger)
	NewExcelHandler(orch).RegisterRoutes(app)
	return &Server{app: app, port: cfg.App.Port, logger: logger}
}

// NewSlidesServer serves the slide endpoints on cfg.App.SlidesPort.
func NewSlidesServer(cfg *config.Config, svc *slides.Service, logger *zap.Logger) *Server {
	app := newApp(cfg, logger)
	NewSlidesHandler(svc).RegisterRoutes(app)
	return &Server{app: app, port: cfg.App.SlidesPort, logger: logger}
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.logger.Info("server is running", zap.String("addr", "http://localhost:"+s.port))
	return s.app.Listen(":" + s.port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func newApp(cfg *config.Config, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.App.MaxBodySize,
		ErrorHandler:          errorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(corsMiddleware(cfg.App.CorsAllowedOrigins))
	app.Use(requestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	return app
}

func corsMiddleware(origins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: origins,
		// credentials cannot be combined with a wildcard origin
		AllowCredentials: origins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	})
}

// requestLogger logs one line per request. Errors are rendered here so the
// logged status is the one sent.
func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)))
		return nil
	}
}

// Package main provides the Cascade API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/fieldkit/cascade/pkg/eventbus"
	"github.com/fieldkit/cascade/pkg/persistence"
	"github.com/fieldkit/cascade/pkg/web"
)

type API struct {
	logger   *slog.Logger
	persist  persistence.Persistence
	eventBus eventbus.EventBus
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, persist persistence.Persistence, eventBus eventbus.EventBus) *API {
	return &API{
		logger:   logger,
		persist:  persist,
		eventBus: eventBus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	handlers := web.NewAPIHandlers(a.persist, a.eventBus, a.validate)
	handlers.RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	a.logger.Info("Starting Cascade API", "port", port)

	return a.App().Listen(":" + strconv.Itoa(port))
}

package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/mlopslite/mlopslite/pkg/config"
	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/monitoring"
	"github.com/mlopslite/mlopslite/pkg/service"
)

const APIPrefix = "/api/1.0"

// NewApp builds the fiber application serving svc.
func NewApp(cfg *config.Config, log *logrus.Logger, svc *service.RegistryService) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		BodyLimit:             64 * 1024 * 1024,
		ReadBufferSize:        16384,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          600 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "mlops-lite/" + cfg.Version,
		DisableStartupMessage: true,
		JSONDecoder:           decodeJSON,
		ErrorHandler:          newErrorHandler(log),
	})

	app.Use(compress.New())
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(logger.New(logger.Config{
		Format: "${status} - ${latency} ${method} ${path}\n",
		Output: log.Writer(),
	}))

	parser, err := NewHTTPRequestParser()
	if err != nil {
		return nil, err
	}

	registerRoutes(app.Group(APIPrefix), &handlers{service: svc, parser: parser})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.SendString(cfg.Version)
	})
	app.Get("/metrics", adaptor.HTTPHandler(monitoring.Handler()))

	app.Use(func(c *fiber.Ctx) error {
		return contract.Errorf(contract.ErrorCodeEndpointNotFound, "no endpoint %s %s", c.Method(), c.Path())
	})

	return app, nil
}

func newErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *contract.Error
		if !errors.As(err, &e) {
			code := contract.ErrorCodeInternalError

			var f *fiber.Error
			if errors.As(err, &f) {
				switch f.Code {
				case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
					code = contract.ErrorCodeBadRequest
				case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
					code = contract.ErrorCodeEndpointNotFound
				}
			}

			e = contract.NewError(code, err.Error())
		}

		var fn func(format string, args ...any)

		switch e.StatusCode() {
		case fiber.StatusBadRequest, fiber.StatusConflict:
			fn = log.Infof
		case fiber.StatusNotFound:
			fn = log.Debugf
		default:
			fn = log.Errorf
		}

		fn("Error encountered in %s %s: %s", c.Method(), c.Path(), err)

		return c.Status(e.StatusCode()).JSON(e)
	}
}

package api

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/metrics"
	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/engine"
	"github.com/TFMV/salesreport/pkg/store"
	"github.com/TFMV/salesreport/pkg/writers"
	"github.com/TFMV/salesreport/version"
)

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Port    string
	Prefork bool
	// Store serves /report; the route answers 503 when it is nil.
	Store   store.Store
	Metrics *metrics.Collector
	// Ages is used when a request omits age_min or age_max.
	Ages core.AgeRange
	// RequestLog enables per-request access logging.
	RequestLog bool
}

// Server holds the Fiber app instance
type Server struct {
	app  *fiber.App
	opts ServerOptions
}

// NewServer initializes a new Fiber instance and registers the routes.
func NewServer(opts ServerOptions) *Server {
	if opts.Port == "" {
		opts.Port = "5555"
	}
	if opts.Ages == (core.AgeRange{}) {
		opts.Ages = core.DefaultAgeRange
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		Prefork:               opts.Prefork,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	if opts.RequestLog {
		app.Use(fiberlogger.New())
	}

	s := &Server{app: app, opts: opts}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Sales Report API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/report", s.handleReport)
	app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))

	return s
}

// GetApp exposes the underlying app, mainly for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start listens on the configured port and blocks until the server stops.
func (s *Server) Start() error {
	logger.GetLogger().Info("Sales report API listening", zap.String("port", s.opts.Port))
	return s.app.Listen(":" + s.opts.Port)
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	if s.opts.Store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no store configured")
	}

	kind := c.Query("engine", engine.KindQuery)
	computer, err := engine.New(kind, s.opts.Store)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ages, err := parseAges(c, s.opts.Ages)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	format := strings.ToLower(c.Query("format", writers.TypeCSV))
	if format != writers.TypeCSV && format != writers.TypeJSON {
		return fiber.NewError(fiber.StatusBadRequest, "format must be csv or json")
	}

	start := time.Now()
	rows, err := computer.Compute(c.UserContext(), ages)
	s.opts.Metrics.RecordRun(kind, err, len(rows), time.Since(start))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := writers.WriteReport(c.UserContext(), core.WriterConfig{Type: format, Output: &buf}, rows); err != nil {
		return err
	}

	if format == writers.TypeJSON {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	} else {
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="sales_report.csv"`)
	}
	return c.Send(buf.Bytes())
}

// parseAges reads age_min and age_max, falling back to def.
func parseAges(c *fiber.Ctx, def core.AgeRange) (core.AgeRange, error) {
	ages := def
	for key, dst := range map[string]*int64{"age_min": &ages.Min, "age_max": &ages.Max} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ages, fiber.NewError(fiber.StatusBadRequest, key+" must be an integer")
		}
		*dst = v
	}
	return ages, ages.Validate()
}

// errorHandler maps domain errors onto HTTP statuses.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, core.ErrSchema), errors.Is(err, core.ErrDataAccess):
		code = fiber.StatusServiceUnavailable
	}
	if code >= fiber.StatusInternalServerError {
		logger.GetLogger().Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

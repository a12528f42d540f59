package config

import (
	"fmt"
	"os"

	"ProjectPlaca/database/postgres"
	plateHandler "ProjectPlaca/internal/api/plate/handler"
	plateRepository "ProjectPlaca/internal/api/plate/repository"
	plateService "ProjectPlaca/internal/api/plate/service"
	"ProjectPlaca/internal/middleware"
	"ProjectPlaca/pkg/inference"
	redisPkg "ProjectPlaca/pkg/redis"
	"ProjectPlaca/pkg/regcheck"
	"ProjectPlaca/pkg/s3"
	"ProjectPlaca/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	db         *sqlx.DB
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	utils      utils.IUtils
	handlers   []handler
	bridge     inference.IBridge
	registry   regcheck.IRegCheck
	cache      redisPkg.IRedis
	s3Client   s3.ItfS3
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithInferenceBridge(bridge inference.IBridge) ServerOption {
	return func(s *Server) error {
		s.bridge = bridge
		return nil
	}
}

func WithRegCheckClient() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the RegCheck client")
		}
		s.registry = regcheck.New(s.log)
		return nil
	}
}

func WithRedisServer(cache redisPkg.IRedis) ServerOption {
	return func(s *Server) error {
		s.cache = cache
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Plate Domain
	plateRepo := plateRepository.New(s.db, s.log)
	plateServices := plateService.New(s.log, plateRepo, s.bridge, s.registry, s.cache, s.s3Client)
	plateHandlers := plateHandler.New(s.log, s.validator, s.middleware, plateServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, plateHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())
	s.engine.Use(s.middleware.NewRateLimiter)

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.bridge != nil {
			s.bridge.Close()
		}
		return err
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}

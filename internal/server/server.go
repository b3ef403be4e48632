package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/yz4230/deployboard/internal/config"
	"github.com/yz4230/deployboard/internal/notify"
	"github.com/yz4230/deployboard/internal/repository"
	"github.com/yz4230/deployboard/internal/retention"
	"github.com/yz4230/deployboard/internal/server/routes"
	"github.com/yz4230/deployboard/internal/usecase"
)

type Config struct {
	App    *config.Config
	Logger zerolog.Logger
	// Repository replaces the tiers described by App when set.
	Repository repository.DeployRepository
}

type Server struct {
	e        *echo.Echo
	config   *Config
	injector *do.Injector
}

func New(config *Config) (*Server, error) {
	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.HTTPErrorHandler = routes.HandleError
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRemoteIP:  true,
		LogHost:      true,
		LogMethod:    true,
		LogURI:       true,
		LogUserAgent: true,
		LogStatus:    true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			config.Logger.Info().
				Str("remote_ip", v.RemoteIP).
				Str("host", v.Host).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("user_agent", v.UserAgent).
				Int("status", v.Status).
				Int64("latency_ms", v.Latency.Milliseconds()).
				Msg("handled request")
			return nil
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			config.Logger.Error().Err(err).Bytes("stack", stack).Send()
			return err
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      func(c echo.Context) bool { return c.Request().Method == http.MethodOptions },
		AllowOrigins: []string{"*"},
		AllowMethods: routes.AllowedMethods,
		AllowHeaders: routes.AllowedHeaders,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := config.Logger.WithContext(req.Context())
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	})

	s := &Server{e: e, config: config}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) init() error {
	injector := do.New()
	s.injectDependencies(injector)

	// open the storage tiers now so a bad configuration fails at startup
	repo, err := do.Invoke[repository.DeployRepository](injector)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	if chain, ok := repo.(*repository.Chain); ok {
		s.config.Logger.Info().
			Str("backends", chain.Name()).
			Str("mode", s.config.App.Mode()).
			Msg("storage ready")
	}

	s.injector = injector
	s.registerRoutes(injector)
	return nil
}

func (s *Server) injectDependencies(injector *do.Injector) {
	do.ProvideValue(injector, s.config.App)
	do.ProvideValue(injector, retention.Default())
	do.Provide(injector, func(i *do.Injector) (repository.DeployRepository, error) {
		if s.config.Repository != nil {
			return s.config.Repository, nil
		}
		return repository.Open(s.config.App.RepositoryOptions())
	})
	do.Provide(injector, func(i *do.Injector) (*notify.Relay, error) {
		return notify.NewRelay(s.config.App.NotifyURL, s.config.App.NotifyTimeout), nil
	})
	do.Provide(injector, usecase.NewCreateDeployUsecase)
	do.Provide(injector, usecase.NewListDeployUsecase)
	do.Provide(injector, usecase.NewListProjectsUsecase)
	do.Provide(injector, usecase.NewCleanDataUsecase)
	do.Provide(injector, usecase.NewSendNotificationUsecase)
}

func (s *Server) registerRoutes(injector *do.Injector) {
	routes.RegisterDeployAPI(injector, s.e)
	routes.RegisterMisc(injector, s.e)
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.App.Port)
	s.config.Logger.Info().Str("addr", addr).Msg("starting server")
	return s.e.Start(addr)
}

// Stop shuts the HTTP server down and then releases the storage tiers.
func (s *Server) Stop(ctx context.Context) error {
	return errors.Join(s.e.Shutdown(ctx), s.injector.Shutdown())
}

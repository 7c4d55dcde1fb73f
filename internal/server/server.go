package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iqac-smarttrack/apiserver/config"
	"github.com/iqac-smarttrack/apiserver/internal/handlers"
	"github.com/iqac-smarttrack/apiserver/internal/logging"
	"github.com/iqac-smarttrack/apiserver/internal/mq"
	"github.com/iqac-smarttrack/apiserver/internal/services"
	"github.com/iqac-smarttrack/apiserver/internal/storage"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Dependencies are the backends the router serves from. Objects and Events
// may be nil.
type Dependencies struct {
	Repository services.Repository
	Objects    services.ObjectStore
	Events     services.EventPublisher
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     logrus.FieldLogger

	repo    services.Repository
	storage *storage.Storage
	mq      *mq.MQ
}

// New opens every configured backend, seeds the repository and constructs
// a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Server, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}

	repo, err := OpenRepository(ctx, cfg, logging.Component(logger, "repository"))
	if err != nil {
		return nil, err
	}
	s := &Server{logger: logger, repo: repo}

	if err := repo.Initialize(ctx); err != nil {
		s.closeBackends()
		return nil, fmt.Errorf("initialize repository: %w", err)
	}

	deps := Dependencies{Repository: repo}

	s.storage, err = storage.Open(ctx, cfg)
	if err != nil {
		s.closeBackends()
		return nil, fmt.Errorf("open object storage: %w", err)
	}
	if s.storage != nil {
		deps.Objects = s.storage
	}

	s.mq, err = mq.Open(ctx, cfg)
	if err != nil {
		s.closeBackends()
		return nil, fmt.Errorf("open events broker: %w", err)
	}
	if s.mq != nil {
		deps.Events = mq.NewEventPublisher(s.mq, cfg.Events.Channel)
	}

	s.router, err = NewRouter(cfg, deps, logger)
	if err != nil {
		s.closeBackends()
		return nil, err
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// NewRouter builds the HTTP routes over deps.
func NewRouter(cfg config.Config, deps Dependencies, logger logrus.FieldLogger) (*chi.Mux, error) {
	if deps.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	repo := deps.Repository

	userService := services.NewUserService(repo)
	authService, err := services.NewAuthService(repo, repo, cfg.Auth, 0)
	if err != nil {
		return nil, err
	}
	taskService := services.NewTaskService(repo, repo, deps.Events, logging.Component(logger, "tasks"))
	fileService := services.NewFileService(repo, repo, repo, deps.Objects, deps.Events, logging.Component(logger, "files"))
	facultyService := services.NewFacultyService(repo, repo)
	reportService := services.NewReportService(repo, repo)

	authHandler := handlers.NewAuthHandler(authService, userService, logging.Component(logger, "auth"), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userHandler := handlers.NewUserHandler(userService, facultyService, logging.Component(logger, "users"))
	taskHandler := handlers.NewTaskHandler(taskService, logging.Component(logger, "tasks"))
	fileHandler := handlers.NewFileHandler(fileService, logging.Component(logger, "files"))
	reportHandler := handlers.NewReportHandler(reportService, logging.Component(logger, "reports"))

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Group(func(r chi.Router) {
		r.Use(authHandler.RequireAuth)
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userHandler)
		})
		r.Route("/faculty", func(r chi.Router) {
			handlers.FacultyRouter(r, userHandler)
		})
		r.Route("/tasks", func(r chi.Router) {
			handlers.TaskRouter(r, taskHandler)
		})
		r.Route("/files", func(r chi.Router) {
			handlers.FileRouter(r, fileHandler)
		})
		r.Route("/reports", func(r chi.Router) {
			handlers.ReportRouter(r, reportHandler)
		})
	})
	return router, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting api server")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and closes every backend.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.closeBackends())
}

func (s *Server) closeBackends() error {
	var errs []error
	if s.mq != nil {
		errs = append(errs, s.mq.Close())
	}
	if s.storage != nil {
		errs = append(errs, s.storage.Close())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	return errors.Join(errs...)
}

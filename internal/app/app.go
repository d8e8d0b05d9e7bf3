package app

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spigell/cv-agent/internal/ai"
	"github.com/spigell/cv-agent/internal/analysis"
	"github.com/spigell/cv-agent/internal/config"
	"github.com/spigell/cv-agent/internal/store"
	"go.uber.org/zap"
)

const ServiceName = "cv-agent"

// Deps carries the constructed collaborators the application serves with.
// The reviewer may be nil (AI disabled); the store is mandatory.
type Deps struct {
	Store    store.Store
	Reviewer ai.Reviewer
	Version  string
}

// App is one fully configured application instance. The factory builds the
// whole request-handling surface from the validated config; there is no
// hidden global state, so every worker process constructs its own instance.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    store.Store
	pipeline *analysis.Pipeline
	router   *mux.Router
	version  string
}

// New is the application factory.
func New(cfg *config.Config, logger *zap.Logger, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	version := deps.Version
	if version == "" {
		version = "dev"
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		store:   deps.Store,
		version: version,
		pipeline: analysis.New(analysis.Deps{
			Logger:   logger,
			Reviewer: deps.Reviewer,
			Store:    deps.Store,
		}),
	}

	a.router = a.routes()
	return a, nil
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) routes() *mux.Router {
	r := mux.NewRouter()

	r.Use(a.recoverMiddleware)
	r.Use(a.headersMiddleware)
	r.Use(a.logMiddleware)

	r.HandleFunc("/", a.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", a.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/info", a.handleInfo).Methods(http.MethodGet)

	r.HandleFunc("/analyses", a.handleCreateAnalysis).Methods(http.MethodPost)
	r.HandleFunc("/analyses", a.handleListAnalyses).Methods(http.MethodGet)
	r.HandleFunc("/analyses/{id}", a.handleGetAnalysis).Methods(http.MethodGet)
	r.HandleFunc("/analyses/{id}", a.handleDeleteAnalysis).Methods(http.MethodDelete)

	r.NotFoundHandler = a.withCommon(http.HandlerFunc(a.handleNotFound))
	r.MethodNotAllowedHandler = a.withCommon(http.HandlerFunc(a.handleMethodNotAllowed))

	return r
}

// withCommon applies the middleware chain to handlers that bypass the router
// (gorilla/mux does not run Use() middlewares for NotFound/MethodNotAllowed).
func (a *App) withCommon(h http.Handler) http.Handler {
	return a.recoverMiddleware(a.headersMiddleware(a.logMiddleware(h)))
}

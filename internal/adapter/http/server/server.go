package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/config"
	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/handler"
	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/middleware"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers // routes/handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health     *handler.Health
	dispatch   *handler.Dispatch
	trip       *handler.Trip
	reconciler *handler.Reconciler
}

// Services are the core operations exposed over HTTP. Fields not served in the current mode may be nil.
type Services struct {
	Directory  handler.DirectoryService
	Assignment handler.AssignmentService
	Trips      handler.TripService
	Reconciler handler.ReconcilerService
	Auth       middleware.AuthService
	Health     map[string]handler.Check
}

func New(cfg config.Config, services Services, logger logger.Logger) (*API, error) {
	var addr string
	handlers := &handlers{
		health: handler.NewHealth(string(cfg.Mode), services.Health, logger),
	}

	if services.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if services.Reconciler == nil {
		return nil, errors.New("reconciler service is required")
	}
	handlers.reconciler = handler.NewReconciler(services.Reconciler, logger)

	switch cfg.Mode {
	case types.DispatchService:
		if services.Directory == nil || services.Assignment == nil || services.Trips == nil {
			return nil, errors.New("directory, assignment and trip services are required")
		}
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.DispatchService)
		handlers.dispatch = handler.NewDispatch(services.Directory, services.Assignment, logger)
		handlers.trip = handler.NewTrip(services.Trips, logger)
	case types.ReconcilerService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.ReconcilerService)
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	mid := middleware.NewMiddleware(services.Auth, logger)

	api := &API{
		mode: cfg.Mode,

		mux:    http.NewServeMux(),
		routes: handlers,
		m:      mid,
		addr:   addr,
		cfg:    cfg,
		log:    logger,
	}

	api.setupRoutes()

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return api, nil
}

// Handler returns the routed mux wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

func (a *API) setupRoutes() {
	setupRoutes(a.mux, a.routes, a.m, a.mode, a.log)
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(
		a.m.RequestID(
			a.m.Logging(
				a.m.Metrics(string(a.mode))(
					a.m.Auth(a.mux),
				),
			),
		),
	)
}

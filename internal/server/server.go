package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/plugfox/addonhub/api"
	"github.com/plugfox/addonhub/internal/auth"
	"github.com/plugfox/addonhub/internal/config"
	"github.com/plugfox/addonhub/internal/log"
	"github.com/plugfox/addonhub/internal/moderation"
	"github.com/plugfox/addonhub/internal/storage"
	"github.com/plugfox/addonhub/internal/triage"
)

// Dependencies - services behind the routes
type Dependencies struct {
	Auth    *auth.Service
	Console *moderation.Console
	Sweeper *moderation.Sweeper
	Bans    storage.BanStore
	Triage  *triage.Service
}

type Server struct {
	router   *chi.Mux
	public   chi.Router
	server   *http.Server
	handlers *handlers
}

func New(config *config.Config, logger *slog.Logger, deps Dependencies) *Server {
	middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.NewLogAdapter(logger), NoColor: true})
	router := chi.NewRouter()
	router.Use(middlewareErrorRecoverer(logger))
	router.Use(middleware.Logger)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.URLFormat)
	router.Use(middleware.StripSlashes)
	if config.API.Timeout > 0 {
		router.Use(middleware.Timeout(config.API.Timeout))
	}
	router.Use(middleware.Heartbeat("/ping"))

	h := &handlers{
		deps:         deps,
		logger:       logger,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		banListLimit: config.Moderation.BanListLimit,
	}

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.NewResponse().NotFound(w)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		api.NewResponse().MethodNotAllowed(w)
	})

	// Public API group
	public := router.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)

		r.Post("/auth/login", h.login)
		r.Get("/captcha/new", h.newCaptcha)
		r.Get("/captcha/{id}", h.captchaMedia)
		r.Post("/contact", h.submitContact)
		r.Get("/announcements", h.publicAnnouncements)
	})

	// Signed-in users
	router.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Use(middlewareAuthentication(deps.Auth, logger))

		r.Post("/reports", h.submitReport)
		r.Get("/contact/mine", h.ownContacts)

		// Staff
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewareStaffOnly)

			r.Get("/console", h.consoleUsage)
			r.Post("/console", h.console)
			r.Get("/bans", h.banList)
			r.Post("/sweep", h.sweep)
			r.Get("/reports", h.reports)
			r.Post("/reports/{id}/toggle", h.toggleReport)
			r.Get("/contacts", h.contacts)
			r.Post("/contacts/{id}/toggle", h.toggleContact)
			r.Post("/contacts/{id}/reply", h.replyContact)
			r.Post("/users/activate", h.activateUsers)
			r.Post("/users/deactivate", h.deactivateUsers)
			r.Get("/announcements", h.allAnnouncements)
			r.Post("/announcements", h.createAnnouncement)
			r.Post("/announcements/{id}/toggle", h.toggleAnnouncement)
		})
	})

	// Create a new HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.API.Host, config.API.Port),
		Handler:      router,
		WriteTimeout: config.API.WriteTimeout,
		ReadTimeout:  config.API.ReadTimeout,
		IdleTimeout:  config.API.IdleTimeout,
		ErrorLog:     log.NewLogAdapter(logger),
	}

	return &Server{
		router:   router,
		public:   public,
		server:   server,
		handlers: h,
	}
}

// AddHealthCheck adds a health check endpoint to the server.
// statusFunc reports whether every dependency is healthy and a status per dependency.
func (srv *Server) AddHealthCheck(statusFunc func(ctx context.Context) (bool, map[string]string)) {
	const bytesInMb = 1024 * 1024

	startedAt := time.Now() // Start time

	srv.public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ok, status := statusFunc(r.Context())

		var memStats runtime.MemStats

		runtime.ReadMemStats(&memStats)

		data := map[string]any{
			"status": status,
			"uptime": time.Since(startedAt).String(),
			// Allocated memory / Reserved program memory
			"memory":     fmt.Sprintf("%v Mb / %v Mb", memStats.Alloc/bytesInMb, memStats.Sys/bytesInMb),
			"cpu":        runtime.NumCPU(),
			"goroutines": runtime.NumGoroutine(),
		}

		if ok {
			api.NewResponse().SetData(data).Ok(w)
		} else {
			api.NewResponse().SetError("status_error", "One or more services are not healthy", data).InternalServerError(w)
		}
	})
}

// Handler - the router, for tests and embedding.
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// ListenAndServe starts the server and listens for incoming requests.
func (srv *Server) ListenAndServe() error {
	return srv.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.server.Shutdown(ctx)
}

// Close closes the server immediately.
func (srv *Server) Close() error {
	return srv.server.Close()
}

package api

import (
	"assignment_desk/internal/api/handler"
	"assignment_desk/internal/api/middleware"
	"assignment_desk/internal/app/service"
	"assignment_desk/internal/common/security"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/cors"
)

type Services struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Assignments  *service.AssignmentService
	Notification *service.NotificationService
}

type Options struct {
	TokenAuth      *security.TokenAuth
	CookieName     string
	AllowedOrigins []string
	Debug          bool // development mode: stacks in 500 bodies, non-secure cookies
	StartedAt      time.Time
}

func NewRouter(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(middleware.Recoverer(opts.Debug))
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler)

	// Session tokens come from the cookie, or a bearer header for API clients.
	r.Use(jwtauth.Verify(opts.TokenAuth.JWT, tokenFromCookie(opts.CookieName), jwtauth.TokenFromHeader))
	guard := middleware.SessionGuard(svc.Auth, opts.Debug)

	r.Route("/api", func(api chi.Router) {
		api.Method(http.MethodGet, "/health", handler.NewHealthHandler(opts.StartedAt))

		api.Route("/auth", handler.NewAuthHandler(svc.Auth, opts.CookieName, opts.Debug).RegisterRoutes)

		api.Group(func(protected chi.Router) {
			protected.Use(guard)
			protected.Route("/users", handler.NewUserHandler(svc.Users, opts.Debug).RegisterRoutes)
			protected.Route("/assignments", handler.NewAssignmentHandler(svc.Assignments, opts.Debug).RegisterRoutes)
			protected.Route("/notifications", handler.NewNotificationHandler(svc.Notification, opts.Debug).RegisterRoutes)
		})
	})

	return r
}

func tokenFromCookie(name string) func(r *http.Request) string {
	return func(r *http.Request) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}
}

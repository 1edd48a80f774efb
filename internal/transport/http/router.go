package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redditnobility/backend/internal/application/auth"
	"github.com/redditnobility/backend/internal/application/review"
	"github.com/redditnobility/backend/internal/application/user"
	"github.com/redditnobility/backend/internal/config"
	"github.com/redditnobility/backend/internal/transport/http/handler"
	appmiddleware "github.com/redditnobility/backend/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.UserRepo)

	// 5 requests/second, burst of 10 — applied to the login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		OTPRepo:     deps.OTPRepo,
		Messenger:   deps.Reddit,
		JWTProvider: deps.JWTProvider,
	})
	userSvc := user.NewService(deps.UserRepo)
	reviewSvc := review.NewService(review.ServiceDeps{
		UserRepo:     deps.UserRepo,
		Reddit:       deps.Reddit,
		Leases:       deps.Leases,
		ProfileCache: deps.ProfileCache,
		StatsCache:   deps.StatsCache,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/otp/request", sessionH.RequestOTP)
		r.With(sensitiveRL.Limit).Post("/sessions/otp/login", sessionH.LoginWithOTP)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/me", userH.Me)
			r.Post("/me/password", userH.ChangePassword)

			r.With(appmiddleware.RequirePermission(appmiddleware.PermSubmit)).
				Post("/users", userH.Submit)

			// Moderator routes
			r.Route("/moderator", func(r chi.Router) {
				// Self-or-moderator: the handler allows a user to read their
				// own counters, so no permission middleware here.
				r.Get("/users/{username}/stats", userH.Stats)

				r.Group(func(r chi.Router) {
					r.Use(appmiddleware.RequirePermission(appmiddleware.PermModerator))

					r.Get("/stats", reviewH.Stats)
					r.Get("/users/{username}", userH.Get)
					r.Post("/users/{username}/properties", userH.UpdateProperty)
				})

				// Reviewing is its own capability, independent of the broader
				// moderator flag.
				r.Group(func(r chi.Router) {
					r.Use(appmiddleware.RequirePermission(appmiddleware.PermReviewUser))

					r.Get("/review/{username}", reviewH.Candidate)
					r.Post("/review/{username}/{decision}", reviewH.Decide)
				})
			})
		})
	})

	return r
}

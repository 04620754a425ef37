package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mjheves/account-service/internal/auth"
	"github.com/mjheves/account-service/pkg/health"
	"github.com/mjheves/account-service/pkg/middleware"
)

// RouterConfig carries everything the router needs to assemble the HTTP surface.
type RouterConfig struct {
	ServiceName       string
	AuthHandler       *AuthHandler
	UserHandler       *UserHandler
	Health            *health.Handler
	JWTManager        *auth.JWTManager
	Revocation        middleware.RevocationChecker
	CORS              CORSConfig
	PprofAllowedCIDRs []string
	Logger            *slog.Logger
}

// NewRouter builds the chi router with all middleware and routes wired.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(CORS(cfg.CORS))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, cfg.Logger)

	requireAuth := middleware.Auth(tokenValidator(cfg.JWTManager), cfg.Revocation)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(RequireJSON).Post("/register", cfg.AuthHandler.Register)
			r.With(RequireJSON).Post("/login", cfg.AuthHandler.Login)
			r.With(RequireJSON).Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
			r.With(RequireJSON).Post("/reset-password", cfg.AuthHandler.ResetPassword)
			r.With(requireAuth).Post("/logout", cfg.AuthHandler.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cfg.UserHandler.ListUsers)
			r.Get("/me", cfg.UserHandler.GetProfile)
			r.With(RequireJSON).Put("/me", cfg.UserHandler.UpdateProfile)
			r.Post("/me/photo", cfg.UserHandler.UploadPhoto)
			r.Get("/{id}", cfg.UserHandler.GetUser)
		})
	})

	return r
}

// tokenValidator adapts the JWT manager to the gateway's validator contract.
func tokenValidator(mgr *auth.JWTManager) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := mgr.Validate(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:    claims.UserID,
			Email:     claims.Email,
			ExpiresAt: claims.ExpiresAt.Time,
		}, nil
	}
}

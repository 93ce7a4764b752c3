package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitsync/internal/config"
	"fitsync/internal/handler"
	"fitsync/internal/middleware"
	"fitsync/internal/policy"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Profile   *handler.ProfileHandler
	Trainer   *handler.TrainerHandler
	Equipment *handler.EquipmentHandler
	Loan      *handler.LoanHandler
	EntryLog  *handler.EntryLogHandler
}

func New(cfg *config.Config, auth *middleware.AuthMiddleware, metrics *middleware.Metrics, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	if metrics != nil {
		r.Use(metrics.Handler)
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(a chi.Router) {
			a.Post("/login", h.Auth.Login)
			a.Post("/register-user", h.Auth.RegisterUser)
			a.Post("/refresh", h.Auth.Refresh)
			a.With(auth.RequireAuth).Post("/logout", h.Auth.Logout)
			a.With(auth.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.With(auth.RequireAuth, auth.Guard(policy.RouteProfile)).Get("/user/profile", h.Profile.Get)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteProfile)).Put("/user/profile", h.Profile.Update)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteUsers)).Get("/user/all", h.User.ListAll)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteUserToggle)).Put("/user/{id}/toggle-status", h.User.ToggleStatus)

		api.With(auth.RequireAuth, auth.Guard(policy.RouteTrainers)).Get("/trainer", h.Trainer.List)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteTrainerManage)).Post("/trainer", h.Trainer.Create)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteTrainerManage)).Put("/trainer", h.Trainer.Update)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteTrainerManage)).Put("/trainer/{id}/toggle-status", h.Trainer.ToggleStatus)

		api.With(auth.RequireAuth, auth.Guard(policy.RouteEquipment)).Get("/equipment", h.Equipment.List)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteEquipmentManage)).Post("/equipment", h.Equipment.Create)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteEquipmentManage)).Put("/equipment", h.Equipment.Update)

		api.With(auth.RequireAuth, auth.Guard(policy.RouteLoans)).Get("/loans", h.Loan.List)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteLoanCreate)).Post("/loans", h.Loan.Create)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteLoans)).Post("/loans/{id}/complete", h.Loan.Complete)

		api.With(auth.RequireAuth, auth.Guard(policy.RouteEntryLogs)).Get("/entry-logs/all", h.EntryLog.ListAll)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteEntryHistory)).Get("/entry-logs/user-history", h.EntryLog.UserHistory)
		api.With(auth.RequireAuth, auth.Guard(policy.RouteCheckIn)).Post("/entry-logs", h.EntryLog.CheckIn)
	})

	return r
}

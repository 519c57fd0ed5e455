package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lavishdadwani/Stock-Management/internal/mail"
	"github.com/lavishdadwani/Stock-Management/internal/metrics"
	"github.com/lavishdadwani/Stock-Management/internal/model"
	"github.com/lavishdadwani/Stock-Management/internal/throttle"
)

// Options wires the router's dependencies.
type Options struct {
	DB             *sql.DB
	JWTSecret      string
	TokenExpiry    time.Duration
	Limiter        *throttle.Limiter
	Notifier       *mail.Notifier
	AllowedOrigins []string
	// Web serves everything outside /api and /metrics when set.
	Web http.Handler
}

// NewRouter creates the HTTP router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	users := &UsersHandler{
		DB:          opts.DB,
		JWTSecret:   opts.JWTSecret,
		TokenExpiry: opts.TokenExpiry,
		Limiter:     opts.Limiter,
		Notifier:    opts.Notifier,
	}
	stock := &StockHandler{DB: opts.DB}
	transfers := &TransfersHandler{DB: opts.DB}
	attendance := &AttendanceHandler{DB: opts.DB}

	authMW := AuthMiddleware(opts.JWTSecret, opts.DB)
	requireManager := RequireRole(model.RoleManager, model.RoleOwner)
	requireCoreTeam := RequireRole(model.RoleCoreTeam)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health(opts.DB))

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", users.Register)
			r.Post("/login", users.Login)
			r.Get("/verify-email/{token}", users.VerifyEmailToken)
			r.Post("/resend-verification", users.ResendVerification)
			r.Post("/forgot-password", users.ForgotPassword)
			r.Post("/reset-password/{token}", users.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authMW)
				r.Post("/verify-email", users.VerifyEmail)
				r.Patch("/change-password", users.ChangePassword)
				r.Patch("/profile", users.UpdateProfile)
				r.Get("/me", users.Me)
				r.Delete("/logout", users.Logout)
				r.Put("/photo", users.UploadPhoto)
				r.Get("/{id}/photo", users.GetPhoto)
				r.With(requireManager).Get("/list", users.List)
			})
		})

		r.Route("/stock", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/create", stock.Create)
			r.Get("/get-all", stock.List)
			r.Get("/get-all-quantities", stock.Quantities)
			r.Get("/export", stock.Export)
			r.With(requireManager).Get("/events", stock.Events)
			r.Get("/{id}", stock.Get)
			r.Put("/update/{id}", stock.Update)
			r.Delete("/delete/{id}", stock.Delete)
		})

		r.Route("/stock-transfer", func(r chi.Router) {
			r.Use(authMW)
			r.With(requireManager).Post("/transfer", transfers.Create)
			r.With(requireManager).Get("/get-all", transfers.List)
			r.Get("/my-transfers", transfers.Mine)
			r.Get("/get-quantities", transfers.Quantities)
			r.Get("/{id}", transfers.Get)
			r.With(requireManager).Put("/update/{id}", transfers.Update)
			r.With(requireManager).Delete("/delete/{id}", transfers.Delete)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Use(authMW)
			r.With(requireCoreTeam).Post("/check-in", attendance.CheckIn)
			r.With(requireCoreTeam).Post("/check-out", attendance.CheckOut)
			r.With(requireCoreTeam).Get("/check-in-status", attendance.Status)
			r.With(requireCoreTeam).Get("/my-history", attendance.History)
			r.Get("/producible-items", attendance.ProducibleItems)
			r.With(requireManager).Get("/production-report", attendance.ProductionReport)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			jsonError(w, http.StatusNotFound, "route not found", "The requested endpoint does not exist.", nil)
		})
	})

	if opts.Web != nil {
		r.Handle("/*", opts.Web)
	}

	return r
}

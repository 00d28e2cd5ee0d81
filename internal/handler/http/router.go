package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/cafe-backend-go/internal/config"
	"github.com/cmlabs-hris/cafe-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/cafe-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Auth       AuthHandler
	Attendance AttendanceHandler
	Payroll    PayrollHandler
	Security   SecurityHandler
	Files      FileHandler
}

func NewRouter(cfg *config.Config, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "cafe-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	// Forwarding headers are client-controlled unless a proxy rewrites them
	if cfg.App.TrustProxyHeaders {
		r.Use(chiMiddleware.RealIP)
	}

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/files/*", h.Files.Serve)

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/refresh", h.Auth.RefreshToken)
			r.Post("/logout", h.Auth.Logout)
			r.Route("/oauth/callback", func(r chi.Router) {
				r.Get("/google", h.Auth.OAuthCallbackGoogle)
			})

			r.Route("/login", func(r chi.Router) {
				r.With(middleware.RateLimitByIP(cfg.Security.LoginRatePerMinute, cfg.Security.LoginBurst)).
					Post("/", h.Auth.Login)
				r.Route("/oauth", func(r chi.Router) {
					r.Get("/google", h.Auth.LoginWithGoogle)
				})
			})
		})

		r.Route("/security", func(r chi.Router) {
			// EventSource cannot send headers; a short-lived stream token arrives in the query string
			r.Get("/alerts/stream", h.Security.Stream)

			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
				r.Use(middleware.RequirePermission(user.PermissionSecurityView))
				r.Get("/alerts", h.Security.ListAlerts)
				r.Get("/alerts/stream-token", h.Security.GetStreamToken)
			})
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionAttendanceClock)).Post("/clock-in", h.Attendance.ClockIn)
				r.With(middleware.RequirePermission(user.PermissionAttendanceClock)).Post("/clock-out", h.Attendance.ClockOut)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
					r.Get("/my", h.Attendance.GetMyAttendance)
					r.Get("/my/summary", h.Attendance.GetMySummary)
					r.Get("/working-days", h.Attendance.GetWorkingDays)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))
					r.Get("/employees/{employeeID}", h.Attendance.GetEmployeeAttendance)
					r.Get("/employees/{employeeID}/summary", h.Attendance.GetEmployeeSummary)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceManage))
					r.Put("/", h.Attendance.Mark)
					r.Delete("/{id}", h.Attendance.Delete)
					r.Post("/lock", h.Attendance.LockMonth)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayrollView))
					r.Post("/preview", h.Payroll.Preview)
					r.Get("/", h.Payroll.List)
					r.Get("/{id}", h.Payroll.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayrollManage))
					r.Post("/generate", h.Payroll.Generate)
					r.Post("/finalize", h.Payroll.Finalize)
					r.Post("/export", h.Payroll.Export)
				})
			})
		})
	})
	return r
}

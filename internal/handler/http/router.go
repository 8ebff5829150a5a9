package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Employee   EmployeeHandler
	Attendance AttendanceHandler
	Incident   IncidentHandler
	Payroll    PayrollHandler
	Vacation   VacationHandler
	Bonus      BonusHandler
}

func NewRouter(app config.AppConfig, logger *slog.Logger, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		// Employees clock with their own token
		r.Post("/attendance/clock", h.Attendance.Clock)

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminOnly)

			r.Route("/employees/{id}", func(r chi.Router) {
				r.Get("/days", h.Employee.Days)
				r.Get("/summary", h.Employee.Summary)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Patch("/{id}/late-ignored", h.Attendance.ToggleLateIgnored)
				r.Put("/breaks", h.Attendance.UpdateBreak)
				r.Delete("/breaks", h.Attendance.DeleteBreak)
				r.Post("/repair", h.Attendance.Repair)
				r.Get("/feed", h.Attendance.Feed)
			})

			r.Route("/incidents/day", func(r chi.Router) {
				r.Post("/", h.Incident.CreateDaily)
				r.Delete("/", h.Incident.RemoveDaily)
				r.Put("/attendance", h.Incident.UpdateDailyAttendance)
			})

			r.Route("/payroll/periods", func(r chi.Router) {
				r.Get("/", h.Payroll.ListPeriods)
				r.Get("/open", h.Payroll.GetOpenPeriod)
				r.Post("/cycle", h.Payroll.Cycle)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/pre-payroll", h.Payroll.PrePayroll)
					r.Get("/pre-payroll.xlsx", h.Payroll.ExportPrePayroll)
					r.Put("/notes", h.Payroll.UpsertNote)
				})
			})

			r.Route("/vacations/{employeeID}", func(r chi.Router) {
				r.Get("/", h.Vacation.GetLedger)
				r.Post("/initial", h.Vacation.SetInitialBalance)
				r.Post("/taken", h.Vacation.RecordTaken)
				r.Post("/recalculate", h.Vacation.Recalculate)
			})

			r.Route("/bonuses/reports", func(r chi.Router) {
				r.Post("/", h.Bonus.Generate)
				r.Get("/{month}", h.Bonus.Get)
				r.Post("/{id}/recalculate", h.Bonus.Recalculate)
				r.Post("/{id}/finalize", h.Bonus.Finalize)
			})
		})
	})

	return r
}

// NewLogger builds the JSON request logger in the ECS schema.
func NewLogger(app config.AppConfig, level slog.Level, version string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timeclock"),
		slog.String("version", version),
		slog.String("env", app.Env),
	)
}

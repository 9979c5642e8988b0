package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/workstream-hq/payroll-engine-go/internal/handler/http/middleware"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/jwt"
)

func NewRouter(JWTService jwt.Service, salaryHandler SalaryHandler, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/salary", func(r chi.Router) {
				r.Route("/components", func(r chi.Router) {
					r.Post("/", salaryHandler.CreateComponent)
					r.Get("/", salaryHandler.ListComponents)
					r.Get("/{id}", salaryHandler.GetComponent)
					r.Put("/{id}", salaryHandler.UpdateComponent)
					r.Delete("/{id}", salaryHandler.DeleteComponent)
				})

				r.Route("/structures", func(r chi.Router) {
					r.Post("/", salaryHandler.CreateStructure)
					r.Get("/", salaryHandler.ListStructures)
					r.Get("/{id}", salaryHandler.GetStructure)
					r.Put("/{id}", salaryHandler.UpdateStructure)
					r.Delete("/{id}", salaryHandler.DeleteStructure)
				})

				r.Route("/assignments", func(r chi.Router) {
					r.Post("/", salaryHandler.CreateAssignment)
					r.Get("/employees/{employeeID}/active", salaryHandler.GetActiveAssignment)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/runs", func(r chi.Router) {
					r.Post("/", payrollHandler.InitiateRun)
					r.Get("/", payrollHandler.ListRuns)
					r.Get("/{id}", payrollHandler.GetRunStatus)
					r.Post("/{id}/submit", payrollHandler.SubmitRun)
					r.Post("/{id}/approve", payrollHandler.ApproveRun)
					r.Post("/{id}/abort", payrollHandler.AbortRun)
					r.Get("/{id}/payslips", payrollHandler.ListRunPayslips)
				})

				r.Route("/payslips/{id}", func(r chi.Router) {
					r.Get("/", payrollHandler.GetPayslip)
					r.Post("/emailed", payrollHandler.MarkPayslipEmailed)
				})
			})
		})
	})

	return r
}

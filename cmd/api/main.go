package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/workstream-hq/payroll-engine-go/internal/config"
	appHTTP "github.com/workstream-hq/payroll-engine-go/internal/handler/http"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/database"
	"github.com/workstream-hq/payroll-engine-go/internal/pkg/jwt"
	"github.com/workstream-hq/payroll-engine-go/internal/repository/postgresql"
	payrollService "github.com/workstream-hq/payroll-engine-go/internal/service/payroll"
	structureService "github.com/workstream-hq/payroll-engine-go/internal/service/structure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "payroll-engine"),
		slog.String("env", cfg.App.Env),
	)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	componentRepo := postgresql.NewComponentRepository(db)
	structureRepo := postgresql.NewStructureRepository(db)
	assignmentRepo := postgresql.NewAssignmentRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	employeeDirectory := postgresql.NewEmployeeDirectory(db)
	attendanceLog := postgresql.NewAttendanceLog(db)
	leaveLog := postgresql.NewLeaveLog(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	catalogService := structureService.NewCatalogService(componentRepo, structureRepo, assignmentRepo)
	payrollSvc := payrollService.NewPayrollService(
		cfg.Payroll,
		logger,
		payrollRepo,
		employeeDirectory,
		assignmentRepo,
		structureRepo,
		attendanceLog,
		leaveLog,
		nil,
	)

	salaryHandler := appHTTP.NewSalaryHandler(catalogService)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(JWTService, salaryHandler, payrollHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/cafe-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/cafe-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/oauth"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/cafe-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/cafe-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/cafe-backend-go/internal/service/attendance"
	serviceAuth "github.com/cmlabs-hris/cafe-backend-go/internal/service/auth"
	payrollService "github.com/cmlabs-hris/cafe-backend-go/internal/service/payroll"
	securityService "github.com/cmlabs-hris/cafe-backend-go/internal/service/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.SlogLevel(),
	})))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	JWTRepository := postgresql.NewJWTRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	sessionRepo := postgresql.NewSessionRepository(db)
	alertRepo := postgresql.NewAlertRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)

	var GoogleService oauth.GoogleService
	if cfg.OAuth2Google.Enabled() {
		GoogleService = oauth.NewGoogleService(cfg.OAuth2Google)
	}

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
	default:
		log.Fatal("Unsupported storage types: ", cfg.Storage.Type)
	}

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service:", err)
	}

	hub := sse.NewHub()
	securitySvc := securityService.NewSecurityService(sessionRepo, alertRepo, userRepo, emailService, hub, securityService.ConfigFrom(cfg))

	authService := serviceAuth.NewAuthService(db, userRepo, JWTService, JWTRepository, securitySvc)

	shiftHour, shiftMinute := cfg.Attendance.ShiftStartClock()
	attendanceSvc := attendanceService.NewAttendanceService(db, attendanceRepo, employeeRepo, attendanceService.Config{
		ShiftStartHour:   shiftHour,
		ShiftStartMinute: shiftMinute,
		ShiftLength:      cfg.Attendance.ShiftLength,
		Location:         cfg.Attendance.Location,
		ExcludeWeekdays:  cfg.Payroll.ExcludeWeekdays,
	})

	payrollSvc := payrollService.NewPayrollService(db, payrollRepo, employeeRepo, attendanceRepo, fileStorage, payrollService.Config{
		RejectNegativeInput:    cfg.Payroll.RejectNegativeInput,
		DefaultOvertimeRate:    cfg.Payroll.DefaultOvertimeRate,
		DefaultLatePenaltyRate: cfg.Payroll.DefaultLatePenaltyRate,
		ExcludeWeekdays:        cfg.Payroll.ExcludeWeekdays,
	})

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(
		attendanceSvc.(*attendanceService.AttendanceServiceImpl),
		cfg.Attendance.AutoLockDay,
		cfg.Attendance.LockInterval,
	).RegisterJobs(scheduler)
	scheduler.Start()

	router := appHTTP.NewRouter(cfg, JWTService, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(JWTService, authService, GoogleService, cfg.App.FrontendURL),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc, cfg.Attendance.Location),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
		Security:   appHTTP.NewSecurityHandler(securitySvc, JWTService),
		Files:      appHTTP.NewFileHandler(fileStorage),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server running", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	scheduler.Stop()
	securitySvc.Stop()
}

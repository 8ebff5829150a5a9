package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/app"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := appHTTP.NewLogger(cfg.App, cfg.SlogLevel(), version)
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.ApplySchema(context.Background()); err != nil {
		slog.Error("Error applying schema", "error", err)
		os.Exit(1)
	}

	services, err := app.NewServices(cfg, db)
	if err != nil {
		slog.Error("Error building services", "error", err)
		os.Exit(1)
	}
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(cfg.App, logger, JWTService, appHTTP.Handlers{
		Employee:   appHTTP.NewEmployeeHandler(services.Reconciliation),
		Attendance: appHTTP.NewAttendanceHandler(services.Attendance),
		Incident:   appHTTP.NewIncidentHandler(services.Incident),
		Payroll:    appHTTP.NewPayrollHandler(services.Payroll, services.Now),
		Vacation:   appHTTP.NewVacationHandler(services.Vacation),
		Bonus:      appHTTP.NewBonusHandler(services.Bonus),
	})

	if cfg.Cron.Enabled {
		_, scheduler := services.Jobs(cfg.Cron.CheckInterval)
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}

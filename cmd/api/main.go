package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/homebudget/budget-service/internal/config"
	"github.com/homebudget/budget-service/internal/handler"
	"github.com/homebudget/budget-service/internal/middleware"
	"github.com/homebudget/budget-service/internal/reminder"
	"github.com/homebudget/budget-service/internal/repository"
	"github.com/homebudget/budget-service/internal/service"
	"github.com/homebudget/budget-service/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db, cfg.StorageTimeout)
	if err := repo.InitSchema(context.Background()); err != nil {
		logger.Fatalf("Failed to initialize schema: %v", err)
	}
	svc := service.NewService(repo, logger, cfg)
	h := handler.NewHandler(svc, logger)
	sender := email.NewSender(cfg, logger)

	// Monthly installment reminders
	rem := reminder.NewReminder(svc, sender, cfg, logger)
	if err := rem.Start(); err != nil {
		logger.Fatalf("Failed to start reminder job: %v", err)
	}
	defer rem.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/plans", h.CreatePlan).Methods("POST")
	authRouter.HandleFunc("/plans", h.ListPlans).Methods("GET")
	authRouter.HandleFunc("/plans/status", h.ListPlanStatuses).Methods("GET")
	authRouter.HandleFunc("/plans/{id}/payments", h.UpdatePayment).Methods("PUT")
	authRouter.HandleFunc("/plans/{id}/status", h.PlanStatus).Methods("GET")
	authRouter.HandleFunc("/portfolio", h.Portfolio).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/akazakov/cashflow-service/internal/config"
	"github.com/akazakov/cashflow-service/internal/handler"
	"github.com/akazakov/cashflow-service/internal/integrations/ecb"
	"github.com/akazakov/cashflow-service/internal/middleware"
	"github.com/akazakov/cashflow-service/internal/repository"
	"github.com/akazakov/cashflow-service/internal/scheduler"
	"github.com/akazakov/cashflow-service/internal/service"
	"github.com/akazakov/cashflow-service/internal/utils/email"
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
	repo := repository.NewRepository(db)
	sender := email.NewSender(cfg, logger)
	rates := ecb.NewClient(cfg, logger)
	svc := service.NewService(repo, sender, rates, logger, cfg)
	h := handler.NewHandler(svc)

	// Start the periodic obligation batch
	sched, err := scheduler.New(svc, cfg.ProcessCron, logger)
	if err != nil {
		logger.Fatalf("Failed to set up scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Scheduler endpoint
	r.HandleFunc("/internal/process-due", h.ProcessDue).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/obligations", h.CreateTemplate).Methods("POST")
	authRouter.HandleFunc("/obligations", h.ListTemplates).Methods("GET")
	authRouter.HandleFunc("/obligations/{id:[0-9]+}", h.GetTemplate).Methods("GET")
	authRouter.HandleFunc("/obligations/{id:[0-9]+}", h.DeleteTemplate).Methods("DELETE")
	authRouter.HandleFunc("/obligations/{id:[0-9]+}/deactivate", h.DeactivateTemplate).Methods("POST")
	authRouter.HandleFunc("/obligations/{id:[0-9]+}/occurrences", h.ListOccurrences).Methods("GET")
	authRouter.HandleFunc("/occurrences/{id:[0-9]+}", h.ResolveOccurrence).Methods("PATCH")
	authRouter.HandleFunc("/forecast", h.Forecast).Methods("GET")

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

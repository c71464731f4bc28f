package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"task-management/backend/apperrors"
	"task-management/backend/handlers"
	"task-management/backend/logging"
	"task-management/backend/middleware"
	"task-management/backend/models"
	"task-management/backend/repositories"
	"task-management/backend/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Management Service...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.MongoURI)

	db := client.Database(cfg.MongoDBName)
	taskRepo := repositories.NewMongoTaskRepo(db.Collection("tasks"))
	userRepo := repositories.NewMongoUserRepo(db.Collection("users"))

	mailBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp-cb",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.SMTPPassword != "" && cfg.SMTPFrom != "" {
		notifier = services.NewEmailNotifier(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Password: cfg.SMTPPassword,
		}, mailBreaker)
	} else {
		logging.Logger.Info("Event ID: NOTIFIER_DISABLED, Description: SMTP credentials not set, assignment emails disabled")
	}

	taskService := services.NewTaskService(taskRepo, userRepo, notifier)
	userService := services.NewUserService(userRepo, taskRepo)
	metricsService := services.NewMetricsService(taskRepo)
	authService := services.NewAuthService(userRepo)

	if err := ensureAdmin(ctx, userService, cfg); err != nil {
		logging.Logger.Fatalf("Event ID: ADMIN_SEED_FAILED, Description: Could not ensure admin account: %v", err)
	}

	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService, cfg.UploadDir)
	authHandler := handlers.NewAuthHandler(authService)
	dashboardHandler := handlers.NewDashboardHandler(metricsService)

	r := mux.NewRouter()

	r.HandleFunc("/api/admin/login", authHandler.AdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/user/login", authHandler.UserLogin).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Task management service is running"))
	}).Methods(http.MethodGet)

	// Everything else under /api requires a valid token. The login routes
	// above are registered first, so they stay public. Admin-only handlers
	// are additionally wrapped with RequireAdmin.
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(h)
	}

	api.Handle("/tasks", adminOnly(taskHandler.CreateTask)).Methods(http.MethodPost)
	api.HandleFunc("/tasks", taskHandler.GetAllTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/user/{userId}", taskHandler.GetTasksForUser).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	api.Handle("/tasks/{id}", adminOnly(taskHandler.DeleteTask)).Methods(http.MethodDelete)

	api.Handle("/users", adminOnly(userHandler.CreateUser)).Methods(http.MethodPost)
	api.Handle("/users", adminOnly(userHandler.ListUsers)).Methods(http.MethodGet)
	api.Handle("/users/{id}", adminOnly(userHandler.GetUser)).Methods(http.MethodGet)
	api.Handle("/users/{id}", adminOnly(userHandler.UpdateUser)).Methods(http.MethodPut)
	api.Handle("/users/{id}", adminOnly(userHandler.DeleteUser)).Methods(http.MethodDelete)

	api.Handle("/dashboard/admin", adminOnly(dashboardHandler.AdminDashboard)).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/user", dashboardHandler.UserDashboard).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      corsRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)
	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

// ensureAdmin seeds the admin account from the environment on first start, so
// a fresh deployment has a working admin console login.
func ensureAdmin(ctx context.Context, users *services.UserService, cfg Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logging.Logger.Warn("Event ID: ADMIN_SEED_SKIPPED, Description: ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	_, err := users.CreateUser(ctx, services.CreateUserInput{
		Name:       "Administrator",
		Email:      cfg.AdminEmail,
		UserID:     "admin",
		Password:   cfg.AdminPassword,
		Role:       models.RoleAdmin,
		Department: "Management",
	})
	if errors.Is(err, apperrors.ErrConflict) {
		return nil // already seeded
	}
	if err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: ADMIN_SEEDED, Description: Admin account %s created", cfg.AdminEmail)
	return nil
}

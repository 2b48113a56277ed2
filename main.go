package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-tracker/config"
	"task-tracker/handlers"
	"task-tracker/logging"
	"task-tracker/middleware"
	"task-tracker/repositories"
	"task-tracker/routes"
	"task-tracker/services"
	"task-tracker/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}
	logging.InitLogger(cfg.LogFile, cfg.LogLevel)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Tracker...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		taskStore services.TaskStore         = repositories.NewTaskMemoryRepo()
		userStore services.UserStore         = repositories.NewUserMemoryRepo()
		noteStore services.NotificationStore = repositories.NewNotificationMemoryRepo()
	)

	if cfg.TaskStore == config.StoreMongo {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
		}
		defer client.Disconnect(context.Background())

		if err := client.Ping(ctx, nil); err != nil {
			logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
		}
		logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB, using %s/%s", cfg.MongoDBName, cfg.MongoCollection)

		db := client.Database(cfg.MongoDBName)
		tasksRepo := repositories.NewTaskMongoRepo(db, cfg.MongoCollection)
		usersRepo := repositories.NewUserMongoRepo(db)
		if err := tasksRepo.EnsureIndexes(ctx); err != nil {
			logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: %v", err)
		}
		if err := usersRepo.EnsureIndexes(ctx); err != nil {
			logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: %v", err)
		}
		taskStore, userStore = tasksRepo, usersRepo
	}

	if cfg.NotificationStore == config.StoreCassandra {
		repo, err := repositories.NewNotificationCassandraRepo(cfg.CassandraHost)
		if err != nil {
			logging.Logger.Fatalf("Event ID: CASSANDRA_CONNECTION_FAILED, Description: %v", err)
		}
		defer repo.Close()
		noteStore = repo
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	var verifier middleware.Verifier = tokens
	if cfg.Verifier == config.VerifierRemote {
		verifier = utils.NewRemoteVerifier(
			cfg.IdentityServiceURL,
			utils.NewHTTPClient(cfg.VerifierTimeout),
			utils.NewCircuitBreaker("IdentityServiceCB", 5*time.Second),
		)
		logging.Logger.Infof("Event ID: VERIFIER_REMOTE, Description: Verifying tokens against %s", cfg.IdentityServiceURL)
	}

	userService := services.NewUserService(userStore, tokens)
	if cfg.AdminUsername != "" {
		if err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logging.Logger.Fatalf("Event ID: ADMIN_BOOTSTRAP_FAILED, Description: %v", err)
		}
	}
	notificationService := services.NewNotificationService(noteStore)
	taskService := services.NewTaskService(taskStore, notificationService)

	router := routes.NewRouter(routes.Handlers{
		Tasks:         handlers.NewTaskHandler(taskService),
		Login:         handlers.NewLoginHandler(userService),
		Users:         handlers.NewUserHandler(userService),
		Notifications: handlers.NewNotificationHandler(notificationService),
	}, verifier, cfg.CORSOrigin)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_ERROR, Description: %v", err)
	}
	logging.Logger.Info("Event ID: SERVICE_STOP, Description: Task Tracker stopped")
}

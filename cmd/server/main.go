package main

import (
	"assignment_desk/internal/api"
	"assignment_desk/internal/app/service"
	"assignment_desk/internal/app/store"
	"assignment_desk/internal/app/worker"
	"assignment_desk/internal/common/security"
	"assignment_desk/internal/platform/config"
	"assignment_desk/internal/platform/queue"
	"assignment_desk/internal/platform/session"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

func main() {
	startedAt := time.Now()

	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("ERROR: invalid configuration: %v", err)
	}
	log.Printf("INFO: configuration loaded (env=%s, store=%s)", cfg.AppEnv, cfg.StoreDriver)

	ctx := context.Background()

	// 2. Store
	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("ERROR: could not open %s store: %v", cfg.StoreDriver, err)
	}
	defer st.Close()
	if cfg.DBAutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			log.Fatalf("ERROR: migration failed: %v", err)
		}
	}

	// 3. Redis, optional: sessions and events fall back to in-process variants.
	var (
		rdb       *redis.Client
		sessions  session.Store
		publisher service.EventPublisher
		events    *queue.EventQueue
	)
	if cfg.RedisEnabled() {
		rdb, err = queue.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		defer queue.CloseRedis(rdb)
		sessions = session.NewRedisStore(rdb, cfg.SessionRevokePrefix)
		events = queue.NewEventQueue(rdb, cfg.EventQueueName, cfg.EventDedupTTL)
		publisher = events
	} else {
		log.Println("WARN: REDIS_ADDR is empty; sessions are revoked in memory and notifications are disabled")
		sessions = session.NewMemoryStore()
		publisher = service.NewNoopPublisher()
	}

	// 4. Services
	tokens := security.NewTokenAuth(cfg.JWTKey, cfg.JWTExp)
	authService := service.NewAuthService(st.Users, tokens, sessions, cfg.BcryptCost)
	userService := service.NewUserService(st.Users)
	assignmentService := service.NewAssignmentService(st.Assignments, st.Users, publisher)
	notificationService := service.NewNotificationService(st.Notifications, st.Users)

	// 5. Notification worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	if events != nil {
		go func() {
			defer close(workerDone)
			worker.NewNotificationWorker(events, notificationService).Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// 6. HTTP server
	router := api.NewRouter(api.Services{
		Auth:         authService,
		Users:        userService,
		Assignments:  assignmentService,
		Notification: notificationService,
	}, api.Options{
		TokenAuth:      tokens,
		CookieName:     cfg.SessionCookieName,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Debug:          cfg.IsDevelopment(),
		StartedAt:      startedAt,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("INFO: server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ERROR: could not listen on %s: %v", cfg.APIPort, err)
		}
	}()

	<-stop
	log.Println("INFO: shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: server shutdown failed: %v", err)
	}

	workerCancel()
	<-workerDone
	log.Println("INFO: server and worker stopped gracefully.")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	_ "huddle/docs"
	"huddle/internal/auth"
	"huddle/internal/config"
	"huddle/internal/database"
	"huddle/internal/events"
	"huddle/internal/group"
	"huddle/internal/metrics"
	"huddle/internal/poll"
	"huddle/internal/status"
	"huddle/internal/todo"
	mw "huddle/pkg/middleware"
)

// @title           Huddle API
// @version         1.0
// @description     Group-scoped statuses, quick polls and shared to-do lists
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		log.Fatalf("Failed to apply schema: %v", err)
	}
	cancelMigrate()

	log.Println("Connected to database successfully")

	metrics.Register()

	bus := events.NewBus()
	jwtManager := auth.NewManager(cfg.JWTSecret, "huddle")

	// Group feature (the membership guard everything else leans on)
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, bus)
	groupHandler := group.NewHandler(groupService)

	// Status feature
	statusRepo := status.NewRepository(db)
	statusService := status.NewService(statusRepo, groupService, bus)
	statusHandler := status.NewHandler(statusService)

	// Poll feature
	pollRepo := poll.NewRepository(db)
	pollService := poll.NewService(pollRepo, groupService, bus)
	pollHandler := poll.NewHandler(pollService)

	// Todo feature
	todoRepo := todo.NewRepository(db)
	todoService := todo.NewService(todoRepo, groupService, bus)
	todoHandler := todo.NewHandler(todoService)

	eventsHandler := events.NewHandler(bus, groupService)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(mw.RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"db unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1/groups/{groupId}", func(r chi.Router) {
		// invite preview works without membership, with an isMember flag
		r.With(mw.OptionalAuth(jwtManager)).Get("/", groupHandler.Preview)

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(jwtManager))

			r.Post("/join", groupHandler.Join)
			r.Delete("/members/{memberId}", groupHandler.Leave)
			r.Get("/events", eventsHandler.Stream)

			r.Mount("/statuses", statusHandler.Routes())
			r.Mount("/todos", todoHandler.Routes())

			r.Route("/polls", func(r chi.Router) {
				r.Get("/", pollHandler.List)
				r.Post("/", pollHandler.Create)
				r.With(mw.RateLimit(rate.Every(time.Second), 10)).Post("/{pollId}/vote", pollHandler.Vote)
				r.Delete("/{pollId}", pollHandler.Delete)
			})
		})
	})

	// Background sweep keeps the status table from accumulating
	// expired rows; reads are already expiry-filtered.
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := status.NewSweeper(statusRepo, cfg.SweepInterval)
	go sweeper.Run(rootCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	<-stop
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("server stopped")
}

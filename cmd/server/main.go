package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asanalab/flowbuilder/internal/auth"
	"github.com/asanalab/flowbuilder/internal/config"
	"github.com/asanalab/flowbuilder/internal/mailer"
	"github.com/asanalab/flowbuilder/internal/middleware"
	"github.com/asanalab/flowbuilder/internal/pose"
	"github.com/asanalab/flowbuilder/internal/profile"
	"github.com/asanalab/flowbuilder/internal/sequence"
	"github.com/asanalab/flowbuilder/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)
	shareCache := store.NewShareCache(rdb)

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Mailer ───────────────────────────────────────────────
	mail := mailer.New(cfg.SMTPAddr, cfg.SMTPFrom, cfg.PublicBaseURL)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(pgStore, sessions, mail)
	poseHandler := pose.NewHandler(pgStore, minioStore)
	sequenceHandler := sequence.NewHandler(mongoStore)
	profileHandler := profile.NewHandler(pgStore, minioStore, shareCache, sessions, mail)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.RequireAuth(sessions)).Get("/me", authHandler.Me)
	})

	// Public share pages
	r.Get("/api/share/{slug}", profileHandler.Share)
	r.Get("/api/share/{slug}/photo", profileHandler.SharePhoto)

	// Pose library (protected)
	r.Route("/api/poses", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Post("/", poseHandler.Create)
		r.Get("/", poseHandler.List)
		r.Get("/{id}", poseHandler.Get)
		r.Put("/{id}", poseHandler.Rename)
		r.Delete("/{id}", poseHandler.Delete)
		r.Post("/{id}/variations", poseHandler.CreateVariation)
	})
	r.Route("/api/variations", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Put("/{id}", poseHandler.UpdateVariation)
		r.Delete("/{id}", poseHandler.DeleteVariation)
		r.Post("/{id}/image", poseHandler.UploadImage)
		r.Get("/{id}/image", poseHandler.GetImage)
	})

	// Sequences (protected)
	r.Route("/api/sequences", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Post("/", sequenceHandler.Create)
		r.Get("/", sequenceHandler.List)
		r.Get("/{id}", sequenceHandler.Get)
		r.Put("/{id}", sequenceHandler.Update)
		r.Delete("/{id}", sequenceHandler.Delete)
		r.Post("/{id}/duplicate", sequenceHandler.Duplicate)
		r.Get("/{id}/timeline", sequenceHandler.Timeline)
	})

	// Own profile (protected)
	r.Route("/api/profile", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Get("/", profileHandler.Me)
		r.Put("/", profileHandler.Update)
		r.Post("/photo", profileHandler.UploadPhoto)
		r.Get("/schedule", profileHandler.ListSchedule)
		r.Post("/schedule", profileHandler.CreateScheduleEvent)
		r.Put("/schedule/{eventID}", profileHandler.UpdateScheduleEvent)
		r.Delete("/schedule/{eventID}", profileHandler.DeleteScheduleEvent)
	})

	// Admin (protected + admin flag)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Use(middleware.RequireAdmin(pgStore))
		r.Get("/users", profileHandler.ListUsers)
		r.Post("/users/{id}/ban", profileHandler.Ban)
		r.Post("/users/{id}/unban", profileHandler.Unban)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}

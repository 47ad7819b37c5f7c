package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"appraise/internal/domain/assignment"
	"appraise/internal/domain/audit"
	"appraise/internal/domain/auth"
	"appraise/internal/domain/directory"
	"appraise/internal/domain/evaluation"
	"appraise/internal/domain/notifications"
	"appraise/internal/domain/reports"
	"appraise/internal/domain/template"
	"appraise/internal/domain/tenant"
	"appraise/internal/platform/config"
	cryptoutil "appraise/internal/platform/crypto"
	"appraise/internal/platform/db"
	"appraise/internal/platform/email"
	"appraise/internal/platform/metrics"
	"appraise/internal/transport/http/api"
	assignmentshandler "appraise/internal/transport/http/handlers/assignments"
	audithandler "appraise/internal/transport/http/handlers/audit"
	authhandler "appraise/internal/transport/http/handlers/auth"
	directoryhandler "appraise/internal/transport/http/handlers/directory"
	evaluationshandler "appraise/internal/transport/http/handlers/evaluations"
	notificationshandler "appraise/internal/transport/http/handlers/notifications"
	reportshandler "appraise/internal/transport/http/handlers/reports"
	settingshandler "appraise/internal/transport/http/handlers/settings"
	templateshandler "appraise/internal/transport/http/handlers/templates"
	"appraise/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Metrics *metrics.Collector
}

// New connects, migrates and seeds the database per cfg and builds the full
// route tree.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}

	authService := auth.NewService(auth.NewStore(pool))
	directoryService := directory.NewService(directory.NewStore(pool))
	templateService := template.NewService(template.NewStore(pool))
	assignmentService := assignment.NewService(assignment.NewStore(pool))
	evaluationService := evaluation.NewService(evaluation.NewStore(pool), assignmentService, templateService)
	tenantService := tenant.NewService(tenant.NewStore(pool))
	reportsService := reports.NewService(reports.NewStore(pool))
	auditService := audit.New(pool)
	notifyService := notifications.New(notifications.NewStore(pool), email.New(cfg))

	collector := metrics.New()
	idempotency := &middleware.IdempotencyStore{Pool: pool}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Metrics(collector))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Idempotency(idempotency))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authService, cfg.JWTSecret, crypto, auditService).RegisterRoutes(r)
		directoryhandler.NewHandler(directoryService, directoryService, auditService).RegisterRoutes(r)
		templateshandler.NewHandler(templateService, directoryService, auditService).RegisterRoutes(r)
		assignmentshandler.NewHandler(assignmentService, directoryService, directoryService, notifyService, auditService).RegisterRoutes(r)
		evaluationshandler.NewHandler(evaluationService, directoryService, directoryService, notifyService, auditService).RegisterRoutes(r)
		settingshandler.NewHandler(tenantService, directoryService, auditService).RegisterRoutes(r)
		reportshandler.NewHandler(reportsService, evaluationService, directoryService, tenantService, directoryService).RegisterRoutes(r)
		notificationshandler.NewHandler(notifyService).RegisterRoutes(r)
		audithandler.NewHandler(auditService, directoryService).RegisterRoutes(r)
	})

	return &App{Config: cfg, DB: pool, Router: router, Metrics: collector}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run starts the configured HTTP server and blocks until it fails.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("appraise server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/momovisor/backend/src/config"
	"github.com/username/momovisor/backend/src/database"
	"github.com/username/momovisor/backend/src/handlers"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/parsers"
	"github.com/username/momovisor/backend/src/parsers/smsbackup"
	"github.com/username/momovisor/backend/src/processors"
	"github.com/username/momovisor/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}
		if config.Cfg.FrontendBaseURL != "" {
			allowedOrigins[config.Cfg.FrontendBaseURL] = true
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// runStartupIngest loads the locally configured XML document once at boot so
// a fresh deployment comes up with data before any upload arrives.
func runStartupIngest(ingestService services.IngestService, path string) {
	file, err := os.Open(path)
	if err != nil {
		logger.L.Error("Failed to open startup XML input", "path", path, "error", err)
		return
	}
	defer file.Close()

	report, err := ingestService.ProcessDocument(file, "smsbackup", path)
	if err != nil {
		// The report carries the counts committed before the failure.
		logger.L.Error("Startup ingest failed",
			"path", path,
			"error", err,
			"processed", report.Processed,
			"loaded", report.Loaded,
			"updated", report.Updated,
			"deadLettered", report.DeadLettered,
		)
		return
	}
	logger.L.Info("Startup ingest finished",
		"path", path,
		"processed", report.Processed,
		"loaded", report.Loaded,
		"updated", report.Updated,
		"deadLettered", report.DeadLettered,
	)
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("MomoVisor backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	parsers.Register("smsbackup", func() parsers.Parser {
		return smsbackup.NewParser()
	})

	extractor := processors.NewExtractor()
	normalizer := processors.NewNormalizer()
	classifier := processors.NewClassifier()

	ingestService := services.NewIngestService(
		extractor,
		normalizer,
		classifier,
		reportCache,
		services.IngestOptions{
			RetryAttempts: config.Cfg.StorageRetryAttempts,
			RetryBackoff:  config.Cfg.StorageRetryBackoff,
			ExportPath:    config.Cfg.DashboardExportPath,
		},
	)

	ingestHandler := handlers.NewIngestHandler(ingestService)
	txHandler := handlers.NewTransactionHandler(ingestService)
	statsHandler := handlers.NewStatsHandler(ingestService)

	if config.Cfg.XMLInputPath != "" {
		runStartupIngest(ingestService, config.Cfg.XMLInputPath)
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "MomoVisor Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.BasicAuthMiddleware)

		r.Post("/ingest", ingestHandler.HandleIngest)
		r.Get("/runs", ingestHandler.HandleListRuns)
		r.Get("/deadletters", ingestHandler.HandleListDeadLetters)

		r.Get("/transactions", txHandler.HandleListTransactions)
		r.Post("/transactions", txHandler.HandleAddManualTransaction)
		r.Get("/transactions/{id}", txHandler.HandleGetTransaction)
		r.Put("/transactions/{id}", txHandler.HandleUpdateTransaction)
		r.Delete("/transactions/{id}", txHandler.HandleDeleteTransaction)

		r.Get("/stats", statsHandler.HandleGetStats)
		r.Get("/categories", statsHandler.HandleGetCategories)
		r.Get("/types", statsHandler.HandleGetTypes)
		r.Get("/trends/monthly", statsHandler.HandleGetMonthlyTrends)
		r.Get("/dashboard", statsHandler.HandleGetDashboard)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}

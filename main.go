package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/capgains/backend/src/config"
	"github.com/username/capgains/backend/src/database"
	"github.com/username/capgains/backend/src/handlers"
	"github.com/username/capgains/backend/src/logger"
	"github.com/username/capgains/backend/src/models"
	"github.com/username/capgains/backend/src/security"
	"github.com/username/capgains/backend/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
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

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, Content-Disposition")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// seedHistoricalRates loads the optional pre-supplied rates file into the
// store so the first calculation starts from a populated table.
func seedHistoricalRates(rateService services.RateService, path string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		logger.L.Info("No historical rates file present, skipping seed", "path", path)
		return
	}
	defer f.Close()

	table, err := rateService.ParseRatesJSON(f)
	if err != nil {
		logger.L.Warn("Failed to parse historical rates file", "path", path, "error", err)
		return
	}
	if err := rateService.SaveRates(table, models.RateSourceSaved); err != nil {
		logger.L.Warn("Failed to persist historical rates", "path", path, "error", err)
		return
	}
	logger.L.Info("Historical rates seeded", "path", path, "count", len(table))
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Capgains backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing result cache...")
	resultCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Result cache initialized.")

	logger.L.Info("Initializing services and handlers...")
	authService, err := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.APIAccessKey, config.Cfg.AccessTokenExpiry)
	if err != nil {
		logger.L.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	rateService := services.NewRateService(config.Cfg.SBIFeedURL, config.Cfg.FeedFetchTimeout)
	seedHistoricalRates(rateService, config.Cfg.SBIRatesPath)

	calculationService := services.NewCalculationService(rateService, config.Cfg.Tax, resultCache)
	reportService := services.NewReportService()

	authHandler := handlers.NewAuthHandler(authService)
	calculationHandler := handlers.NewCalculationHandler(calculationService, reportService)
	rateHandler := handlers.NewRateHandler(rateService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/auth/token", authHandler.HandleToken)

	apiRouter.Handle("POST /api/calculations", authHandler.AuthMiddleware(http.HandlerFunc(calculationHandler.HandleCalculate)))
	apiRouter.Handle("GET /api/calculations/{id}", authHandler.AuthMiddleware(http.HandlerFunc(calculationHandler.HandleGetCalculation)))
	apiRouter.Handle("GET /api/calculations/{id}/report", authHandler.AuthMiddleware(http.HandlerFunc(calculationHandler.HandleDownloadReport)))
	apiRouter.Handle("GET /api/rates", authHandler.AuthMiddleware(http.HandlerFunc(rateHandler.HandleGetRates)))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Capgains backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// TaxConfig carries the legislated parameters of the liability calculation.
// These change with every Finance Act, so they are injected here rather than
// hardcoded inside the allocation engine.
type TaxConfig struct {
	IndianLTCGRate  float64 // Sec 112A effective rate (base x surcharge x cess)
	ForeignLTCGRate float64 // Sec 112 effective rate
	IndianSTCGRate  float64 // Sec 111A effective rate
	ForeignSTCGRate float64 // slab-rate effective rate
	LTCGExemption   float64 // Sec 112A exemption (INR), Indian LTCG only
	LongTermDays    int     // holding period threshold for foreign stock LTCG
	DefaultRate     float64 // USD-INR fallback when no quarter approximation exists
}

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	JWTSecret          string
	APIAccessKey       string
	AccessTokenExpiry  time.Duration
	MaxUploadSizeBytes int64

	SBIRatesPath     string        // pre-supplied historical rates JSON (optional)
	SBIFeedURL       string        // SBI FX RateKeeper CSV feed
	FeedFetchTimeout time.Duration // outbound fetch bound; rate lookups degrade on timeout

	Tax TaxConfig
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getEnv("JWT_SECRET", "a-very-secure-32-byte-long-jwt-signing-secret!")
	if jwtSecret == "a-very-secure-32-byte-long-jwt-signing-secret!" {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}

	apiAccessKey := getEnv("API_ACCESS_KEY", "change-me")
	if apiAccessKey == "change-me" {
		log.Println("WARNING: Using default API_ACCESS_KEY. Set API_ACCESS_KEY environment variable for production.")
	}

	accessTokenExpiryStr := getEnv("ACCESS_TOKEN_EXPIRY", "60m")
	accessTokenExpiry, err := time.ParseDuration(accessTokenExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid ACCESS_TOKEN_EXPIRY format '%s'. Using default 60m. Error: %v", accessTokenExpiryStr, err)
		accessTokenExpiry = 60 * time.Minute
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	feedTimeoutStr := getEnv("FEED_FETCH_TIMEOUT", "15s")
	feedTimeout, err := time.ParseDuration(feedTimeoutStr)
	if err != nil {
		log.Printf("WARNING: Invalid FEED_FETCH_TIMEOUT format '%s'. Using default 15s. Error: %v", feedTimeoutStr, err)
		feedTimeout = 15 * time.Second
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./capgains.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		JWTSecret:          jwtSecret,
		APIAccessKey:       apiAccessKey,
		AccessTokenExpiry:  accessTokenExpiry,
		MaxUploadSizeBytes: maxUploadSizeBytes,

		SBIRatesPath:     getEnv("SBI_RATES_PATH", "data/sbi_reference_rates.json"),
		SBIFeedURL:       getEnv("SBI_FEED_URL", "https://raw.githubusercontent.com/sahilgupta/sbi-fx-ratekeeper/main/csv_files/SBI_REFERENCE_RATES_USD.csv"),
		FeedFetchTimeout: feedTimeout,

		Tax: TaxConfig{
			IndianLTCGRate:  getEnvAsFloat("TAX_INDIAN_LTCG_RATE", 0.1495),
			ForeignLTCGRate: getEnvAsFloat("TAX_FOREIGN_LTCG_RATE", 0.1495),
			IndianSTCGRate:  getEnvAsFloat("TAX_INDIAN_STCG_RATE", 0.2392),
			ForeignSTCGRate: getEnvAsFloat("TAX_FOREIGN_STCG_RATE", 0.39),
			LTCGExemption:   getEnvAsFloat("TAX_LTCG_EXEMPTION", 125000.0),
			LongTermDays:    getEnvAsInt("TAX_LONG_TERM_DAYS", 730),
			DefaultRate:     getEnvAsFloat("DEFAULT_EXCHANGE_RATE", 84.5),
		},
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %f", key, valueStr, fallback)
	return fallback
}

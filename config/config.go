package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseDriver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	SQLitePath       string

	HTTPAddr       string
	TrustedProxies []string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	MaxPages       int
	RequestTimeout time.Duration
	JobConcurrency int

	WBMenuURL    string
	WBCatalogURL string
	WBDest       string
	FetchMode    string
	ChromeBin    string

	CSVOutputPath  string
	XLSXOutputPath string

	DashboardAPIURL    string
	DashboardOutputDir string
	DashboardDebounce  time.Duration

	Debug bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "products_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "./output/products.db"),

		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{"127.0.0.1"}),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 300),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		MaxPages:       getEnvInt("MAX_PAGES", 50),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		JobConcurrency: getEnvInt("JOB_CONCURRENCY", 2),

		WBMenuURL:    getEnv("WB_MENU_URL", "https://static-basket-01.wbbasket.ru/vol0/data/main-menu-ru-ru-v3.json"),
		WBCatalogURL: getEnv("WB_CATALOG_URL", "https://catalog.wb.ru/catalog"),
		WBDest:       getEnv("WB_DEST", "-1257786"),
		FetchMode:    strings.ToLower(getEnv("FETCH_MODE", "http")),
		ChromeBin:    getEnv("CHROME_BIN", ""),

		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", "./output/raw_products.csv"),
		XLSXOutputPath: getEnv("XLSX_OUTPUT_PATH", "./output/products.xlsx"),

		DashboardAPIURL:    getEnv("DASHBOARD_API_URL", "http://localhost:8080/api/products/"),
		DashboardOutputDir: getEnv("DASHBOARD_OUTPUT_DIR", "./output/dashboard"),
		DashboardDebounce:  time.Duration(getEnvInt("DASHBOARD_DEBOUNCE_MS", 500)) * time.Millisecond,

		Debug: getEnvBool("DEBUG", false),
	}
}

// DSN returns the connection string for the configured database driver.
func (c *Config) DSN() string {
	if c.DatabaseDriver == "sqlite" {
		return c.SQLitePath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

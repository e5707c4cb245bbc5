package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"tenmunches/internal/analysis"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	GoogleAPIKey   string
	PlacesBase     string
	SearchLocation string
	MaxPlaces      int
	PlacesRPS      float64

	CloudinaryCloud  string
	CloudinaryKey    string
	CloudinarySecret string

	Workers         int
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	ThemeStrategy   analysis.ThemeStrategy
	TopK            int
	MaxTestimonials int
	CORSOrigins     []string
	CatalogFile     string
}

// Load reads configuration from the environment after applying an optional
// .env file from the working directory. Variables already set win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be parsed")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/tenmunches?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),

		GoogleAPIKey:   env("GOOGLE_API_KEY", ""),
		PlacesBase:     env("PLACES_BASE_URL", "https://places.googleapis.com/v1"),
		SearchLocation: env("SEARCH_LOCATION", DefaultLocation),
		MaxPlaces:      atoi("MAX_PLACES", 20),
		PlacesRPS:      atof("PLACES_RPS", 5),

		CloudinaryCloud:  env("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryKey:    env("CLOUDINARY_API_KEY", ""),
		CloudinarySecret: env("CLOUDINARY_API_SECRET", ""),

		Workers:         atoi("REFRESH_WORKERS", 4),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		TopK:            atoi("TOP_K", analysis.DefaultTopK),
		MaxTestimonials: atoi("MAX_TESTIMONIALS", analysis.DefaultMaxTestimonials),
		CORSOrigins:     splitList(env("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		CatalogFile:     env("CATALOG_FILE", ""),
	}

	iv, err := time.ParseDuration(env("REFRESH_INTERVAL", "168h"))
	if err != nil {
		return c, fmt.Errorf("REFRESH_INTERVAL: %w", err)
	}
	c.RefreshInterval = iv

	c.ThemeStrategy, err = analysis.ParseThemeStrategy(os.Getenv("THEME_STRATEGY"))
	if err != nil {
		return c, fmt.Errorf("THEME_STRATEGY: %w", err)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.TopK < 1 || c.MaxTestimonials < 1 {
		return c, fmt.Errorf("TOP_K and MAX_TESTIMONIALS must be positive (got %d, %d)", c.TopK, c.MaxTestimonials)
	}
	if c.MaxTestimonials > analysis.DefaultMaxTestimonials {
		return c, fmt.Errorf("MAX_TESTIMONIALS must be at most %d (got %d)", analysis.DefaultMaxTestimonials, c.MaxTestimonials)
	}

	if c.GoogleAPIKey == "" {
		log.Warn().Msg("GOOGLE_API_KEY is empty")
	}
	return c, nil
}

// CloudinaryEnabled reports whether all photo CDN credentials are present.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloud != "" && c.CloudinaryKey != "" && c.CloudinarySecret != ""
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"parking_finder/internal/logger"
)

// Nairobi CBD, the map's initial view in the web client.
const (
	DefaultLat = -1.286389
	DefaultLng = 36.817223
)

type Config struct {
	ServerPort string

	// DataSource chọn nguồn dữ liệu: file, http, s3, postgres, sqlite
	DataSource string
	DataFile   string
	DataURL    string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	SQLitePath string

	AWSRegion         string
	DataS3Bucket      string
	DataS3Key         string
	SQSReloadQueueURL string

	RedisHost string
	RedisPort string
	RedisPass string
	RedisDB   int

	GeoIPDBPath        string
	GeolocationTimeout time.Duration
	DefaultLat         float64
	DefaultLng         float64

	FeaturedCount     int
	SlideshowInterval time.Duration
	CurrencyLabel     string
	FallbackImage     string

	SentryDSN string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.L().Warn("config_env_file_error", "err", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	geoTimeout, _ := strconv.Atoi(getEnv("GEOLOCATION_TIMEOUT_SECONDS", "10"))
	featured, err := strconv.Atoi(getEnv("FEATURED_COUNT", "3"))
	if err != nil || featured < 1 {
		featured = 3
	}
	slideSeconds, _ := strconv.Atoi(getEnv("SLIDESHOW_INTERVAL_SECONDS", "5"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DataSource: getEnv("DATA_SOURCE", "file"),
		DataFile:   getEnv("DATA_FILE", "data/parking.json"),
		DataURL:    getEnv("DATA_URL", "http://localhost:3000/db.json"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "data/parking.db"),

		AWSRegion:         getEnv("AWS_REGION", "eu-west-1"),
		DataS3Bucket:      getEnv("DATA_S3_BUCKET", ""),
		DataS3Key:         getEnv("DATA_S3_KEY", "parking.json"),
		SQSReloadQueueURL: getEnv("SQS_RELOAD_QUEUE_URL", ""),

		RedisHost: getEnv("REDIS_HOST", ""),
		RedisPort: getEnv("REDIS_PORT", "6379"),
		RedisPass: getEnv("REDIS_PASS", ""),
		RedisDB:   redisDB,

		GeoIPDBPath:        getEnv("GEOIP_DB_PATH", ""),
		GeolocationTimeout: time.Duration(geoTimeout) * time.Second,
		DefaultLat:         getEnvFloat("DEFAULT_LAT", DefaultLat),
		DefaultLng:         getEnvFloat("DEFAULT_LNG", DefaultLng),

		FeaturedCount:     featured,
		SlideshowInterval: time.Duration(slideSeconds) * time.Second,
		CurrencyLabel:     getEnv("CURRENCY_LABEL", "KSH"),
		FallbackImage:     getEnv("FALLBACK_IMAGE", "images/parking-placeholder.jpg"),

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	logger.L().Debug("config_env_default", "key", key, "value", fallback)
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.L().Warn("config_env_invalid_float", "key", key, "value", v)
		return fallback
	}
	return f
}

package config

import (
	"os"
	"strconv"
	"time"

	"hotelbook/internal/database"
	"hotelbook/internal/external"
	"hotelbook/internal/messaging"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// PublicBaseURL is used to build default gateway redirect URLs.
	PublicBaseURL string

	Database      database.Config
	NATS          messaging.Config
	PayMongo      external.PayMongoConfig
	Pusher        PusherConfig
	Firebase      FirebaseConfig
	Redis         RedisConfig
	Elasticsearch ElasticsearchConfig
	Notifications NotificationConfig
	Jobs          JobsConfig
}

type PusherConfig struct {
	AppID   string
	Key     string
	Secret  string
	Cluster string
}

// Enabled reports whether realtime credentials are configured.
func (c PusherConfig) Enabled() bool {
	return c.AppID != "" && c.Key != "" && c.Secret != ""
}

type FirebaseConfig struct {
	CredentialsFile string
}

func (c FirebaseConfig) Enabled() bool {
	return c.CredentialsFile != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// AvailabilityTTL bounds how long a cached availability listing is served.
	AvailabilityTTL time.Duration
}

type NotificationConfig struct {
	// SuppressPending skips guest-facing notifications for changes into
	// pending. The admin channel is always updated.
	SuppressPending bool
}

type JobsConfig struct {
	CheckinReminderAt string
}

// Load reads the configuration from environment variables. A .env file in
// the working directory is applied first without overriding the
// environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8081"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "hotelbook"),
			Password:           getEnv("DB_PASSWORD", "hotelbook"),
			DBName:             getEnv("DB_NAME", "hotelbook"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "hotelbook"),
			ClientID:  getEnv("NATS_CLIENT_ID", "hotelbook-api"),
		},

		PayMongo: external.PayMongoConfig{
			BaseURL:       getEnv("PAYMONGO_API_BASE", "https://api.paymongo.com/v1"),
			SecretKey:     getEnv("PAYMONGO_SECRET_KEY", os.Getenv("PAYMONGO_TEST_SECRET_KEY")),
			WebhookSecret: os.Getenv("PAYMONGO_WEBHOOK_SECRET"),
			Currency:      getEnv("PAYMONGO_CURRENCY", "PHP"),
			SourceType:    getEnv("PAYMONGO_SOURCE_TYPE", "gcash"),
			Timeout:       getEnvDuration("PAYMONGO_TIMEOUT", 10*time.Second),
		},

		Pusher: PusherConfig{
			AppID:   os.Getenv("PUSHER_APP_ID"),
			Key:     os.Getenv("PUSHER_KEY"),
			Secret:  os.Getenv("PUSHER_SECRET"),
			Cluster: getEnv("PUSHER_CLUSTER", "ap1"),
		},

		Firebase: FirebaseConfig{
			CredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		},

		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "localhost:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              getEnvInt("REDIS_DB", 0),
			AvailabilityTTL: getEnvDuration("AVAILABILITY_CACHE_TTL", 30*time.Second),
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Notifications: NotificationConfig{
			SuppressPending: getEnvBool("NOTIFY_SUPPRESS_PENDING", true),
		},

		Jobs: JobsConfig{
			CheckinReminderAt: getEnv("CHECKIN_REMINDER_AT", "09:00"),
		},
	}
}

// getEnv returns the environment variable or the default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

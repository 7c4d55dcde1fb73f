package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store modes.
const (
	StoreModeLocal  = "local"
	StoreModeRemote = "remote"
)

type Config struct {
	ServerPort int `env:"SERVER_PORT" envDefault:"8080"`

	Store    StoreConfig    `envPrefix:"STORE_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Mongo    MongoConfig    `envPrefix:"MONGO_"`
	Objects  ObjectConfig   `envPrefix:"OBJECTS_"`
	Minio    MinioConfig    `envPrefix:"MINIO_"`
	GCS      GCSConfig      `envPrefix:"GCS_"`
	Events   EventsConfig   `envPrefix:"EVENTS_"`
	RabbitMQ RabbitMQConfig `envPrefix:"RABBITMQ_"`
	PubSub   PubSubConfig   `envPrefix:"PUBSUB_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

// StoreConfig selects where collections are persisted.
type StoreConfig struct {
	// Mode is "local" (key-value collections) or "remote" (database tables).
	Mode string `env:"MODE" envDefault:"local"`

	// Driver is the key-value backend used in local mode:
	// memory, file, sqlite, postgres or mongo.
	Driver string `env:"DRIVER" envDefault:"file"`

	// Dir is the data directory for the file and sqlite drivers.
	Dir string `env:"DIR" envDefault:"data"`

	// KeyPrefix is prepended to every collection key.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"iqac_"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"smarttrack"`
	Password string `env:"PASSWORD" envDefault:"password"`
	DBName   string `env:"NAME" envDefault:"smarttrack"`
	UseSSL   bool   `env:"USE_SSL" envDefault:"false"`
}

// Configured reports whether a database endpoint was provided.
func (c DatabaseConfig) Configured() bool {
	return strings.TrimSpace(c.Host) != ""
}

type MongoConfig struct {
	URI        string `env:"URI"`
	Database   string `env:"DATABASE" envDefault:"smarttrack"`
	Collection string `env:"COLLECTION" envDefault:"kv_store"`
}

// ObjectConfig selects the object storage backend for uploaded bytes.
type ObjectConfig struct {
	// Backend is "minio", "gcs" or empty for simulated uploads.
	Backend string `env:"BACKEND"`
}

type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"task-files"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

type GCSConfig struct {
	Bucket          string `env:"BUCKET" envDefault:"task-files"`
	ProjectID       string `env:"PROJECT_ID"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

// EventsConfig selects the broker used for lifecycle events.
type EventsConfig struct {
	// Backend is "rabbitmq", "pubsub" or empty to disable events.
	Backend string `env:"BACKEND"`
	Channel string `env:"CHANNEL" envDefault:"smarttrack.events"`
}

type RabbitMQConfig struct {
	URL             string `env:"URL"`
	QueueDurable    bool   `env:"QUEUE_DURABLE" envDefault:"true"`
	QueueAutoDelete bool   `env:"QUEUE_AUTO_DELETE" envDefault:"false"`
	PrefetchCount   int    `env:"PREFETCH_COUNT" envDefault:"10"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PROJECT_ID"`
	CredentialsFile    string `env:"CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"SUBSCRIPTION_SUFFIX" envDefault:"-sub"`

	// Messages that fail MaxDeliveryAttempts times are moved to the
	// channel's dead-letter topic, named with DeadLetterSuffix.
	DeadLetterSuffix    string `env:"DEAD_LETTER_SUFFIX" envDefault:"-dead"`
	MaxDeliveryAttempts int    `env:"MAX_DELIVERY_ATTEMPTS" envDefault:"5"`
}

// AuthConfig holds token settings and the per-role demo passwords.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	QAOfficePassword       string `env:"QA_OFFICE_PASSWORD" envDefault:"admin123"`
	DepartmentHeadPassword string `env:"DEPARTMENT_HEAD_PASSWORD" envDefault:"hod123"`
	StaffPassword          string `env:"STAFF_PASSWORD" envDefault:"staff123"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`

	// File, when set, receives logs through a rotating writer.
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"10"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"28"`
}

// LoadConfig reads configuration from the environment. In development
// (ENV=dev) a local .env file is loaded first.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Store.Mode = strings.ToLower(strings.TrimSpace(cfg.Store.Mode))
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Mode {
	case StoreModeLocal, StoreModeRemote:
	default:
		return Config{}, fmt.Errorf("unknown store mode %q", cfg.Store.Mode)
	}

	return cfg, nil
}

// MustLoad is LoadConfig for command entry points.
func MustLoad() Config {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

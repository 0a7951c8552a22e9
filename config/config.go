package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Deduction DeductionConfig
	I18n      I18nConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
	HTTPPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StorageConfig struct {
	Driver string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	TransactionsTopic string
	EventsTopic       string
	GroupID           string
}

type DeductionConfig struct {
	CacheTTL           time.Duration
	ValidationDebounce time.Duration
	IOTimeout          time.Duration
	CASMaxRetries      int
	Compensate         bool
	RecoveryItemDelay  time.Duration
	AliasTablePath     string
	SaleLockTTL        time.Duration
}

type I18nConfig struct {
	Locale     string
	ExtraFiles []string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8083"),
			HTTPPort: getEnv("HTTP_PORT", ":8084"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", DriverPostgres),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_inventory"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:           getEnvBool("KAFKA_ENABLED", true),
			Brokers:           getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			TransactionsTopic: getEnv("KAFKA_TOPIC_TRANSACTIONS", "transactions.events"),
			EventsTopic:       getEnv("KAFKA_TOPIC_INVENTORY", "inventory.events"),
			GroupID:           getEnv("KAFKA_GROUP_INVENTORY", "inventory-deduction"),
		},
		Deduction: DeductionConfig{
			CacheTTL:           getEnvDuration("CACHE_TTL", 30*time.Second),
			ValidationDebounce: getEnvDuration("VALIDATION_DEBOUNCE", 500*time.Millisecond),
			IOTimeout:          getEnvPositiveDuration("IO_TIMEOUT", 10*time.Second),
			CASMaxRetries:      getEnvInt("CAS_MAX_RETRIES", 5),
			Compensate:         getEnvBool("DEDUCTION_COMPENSATE", false),
			RecoveryItemDelay:  getEnvDuration("RECOVERY_ITEM_DELAY", 100*time.Millisecond),
			AliasTablePath:     getEnv("ALIAS_TABLE_PATH", ""),
			SaleLockTTL:        getEnvDuration("SALE_LOCK_TTL", 30*time.Second),
		},
		I18n: I18nConfig{
			Locale:     getEnv("LOCALE", "en"),
			ExtraFiles: getEnvSlice("I18N_EXTRA_FILES", nil),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("30s") or bare milliseconds.
// getEnvPositiveDuration is getEnvDuration with zero and negative values
// replaced by fallback.
func getEnvPositiveDuration(key string, fallback time.Duration) time.Duration {
	if d := getEnvDuration(key, fallback); d > 0 {
		return d
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

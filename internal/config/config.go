package config

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"gw-transfer-service/internal/custom_err"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTP     HTTPConfig
	Pipeline PipelineConfig
	JWT      JWTConfig
	GRPC     GRPCConfig
	Kafka    KafkaConfig
	App      AppConfig
}

type HTTPConfig struct {
	Port         string        `envconfig:"APP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
	CORSOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

type PipelineConfig struct {
	BufferSize   int           `envconfig:"BUFFER_SIZE" default:"10000"`
	MaxThreads   int           `envconfig:"MAX_THREADS" default:"0"`
	LaneCapacity int           `envconfig:"DEPOSIT_LANE_CAPACITY" default:"256"`
	PutTimeout   time.Duration `envconfig:"EVENT_PUT_TIMEOUT" default:"1ms"`
	PollInterval time.Duration `envconfig:"EVENT_POLL_INTERVAL" default:"10ms"`
	StopTimeout  time.Duration `envconfig:"PIPELINE_STOP_TIMEOUT" default:"10s"`
}

type JWTConfig struct {
	Secret     string        `envconfig:"JWT_SECRET"`
	Expiration time.Duration `envconfig:"JWT_EXPIRATION" default:"24h"`
}

type GRPCConfig struct {
	Port           string        `envconfig:"GRPC_PORT" default:"50051"`
	Enabled        bool          `envconfig:"GRPC_ENABLED" default:"true"`
	HealthInterval time.Duration `envconfig:"GRPC_HEALTH_INTERVAL" default:"1s"`
}

type KafkaConfig struct {
	Brokers         []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic           string        `envconfig:"KAFKA_TOPIC" default:"transfer-outcomes"`
	Enabled         bool          `envconfig:"KAFKA_ENABLED" default:"false"`
	QueueSize       int           `envconfig:"KAFKA_QUEUE_SIZE" default:"1000"`
	Workers         int           `envconfig:"KAFKA_WORKERS" default:"5"`
	SendTimeout     time.Duration `envconfig:"KAFKA_SEND_TIMEOUT" default:"5s"`
	BreakerFailures uint32        `envconfig:"KAFKA_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"KAFKA_BREAKER_TIMEOUT" default:"30s"`
}

type AppConfig struct {
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile         string        `envconfig:"LOG_FILE" default:"transfer.log"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

func NewConfig() (*Config, error) {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	return Load()
}

// Load reads the configuration from the process environment only.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	if cfg.Pipeline.MaxThreads == 0 {
		cfg.Pipeline.MaxThreads = runtime.NumCPU()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Pipeline.BufferSize <= 0 {
		return fmt.Errorf("BUFFER_SIZE must be positive, got %d: %w", c.Pipeline.BufferSize, custom_err.ErrInvalidConfig)
	}
	if c.Pipeline.MaxThreads <= 0 {
		return fmt.Errorf("MAX_THREADS must be positive, got %d: %w", c.Pipeline.MaxThreads, custom_err.ErrInvalidConfig)
	}
	if c.Pipeline.LaneCapacity < 0 {
		return fmt.Errorf("DEPOSIT_LANE_CAPACITY must not be negative: %w", custom_err.ErrInvalidConfig)
	}
	if c.Pipeline.PollInterval <= 0 {
		return fmt.Errorf("EVENT_POLL_INTERVAL must be positive: %w", custom_err.ErrInvalidConfig)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when kafka is enabled: %w", custom_err.ErrInvalidConfig)
	}
	return nil
}

func (c *Config) AuthEnabled() bool {
	return c.JWT.Secret != ""
}

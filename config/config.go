package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisTaskQueue int    `mapstructure:"REDIS_TASK_QUEUE_DB"`

	// Stripe secret key for the hold gateway.
	StripeKey string `mapstructure:"STRIPE_KEY"`

	// Session engine tuning.
	HoldBufferMinutes  int `mapstructure:"HOLD_BUFFER_MINUTES"`  // funding cap = buffer * rate
	MeterTickSeconds   int `mapstructure:"METER_TICK_SECONDS"`   // billing meter granularity
	SessionGraceSecs   int `mapstructure:"SESSION_GRACE_SECS"`   // registry retention after terminal state
	SettleMaxRetries   int `mapstructure:"SETTLE_MAX_RETRIES"`   // capture/release retry bound
	GatewayTimeoutSecs int `mapstructure:"GATEWAY_TIMEOUT_SECS"` // per-call bound on the payment gateway
	PendingTTLSeconds  int `mapstructure:"PENDING_TTL_SECONDS"`  // Pending sessions cancel after this

	// Instant reading requests.
	RequestTTLSeconds int `mapstructure:"REQUEST_TTL_SECONDS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_TASK_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("HOLD_BUFFER_MINUTES", 10)
	viper.SetDefault("METER_TICK_SECONDS", 5)
	viper.SetDefault("SESSION_GRACE_SECS", 60)
	viper.SetDefault("SETTLE_MAX_RETRIES", 3)
	viper.SetDefault("GATEWAY_TIMEOUT_SECS", 30)
	viper.SetDefault("PENDING_TTL_SECONDS", 300)
	viper.SetDefault("REQUEST_TTL_SECONDS", 120)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

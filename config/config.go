package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisAsynqDB   int    `mapstructure:"REDIS_ASYNQ_DB"`

	// Gateway identity on the network.
	SubscriberID  string `mapstructure:"SUBSCRIBER_ID"`
	SigningSecret string `mapstructure:"SIGNING_SECRET"`
	CallbackURI   string `mapstructure:"CALLBACK_URI"`
	Domain        string `mapstructure:"PROTOCOL_DOMAIN"`
	CoreVersion   string `mapstructure:"PROTOCOL_CORE_VERSION"`

	// Search correlation.
	SearchTimeoutSeconds  int    `mapstructure:"SEARCH_TIMEOUT_SECONDS"`
	SearchQuorum          int    `mapstructure:"SEARCH_QUORUM"`
	MaxProvidersPerSearch int    `mapstructure:"MAX_PROVIDERS_PER_SEARCH"`
	SearchFanOutLimit     int    `mapstructure:"SEARCH_FANOUT_LIMIT"`
	MergePolicy           string `mapstructure:"MERGE_POLICY"`

	// Scheduling.
	SlotGranularityMinutes    int `mapstructure:"SLOT_GRANULARITY_MINUTES"`
	MaxLookaheadDays          int `mapstructure:"MAX_LOOKAHEAD_DAYS"`
	CancellationWindowMinutes int `mapstructure:"CANCELLATION_WINDOW_MINUTES"`
	StorageRetryLimit         int `mapstructure:"STORAGE_RETRY_LIMIT"`

	// Payments and notifications.
	StripeKey          string `mapstructure:"STRIPE_KEY"`
	FCMCredentialsFile string `mapstructure:"FCM_CREDENTIALS_FILE"`
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
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_ASYNQ_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("SUBSCRIBER_ID", "caregate.local")
	viper.SetDefault("SIGNING_SECRET", "")
	viper.SetDefault("CALLBACK_URI", "http://localhost:8080/api/gateway")
	viper.SetDefault("PROTOCOL_DOMAIN", "nic2004:85111")
	viper.SetDefault("PROTOCOL_CORE_VERSION", "0.7.1")
	viper.SetDefault("SEARCH_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SEARCH_QUORUM", 0)
	viper.SetDefault("MAX_PROVIDERS_PER_SEARCH", 10)
	viper.SetDefault("SEARCH_FANOUT_LIMIT", 5)
	viper.SetDefault("MERGE_POLICY", "first_writer_wins")
	viper.SetDefault("SLOT_GRANULARITY_MINUTES", 15)
	viper.SetDefault("MAX_LOOKAHEAD_DAYS", 60)
	viper.SetDefault("CANCELLATION_WINDOW_MINUTES", 120)
	viper.SetDefault("STORAGE_RETRY_LIMIT", 3)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("FCM_CREDENTIALS_FILE", "")

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

// SearchTimeout returns the fan-out deadline as a duration.
func (c Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSeconds) * time.Second
}

// CancellationWindow returns the minimum notice required to cancel an order
// before its fulfillment starts.
func (c Config) CancellationWindow() time.Duration {
	return time.Duration(c.CancellationWindowMinutes) * time.Minute
}

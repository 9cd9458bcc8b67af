package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Listing   ListingConfig   `mapstructure:"listing"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Loop      LoopConfig      `mapstructure:"loop"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Name       string `mapstructure:"name"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	ItemsTable string `mapstructure:"items_table"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// QueueConfig holds the task stream settings
type QueueConfig struct {
	Stream         string `mapstructure:"stream"`
	ConsumerGroup  string `mapstructure:"consumer_group"`
	BlockSeconds   int    `mapstructure:"block_seconds"`
	RedeliverAfter int    `mapstructure:"redeliver_after_seconds"`
}

// SecretsConfig holds the encrypted parameter store settings
type SecretsConfig struct {
	Table         string `mapstructure:"table"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

// ExtractorConfig holds sourcing-page extraction settings
type ExtractorConfig struct {
	RegionTimeoutSeconds int      `mapstructure:"region_timeout_seconds"`
	PollIntervalMillis   int      `mapstructure:"poll_interval_millis"`
	MinPrice             float64  `mapstructure:"min_price"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	UserAgent            string   `mapstructure:"user_agent"`
	Proxies              []string `mapstructure:"proxies"`
	ProxyCheckURL        string   `mapstructure:"proxy_check_url"`
}

// RegionTimeout returns the bounded wait for the required page regions.
func (c ExtractorConfig) RegionTimeout() time.Duration {
	return time.Duration(c.RegionTimeoutSeconds) * time.Second
}

// PollInterval returns the delay between page re-fetches while waiting for
// a terminal state.
func (c ExtractorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// ListingConfig holds destination-marketplace API settings
type ListingConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	SandboxBaseURL  string  `mapstructure:"sandbox_base_url"`
	TokenURL        string  `mapstructure:"token_url"`
	SandboxTokenURL string  `mapstructure:"sandbox_token_url"`
	MarketplaceID   string  `mapstructure:"marketplace_id"`
	Currency        string  `mapstructure:"currency"`
	FixedFeeRatio   float64 `mapstructure:"fixed_fee_ratio"`
	TokenMarginMins int     `mapstructure:"token_margin_minutes"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
}

// TokenMargin returns the remaining-lifetime safety margin below which a
// cached access token is refreshed.
func (c ListingConfig) TokenMargin() time.Duration {
	return time.Duration(c.TokenMarginMins) * time.Minute
}

// PolicyConfig holds the eligibility thresholds and banned sets
type PolicyConfig struct {
	PriceCeiling          float64  `mapstructure:"price_ceiling"`
	MinRatingScore        float64  `mapstructure:"min_rating_score"`
	MinRatingCount        float64  `mapstructure:"min_rating_count"`
	BannedRegions         []string `mapstructure:"banned_regions"`
	SlowShippingBuckets   []string `mapstructure:"slow_shipping_buckets"`
	SlowShippingMethods   []string `mapstructure:"slow_shipping_methods"`
	BannedConditionLabels []string `mapstructure:"banned_condition_labels"`
	BannedKeywords        []string `mapstructure:"banned_keywords"`
}

// LoopConfig holds the task loop bounds
type LoopConfig struct {
	MaxConsecutiveErrors int `mapstructure:"max_consecutive_errors"`
	MaxTotalErrors       int `mapstructure:"max_total_errors"`
	MaxTotalSuccess      int `mapstructure:"max_total_success"`
	MinIterationSeconds  int `mapstructure:"min_iteration_seconds"`
}

// MinIteration returns the minimum wall-clock duration of one loop pass.
func (c LoopConfig) MinIteration() time.Duration {
	return time.Duration(c.MinIterationSeconds) * time.Second
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "resale")
	viper.SetDefault("database.user", "resale_user")
	viper.SetDefault("database.password", "resale_pass")
	viper.SetDefault("database.items_table", "items")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)

	viper.SetDefault("queue.stream", "resale:stream:RelistTask")
	viper.SetDefault("queue.consumer_group", "resale_monitor")
	viper.SetDefault("queue.block_seconds", 3)
	viper.SetDefault("queue.redeliver_after_seconds", 120)

	viper.SetDefault("secrets.table", "parameters")
	viper.SetDefault("secrets.encryption_key", "")

	viper.SetDefault("extractor.region_timeout_seconds", 16)
	viper.SetDefault("extractor.poll_interval_millis", 2000)
	viper.SetDefault("extractor.min_price", 300)
	viper.SetDefault("extractor.max_requests_per_second", 2)
	viper.SetDefault("extractor.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	viper.SetDefault("extractor.proxy_check_url", "https://jp.mercari.com")

	viper.SetDefault("listing.base_url", "https://api.ebay.com")
	viper.SetDefault("listing.sandbox_base_url", "https://api.sandbox.ebay.com")
	viper.SetDefault("listing.token_url", "https://api.ebay.com/identity/v1/oauth2/token")
	viper.SetDefault("listing.sandbox_token_url", "https://api.sandbox.ebay.com/identity/v1/oauth2/token")
	viper.SetDefault("listing.marketplace_id", "EBAY_US")
	viper.SetDefault("listing.currency", "USD")
	viper.SetDefault("listing.fixed_fee_ratio", 0.17)
	viper.SetDefault("listing.token_margin_minutes", 10)
	viper.SetDefault("listing.timeout_seconds", 30)

	viper.SetDefault("policy.price_ceiling", 100000)
	viper.SetDefault("policy.min_rating_score", 4.8)
	viper.SetDefault("policy.min_rating_count", 10)
	viper.SetDefault("policy.banned_regions", []string{"沖縄県", "海外"})
	viper.SetDefault("policy.slow_shipping_buckets", []string{"4~7日で発送"})
	viper.SetDefault("policy.slow_shipping_methods", []string{"普通郵便", "未定"})
	viper.SetDefault("policy.banned_condition_labels", []string{"新品、未使用"})
	viper.SetDefault("policy.banned_keywords", []string{
		"即購入禁止",
		"即購入不可",
		"コメント必須",
		"海外製",
		"海外から発送",
		"海外からの発送",
	})

	viper.SetDefault("loop.max_consecutive_errors", 4)
	viper.SetDefault("loop.max_total_errors", 20)
	viper.SetDefault("loop.max_total_success", 1000)
	viper.SetDefault("loop.min_iteration_seconds", 5)
}

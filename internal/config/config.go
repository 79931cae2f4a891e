package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every option the service recognises. Components receive the
// sub-struct they need; nothing reads the environment after Load.
type Config struct {
	// Env is the deployment environment ("development", "production").
	Env string `mapstructure:"env"`
	// Vercel mirrors the platform's VERCEL flag; any non-empty value means production.
	Vercel string `mapstructure:"vercel"`
	// SiteURL is the public base URL, used by the distributor to call the digest endpoint.
	SiteURL string `mapstructure:"site_url"`

	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Market  MarketConfig  `mapstructure:"market"`
	Rates   RatesConfig   `mapstructure:"rates"`
	AI      AIConfig      `mapstructure:"ai"`
	Email   EmailConfig   `mapstructure:"email"`
	Storage StorageConfig `mapstructure:"storage"`
	Alert   AlertConfig   `mapstructure:"alert"`
}

// IsProduction reports whether subscriber writes must be skipped.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || c.Vercel != ""
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MarketConfig configures the gold, FX and news upstreams.
type MarketConfig struct {
	GoldAPIURL string `mapstructure:"gold_api_url"`
	GoldAPIKey string `mapstructure:"gold_api_key"`
	FXAPIURL   string `mapstructure:"fx_api_url"`
	NewsAPIURL string `mapstructure:"news_api_url"`
	NewsAPIKey string `mapstructure:"news_api_key"`
	// FallbackGoldUSD and FallbackUSDINR replace any failed upstream value.
	FallbackGoldUSD float64       `mapstructure:"fallback_gold_usd"`
	FallbackUSDINR  float64       `mapstructure:"fallback_usd_inr"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// RatesConfig configures the per-gram rate endpoint upstream.
type RatesConfig struct {
	MetalPriceURL string        `mapstructure:"metalprice_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// AIConfig configures the generative text backend.
type AIConfig struct {
	// Provider is "openai" or "anthropic".
	Provider         string        `mapstructure:"provider"`
	OpenAIAPIKey     string        `mapstructure:"openai_api_key"`
	OpenAIModel      string        `mapstructure:"openai_model"`
	OpenAIBaseURL    string        `mapstructure:"openai_base_url"`
	AnthropicAPIKey  string        `mapstructure:"anthropic_api_key"`
	AnthropicModel   string        `mapstructure:"anthropic_model"`
	AnthropicBaseURL string        `mapstructure:"anthropic_base_url"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Temperature      float64       `mapstructure:"temperature"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// EmailConfig configures outbound email.
type EmailConfig struct {
	// Provider is "resend", "sendgrid" or "smtp".
	Provider  string `mapstructure:"provider"`
	APIKey    string `mapstructure:"api_key"`
	ResendURL string `mapstructure:"resend_url"`
	// SendGridHost is the API host used by the sendgrid provider.
	SendGridHost string     `mapstructure:"sendgrid_host"`
	FromAddress  string     `mapstructure:"from_address"`
	FromName     string     `mapstructure:"from_name"`
	SMTP         SMTPConfig `mapstructure:"smtp"`
	// TestRecipient is always merged into the distribution list.
	TestRecipient string        `mapstructure:"test_recipient"`
	Concurrency   int           `mapstructure:"concurrency"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Encryption is "none", "ssl" or "tls" (STARTTLS).
	Encryption string `mapstructure:"encryption"`
}

// StorageConfig selects the subscriber store.
type StorageConfig struct {
	// Driver is one of "file", "memory", "sqlite", "postgres", "postgrespool", "redis".
	Driver string `mapstructure:"driver"`
	// DSN is a file path, database DSN or redis URL depending on Driver.
	DSN string `mapstructure:"dsn"`
	// RedisKey is the sorted-set key used by the redis driver.
	RedisKey string `mapstructure:"redis_key"`
}

// AlertConfig configures the delivery-failure webhook.
type AlertConfig struct {
	WebhookURL  string        `mapstructure:"webhook_url"`
	WebhookType string        `mapstructure:"webhook_type"`
	MinFailures int           `mapstructure:"min_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Env:     "development",
		SiteURL: "https://gold-mvp.vercel.app",
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Market: MarketConfig{
			GoldAPIURL:      "https://www.goldapi.io/api/XAU/USD",
			FXAPIURL:        "https://api.exchangerate.host/latest?base=USD&symbols=INR",
			NewsAPIURL:      "https://newsapi.org/v2/everything",
			FallbackGoldUSD: 2400,
			FallbackUSDINR:  84.0,
			Timeout:         8 * time.Second,
		},
		Rates: RatesConfig{
			MetalPriceURL: "https://api.metalpriceapi.com/v1/latest",
			Timeout:       10 * time.Second,
		},
		AI: AIConfig{
			Provider:       "openai",
			OpenAIModel:    "gpt-4o-mini",
			AnthropicModel: "claude-haiku-4-5",
			MaxTokens:      250,
			Temperature:    0.4,
			Timeout:        20 * time.Second,
		},
		Email: EmailConfig{
			Provider:     "resend",
			ResendURL:    "https://api.resend.com/emails",
			SendGridHost: "https://api.sendgrid.com",
			FromAddress:  "gold-digest@example.com",
			SMTP:         SMTPConfig{Port: 587, Encryption: "tls"},
			Concurrency:  4,
			Timeout:      15 * time.Second,
		},
		Storage: StorageConfig{
			Driver:   "file",
			DSN:      "data/subscribers.json",
			RedisKey: "golddigest:subscribers",
		},
		Alert: AlertConfig{
			MinFailures: 1,
			Timeout:     10 * time.Second,
		},
	}
}

// envAliases maps config keys to the bare variable names used by the
// original deployment, checked after the GOLDDIGEST_ prefixed name.
var envAliases = map[string][]string{
	"env":                  {"APP_ENV"},
	"vercel":               {"VERCEL"},
	"site_url":             {"SITE_URL"},
	"server.port":          {"PORT"},
	"market.gold_api_url":  {"GOLD_API_URL"},
	"market.gold_api_key":  {"GOLD_API_KEY"},
	"market.fx_api_url":    {"FX_API_URL"},
	"market.news_api_url":  {"NEWS_API_URL"},
	"market.news_api_key":  {"NEWS_API_KEY"},
	"rates.api_key":        {"METALPRICEAPI_KEY"},
	"ai.openai_api_key":    {"OPENAI_API_KEY"},
	"ai.anthropic_api_key": {"ANTHROPIC_API_KEY"},
	"email.api_key":        {"RESEND_API_KEY", "SENDGRID_API_KEY"},
	"email.from_address":   {"DIGEST_FROM"},
	"email.test_recipient": {"TEST_EMAIL"},
	"storage.dsn":          {"SUBSCRIBERS_DSN"},
	"alert.webhook_url":    {"ALERT_WEBHOOK_URL"},
	"alert.webhook_type":   {"ALERT_WEBHOOK_TYPE"},
}

// Load reads configuration from an optional config file and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/golddigest")

	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("GOLDDIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"GOLDDIGEST_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("env", d.Env)
	v.SetDefault("vercel", d.Vercel)
	v.SetDefault("site_url", d.SiteURL)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("market.gold_api_url", d.Market.GoldAPIURL)
	v.SetDefault("market.gold_api_key", d.Market.GoldAPIKey)
	v.SetDefault("market.fx_api_url", d.Market.FXAPIURL)
	v.SetDefault("market.news_api_url", d.Market.NewsAPIURL)
	v.SetDefault("market.news_api_key", d.Market.NewsAPIKey)
	v.SetDefault("market.fallback_gold_usd", d.Market.FallbackGoldUSD)
	v.SetDefault("market.fallback_usd_inr", d.Market.FallbackUSDINR)
	v.SetDefault("market.timeout", d.Market.Timeout)

	v.SetDefault("rates.metalprice_url", d.Rates.MetalPriceURL)
	v.SetDefault("rates.api_key", d.Rates.APIKey)
	v.SetDefault("rates.timeout", d.Rates.Timeout)

	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.openai_api_key", d.AI.OpenAIAPIKey)
	v.SetDefault("ai.openai_model", d.AI.OpenAIModel)
	v.SetDefault("ai.openai_base_url", d.AI.OpenAIBaseURL)
	v.SetDefault("ai.anthropic_api_key", d.AI.AnthropicAPIKey)
	v.SetDefault("ai.anthropic_model", d.AI.AnthropicModel)
	v.SetDefault("ai.anthropic_base_url", d.AI.AnthropicBaseURL)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.temperature", d.AI.Temperature)
	v.SetDefault("ai.timeout", d.AI.Timeout)

	v.SetDefault("email.provider", d.Email.Provider)
	v.SetDefault("email.api_key", d.Email.APIKey)
	v.SetDefault("email.resend_url", d.Email.ResendURL)
	v.SetDefault("email.sendgrid_host", d.Email.SendGridHost)
	v.SetDefault("email.from_address", d.Email.FromAddress)
	v.SetDefault("email.from_name", d.Email.FromName)
	v.SetDefault("email.smtp.host", d.Email.SMTP.Host)
	v.SetDefault("email.smtp.port", d.Email.SMTP.Port)
	v.SetDefault("email.smtp.username", d.Email.SMTP.Username)
	v.SetDefault("email.smtp.password", d.Email.SMTP.Password)
	v.SetDefault("email.smtp.encryption", d.Email.SMTP.Encryption)
	v.SetDefault("email.test_recipient", d.Email.TestRecipient)
	v.SetDefault("email.concurrency", d.Email.Concurrency)
	v.SetDefault("email.timeout", d.Email.Timeout)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.redis_key", d.Storage.RedisKey)

	v.SetDefault("alert.webhook_url", d.Alert.WebhookURL)
	v.SetDefault("alert.webhook_type", d.Alert.WebhookType)
	v.SetDefault("alert.min_failures", d.Alert.MinFailures)
	v.SetDefault("alert.timeout", d.Alert.Timeout)
}

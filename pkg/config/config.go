package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bucket configures a token-bucket rate limit.
type Bucket struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type Config struct {
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
	Env       string `yaml:"env"`

	// GitHub webhook intake.
	WebhookSecret string `yaml:"webhookSecret"`

	// Discord delivery and interactions.
	DiscordBotToken       string `yaml:"discordBotToken"`
	DiscordPublicKey      string `yaml:"discordPublicKey"` // hex Ed25519 key for interaction signatures
	DiscordAPIBase        string `yaml:"discordApiBase"`
	DiscordTimeoutSeconds int    `yaml:"discordTimeoutSeconds"`

	// External read-only GitHub data source for /repos, /issues, /commits.
	DataSourceURL            string `yaml:"dataSourceUrl"`
	DataSourceAPIKey         string `yaml:"dataSourceApiKey"`
	DataSourceTimeoutSeconds int    `yaml:"dataSourceTimeoutSeconds"`

	// Subscription storage: "memory" (default) or "redis".
	Storage       string `yaml:"storage"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	// Admin API auth. The default provider is "static" with AdminAPIKey as
	// the expected token; AdminAuthConfig carries provider-specific JSON for
	// other providers (e.g. jwks).
	AdminAPIKey       string `yaml:"adminApiKey"`
	AdminAuthProvider string `yaml:"adminAuthProvider"`
	AdminAuthConfig   string `yaml:"adminAuthConfig"`

	// Per-channel outbound delivery throttle. Zero values disable it.
	DeliveryRateLimit Bucket `yaml:"deliveryRateLimit"`

	TracingEnabled   bool    `yaml:"tracingEnabled"`
	OTLPEndpoint     string  `yaml:"otlpEndpoint"`
	OTLPInsecure     bool    `yaml:"otlpInsecure"`
	TraceSampleRatio float64 `yaml:"traceSampleRatio"`
}

// LoadConfigOptional behaves like LoadConfig but tolerates an empty path,
// building the configuration from environment variables and defaults alone.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		c := &Config{}
		c.applyEnv()
		c.applyDefaults()
		return c, nil
	}
	return LoadConfig(filePath)
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("GITCORD_WEBHOOK_SECRET"); v != "" {
		c.WebhookSecret = v
	}
	if v := os.Getenv("GITCORD_DISCORD_BOT_TOKEN"); v != "" {
		c.DiscordBotToken = v
	}
	if v := os.Getenv("GITCORD_DISCORD_PUBLIC_KEY"); v != "" {
		c.DiscordPublicKey = v
	}
	if v := os.Getenv("GITCORD_DISCORD_API_BASE"); v != "" {
		c.DiscordAPIBase = v
	}
	if v := os.Getenv("GITCORD_DATA_SOURCE_URL"); v != "" {
		c.DataSourceURL = v
	}
	if v := os.Getenv("GITCORD_DATA_SOURCE_API_KEY"); v != "" {
		c.DataSourceAPIKey = v
	}
	if v := os.Getenv("GITCORD_STORAGE"); v != "" {
		c.Storage = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("GITCORD_ADMIN_API_KEY"); v != "" {
		c.AdminAPIKey = v
	}
	if v := os.Getenv("GITCORD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GITCORD_ENV"); v != "" {
		c.Env = v
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.Storage == "" {
		c.Storage = "memory"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.DiscordAPIBase == "" {
		c.DiscordAPIBase = "https://discord.com/api/v10"
	}
	if c.DiscordTimeoutSeconds <= 0 {
		c.DiscordTimeoutSeconds = 10
	}
	if c.DataSourceTimeoutSeconds <= 0 {
		c.DataSourceTimeoutSeconds = 10
	}
	if c.AdminAuthProvider == "" {
		c.AdminAuthProvider = "static"
	}
	if c.TraceSampleRatio <= 0 || c.TraceSampleRatio > 1 {
		c.TraceSampleRatio = 1
	}
}

func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev"

	switch c.Storage {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("storage must be \"memory\" or \"redis\", got %q", c.Storage))
	}
	if c.Storage == "redis" && strings.TrimSpace(c.RedisAddr) == "" {
		errs = append(errs, "redisAddr is required when storage is redis")
	}
	if strings.TrimSpace(c.WebhookSecret) == "" && !dev {
		errs = append(errs, "webhookSecret is required in non-dev")
	}
	if strings.TrimSpace(c.DiscordBotToken) == "" && !dev {
		errs = append(errs, "discordBotToken is required in non-dev")
	}
	if c.AdminAuthProvider == "static" && strings.TrimSpace(c.AdminAPIKey) == "" && !dev {
		errs = append(errs, "adminApiKey is required in non-dev when adminAuthProvider is static")
	}
	if c.DataSourceURL != "" && !strings.HasPrefix(c.DataSourceURL, "http://") && !strings.HasPrefix(c.DataSourceURL, "https://") {
		errs = append(errs, "dataSourceUrl must be an http(s) URL")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

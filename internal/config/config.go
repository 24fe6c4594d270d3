package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	HTTPPort string
	LogLevel string

	Discord    Discord
	RateLimits RateLimits
	Database   Database

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3EvidenceBucket string // empty disables the evidence archive
	SNSAuditTopicARN string // empty disables the audit feed

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies   []string
	WelcomeDMEnabled bool
}

// Discord holds the bot credentials.
type Discord struct {
	Token         string
	ApplicationID string
	// GuildID restricts command registration to one guild when set.
	GuildID string
}

// RateLimit is a fixed window: Amount actions per Interval.
type RateLimit struct {
	Amount   int
	Interval time.Duration
}

type RateLimits struct {
	Commands RateLimit
	Triggers RateLimit
}

// Database selects the document store backend.
type Database struct {
	Enabled  bool
	Type     string // "json" | "dynamo"
	JSONPath string
}

// DynamoTables maps each document collection to its DynamoDB table.
type DynamoTables struct {
	GuildConfigs         string
	PendingVerifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		HTTPPort: getEnv("HTTP_PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Discord: Discord{
			Token:         getEnv("DISCORD_BOT_TOKEN", ""),
			ApplicationID: getEnv("DISCORD_APPLICATION_ID", ""),
			GuildID:       getEnv("DISCORD_GUILD_ID", ""),
		},
		RateLimits: RateLimits{
			Commands: RateLimit{
				Amount:   getEnvInt("RATE_LIMIT_COMMANDS_AMOUNT", 10),
				Interval: getEnvDuration("RATE_LIMIT_COMMANDS_INTERVAL", 30*time.Second),
			},
			Triggers: RateLimit{
				Amount:   getEnvInt("RATE_LIMIT_TRIGGERS_AMOUNT", 10),
				Interval: getEnvDuration("RATE_LIMIT_TRIGGERS_INTERVAL", 30*time.Second),
			},
		},
		Database: Database{
			Enabled:  getEnvBool("DATABASE_ENABLED", true),
			Type:     getEnv("DATABASE_TYPE", "json"),
			JSONPath: getEnv("JSON_DB_PATH", "./data"),
		},
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			GuildConfigs:         getEnv("DYNAMO_TABLE_GUILD_CONFIGS", "guild_configs"),
			PendingVerifications: getEnv("DYNAMO_TABLE_PENDING_VERIFICATIONS", "pending_verifications"),
		},
		S3EvidenceBucket:  getEnv("S3_EVIDENCE_BUCKET", ""),
		SNSAuditTopicARN:  getEnv("SNS_AUDIT_TOPIC_ARN", ""),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),
		WelcomeDMEnabled:  getEnvBool("WELCOME_DM_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("30s") or a bare number of milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

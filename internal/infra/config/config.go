package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	InboxMemory = "memory"
	InboxMongo  = "mongo"
	InboxRedis  = "redis"

	EmailLog  = "log"
	EmailSMTP = "smtp"
	EmailSES  = "ses"

	AuthFirebase = "firebase"
	AuthInsecure = "insecure"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string
	BaseURL  string

	StorageBackend string
	MongoURI       string
	MongoDB        string

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	IdempotencyTTL     time.Duration

	ServiceFeeBps       int64
	Currency            string
	DepositReleaseDelay time.Duration
	JobSweepInterval    time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentGatewayMock  bool

	EmailProvider string
	EmailFrom     string
	EmailFromName string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SESRegion     string

	InboxBackend string
	RedisURL     string
	InboxTTL     time.Duration

	AuthMode                string
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	AdminUIDs               []string

	FixturesPath string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                     getEnv("APP_ENV", "dev"),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		BaseURL:                 getEnv("APP_BASE_URL", "http://localhost:3000"),
		StorageBackend:          strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		MongoURI:                os.Getenv("MONGO_URI"),
		MongoDB:                 getEnv("MONGO_DB", "geargrab"),
		KafkaTopicPrefix:        getEnv("KAFKA_TOPIC_PREFIX", ""),
		Currency:                strings.ToUpper(getEnv("CURRENCY", "USD")),
		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
		EmailProvider:           strings.ToLower(getEnv("EMAIL_PROVIDER", EmailLog)),
		EmailFrom:               getEnv("EMAIL_FROM", "bookings@geargrab.local"),
		EmailFromName:           getEnv("EMAIL_FROM_NAME", "GearGrab"),
		SMTPHost:                os.Getenv("SMTP_HOST"),
		SMTPUsername:            os.Getenv("SMTP_USERNAME"),
		SMTPPassword:            os.Getenv("SMTP_PASSWORD"),
		SESRegion:               os.Getenv("AWS_REGION"),
		InboxBackend:            strings.ToLower(getEnv("INBOX_BACKEND", InboxMemory)),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AuthMode:                strings.ToLower(getEnv("AUTH_MODE", AuthFirebase)),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FixturesPath:            getEnv("FIXTURES_PATH", ""),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	if admins := getEnv("ADMIN_UIDS", ""); admins != "" {
		cfg.AdminUIDs = splitList(admins)
	}

	var err error
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.DepositReleaseDelay, err = parseDurationEnv("DEPOSIT_RELEASE_DELAY", 48*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.JobSweepInterval, err = parseDurationEnv("JOB_SWEEP_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.InboxTTL, err = parseDurationEnv("INBOX_TTL", 72*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ServiceFeeBps, err = parseIntEnv("SERVICE_FEE_BPS", 1500); err != nil {
		return Config{}, err
	}
	port, err := parseIntEnv("SMTP_PORT", 587)
	if err != nil {
		return Config{}, err
	}
	cfg.SMTPPort = int(port)
	if cfg.PaymentGatewayMock, err = parseBoolEnv("PAYMENT_GATEWAY_MOCK", false); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	switch c.InboxBackend {
	case InboxMemory, InboxRedis:
	case InboxMongo:
		if c.StorageBackend != StorageMongo {
			return fmt.Errorf("INBOX_BACKEND=mongo requires STORAGE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("unknown INBOX_BACKEND %q", c.InboxBackend)
	}
	switch c.EmailProvider {
	case EmailLog, EmailSES:
	case EmailSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER=smtp")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}
	switch c.AuthMode {
	case AuthFirebase, AuthInsecure:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if !c.PaymentGatewayMock && c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required unless PAYMENT_GATEWAY_MOCK=true")
	}
	if c.ServiceFeeBps < 0 {
		return fmt.Errorf("SERVICE_FEE_BPS cannot be negative")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("invalid CURRENCY %q", c.Currency)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

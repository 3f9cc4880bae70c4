package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the API process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	JWTSecret     string
	TokenTTL      time.Duration // rider/driver session horizon
	ShortTokenTTL time.Duration // reserved for short-lived flows

	OTPTTL       time.Duration
	OTPDemoCode  string // issued without SMS delivery when SMSEndpoint is empty
	SMSEndpoint  string
	SMSTimeout   time.Duration
	OfferWebhook string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	PGDSN string

	StripeAPIKey string

	RoutingEndpoint string
	DefaultSpeedMps float64

	BusBuffer     int
	WSIdleTimeout time.Duration

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		JWTSecret:       "devsecret",
		TokenTTL:        7 * 24 * time.Hour,
		ShortTokenTTL:   time.Hour,
		OTPTTL:          5 * time.Minute,
		OTPDemoCode:     "1234",
		SMSTimeout:      3 * time.Second,
		KafkaTopic:      "order-events",
		DefaultSpeedMps: 10,
		BusBuffer:       32,
		WSIdleTimeout:   90 * time.Second,
		LogLevel:        "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	setStringFromEnv(&cfg.JWTSecret, "JWT_SECRET")
	setDurationFromEnv(&cfg.TokenTTL, "TOKEN_TTL", &errs)
	setDurationFromEnv(&cfg.ShortTokenTTL, "SHORT_TOKEN_TTL", &errs)

	setDurationFromEnv(&cfg.OTPTTL, "OTP_TTL", &errs)
	setStringFromEnv(&cfg.OTPDemoCode, "OTP_DEMO_CODE")
	cfg.SMSEndpoint = strings.TrimSpace(os.Getenv("SMS_ENDPOINT"))
	setDurationFromEnv(&cfg.SMSTimeout, "SMS_TIMEOUT", &errs)
	cfg.OfferWebhook = strings.TrimSpace(os.Getenv("OFFER_WEBHOOK"))

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")

	cfg.StripeAPIKey = os.Getenv("STRIPE_API_KEY")

	cfg.RoutingEndpoint = strings.TrimSpace(os.Getenv("ROUTING_ENDPOINT"))
	setFloatFromEnv(&cfg.DefaultSpeedMps, "DEFAULT_SPEED_MPS", &errs)

	setIntFromEnv(&cfg.BusBuffer, "BUS_BUFFER", &errs)
	setDurationFromEnv(&cfg.WSIdleTimeout, "WS_IDLE_TIMEOUT", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if cfg.BusBuffer <= 0 {
		errs = append(errs, fmt.Errorf("BUS_BUFFER must be > 0"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET must not be empty"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

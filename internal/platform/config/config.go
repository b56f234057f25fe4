package config

import (
	"os"
	"strings"
	"time"

	dErrors "heirloom/pkg/domain-errors"
)

// VerificationMode selects how proof review is performed.
type VerificationMode string

const (
	// VerificationManual waits for a reviewer decision on /nominee/review.
	VerificationManual VerificationMode = "manual"
	// VerificationAuto approves pending records after AutoApproveDelay.
	// Sandbox/demo use only.
	VerificationAuto VerificationMode = "auto"
)

// Server captures all recognized configuration. Secrets and tunables live
// here rather than in source so main stays lean and nothing ships a compiled
// fallback.
type Server struct {
	Addr        string
	PostgresURL string // empty: in-memory stores
	RedisURL    string // empty: in-memory heartbeat store

	// JWTSigningKey has no default. The server refuses to start without it.
	JWTSigningKey string
	AdminKey      string // guards /nominee/review; empty disables the route

	NomineeSessionTTL time.Duration // fixed 1h
	OwnerSessionTTL   time.Duration // fixed 7d

	VerificationMode VerificationMode
	AutoApproveDelay time.Duration

	HeartbeatGrace    time.Duration
	HeartbeatInterval time.Duration

	// EngineCommand is the encryption engine invocation, e.g.
	// "python3 glue_algorithm.py". File path and owner id are appended.
	EngineCommand string
	UploadDir     string

	KafkaBrokers []string // empty: audit Kafka fan-out disabled
	KafkaTopic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:              getenv("HEIRLOOM_ADDR", ":8080"),
		PostgresURL:       os.Getenv("HEIRLOOM_POSTGRES_URL"),
		RedisURL:          os.Getenv("HEIRLOOM_REDIS_URL"),
		JWTSigningKey:     os.Getenv("HEIRLOOM_JWT_SIGNING_KEY"),
		AdminKey:          os.Getenv("HEIRLOOM_ADMIN_KEY"),
		NomineeSessionTTL: duration("HEIRLOOM_NOMINEE_SESSION_TTL", time.Hour),
		OwnerSessionTTL:   duration("HEIRLOOM_OWNER_SESSION_TTL", 7*24*time.Hour),
		AutoApproveDelay:  duration("HEIRLOOM_AUTO_APPROVE_DELAY", 3*time.Second),
		HeartbeatGrace:    duration("HEIRLOOM_HEARTBEAT_GRACE", 14*24*time.Hour),
		HeartbeatInterval: duration("HEIRLOOM_HEARTBEAT_INTERVAL", time.Minute),
		EngineCommand:     os.Getenv("HEIRLOOM_ENGINE_COMMAND"),
		UploadDir:         getenv("HEIRLOOM_UPLOAD_DIR", "uploads_tmp"),
		KafkaTopic:        getenv("HEIRLOOM_KAFKA_AUDIT_TOPIC", "heirloom.audit"),
	}

	if mode := os.Getenv("HEIRLOOM_VERIFICATION_MODE"); mode == string(VerificationAuto) {
		cfg.VerificationMode = VerificationAuto
	} else {
		cfg.VerificationMode = VerificationManual
	}

	if brokers := os.Getenv("HEIRLOOM_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

// Validate rejects configurations the server must not run with.
func (c Server) Validate() error {
	if c.JWTSigningKey == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "HEIRLOOM_JWT_SIGNING_KEY is required")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

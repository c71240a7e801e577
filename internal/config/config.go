package config

import (
	"os"
	"strings"
	"time"
)

// Config is the process configuration, read once at startup from the
// environment (a .env file is loaded first when present).
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	AllowOrigins  []string
	TextbeltKey   string

	// DiagnosisRequiresDone gates diagnosis writes on the appointment
	// being (or becoming) done. Off by default: doctors may pre-write
	// notes before closing the visit.
	DiagnosisRequiresDone bool

	// RequestTimeout bounds every datastore call issued for one request.
	RequestTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port:                  os.Getenv("API_PORT"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDatabase:         os.Getenv("MONGO_DATABASE"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		TextbeltKey:           os.Getenv("TEXTBELT_API_KEY"),
		DiagnosisRequiresDone: boolEnv("DIAGNOSIS_REQUIRES_DONE"),
		RequestTimeout:        10 * time.Second,
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			cfg.AllowOrigins = append(cfg.AllowOrigins, strings.TrimSpace(o))
		}
	} else {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}

func boolEnv(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

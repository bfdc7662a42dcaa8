// Package config loads service configuration from the environment.
package config

import "os"

const (
	defaultPort         = "8083"
	defaultRedisAddr    = "localhost:6379"
	defaultAMQPExchange = "stream_chat.events"
	defaultJWTSecret    = "dev-secret-change-me"
	defaultEnvironment  = "development"
)

// Config holds everything main needs to wire the service.
type Config struct {
	Port         string
	RedisAddr    string
	AMQPURL      string
	AMQPExchange string
	JWTSecret    string
	Environment  string
	OTLPEndpoint string
}

// Load reads configuration from environment variables, falling back to
// development defaults. An empty REDIS_ADDR or AMQP_URL disables that
// backend; the service degrades rather than refusing to start.
func Load() Config {
	return Config{
		Port:         envOr("PORT", defaultPort),
		RedisAddr:    envOr("REDIS_ADDR", defaultRedisAddr),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", defaultAMQPExchange),
		JWTSecret:    envOr("JWT_SECRET", defaultJWTSecret),
		Environment:  envOr("ENVIRONMENT", defaultEnvironment),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "yodlink"
	defaultAppEnv         = "development"
	defaultPort           = "8084"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultSessionTTL     = 90 * time.Minute
	sessionTTLSecondsVar  = "SESSION_TTL_SECONDS"
	sessionTTLDurationVar = "SESSION_TTL"
	shutdownSecondsVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationVar   = "SHUTDOWN_TIMEOUT"
)

// Config captures runtime configuration for both binaries, loaded from
// environment variables. Which fields are mandatory depends on the binary:
// the sandbox runs on defaults alone, the link flow needs cobrand
// credentials, so required-field checks live with the callers.
type Config struct {
	AppName         string
	AppEnv          string
	Port            string
	LogLevel        string
	APIBaseURL      string
	CobrandLogin    string
	CobrandPassword string
	DatabaseURL     string
	RedisURL        string
	SessionTTL      time.Duration
	ShutdownPeriod  time.Duration
}

// Load reads configuration values from the environment.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		APIBaseURL:      os.Getenv("YODLEE_API_URL"),
		CobrandLogin:    os.Getenv("YODLEE_COBRAND_LOGIN"),
		CobrandPassword: os.Getenv("YODLEE_COBRAND_PASSWORD"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		SessionTTL:      defaultSessionTTL,
		ShutdownPeriod:  defaultShutdownDelay,
	}

	ttl, err := durationEnv(sessionTTLSecondsVar, sessionTTLDurationVar, defaultSessionTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL = ttl

	shutdown, err := durationEnv(shutdownSecondsVar, shutdownDurationVar, defaultShutdownDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownPeriod = shutdown

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// RequireCobrand errors unless both cobrand credential variables are set.
// The link flow calls this; the sandbox has its own development defaults.
func (c Config) RequireCobrand() error {
	if c.CobrandLogin == "" {
		return fmt.Errorf("YODLEE_COBRAND_LOGIN must be set")
	}
	if c.CobrandPassword == "" {
		return fmt.Errorf("YODLEE_COBRAND_PASSWORD must be set")
	}
	return nil
}

// durationEnv reads a duration that may be given as whole seconds or as a
// Go duration string, preferring the seconds form.
func durationEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

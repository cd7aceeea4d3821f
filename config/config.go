package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/upb/gateway-authorizer/cognito"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Cognito       CognitoConfig
	Authorizer    AuthorizerConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds configuration for the local HTTP harness
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// CognitoConfig holds the identity pool the authorizer trusts
type CognitoConfig struct {
	Region          string
	UserPoolID      string
	ClientID        string
	JWKSURLOverride string // Explicit key set URL (COGNITO_JWKS_URL); derived from region and pool when empty
}

// AuthorizerConfig holds decision flow settings
type AuthorizerConfig struct {
	ClientIDAttribute      string
	JWKSFetchTimeout       time.Duration
	DirectoryLookupEnabled bool
	StrictAudience         bool
	VerifyIssuer           bool
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Cognito: CognitoConfig{
			Region:          getFirstEnv([]string{"REGION", "COGNITO_REGION"}, "us-east-1"),
			UserPoolID:      getFirstEnv([]string{"USERPOOLID", "COGNITO_USER_POOL_ID"}, ""),
			ClientID:        getFirstEnv([]string{"APPCLIENTID", "COGNITO_CLIENT_ID"}, ""),
			JWKSURLOverride: getEnv("COGNITO_JWKS_URL", ""),
		},
		Authorizer: AuthorizerConfig{
			ClientIDAttribute:      getEnv("CLIENT_ID_ATTRIBUTE", cognito.DefaultClientIDAttribute),
			JWKSFetchTimeout:       getEnvAsDuration("JWKS_FETCH_TIMEOUT", 10*time.Second),
			DirectoryLookupEnabled: getEnvAsBool("DIRECTORY_LOOKUP_ENABLED", true),
			StrictAudience:         getEnvAsBool("STRICT_AUDIENCE", false),
			VerifyIssuer:           getEnvAsBool("VERIFY_ISSUER", false),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Cognito.JWKSURLOverride == "" && c.Cognito.UserPoolID == "" {
		return fmt.Errorf("cognito user pool ID is required: set USERPOOLID or COGNITO_JWKS_URL")
	}
	if c.Cognito.ClientID == "" {
		return fmt.Errorf("cognito app client ID is required: set APPCLIENTID")
	}
	if c.Cognito.Region == "" {
		return fmt.Errorf("cognito region is required")
	}

	if c.Authorizer.JWKSFetchTimeout <= 0 {
		return fmt.Errorf("jwks fetch timeout must be positive")
	}
	if c.Authorizer.VerifyIssuer && c.Cognito.UserPoolID == "" {
		return fmt.Errorf("cognito user pool ID is required when issuer verification is enabled")
	}
	if c.Authorizer.DirectoryLookupEnabled && c.Authorizer.ClientIDAttribute == "" {
		return fmt.Errorf("client id attribute is required when directory lookup is enabled")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// JWKSURL returns the key set URL, derived from region and pool unless overridden
func (c *CognitoConfig) JWKSURL() string {
	if c.JWKSURLOverride != "" {
		return c.JWKSURLOverride
	}
	return cognito.JWKSURL(c.Region, c.UserPoolID)
}

// Issuer returns the issuer URL of the user pool
func (c *CognitoConfig) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getFirstEnv returns the first non-empty value among keys
func getFirstEnv(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

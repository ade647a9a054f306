package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, database connection,
// platform and GitHub clients, event processing, and graceful shutdown.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// Database contains all database connection related configurations
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"bookverse" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// JFrog contains the platform API client configuration
	JFrog struct {
		// URL is the base URL of the platform instance, e.g. https://acme.jfrog.io
		URL string `env:"JFROG_URL" yaml:"url"`
		// Token is the access token used as Bearer credentials
		Token string `env:"JFROG_TOKEN" yaml:"token"`
		// ProjectKey scopes all operations to one project
		ProjectKey string `env:"JFROG_PROJECT_KEY" env-default:"bookverse" yaml:"projectKey"`
		// Timeout bounds each API request
		Timeout time.Duration `env:"JFROG_TIMEOUT" env-default:"30s" yaml:"timeout"`
	} `yaml:"jfrog"`

	// GitHub configures the repository_dispatch client
	GitHub struct {
		// Token is a PAT or installation token with repo scope
		Token string `env:"GITHUB_TOKEN" yaml:"token"`
		// Owner is the organization or user owning the target repository
		Owner string `env:"GITHUB_OWNER" yaml:"owner"`
		// Repo is the repository receiving dispatch events
		Repo string `env:"GITHUB_REPO" yaml:"repo"`
	} `yaml:"github"`

	// Events configures webhook event processing
	Events struct {
		// MaxAttempts is the maximum number of attempts the background worker
		// should make when processing an event before marking it failed
		MaxAttempts int `env:"EVENTS_MAX_ATTEMPTS" env-default:"5" yaml:"maxAttempts"`
		// DedupeWindow is the period during which an identical event is
		// recorded but not enqueued again
		DedupeWindow time.Duration `env:"EVENTS_DEDUPE_WINDOW" env-default:"10m" yaml:"dedupeWindow"`
		// MaxPendingPerRepo rejects new deliveries for a repository once this
		// many of its events are pending; 0 disables the limit
		MaxPendingPerRepo int64 `env:"EVENTS_MAX_PENDING_PER_REPO" env-default:"100" yaml:"maxPendingPerRepo"`
	} `yaml:"events"`

	// Cleanup configures parallelism of the faulty version scanner
	Cleanup struct {
		// AppWorkers is the number of applications scanned concurrently
		AppWorkers int `env:"CLEANUP_APP_WORKERS" env-default:"3" yaml:"appWorkers"`
		// VersionWorkers is the number of versions scanned concurrently per application
		VersionWorkers int `env:"CLEANUP_VERSION_WORKERS" env-default:"5" yaml:"versionWorkers"`
	} `yaml:"cleanup"`

	// JWT holds the RS256 key pair used for API authentication
	JWT struct {
		// PrivateKey is the PEM encoded RSA private key used for signing tokens
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
		// PublicKey is the PEM encoded RSA public key used for verifying tokens
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
	} `yaml:"jwt"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

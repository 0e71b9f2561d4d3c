package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/iota-uz/slatrack/pkg/logging"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type SlaOptions struct {
	// TickInterval bounds countdown staleness; every connected stream client
	// observes a value at most this far behind the wall clock.
	TickInterval time.Duration `env:"SLA_TICK_INTERVAL" envDefault:"1s"`
	DueSoon      time.Duration `env:"SLA_DUE_SOON" envDefault:"10m"`
	TimeZone     string        `env:"SLA_DISPLAY_TIMEZONE" envDefault:"Asia/Kolkata"`
	StagesPath   string        `env:"SLA_STAGE_CONFIG_PATH" envDefault:"config/sla/stages.yaml"`
}

func (o *SlaOptions) Validate() error {
	if o.TickInterval <= 0 {
		return fmt.Errorf("SLA_TICK_INTERVAL must be positive, got %s", o.TickInterval)
	}
	if o.DueSoon < 0 {
		return fmt.Errorf("SLA_DUE_SOON must be non-negative, got %s", o.DueSoon)
	}
	if _, err := time.LoadLocation(o.TimeZone); err != nil {
		return fmt.Errorf("invalid SLA_DISPLAY_TIMEZONE=%q: %w", o.TimeZone, err)
	}
	return nil
}

// UpstreamOptions points at the recruitment backend whose list endpoints the
// board aggregates. The backend owns the pipeline state machine; this service
// only reads snapshots.
type UpstreamOptions struct {
	BaseURL      string        `env:"UPSTREAM_BASE_URL" envDefault:"http://localhost:3200"`
	Timeout      time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	AuthToken    string        `env:"UPSTREAM_AUTH_TOKEN"`
	Requisitions string        `env:"UPSTREAM_REQUISITIONS_PATH" envDefault:"/api/requisitions"`
	Candidates   string        `env:"UPSTREAM_CANDIDATES_PATH" envDefault:"/api/candidates"`
	Interviews   string        `env:"UPSTREAM_INTERVIEWS_PATH" envDefault:"/api/interviews"`
	Probations   string        `env:"UPSTREAM_PROBATIONS_PATH" envDefault:"/api/probations"`
}

func (o *UpstreamOptions) Validate() error {
	if strings.TrimSpace(o.BaseURL) == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", o.Timeout)
	}
	return nil
}

type RateLimitOptions struct {
	Enabled   bool `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	GlobalRPS int  `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"50"`
}

func (o *RateLimitOptions) Validate() error {
	if o.Enabled && o.GlobalRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_GLOBAL_RPS must be positive when rate limiting is enabled, got %d", o.GlobalRPS)
	}
	return nil
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"slatrack"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Sla           SlaOptions
	Upstream      UpstreamOptions
	RateLimit     RateLimitOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions

	ServerPort       int    `env:"PORT" envDefault:"3300"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Looked up on every request; a missing header yields a random uuidv4.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`
	// Browser origins allowed to call the API and open the stream.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Sla.Validate(); err != nil {
		return fmt.Errorf("sla configuration error: %w", err)
	}
	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream configuration error: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}

package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mesflow/gridsync/pkg/logging"
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

// LoadEnv loads the given env files from the working directory, falling back
// to the module root (the nearest parent containing go.mod) so tests and
// tools run from subdirectories pick up the same environment.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existing = append(existing, file)
			continue
		}
		if root, ok := moduleRoot(); ok {
			candidate := filepath.Join(root, file)
			if fs.FileExists(candidate) {
				existing = append(existing, candidate)
			}
		}
	}

	if len(existing) == 0 {
		return 0, nil
	}

	return len(existing), godotenv.Load(existing...)
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type GatewayOptions struct {
	Endpoint      string        `env:"GRIDSYNC_ENDPOINT" envDefault:"http://localhost:3200/query"`
	Authorization string        `env:"GRIDSYNC_AUTHORIZATION"`
	Timeout       time.Duration `env:"GRIDSYNC_HTTP_TIMEOUT" envDefault:"30s"`
	// Request correlation header attached to every executor call.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
}

func (g *GatewayOptions) Validate() error {
	if strings.TrimSpace(g.Endpoint) == "" {
		return fmt.Errorf("gateway Endpoint must not be empty")
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("gateway Timeout must be positive, got %s", g.Timeout)
	}
	if g.Timeout > 10*time.Minute {
		return fmt.Errorf("gateway Timeout too high, maximum is 10m, got %s", g.Timeout)
	}
	return nil
}

type Configuration struct {
	Gateway GatewayOptions

	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`

	// Skip interactive delete confirmations (CI and scripted runs).
	AutoConfirm bool `env:"GRIDSYNC_AUTO_CONFIRM" envDefault:"false"`

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

	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		_ = c.logFile.Close()
	}
}

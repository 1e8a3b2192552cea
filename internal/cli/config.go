package cli

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds CLI configuration
type Config struct {
	BackendURL  string
	SessionFile string
	Timeout     time.Duration
	Output      string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		BackendURL:  getEnvOrDefault("TOURNAX_BACKEND", "http://localhost:8081"),
		SessionFile: getEnvOrDefault("TOURNAX_SESSION_FILE", defaultSessionFile()),
		Timeout:     getDurationEnvOrDefault("TOURNAX_TIMEOUT", 30*time.Second),
		Output:      getEnvOrDefault("TOURNAX_OUTPUT", "text"),
		Verbose:     false,
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tournax", "session.json")
	}
	return filepath.Join(home, ".tournax", "session.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDurationEnvOrDefault(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

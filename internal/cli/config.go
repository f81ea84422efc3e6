package cli

import (
	"os"
)

// Config holds CLI configuration
type Config struct {
	// ServerURL is the admin API used by remote commands
	ServerURL string
	// ConfigFile and EnvFile are read by commands that open storage directly
	ConfigFile string
	EnvFile    string
	Output     string
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:  getEnvOrDefault("GAMESHELF_SERVER", "http://localhost:8080"),
		ConfigFile: os.Getenv("GAMESHELF_CONFIG"),
		Output:     "text",
		Verbose:    false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

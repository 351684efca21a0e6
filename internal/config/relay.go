package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RelayConfig holds configuration for the one-shot event relay.
type RelayConfig struct {
	OllamaBaseURL  string
	Model          string
	Timeout        time.Duration
	ProbeTimeout   time.Duration
	PullTimeout    time.Duration
	ConnectRetries int
	ConnectDelay   time.Duration
	LogLevel       string
	ConfigFile     string
}

func (c *RelayConfig) BindFlags() {
	c.ConfigFile = GetEnv("CONFIG_FILE", "")
	c.LogLevel = GetEnv("LOG_LEVEL", "info")

	c.OllamaBaseURL = GetEnv("OLLAMA_HOST", "http://localhost:11434")
	c.Model = GetEnv("OLLAMA_MODEL", "phi3:mini")
	c.Timeout = envSeconds("OLLAMA_TIMEOUT", 180*time.Second)
	c.ProbeTimeout = envSeconds("PROBE_TIMEOUT", 10*time.Second)
	c.PullTimeout = envSeconds("PULL_TIMEOUT", 300*time.Second)
	if v, err := strconv.Atoi(GetEnv("CONNECT_RETRIES", "5")); err == nil {
		c.ConnectRetries = v
	} else {
		c.ConnectRetries = 5
	}
	c.ConnectDelay = envSeconds("CONNECT_DELAY", 5*time.Second)

	flag.StringVar(&c.OllamaBaseURL, "ollama-host", c.OllamaBaseURL, "base URL of the inference backend")
	flag.StringVar(&c.Model, "model", c.Model, "model identifier to generate with")
	flag.DurationVar(&c.Timeout, "timeout", c.Timeout, "timeout for a single generation call")
	flag.DurationVar(&c.PullTimeout, "pull-timeout", c.PullTimeout, "timeout for a model download")
	flag.IntVar(&c.ConnectRetries, "connect-retries", c.ConnectRetries, "attempts when waiting for the backend at startup")
	flag.DurationVar(&c.ConnectDelay, "connect-delay", c.ConnectDelay, "fixed delay between connection attempts")
	flag.StringVar(&c.ConfigFile, "config", c.ConfigFile, "relay config file path")
	flag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
}

// LoadFile populates the config from a YAML file. Fields already set remain
// unless overwritten by corresponding entries in the file.
func (c *RelayConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the query service.
type ServerConfig struct {
	Port           int
	OllamaBaseURL  string
	Model          string
	SystemPrompt   string
	SenderLabel    string
	SystemSender   string
	StatusLabel    string
	ActivePolicy   string
	StakedTokens   string
	QueryTimeout   time.Duration
	ProbeTimeout   time.Duration
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	LogLevel       string
	ConfigFile     string
}

// DefaultSystemPrompt is the preamble sent with every /query generation.
// It biases the model toward the terse governance-assistant persona the
// frontend expects.
const DefaultSystemPrompt = "You are SOVRA, an autonomous governance assistant for the $SOVRA token. " +
	"Answer concisely and technically, using blockchain and governance terminology."

func (c *ServerConfig) BindFlags() {
	c.ConfigFile = GetEnv("CONFIG_FILE", "")
	c.LogLevel = GetEnv("LOG_LEVEL", "info")

	if v, err := strconv.Atoi(GetEnv("PORT", "5001")); err == nil {
		c.Port = v
	} else {
		c.Port = 5001
	}
	c.OllamaBaseURL = GetEnv("OLLAMA_HOST", "http://127.0.0.1:11434")
	c.Model = GetEnv("OLLAMA_MODEL", "phi3:mini")
	c.SystemPrompt = GetEnv("SYSTEM_PROMPT", DefaultSystemPrompt)
	c.SenderLabel = GetEnv("SENDER_LABEL", "IA (Sovra)")
	c.SystemSender = GetEnv("SYSTEM_SENDER", "Sistema")
	c.StatusLabel = GetEnv("STATUS_LABEL", "AGI_ONLINE")
	c.ActivePolicy = GetEnv("ACTIVE_POLICY", "LEY 003 (STAKING OPTIMIZADO)")
	c.StakedTokens = GetEnv("STAKED_TOKENS", "8,901,234 ASVA")
	c.QueryTimeout = envSeconds("OLLAMA_TIMEOUT", 120*time.Second)
	c.ProbeTimeout = envSeconds("PROBE_TIMEOUT", 5*time.Second)
	c.AllowedOrigins = splitOrigins(GetEnv("ALLOWED_ORIGINS", "*"))
	if v, err := strconv.ParseFloat(GetEnv("RATE_LIMIT", "10"), 64); err == nil {
		c.RateLimit = v
	} else {
		c.RateLimit = 10
	}
	if v, err := strconv.Atoi(GetEnv("RATE_BURST", "20")); err == nil {
		c.RateBurst = v
	} else {
		c.RateBurst = 20
	}

	flag.IntVar(&c.Port, "port", c.Port, "HTTP listen port")
	flag.StringVar(&c.OllamaBaseURL, "ollama-host", c.OllamaBaseURL, "base URL of the inference backend")
	flag.StringVar(&c.Model, "model", c.Model, "model identifier sent with generation requests")
	flag.StringVar(&c.SystemPrompt, "system-prompt", c.SystemPrompt, "system preamble sent with every query")
	flag.StringVar(&c.SenderLabel, "sender-label", c.SenderLabel, "sender tag attached to successful responses")
	flag.DurationVar(&c.QueryTimeout, "query-timeout", c.QueryTimeout, "timeout for a single generation call")
	flag.DurationVar(&c.ProbeTimeout, "probe-timeout", c.ProbeTimeout, "timeout for the /status backend probe")
	flag.Func("allowed-origins", "comma-separated CORS origins", func(v string) error {
		c.AllowedOrigins = splitOrigins(v)
		return nil
	})
	flag.Float64Var(&c.RateLimit, "rate-limit", c.RateLimit, "maximum sustained queries per second forwarded to the backend")
	flag.IntVar(&c.RateBurst, "rate-burst", c.RateBurst, "burst size for the query rate limiter")
	flag.StringVar(&c.ConfigFile, "config", c.ConfigFile, "server config file path")
	flag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
}

// LoadFile populates the config from a YAML file. Fields already set remain
// unless overwritten by corresponding entries in the file.
func (c *ServerConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

func splitOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// envSeconds reads a whole-second duration from the environment, matching
// the numeric form the backend tooling historically used.
func envSeconds(key string, def time.Duration) time.Duration {
	raw := GetEnv(key, "")
	if raw == "" {
		return def
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(v * float64(time.Second))
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return def
}

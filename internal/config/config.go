package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Model struct {
		Name        string  `koanf:"name"`
		Endpoint    string  `koanf:"endpoint"`
		Temperature float64 `koanf:"temperature"`
		MaxTokens   int     `koanf:"max_tokens"`
		TimeoutSecs int     `koanf:"timeout_seconds"`
	} `koanf:"model"`

	Server struct {
		Host string `koanf:"host"`
		Port int    `koanf:"port"`
	} `koanf:"server"`

	Agent struct {
		MaxSteps int `koanf:"max_steps"`
	} `koanf:"agent"`

	Memory struct {
		DatabaseURL string `koanf:"database_url"`
		Window      int    `koanf:"window"`
	} `koanf:"memory"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`
}

// Timeout returns the model request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Model.TimeoutSecs) * time.Second
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"model.name":            "llama3.2",
		"model.endpoint":        "http://localhost:11434",
		"model.temperature":     0.5,
		"model.max_tokens":      0,
		"model.timeout_seconds": 120,
		"server.host":           "0.0.0.0",
		"server.port":           8080,
		"agent.max_steps":       5,
		"memory.window":         10,
		"log.level":             "info",
		"log.pretty":            false,
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./promptflow.toml", "$HOME/.promptflow.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix PROMPTFLOW_
	k.Load(env.Provider("PROMPTFLOW_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PROMPTFLOW_")), "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# PromptFlow Configuration

[model]
name = "llama3.2"
endpoint = "http://localhost:11434"
temperature = 0.5
max_tokens = 0
timeout_seconds = 120

[server]
host = "0.0.0.0"
port = 8080

[agent]
max_steps = 5

[memory]
# Leave empty to keep conversation history in process memory.
database_url = ""
window = 10

[log]
level = "info"
pretty = false
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Model.Name == "" {
		return fmt.Errorf("model name is required")
	}
	if config.Model.Endpoint == "" {
		return fmt.Errorf("model endpoint is required")
	}
	if !strings.HasPrefix(config.Model.Endpoint, "http://") && !strings.HasPrefix(config.Model.Endpoint, "https://") {
		return fmt.Errorf("model endpoint must be an http(s) URL, got %s", config.Model.Endpoint)
	}
	if config.Model.Temperature < 0 || config.Model.Temperature > 1 {
		return fmt.Errorf("model temperature must be between 0 and 1, got %g", config.Model.Temperature)
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", config.Server.Port)
	}
	if config.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent max_steps must be at least 1, got %d", config.Agent.MaxSteps)
	}
	return nil
}

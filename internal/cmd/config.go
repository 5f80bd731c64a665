package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Path string `yaml:"path"`
		TLS  bool   `yaml:"tls"`
	} `yaml:"server"`
	Client struct {
		Lane int    `yaml:"lane"`
		Role string `yaml:"role"`
	} `yaml:"client"`
	Diag struct {
		Addr string `yaml:"addr"`
	} `yaml:"diag"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 443
	cfg.Server.Path = "/ws"
	cfg.Server.TLS = true
	cfg.Client.Lane = 9
	cfg.Client.Role = "lane"
	cfg.Diag.Addr = ":8070"
	cfg.History.Path = "./lanetimer.db"
	cfg.Logging.Level = "info"
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the yaml file at path on top of the defaults, then applies
// environment overrides. A missing file is fine; a malformed one is not.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Server.Host = getEnv("LANETIMER_SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsInt("LANETIMER_SERVER_PORT", cfg.Server.Port)
	cfg.Server.Path = getEnv("LANETIMER_SERVER_PATH", cfg.Server.Path)
	cfg.Client.Lane = getEnvAsInt("LANETIMER_LANE", cfg.Client.Lane)
	cfg.Client.Role = getEnv("LANETIMER_ROLE", cfg.Client.Role)
	cfg.Diag.Addr = getEnv("LANETIMER_DIAG_ADDR", cfg.Diag.Addr)
	cfg.History.Path = getEnv("LANETIMER_HISTORY_PATH", cfg.History.Path)
	cfg.Logging.Level = getEnv("LANETIMER_LOG_LEVEL", cfg.Logging.Level)

	return cfg, nil
}

// serverURL builds the websocket endpoint from the server section.
func (c *Config) serverURL() string {
	scheme := "ws"
	if c.Server.TLS {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, c.Server.Host, c.Server.Port, c.Server.Path)
}

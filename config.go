package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr     = "0.0.0.0:4000"
	defaultHTTPAddr = "0.0.0.0:8080"
	addrEnv         = "ASTEROIDS_ADDR"
)

// ServerConfig holds everything that can be set outside the binary.
// Gameplay constants are not part of it.
type ServerConfig struct {
	Addr     string `yaml:"addr"`      // TCP line protocol listen address
	HTTPAddr string `yaml:"http_addr"` // websocket and API listen address, "" disables
	DBPath   string `yaml:"db"`        // SQLite file, "" disables accounts and scores
	LogLevel string `yaml:"log_level"`
	Seed     uint64 `yaml:"seed"` // 0 picks a random seed
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Addr:     defaultAddr,
		HTTPAddr: defaultHTTPAddr,
		LogLevel: "info",
	}
}

// LoadConfig returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults.
func LoadConfig(path string) (ServerConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// PortAddr returns the all-interfaces address for a bare port
func PortAddr(port int) (string, error) {
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(port)), nil
}

// ApplyEnv overrides the game address from the environment. It runs last,
// so the variable beats both the file and the flags.
func (c *ServerConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv(addrEnv); v != "" {
		c.Addr = v
	}
}

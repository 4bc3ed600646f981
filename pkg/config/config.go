// Package config handles the ~/.aws-session/config.yaml environments file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultDBPort is assumed when an environment omits the database port.
// The wrapped databases are MariaDB instances.
const DefaultDBPort = 3306

// DefaultRetentionDays is how long debug log files are kept by default.
const DefaultRetentionDays = 7

// Config models the aws-session config file. Each environment names the AWS
// and cluster coordinates of one deployment target, so switching between dev
// and prod is a single --env flag.
type Config struct {
	DefaultEnv   string                 `yaml:"default_env,omitempty"`
	Environments map[string]Environment `yaml:"environments,omitempty"`
	Debug        DebugConfig            `yaml:"debug,omitempty"`
}

// Environment groups the coordinates of one deployment target.
type Environment struct {
	Profile   string   `yaml:"profile"`
	Cluster   string   `yaml:"cluster,omitempty"`
	Region    string   `yaml:"region,omitempty"`
	Namespace string   `yaml:"namespace,omitempty"`
	Database  Database `yaml:"database,omitempty"`
	Tunnel    Tunnel   `yaml:"tunnel,omitempty"`
	Logs      Logs     `yaml:"logs,omitempty"`
}

// Database holds the endpoint coordinates used for IAM auth tokens.
type Database struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
}

// Tunnel configures the port-forward to the database proxy service.
// Namespace falls back to the environment namespace and the remote port to
// the database port.
type Tunnel struct {
	Service    string `yaml:"service,omitempty"`
	Namespace  string `yaml:"namespace,omitempty"`
	LocalPort  int    `yaml:"local_port,omitempty"`
	RemotePort int    `yaml:"remote_port,omitempty"`
}

// Logs configures which pods 'aws-session logs' tails. Container falls back
// to the component name.
type Logs struct {
	Namespace string `yaml:"namespace,omitempty"`
	Component string `yaml:"component,omitempty"`
	Container string `yaml:"container,omitempty"`
}

// DebugConfig configures local debug log files.
type DebugConfig struct {
	Dir           string `yaml:"dir,omitempty"`
	RetentionDays int    `yaml:"retention_days,omitempty"`
}

// Dir returns the path to ~/.aws-session.
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".aws-session")
	}
	return filepath.Join(homeDir, ".aws-session")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file at the default location returns nil, nil so the CLI
// still works on flags alone; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.DefaultEnv != "" {
		if _, ok := cfg.Environments[cfg.DefaultEnv]; !ok {
			return nil, fmt.Errorf("default_env %q is not a configured environment", cfg.DefaultEnv)
		}
	}

	for name, env := range cfg.Environments {
		if env.Profile == "" {
			return nil, fmt.Errorf("environments.%s: 'profile' is required", name)
		}
		for field, port := range map[string]int{
			"database.port":      env.Database.Port,
			"tunnel.local_port":  env.Tunnel.LocalPort,
			"tunnel.remote_port": env.Tunnel.RemotePort,
		} {
			if port < 0 || port > 65535 {
				return nil, fmt.Errorf("environments.%s: %s %d is out of range", name, field, port)
			}
		}

		if env.Database.Port == 0 {
			env.Database.Port = DefaultDBPort
		}
		if env.Tunnel.Namespace == "" {
			env.Tunnel.Namespace = env.Namespace
		}
		if env.Tunnel.RemotePort == 0 {
			env.Tunnel.RemotePort = env.Database.Port
		}
		if env.Logs.Namespace == "" {
			env.Logs.Namespace = env.Namespace
		}
		if env.Logs.Container == "" {
			env.Logs.Container = env.Logs.Component
		}
		cfg.Environments[name] = env
	}

	if cfg.Debug.RetentionDays == 0 {
		cfg.Debug.RetentionDays = DefaultRetentionDays
	}

	return &cfg, nil
}

// Package config loads process settings from defaults, an optional .env
// file and the environment, in increasing order of precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"github.com/spf13/viper"

	"library-backend/library"
)

// Store drivers accepted in DB_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type DatabaseConfig struct {
	Driver   string `mapstructure:"db_driver"`
	Path     string `mapstructure:"db_path"`
	Host     string `mapstructure:"db_host"`
	Port     int    `mapstructure:"db_port"`
	Username string `mapstructure:"db_user"`
	Password string `mapstructure:"db_password"`
	Name     string `mapstructure:"db_name"`
}

// MySQLOptions returns the connection settings used when Driver is mysql.
func (c DatabaseConfig) MySQLOptions() library.MySQLOptions {
	return library.MySQLOptions{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.Username,
		Password: c.Password,
		Name:     c.Name,
	}
}

type APIConfig struct {
	Host string `mapstructure:"api_host"`
	Port int    `mapstructure:"api_port"`
}

// Addr is the listen address of the HTTP server.
func (c APIConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type Config struct {
	DatabaseConfig `mapstructure:",squash"`
	APIConfig      `mapstructure:",squash"`

	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"db_driver":   DriverSQLite,
	"db_path":     "library.db",
	"db_host":     "localhost",
	"db_port":     3306,
	"db_user":     "root",
	"db_password": "root",
	"db_name":     "meu_projeto",
	"api_host":    "127.0.0.1",
	"api_port":    5000,
	"debug":       false,
	"log_level":   "info",
	"log_format":  "text",
}

// Load reads envFile when it exists (dotenv syntax) and then the environment.
// An empty envFile skips the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
	if c.APIConfig.Port <= 0 || c.APIConfig.Port > 65535 {
		return fmt.Errorf("invalid API_PORT %d", c.APIConfig.Port)
	}
	return nil
}

// OpenDatabase connects to the configured store and applies migrations.
func (c *Config) OpenDatabase(ctx context.Context) (*library.Database, error) {
	if c.Driver == DriverMySQL {
		return library.NewMySQLDatabase(ctx, c.MySQLOptions())
	}
	return library.NewDatabase(c.Path)
}

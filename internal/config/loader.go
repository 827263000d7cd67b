package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every environment variable read by LoadWithFile.
	EnvPrefix = "HUDT_"
)

// Options control where LoadWithFile looks for configuration.
type Options struct {
	// ConfigPath is an optional YAML file. Missing files are ignored.
	ConfigPath string
	// EnvFile is an optional dotenv file. Missing files are ignored.
	EnvFile string
}

// Load reads configuration using HUDT_CONFIG and HUDT_ENV_FILE to locate files.
func Load() (*Config, error) {
	envFile := os.Getenv(EnvPrefix + "ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	return LoadWithFile(Options{
		ConfigPath: os.Getenv(EnvPrefix + "CONFIG"),
		EnvFile:    envFile,
	})
}

// LoadWithFile loads configuration from defaults, a YAML file, a dotenv file
// and the environment.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (HUDT_SERVER_PORT, HUDT_EMAIL_SMTP_HOST, etc.)
//  2. Variables from the dotenv file (never override the real environment)
//  3. YAML config file
//  4. Default()
//
// # Environment Variable Mapping
//
// The HUDT_ prefix is stripped and the remainder is split on the first
// underscore into section and field:
//
//	HUDT_SERVER_PORT          -> server.port
//	HUDT_EMAIL_SMTP_HOST      -> email.smtp_host
//	HUDT_RATELIMIT_LOGIN_LIMIT -> ratelimit.login_limit
//
// List values such as HUDT_QUEUE_KAFKA_BROKERS are comma separated.
func LoadWithFile(opts Options) (*Config, error) {
	k := koanf.New(".")

	if opts.ConfigPath != "" {
		content, err := readConfigFile(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", opts.ConfigPath, err)
			}
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envKey maps HUDT_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// listKeys are the settings whose environment value is a comma separated list.
var listKeys = map[string]bool{
	"server.cors_origins": true,
	"queue.kafka_brokers": true,
}

// envValue maps the variable name with envKey and splits list values.
func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	items := make([]string, 0, strings.Count(value, ",")+1)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// readConfigFile returns nil content when the file does not exist.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// applyDefaults fills derived values that depend on other settings.
func applyDefaults(cfg *Config) {
	if cfg.Database.MaxIdleConns > cfg.Database.MaxOpenConns && cfg.Database.MaxOpenConns > 0 {
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns
	}
	if cfg.Program.RefPrefix != "" {
		cfg.Program.RefPrefix = strings.ToUpper(strings.TrimSpace(cfg.Program.RefPrefix))
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = cfg.Program.Name
	}
	if cfg.Email.Transport == "smtp" && cfg.Email.SMTPUsername == "" {
		cfg.Email.SMTPUsername = cfg.Email.From
	}
}

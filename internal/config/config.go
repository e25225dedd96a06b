// Package config loads Scribe settings from defaults, an optional YAML file,
// a .env file and the process environment, in increasing order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/scribe/internal/logging"
	"github.com/mitchellh/mapstructure"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

var (
	ErrMissingToken         = errors.New("DISCORD_TOKEN is not set")
	ErrMissingApplicationID = errors.New("APPLICATION_ID is not set")
)

// Config is the complete runtime configuration.
type Config struct {
	DiscordToken  string        `mapstructure:"discord_token" yaml:"discord_token"`
	ApplicationID string        `mapstructure:"application_id" yaml:"application_id"`
	TitleTimeout  time.Duration `mapstructure:"title_timeout" yaml:"title_timeout"`
	AdminAddr     string        `mapstructure:"admin_addr" yaml:"admin_addr"` // Empty disables the admin API
	Store         string        `mapstructure:"store" yaml:"store"`
	DocumentTTL   time.Duration `mapstructure:"document_ttl" yaml:"document_ttl"`
	LogLevel      string        `mapstructure:"log_level" yaml:"log_level"`
	FileDir       string        `mapstructure:"file_dir" yaml:"file_dir"`
	Archive       ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Redis         RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

// ArchiveConfig enables encryption at rest when Key is set. Keys are
// base64-encoded 32-byte AES keys.
type ArchiveConfig struct {
	Key          string   `mapstructure:"key" yaml:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// envKeys maps environment variables to config paths.
var envKeys = map[string][]string{
	"DISCORD_TOKEN":                {"discord_token"},
	"APPLICATION_ID":               {"application_id"},
	"SCRIBE_TITLE_TIMEOUT":         {"title_timeout"},
	"SCRIBE_ADMIN_ADDR":            {"admin_addr"},
	"SCRIBE_STORE":                 {"store"},
	"SCRIBE_DOCUMENT_TTL":          {"document_ttl"},
	"SCRIBE_LOG_LEVEL":             {"log_level"},
	"SCRIBE_FILE_DIR":              {"file_dir"},
	"SCRIBE_ARCHIVE_KEY":           {"archive", "key"},
	"SCRIBE_ARCHIVE_FALLBACK_KEYS": {"archive", "fallback_keys"},
	"SCRIBE_REDIS_ADDR":            {"redis", "addr"},
	"SCRIBE_REDIS_PASSWORD":        {"redis", "password"},
	"SCRIBE_REDIS_DB":              {"redis", "db"},
	"SCRIBE_REDIS_PREFIX":          {"redis", "prefix"},
}

func defaults() map[string]any {
	return map[string]any{
		"title_timeout": "30s",
		"admin_addr":    ":8080",
		"store":         StoreMemory,
		"log_level":     "info",
		"file_dir":      ".scribe/documents",
		"redis": map[string]any{
			"addr":   "localhost:6379",
			"prefix": "scribe:",
		},
	}
}

// Options controls where Load reads from.
type Options struct {
	ConfigFile string                          // Optional YAML file
	EnvFiles   []string                        // .env files; missing files are skipped
	LookupEnv  func(key string) (string, bool) // Defaults to os.LookupEnv
}

// Load builds a Config. Values already present in the environment win over
// values from .env files.
func Load(opts Options) (*Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	raw := defaults()

	if opts.ConfigFile != "" {
		data, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var fromFile map[string]any
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigFile, err)
		}
		merge(raw, fromFile)
	}

	dotenv, err := readEnvFiles(opts.EnvFiles)
	if err != nil {
		return nil, err
	}

	for key, path := range envKeys {
		val, ok := lookup(key)
		if !ok {
			val, ok = dotenv[key]
		}
		if ok {
			set(raw, path, val)
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readEnvFiles(paths []string) (gotenv.Env, error) {
	env := gotenv.Env{}
	for _, path := range paths {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		parsed, err := gotenv.StrictParse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		// Earlier files win, like the process environment over .env.
		for k, v := range parsed {
			if _, ok := env[k]; !ok {
				env[k] = v
			}
		}
	}
	return env, nil
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis, StoreFile:
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreMemory, StoreRedis, StoreFile)
	}
	if c.TitleTimeout <= 0 {
		return fmt.Errorf("title timeout must be positive, got %s", c.TitleTimeout)
	}
	if c.DocumentTTL < 0 {
		return fmt.Errorf("document ttl must not be negative, got %s", c.DocumentTTL)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, _, err := c.Archive.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the archive keys. active is nil when encryption is off.
func (a ArchiveConfig) Keys() (active []byte, fallback [][]byte, err error) {
	decode := func(name, s string) ([]byte, error) {
		k, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%s is not valid base64: %w", name, err)
		}
		if len(k) != 32 {
			return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(k))
		}
		return k, nil
	}

	if strings.TrimSpace(a.Key) == "" {
		if len(a.FallbackKeys) > 0 {
			return nil, nil, errors.New("archive fallback keys need an active archive key")
		}
		return nil, nil, nil
	}
	if active, err = decode("archive key", a.Key); err != nil {
		return nil, nil, err
	}
	for i, s := range a.FallbackKeys {
		if strings.TrimSpace(s) == "" {
			continue
		}
		k, err := decode(fmt.Sprintf("archive fallback key %d", i), s)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, k)
	}
	return active, fallback, nil
}

// RequireDiscord checks the credentials needed to connect the bot.
func (c *Config) RequireDiscord() error {
	if strings.TrimSpace(c.DiscordToken) == "" {
		return ErrMissingToken
	}
	if strings.TrimSpace(c.ApplicationID) == "" {
		return ErrMissingApplicationID
	}
	if _, err := strconv.ParseUint(c.ApplicationID, 10, 64); err != nil {
		return fmt.Errorf("APPLICATION_ID must be an unsigned 64-bit integer: %w", err)
	}
	return nil
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				merge(cur, sub)
				continue
			}
		}
		dst[k] = v
	}
}

func set(m map[string]any, path []string, val string) {
	for _, k := range path[:len(path)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[k] = next
		}
		m = next
	}
	m[path[len(path)-1]] = val
}

package app

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cipherchat/internal/audit"
	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
	"cipherchat/internal/security"
	"cipherchat/internal/util/log"
)

// maxWindowSeconds keeps the staleness window representable as a
// time.Duration.
const maxWindowSeconds = math.MaxInt64 / int64(time.Second)

// Storage backends.
const (
	BackendFile  = "file"
	BackendMongo = "mongo"
)

// Config is the full runtime configuration. It is loaded from YAML and then
// overridden from CIPHERCHAT_* environment variables.
type Config struct {
	Crypto   CryptoConfig   `yaml:"crypto"`
	Security SecurityConfig `yaml:"security"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  log.Config     `yaml:"logging"`
	Events   EventsConfig   `yaml:"events"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type CryptoConfig struct {
	RSAKeyBits          int `yaml:"rsa_key_bits"`
	AESKeyBytes         int `yaml:"aes_key_bytes"`
	SignatureSaltLength int `yaml:"signature_salt_length"`
}

type SecurityConfig struct {
	MaxMessageBytes        int     `yaml:"max_message_bytes"`
	StalenessWindowSeconds int     `yaml:"staleness_window_seconds"`
	AuthFailureRate        float64 `yaml:"auth_failure_rate"`
	AuthFailureBurst       int     `yaml:"auth_failure_burst"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"`
	KeysDir       string `yaml:"keys_dir"`
	Passphrase    string `yaml:"passphrase"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

// EventsConfig selects where security events go besides the log.
type EventsConfig struct {
	File      string `yaml:"file"`
	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`
}

type MetricsConfig struct {
	// Textfile is a node-exporter textfile written when the Wire closes.
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	c := crypto.DefaultConfig()
	return Config{
		Crypto: CryptoConfig{
			RSAKeyBits:          c.RSAKeyBits,
			AESKeyBytes:         c.AESKeyBytes,
			SignatureSaltLength: c.SignatureSaltLength,
		},
		Security: SecurityConfig{
			MaxMessageBytes:        c.MaxMessageBytes,
			StalenessWindowSeconds: 3600,
			AuthFailureRate:        0.1,
			AuthFailureBurst:       5,
		},
		Storage: StorageConfig{
			Backend:       BackendFile,
			KeysDir:       "keys",
			MongoDatabase: "cipherchat",
		},
		Logging: log.Config{Level: "info", Console: true},
		Events:  EventsConfig{RedisKey: audit.DefaultRedisKey},
	}
}

// LoadConfig reads path over the defaults and applies environment
// overrides. An empty path, or one that does not exist, yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, &domain.ConfigError{Setting: "config", Reason: err.Error()}
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, &domain.ConfigError{Setting: "config", Reason: fmt.Sprintf("parse %s: %v", path, err)}
			}
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	intVar := func(key string, dst *int) error {
		v, ok := get(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigError{Setting: key, Reason: fmt.Sprintf("not an integer: %q", v)}
		}
		*dst = n
		return nil
	}
	strVar := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	for key, dst := range map[string]*int{
		"CIPHERCHAT_RSA_KEY_SIZE":     &c.Crypto.RSAKeyBits,
		"CIPHERCHAT_AES_KEY_SIZE":     &c.Crypto.AESKeyBytes,
		"CIPHERCHAT_MAX_MESSAGE_SIZE": &c.Security.MaxMessageBytes,
		"CIPHERCHAT_SESSION_TIMEOUT":  &c.Security.StalenessWindowSeconds,
	} {
		if err := intVar(key, dst); err != nil {
			return err
		}
	}
	strVar("CIPHERCHAT_KEYS_DIR", &c.Storage.KeysDir)
	strVar("CIPHERCHAT_KEY_PASSPHRASE", &c.Storage.Passphrase)
	strVar("CIPHERCHAT_STORAGE_BACKEND", &c.Storage.Backend)
	strVar("CIPHERCHAT_MONGO_URI", &c.Storage.MongoURI)
	strVar("CIPHERCHAT_LOG_LEVEL", &c.Logging.Level)
	strVar("CIPHERCHAT_LOG_FILE", &c.Logging.File)
	strVar("CIPHERCHAT_EVENTS_FILE", &c.Events.File)
	strVar("CIPHERCHAT_REDIS_ADDR", &c.Events.RedisAddr)

	if v, ok := get("CIPHERCHAT_ENABLE_CONSOLE_LOGGING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &domain.ConfigError{Setting: "CIPHERCHAT_ENABLE_CONSOLE_LOGGING", Reason: fmt.Sprintf("not a boolean: %q", v)}
		}
		c.Logging.Console = b
	}
	return nil
}

// Validate reports the first invalid setting as a ConfigError.
func (c Config) Validate() error {
	cc := c.CryptoEngineConfig()
	if err := cc.Validate(); err != nil {
		return err
	}
	if c.Security.StalenessWindowSeconds <= 0 {
		return &domain.ConfigError{Setting: "security.staleness_window_seconds", Reason: "must be positive"}
	}
	if int64(c.Security.StalenessWindowSeconds) > maxWindowSeconds {
		return &domain.ConfigError{
			Setting: "security.staleness_window_seconds",
			Reason:  fmt.Sprintf("must be at most %d", maxWindowSeconds),
		}
	}
	if c.Security.AuthFailureRate <= 0 || c.Security.AuthFailureBurst <= 0 {
		return &domain.ConfigError{Setting: "security.auth_failure_rate", Reason: "rate and burst must be positive"}
	}
	if c.Storage.Passphrase != "" {
		if err := security.ValidatePassphrase(c.Storage.Passphrase); err != nil {
			return &domain.ConfigError{Setting: "storage.passphrase", Reason: err.Error()}
		}
	}
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.KeysDir == "" {
			return &domain.ConfigError{Setting: "storage.keys_dir", Reason: "must not be empty"}
		}
	case BackendMongo:
		if c.Storage.MongoURI == "" {
			return &domain.ConfigError{Setting: "storage.mongo_uri", Reason: "required for the mongo backend"}
		}
		if c.Storage.MongoDatabase == "" {
			return &domain.ConfigError{Setting: "storage.mongo_database", Reason: "must not be empty"}
		}
	default:
		return &domain.ConfigError{Setting: "storage.backend", Reason: fmt.Sprintf("unknown backend %q", c.Storage.Backend)}
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return &domain.ConfigError{Setting: "logging.level", Reason: err.Error()}
	}
	return nil
}

// CryptoEngineConfig is the slice of c handed to crypto.New.
func (c Config) CryptoEngineConfig() crypto.Config {
	return crypto.Config{
		RSAKeyBits:          c.Crypto.RSAKeyBits,
		AESKeyBytes:         c.Crypto.AESKeyBytes,
		SignatureSaltLength: c.Crypto.SignatureSaltLength,
		MaxMessageBytes:     c.Security.MaxMessageBytes,
	}
}

// StalenessWindow returns the configured window as a duration.
func (c Config) StalenessWindow() time.Duration {
	return time.Duration(c.Security.StalenessWindowSeconds) * time.Second
}

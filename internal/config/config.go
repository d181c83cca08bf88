// Package config builds the CLI settings from environment variables,
// optionally read from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/optimode/emailverify"
	"github.com/optimode/emailverify/internal/disposable"
)

// Environment variables read by Load.
const (
	EnvSMTPTimeout    = "EMAILVERIFY_SMTP_TIMEOUT"
	EnvDNSTimeout     = "EMAILVERIFY_DNS_TIMEOUT"
	EnvHeloIdentity   = "EMAILVERIFY_HELO"
	EnvSender         = "EMAILVERIFY_SENDER"
	EnvSMTPPort       = "EMAILVERIFY_SMTP_PORT"
	EnvNameservers    = "EMAILVERIFY_NAMESERVERS"
	EnvProxyURL       = "EMAILVERIFY_PROXY_URL"
	EnvTypoThreshold  = "EMAILVERIFY_TYPO_THRESHOLD"
	EnvDisposableFile = "EMAILVERIFY_DISPOSABLE_FILE"
	EnvLogLevel       = "EMAILVERIFY_LOG_LEVEL"
	EnvLogJSON        = "EMAILVERIFY_LOG_JSON"
)

// Settings is everything the CLI needs to run.
type Settings struct {
	Verify   emailverify.Config
	LogLevel logrus.Level
	LogJSON  bool
}

// Load reads the given .env files (".env" if none) and then the process
// environment. Missing .env files are ignored; variables already set in the
// environment win over the files. Unset variables keep DefaultConfig values.
func Load(envFiles ...string) (Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	def := emailverify.DefaultConfig()
	cfg := def

	var err error
	if cfg.SMTPTimeout, err = getEnvAsDuration(EnvSMTPTimeout, def.SMTPTimeout); err != nil {
		return Settings{}, err
	}
	if cfg.DNSTimeout, err = getEnvAsDuration(EnvDNSTimeout, def.DNSTimeout); err != nil {
		return Settings{}, err
	}
	if cfg.TypoThreshold, err = getEnvAsInt(EnvTypoThreshold, def.TypoThreshold); err != nil {
		return Settings{}, err
	}
	cfg.HeloIdentity = getEnv(EnvHeloIdentity, def.HeloIdentity)
	cfg.VerificationSender = getEnv(EnvSender, def.VerificationSender)
	cfg.SMTPPort = getEnv(EnvSMTPPort, def.SMTPPort)
	cfg.ProxyURL = getEnv(EnvProxyURL, "")
	cfg.Nameservers = getEnvAsList(EnvNameservers)

	if path := getEnv(EnvDisposableFile, ""); path != "" {
		set, err := loadDisposable(path)
		if err != nil {
			return Settings{}, err
		}
		cfg.DisposableDomains = set
	}

	level, err := logrus.ParseLevel(getEnv(EnvLogLevel, "info"))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	logJSON, err := strconv.ParseBool(getEnv(EnvLogJSON, "false"))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", EnvLogJSON, err)
	}

	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return Settings{Verify: cfg, LogLevel: level, LogJSON: logJSON}, nil
}

// NewLogger returns a logger configured from s, writing to stderr.
func (s Settings) NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(s.LogLevel)
	if s.LogJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

// loadDisposable reads a disposable-domain list file and merges it over the
// embedded default list.
func loadDisposable(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvDisposableFile, err)
	}
	defer func() { _ = f.Close() }()

	set, err := disposable.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvDisposableFile, err)
	}
	return disposable.Default().Merge(set), nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Package config loads graphmail settings from a .env file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys double as flag names.
const (
	KeyEnvFile      = "env-file"
	KeyClientID     = "client-id"
	KeyClientSecret = "client-secret"
	KeyTenant       = "tenant"
	KeyRedirectURL  = "redirect-url"
	KeyTokenStore   = "token-store"
	KeyTokenFile    = "token-file"
	KeyGraphURL     = "graph-url"
	KeyAuthTimeout  = "auth-timeout"
	KeyHTTPTimeout  = "http-timeout"
	KeyTop          = "top"
	KeyDownloadDir  = "download-dir"
	KeyLogLevel     = "log-level"
)

// EnvPrefix prefixes every environment variable except the two legacy
// credential names.
const EnvPrefix = "GRAPHMAIL"

// Defaults.
const (
	DefaultEnvFile     = ".env"
	DefaultTenant      = "consumers"
	DefaultRedirectURL = "http://localhost:8000"
	DefaultTokenStore  = "file"
	DefaultTokenFile   = "refresh_token.txt"
	DefaultGraphURL    = "https://graph.microsoft.com/v1.0"
	DefaultAuthTimeout = 120 * time.Second
	DefaultHTTPTimeout = 30 * time.Second
	DefaultTop         = 10
	DefaultDownloadDir = "attachments"
	DefaultLogLevel    = "warn"

	// maxTop is the largest page size Graph accepts for messages.
	maxTop = 1000
)

// Config is the resolved configuration of one run.
type Config struct {
	ClientID     string
	ClientSecret string
	Tenant       string
	RedirectURL  string

	TokenStore string
	TokenFile  string

	GraphURL    string
	AuthTimeout time.Duration
	HTTPTimeout time.Duration
	Top         int
	DownloadDir string

	LogLevel string
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyEnvFile, DefaultEnvFile, "Path to a .env file with APPLICATION_ID and CLIENT_SECRET")
	fs.String(KeyClientID, "", "Application (client) ID (env: APPLICATION_ID)")
	fs.String(KeyClientSecret, "", "Client secret, empty for public clients (env: CLIENT_SECRET)")
	fs.String(KeyTenant, DefaultTenant, "Microsoft identity platform tenant")
	fs.String(KeyRedirectURL, DefaultRedirectURL, "Loopback redirect URL registered for the application")
	fs.String(KeyTokenStore, DefaultTokenStore, "Where to keep the refresh token: file or keyring")
	fs.String(KeyTokenFile, DefaultTokenFile, "Refresh token file for the file store")
	fs.String(KeyGraphURL, DefaultGraphURL, "Microsoft Graph base URL")
	fs.Duration(KeyAuthTimeout, DefaultAuthTimeout, "How long to wait for the browser login")
	fs.Duration(KeyHTTPTimeout, DefaultHTTPTimeout, "Timeout for each HTTP request")
	fs.Int(KeyTop, DefaultTop, "Number of messages to list")
	fs.String(KeyDownloadDir, DefaultDownloadDir, "Directory for downloaded attachments")
	fs.String(KeyLogLevel, DefaultLogLevel, "Log level: debug, info, warn or error")
}

// Load resolves the configuration. Precedence from highest: changed flags,
// environment, .env file, defaults. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	envFile := DefaultEnvFile
	if flags != nil {
		if f := flags.Lookup(KeyEnvFile); f != nil && f.Value.String() != "" {
			envFile = f.Value.String()
		}
	}

	// godotenv never overrides variables that are already set
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyClientID, EnvPrefix+"_CLIENT_ID", "APPLICATION_ID"); err != nil {
		return nil, fmt.Errorf("binding %s: %w", KeyClientID, err)
	}
	if err := v.BindEnv(KeyClientSecret, EnvPrefix+"_CLIENT_SECRET", "CLIENT_SECRET"); err != nil {
		return nil, fmt.Errorf("binding %s: %w", KeyClientSecret, err)
	}

	v.SetDefault(KeyTenant, DefaultTenant)
	v.SetDefault(KeyRedirectURL, DefaultRedirectURL)
	v.SetDefault(KeyTokenStore, DefaultTokenStore)
	v.SetDefault(KeyTokenFile, DefaultTokenFile)
	v.SetDefault(KeyGraphURL, DefaultGraphURL)
	v.SetDefault(KeyAuthTimeout, DefaultAuthTimeout)
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(KeyTop, DefaultTop)
	v.SetDefault(KeyDownloadDir, DefaultDownloadDir)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	return &Config{
		ClientID:     strings.TrimSpace(v.GetString(KeyClientID)),
		ClientSecret: strings.TrimSpace(v.GetString(KeyClientSecret)),
		Tenant:       v.GetString(KeyTenant),
		RedirectURL:  v.GetString(KeyRedirectURL),
		TokenStore:   v.GetString(KeyTokenStore),
		TokenFile:    v.GetString(KeyTokenFile),
		GraphURL:     v.GetString(KeyGraphURL),
		AuthTimeout:  v.GetDuration(KeyAuthTimeout),
		HTTPTimeout:  v.GetDuration(KeyHTTPTimeout),
		Top:          v.GetInt(KeyTop),
		DownloadDir:  v.GetString(KeyDownloadDir),
		LogLevel:     v.GetString(KeyLogLevel),
	}, nil
}

// Validate checks the settings needed to authenticate and call Graph.
func (c *Config) Validate() error {
	var errs []error

	if c.ClientID == "" {
		errs = append(errs, fmt.Errorf("client ID is required (set APPLICATION_ID or --%s)", KeyClientID))
	}
	if c.Tenant == "" {
		errs = append(errs, fmt.Errorf("tenant must not be empty"))
	}
	if err := validateRedirectURL(c.RedirectURL); err != nil {
		errs = append(errs, err)
	}
	if c.TokenStore != "file" && c.TokenStore != "keyring" {
		errs = append(errs, fmt.Errorf("invalid token store %q, must be one of: file, keyring", c.TokenStore))
	}
	if c.TokenStore == "file" && c.TokenFile == "" {
		errs = append(errs, fmt.Errorf("token file must not be empty"))
	}
	if u, err := url.Parse(c.GraphURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid graph URL %q", c.GraphURL))
	}
	if c.AuthTimeout <= 0 {
		errs = append(errs, fmt.Errorf("auth timeout must be positive, got %s", c.AuthTimeout))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.Top < 1 || c.Top > maxTop {
		errs = append(errs, fmt.Errorf("top must be between 1 and %d, got %d", maxTop, c.Top))
	}

	return errors.Join(errs...)
}

func validateRedirectURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid redirect URL %q: %w", raw, err)
	}
	if u.Scheme != "http" {
		return fmt.Errorf("redirect URL %q must use http", raw)
	}
	if u.Port() == "" {
		return fmt.Errorf("redirect URL %q must include a port", raw)
	}

	host := u.Hostname()
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("redirect URL %q must point at localhost", raw)
}

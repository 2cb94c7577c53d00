package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Mode names a credential source.
type Mode string

const (
	ModeBundle       Mode = "bundle"
	ModeRefreshToken Mode = "refresh_token"
	ModeDefault      Mode = "default"
)

// Config holds credential settings. At most one source may be configured.
type Config struct {
	// CredentialsFile is a path to a credential JSON bundle.
	CredentialsFile string `yaml:"credentials_file" toml:"credentials_file"`

	// CredentialsJSON is an inline credential JSON bundle.
	CredentialsJSON string `yaml:"credentials_json" toml:"credentials_json"`

	// OAuth installed-app client with a long-lived refresh token.
	ClientID     string `yaml:"client_id" toml:"client_id"`
	ClientSecret string `yaml:"client_secret" toml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri" toml:"redirect_uri"`
	RefreshToken string `yaml:"refresh_token" toml:"refresh_token"`

	// Logger reports which source was chosen. Defaults to slog.Default().
	Logger *slog.Logger `yaml:"-" toml:"-"`
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Mode reports which source c selects.
func (c Config) Mode() Mode {
	switch {
	case c.CredentialsFile != "" || c.CredentialsJSON != "":
		return ModeBundle
	case c.ClientID != "" || c.ClientSecret != "" || c.RefreshToken != "":
		return ModeRefreshToken
	default:
		return ModeDefault
	}
}

// Validate checks that the selected source is complete and unambiguous.
func (c Config) Validate() error {
	bundle := c.CredentialsFile != "" || c.CredentialsJSON != ""
	oauth := c.ClientID != "" || c.ClientSecret != "" || c.RefreshToken != ""
	if c.CredentialsFile != "" && c.CredentialsJSON != "" {
		return errors.New("auth: credentials_file and credentials_json are mutually exclusive")
	}
	if bundle && oauth {
		return errors.New("auth: a credential bundle and OAuth client settings are mutually exclusive")
	}
	if oauth {
		switch {
		case c.ClientID == "":
			return errors.New("auth: client_id is required")
		case c.ClientSecret == "":
			return errors.New("auth: client_secret is required")
		case c.RefreshToken == "":
			return errors.New("auth: refresh_token is required")
		}
	}
	return nil
}

// credentialsFile identifies the kind of a JSON bundle.
type credentialsFile struct {
	Type string `json:"type"`
}

// TokenSource builds a token source for the given scopes.
func TokenSource(ctx context.Context, c Config, scopes ...string) (oauth2.TokenSource, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Mode() {
	case ModeBundle:
		data, err := c.bundle()
		if err != nil {
			return nil, err
		}
		return bundleTokenSource(ctx, data, scopes, c.logger())

	case ModeRefreshToken:
		conf := c.OAuthConfig(scopes...)
		c.logger().Debug("using OAuth refresh token", "client_id", c.ClientID)
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}), nil

	default:
		creds, err := google.FindDefaultCredentials(ctx, scopes...)
		if err != nil {
			return nil, fmt.Errorf("auth: find default credentials: %w", err)
		}
		c.logger().Debug("using application default credentials", "project_id", creds.ProjectID)
		return creds.TokenSource, nil
	}
}

// HTTPClient returns an *http.Client that authorizes every request.
func HTTPClient(ctx context.Context, c Config, scopes ...string) (*http.Client, error) {
	ts, err := TokenSource(ctx, c, scopes...)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// OAuthConfig returns the installed-app client configuration for c.
func (c Config) OAuthConfig(scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}
}

func (c Config) bundle() ([]byte, error) {
	if c.CredentialsJSON != "" {
		return []byte(c.CredentialsJSON), nil
	}
	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("auth: read credentials: %w", err)
	}
	return data, nil
}

// bundleTokenSource uses a JWT flow for service accounts and falls back to
// the generic loader for other bundle types (authorized_user,
// external_account).
func bundleTokenSource(ctx context.Context, data []byte, scopes []string, logger *slog.Logger) (oauth2.TokenSource, error) {
	var f credentialsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("auth: parse credentials: %w", err)
	}

	if f.Type == "service_account" {
		conf, err := google.JWTConfigFromJSON(data, scopes...)
		if err != nil {
			return nil, fmt.Errorf("auth: service account: %w", err)
		}
		logger.Info("using service account", "email", conf.Email, "private_key_id", conf.PrivateKeyID)
		return conf.TokenSource(ctx), nil
	}

	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("auth: %s credentials: %w", f.Type, err)
	}
	logger.Info("using credential bundle", "type", f.Type)
	return creds.TokenSource, nil
}

package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Corpus     CorpusConfig      `yaml:"corpus"`
	Catalog    CatalogConfig     `yaml:"catalog"`
	Auth       AuthConfig        `yaml:"auth"`
	Conversion ConversionConfig  `yaml:"conversion"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Corpus.Validate(); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Conversion.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CorpusConfig holds the storage namespaces of the corpus. Root is the
// local directory mounted under Namespace, which is also the default
// namespace for paths without one.
type CorpusConfig struct {
	Root      string         `yaml:"root"`
	Namespace string         `yaml:"namespace"`
	Remotes   []RemoteConfig `yaml:"remotes"`
}

// Validate validates the corpus configuration.
func (c *CorpusConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Namespace, validation.Required, validation.Match(namespaceRe)),
		validation.Field(&c.Remotes),
	); err != nil {
		return err
	}
	seen := map[string]bool{c.Namespace: true}
	for _, r := range c.Remotes {
		if seen[r.Namespace] {
			return fmt.Errorf("namespace %q is mounted twice", r.Namespace)
		}
		seen[r.Namespace] = true
	}
	return nil
}

// RemoteConfig mounts a URL-addressed store, such as an ADLS filesystem,
// under a namespace so partition locations under Root resolve to it.
type RemoteConfig struct {
	Namespace string `yaml:"namespace"`
	Root      string `yaml:"root"`
}

// Validate validates a remote mount.
func (c RemoteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Namespace, validation.Required, validation.Match(namespaceRe)),
		validation.Field(&c.Root, validation.Required, validation.By(httpURL)),
	)
}

var namespaceRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func httpURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL")
	}
	return nil
}

// CatalogConfig holds SQLite catalog configuration.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ConversionConfig tunes the converters.
type ConversionConfig struct {
	// Workers bounds concurrent entity and partition conversions.
	Workers int `yaml:"workers"`
	// Watch re-catalogues model.json files as they change on disk.
	Watch bool `yaml:"watch"`
}

// Validate validates the conversion configuration.
func (c *ConversionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(256)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Corpus: CorpusConfig{
			Root:      "./corpus",
			Namespace: "local",
		},
		Catalog: CatalogConfig{
			Path: "./cdmbridge.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Conversion: ConversionConfig{
			Workers: 8,
			Watch:   true,
		},
	}
}

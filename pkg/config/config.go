package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv
const EnvPrefix = "REALMGEN_"

// ErrSpecRequired is returned when no API description location is configured
var ErrSpecRequired = errors.New("config.spec is required")

// Config represents the complete configuration for a generator run
type Config struct {
	// Spec is the API description file path or HTTP(S) URL
	Spec string `yaml:"spec" env:"SPEC"`
	// Overrides is the optional override patch file; it is rewritten when entries become redundant
	Overrides string `yaml:"overrides" env:"OVERRIDES"`
	// ValidateSpec runs OpenAPI schema validation before generation
	ValidateSpec bool `yaml:"validate" env:"VALIDATE"`
	// LogLevel is one of debug, info, warn, error
	LogLevel    string   `yaml:"logLevel" env:"LOG_LEVEL"`
	IncludeTags []string `yaml:"includeTags" env:"INCLUDE_TAGS"`
	ExcludeTags []string `yaml:"excludeTags" env:"EXCLUDE_TAGS"`
	// PostCommand runs after output is written to a file; "{file}" is replaced by its path
	PostCommand []string `yaml:"postCommand" env:"POST_COMMAND"`
	Target      Target   `yaml:"target" envPrefix:"TARGET_"`
}

// PostCommandFor returns the post-generation command for file, or nil if none is configured
func (c *Config) PostCommandFor(file string) []string {
	if len(c.PostCommand) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.PostCommand)+1)
	substituted := false
	for _, arg := range c.PostCommand {
		if strings.Contains(arg, "{file}") {
			arg = strings.ReplaceAll(arg, "{file}", file)
			substituted = true
		}
		out = append(out, arg)
	}
	if !substituted {
		out = append(out, file)
	}
	return out
}

// Target names the pieces of the generated client the emitters refer to
type Target struct {
	// PathPrefix is stripped from routes before method names are derived
	PathPrefix string `yaml:"pathPrefix" env:"PATH_PREFIX"`
	// ScopeParameter is the path parameter supplied implicitly by the scoped client
	ScopeParameter   string `yaml:"scopeParameter" env:"SCOPE_PARAMETER"`
	ClientType       string `yaml:"clientType" env:"CLIENT_TYPE"`
	ScopedClientType string `yaml:"scopedClientType" env:"SCOPED_CLIENT_TYPE"`
	MethodTrait      string `yaml:"methodTrait" env:"METHOD_TRAIT"`
	TokenSupplier    string `yaml:"tokenSupplier" env:"TOKEN_SUPPLIER"`
	ErrorType        string `yaml:"errorType" env:"ERROR_TYPE"`
	// DocsURL is the REST reference page linked from method docs; empty disables the link
	DocsURL string `yaml:"docsURL" env:"DOCS_URL"`
}

// DefaultTarget returns the naming of the Keycloak admin client
func DefaultTarget() Target {
	return Target{
		PathPrefix:       "/admin/realms",
		ScopeParameter:   "realm",
		ClientType:       "KeycloakAdmin",
		ScopedClientType: "KeycloakRealmAdmin",
		MethodTrait:      "KeycloakRealmAdminMethod",
		TokenSupplier:    "KeycloakTokenSupplier",
		ErrorType:        "KeycloakError",
		DocsURL:          "https://www.keycloak.org/docs-api/26.4.0/rest-api/index.html",
	}
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Target:   DefaultTarget(),
	}
}

// Load loads configuration from a YAML file on top of the defaults.
// Relative spec and overrides paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.Spec = resolve(base, cfg.Spec)
	cfg.Overrides = resolve(base, cfg.Overrides)
	return cfg, nil
}

// ApplyEnv overlays REALMGEN_* variables from environ (os.Environ when nil).
// Unset variables leave the current values alone.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if c.Spec == "" {
		return ErrSpecRequired
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// IsURL reports whether location is an HTTP(S) URL
func IsURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func resolve(base, location string) string {
	// Do not absolutize when location is an HTTP(S) URL
	if location == "" || IsURL(location) || filepath.IsAbs(location) {
		return location
	}
	abs, err := filepath.Abs(filepath.Join(base, location))
	if err != nil {
		return filepath.Join(base, location)
	}
	return abs
}

// Package config loads Settings from layered YAML files and APP_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	appDirName = "go-rakh-starter"
	// DefaultDir is used when no per-user configuration directory exists.
	DefaultDir = "configuration"
	// EnvPrefix prefixes every environment override, e.g. APP_SERVER_PORT.
	EnvPrefix = "APP"
)

type Settings struct {
	Server   ServerSettings   `yaml:"server" validate:"required"`
	Database DatabaseSettings `yaml:"database" validate:"required"`
	Redis    RedisSettings    `yaml:"redis" validate:"required"`
	OAuth    OAuthSettings    `yaml:"oauth" validate:"required"`
	Auth     AuthSettings     `yaml:"auth"`
	Log      LogSettings      `yaml:"log"`
}

type ServerSettings struct {
	Host           string        `yaml:"host" validate:"required"`
	Port           int           `yaml:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// Address returns host:port.
func (s ServerSettings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type DatabaseSettings struct {
	Username     string `yaml:"username" validate:"required"`
	Password     string `yaml:"password"`
	Host         string `yaml:"host" validate:"required"`
	Port         int    `yaml:"port" validate:"required,min=1,max=65535"`
	Database     string `yaml:"database" validate:"required"`
	SSLMode      string `yaml:"ssl_mode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
	MaxOpenConns int    `yaml:"max_open_conns" validate:"min=0"`
}

// DSN returns the lib/pq connection URL.
func (d DatabaseSettings) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// String omits the password.
func (d DatabaseSettings) String() string {
	return fmt.Sprintf("postgres://%s@%s/%s", d.Username, net.JoinHostPort(d.Host, strconv.Itoa(d.Port)), d.Database)
}

type RedisSettings struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required,min=1,max=65535"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
}

func (r RedisSettings) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

type OAuthSettings struct {
	Issuer      string `yaml:"issuer" validate:"required"`
	Audience    string `yaml:"audience" validate:"required"`
	JWKSURL     string `yaml:"jwks_url" validate:"required,url"`
	UserinfoURL string `yaml:"userinfo_url" validate:"required,url"`
}

// AuthSettings configures the pre-shared secret mode. An empty Secret turns
// it off.
type AuthSettings struct {
	Secret string `yaml:"secret"`
}

type LogSettings struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// Dir returns the configuration directory: the per-user config directory
// when it exists, DefaultDir otherwise.
func Dir() string {
	if base, err := os.UserConfigDir(); err == nil {
		dir := filepath.Join(base, appDirName)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return DefaultDir
}

// Load reads base.yml from Dir, overlays <environment>.yml when present and
// applies APP_* environment overrides.
func Load(environment string) (*Settings, error) {
	return LoadDir(Dir(), environment, os.Environ())
}

// LoadDir is Load with an explicit directory and environment.
func LoadDir(dir, environment string, environ []string) (*Settings, error) {
	tree, err := readTree(filepath.Join(dir, "base.yml"))
	if err != nil {
		return nil, err
	}
	if environment != "" {
		overlay, err := readTree(filepath.Join(dir, environment+".yml"))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			tree = deepMerge(tree, overlay)
		}
	}
	tree = deepMerge(tree, envTree(EnvPrefix, environ, tree))
	return decode(tree)
}

// LoadFile reads a single file with no overlays.
func LoadFile(path string) (*Settings, error) {
	tree, err := readTree(path)
	if err != nil {
		return nil, err
	}
	return decode(tree)
}

// Validate checks required fields and ranges.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

func readTree(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	tree := map[string]any{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return tree, nil
}

func decode(tree map[string]any) (*Settings, error) {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("config: marshal merged config: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func deepMerge(base, overlay map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		if baseMap, ok := result[k].(map[string]any); ok {
			if overlayMap, ok := v.(map[string]any); ok {
				result[k] = deepMerge(baseMap, overlayMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

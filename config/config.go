// Package config loads the server configuration: a TOML file, an optional
// .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Mode is the running mode.
type Mode string

// Modes.
const (
	Development Mode = "development"
	Production  Mode = "production"
	Test        Mode = "test"
)

// Duration reads "1h30m" style values.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config stores the server configuration.
type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Mode        Mode   `toml:"mode"`
	Version     string `toml:"version"`
	Environment string `toml:"environment"`
	// Codec is "vips" or "native".
	Codec string `toml:"codec"`
	// Pngquant is the binary used to recompress PNG outputs, "off" disables it.
	Pngquant string `toml:"pngquant"`

	Cache      CacheConfig      `toml:"cache"`
	Source     SourceConfig     `toml:"source"`
	Supabase   SupabaseConfig   `toml:"supabase"`
	Log        LogConfig        `toml:"log"`
	Monitoring MonitoringConfig `toml:"monitoring"`
}

// CacheConfig covers the in-process caches and the HTTP cache headers.
type CacheConfig struct {
	Images     string   `toml:"images"`
	Thumbnails string   `toml:"thumbnails"`
	Self       string   `toml:"self"`
	Peers      []string `toml:"peers"`

	MaxAge               Duration `toml:"max_age"`
	StaleWhileRevalidate Duration `toml:"stale_while_revalidate"`
	StaleIfError         Duration `toml:"stale_if_error"`

	ImagesSize     int64 `toml:"-"`
	ThumbnailsSize int64 `toml:"-"`
}

// SourceConfig picks the storage backend.
type SourceConfig struct {
	// Name is one of supabase, http, disk, s3 or minio.
	Name    string      `toml:"name"`
	URL     string      `toml:"url"`
	Path    string      `toml:"path"`
	Timeout Duration    `toml:"timeout"`
	S3      S3Config    `toml:"s3"`
	Minio   MinioConfig `toml:"minio"`
}

// S3Config is for the AWS SDK.
type S3Config struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	PathStyle       bool   `toml:"path_style"`
}

// MinioConfig is for the MinIO client.
type MinioConfig struct {
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UseSSL          bool   `toml:"use_ssl"`
}

// SupabaseConfig locates the storage project.
type SupabaseConfig struct {
	ProjectURL     string `toml:"project_url"`
	ServiceRoleKey string `toml:"service_role_key"`
}

// LogConfig sets the level and the optional rotating file.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"`
}

// MonitoringConfig exposes the Prometheus metrics on a separate bind.
type MonitoringConfig struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        3000,
		Mode:        Development,
		Version:     "dev",
		Environment: "local",
		Codec:       "vips",
		Pngquant:    "pngquant",
		Cache: CacheConfig{
			Images:     "64M",
			Thumbnails: "128M",
			MaxAge:     Duration{365 * 24 * time.Hour},
		},
		Source: SourceConfig{
			Name:    "supabase",
			Timeout: Duration{30 * time.Second},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Monitoring: MonitoringConfig{
			Bind: "0.0.0.0:9100",
		},
	}
}

// Load reads the .env file, the TOML file and the environment. A missing
// file is only an error when it was asked for explicitly.
func Load(file string, explicit bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot read .env: %w", err)
	}

	c := Default()

	if file != "" {
		_, err := toml.DecodeFile(file, c)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return nil, fmt.Errorf("cannot read %s: %w", file, err)
		}
	}

	if err := c.FromEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := c.Finalize(); err != nil {
		return nil, err
	}

	return c, nil
}

// FromEnv overrides the configuration with the environment.
func (c *Config) FromEnv(lookup func(string) (string, bool)) error {
	vars := map[string]*string{
		"HOST":                      &c.Host,
		"APP_VERSION":               &c.Version,
		"APP_ENV":                   &c.Environment,
		"SUPABASE_PROJECT_URL":      &c.Supabase.ProjectURL,
		"SUPABASE_SERVICE_ROLE_KEY": &c.Supabase.ServiceRoleKey,
		"RESIZER_CODEC":             &c.Codec,
		"RESIZER_SOURCE":            &c.Source.Name,
		"LOG_LEVEL":                 &c.Log.Level,
	}

	for name, dest := range vars {
		if v, ok := lookup(name); ok && v != "" {
			*dest = v
		}
	}

	if v, ok := lookup("APP_MODE"); ok && v != "" {
		c.Mode = Mode(v)
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT %#v is not a number", v)
		}
		c.Port = port
	}

	return nil
}

// Finalize parses the byte sizes and checks the mode.
func (c *Config) Finalize() error {
	switch c.Mode {
	case Development, Production, Test:
	case "":
		c.Mode = Development
	default:
		return fmt.Errorf("unknown mode %#v", string(c.Mode))
	}

	iS, err := bytefmt.ToBytes(c.Cache.Images)
	if err != nil {
		return fmt.Errorf("cache.images: %w", err)
	}
	tS, err := bytefmt.ToBytes(c.Cache.Thumbnails)
	if err != nil {
		return fmt.Errorf("cache.thumbnails: %w", err)
	}
	c.Cache.ImagesSize = int64(iS)
	c.Cache.ThumbnailsSize = int64(tS)

	return nil
}

// Listen is the host:port address.
func (c *Config) Listen() string {
	return fmt.Sprintf("%v:%v", c.Host, c.Port)
}

// TrustProxy reports whether the X-Forwarded-* headers are honoured.
func (c *Config) TrustProxy() bool {
	return c.Mode == Production
}

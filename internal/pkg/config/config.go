package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Measure    MeasureConfig    `mapstructure:"measure"`
	Imagery    ImageryConfig    `mapstructure:"imagery"`
	Footprints FootprintsConfig `mapstructure:"footprints"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
}

// MeasureConfig fixes the raster frame and the geometry defaults.
type MeasureConfig struct {
	Zoom              int     `mapstructure:"zoom"`
	ImageWidth        int     `mapstructure:"image_width"`
	ImageHeight       int     `mapstructure:"image_height"`
	DistanceModel     string  `mapstructure:"distance_model"`
	FallbackHalfSizeM float64 `mapstructure:"fallback_half_size_m"`
	LabelOffsetPx     float64 `mapstructure:"label_offset_px"`
}

// Model parses DistanceModel. Validate has already rejected bad values.
func (m MeasureConfig) Model() geospatial.DistanceModel {
	dm, err := geospatial.ParseDistanceModel(m.DistanceModel)
	if err != nil {
		return geospatial.GreatCircle
	}
	return dm
}

type ImageryConfig struct {
	Provider     string `mapstructure:"provider"`
	GoogleAPIKey string `mapstructure:"google_api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Timeout      int    `mapstructure:"timeout"`
}

type FootprintsConfig struct {
	Providers     []string `mapstructure:"providers"`
	MapboxToken   string   `mapstructure:"mapbox_token"`
	MapboxURL     string   `mapstructure:"mapbox_url"`
	MapboxRadius  int      `mapstructure:"mapbox_radius"`
	OverpassURL   string   `mapstructure:"overpass_url"`
	OverpassRadii []int    `mapstructure:"overpass_radii"`
	Timeout       int      `mapstructure:"timeout"`
	CacheTTL      int      `mapstructure:"cache_ttl"`
}

// Uses reports whether provider name is configured.
func (f FootprintsConfig) Uses(name string) bool {
	for _, p := range f.Providers {
		if p == name {
			return true
		}
	}
	return false
}

type DatabaseConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Host         string  `mapstructure:"host"`
	Port         int     `mapstructure:"port"`
	User         string  `mapstructure:"user"`
	Password     string  `mapstructure:"password"`
	DBName       string  `mapstructure:"dbname"`
	SSLMode      string  `mapstructure:"sslmode"`
	MaxConns     int32   `mapstructure:"max_conns"`
	SearchRadius float64 `mapstructure:"search_radius"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	return LoadWithFlags(service, nil)
}

// LoadWithFlags is Load with command-line flags bound on top. Flag names use
// the config keys, e.g. --measure.zoom.
func LoadWithFlags(service string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := load(service, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase loads the configuration for tools that only talk to the
// database; only the database section is validated.
func LoadDatabase(service string) (*Config, error) {
	cfg, err := load(service, nil)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Database.validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	return cfg, nil
}

func load(service string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: OSMAPI_IMAGERY_GOOGLE_API_KEY → imagery.google_api_key
	v.SetEnvPrefix("OSMAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.request_timeout", 25)

	v.SetDefault("measure.zoom", 20)
	v.SetDefault("measure.image_width", 600)
	v.SetDefault("measure.image_height", 600)
	v.SetDefault("measure.distance_model", "great_circle")
	v.SetDefault("measure.fallback_half_size_m", geospatial.DefaultFallbackHalfSize)
	v.SetDefault("measure.label_offset_px", geospatial.DefaultLabelOffset)

	v.SetDefault("imagery.provider", "google")
	v.SetDefault("imagery.base_url", "https://maps.googleapis.com")
	v.SetDefault("imagery.timeout", 10)

	v.SetDefault("footprints.providers", []string{"mapbox", "overpass"})
	v.SetDefault("footprints.mapbox_url", "https://api.mapbox.com")
	v.SetDefault("footprints.mapbox_radius", 10)
	v.SetDefault("footprints.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("footprints.overpass_radii", []int{5, 15, 30})
	v.SetDefault("footprints.timeout", 15)
	v.SetDefault("footprints.cache_ttl", 86400)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "osmapi")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "osmapi")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.search_radius", 25)

	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.prefix", "osmapi:")

	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

var knownProviders = map[string]bool{"postgis": true, "mapbox": true, "overpass": true}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}

	if c.Measure.Zoom < 0 || c.Measure.Zoom > geospatial.MaxZoom {
		errs = append(errs, fmt.Sprintf("measure.zoom must be 0-%d, got %d", geospatial.MaxZoom, c.Measure.Zoom))
	}
	if c.Measure.ImageWidth <= 0 || c.Measure.ImageHeight <= 0 {
		errs = append(errs, fmt.Sprintf("measure.image_width/height must be positive, got %dx%d",
			c.Measure.ImageWidth, c.Measure.ImageHeight))
	}
	if _, err := geospatial.ParseDistanceModel(c.Measure.DistanceModel); err != nil {
		errs = append(errs, fmt.Sprintf("measure.distance_model: %v", err))
	}
	if c.Measure.FallbackHalfSizeM <= 0 {
		errs = append(errs, "measure.fallback_half_size_m must be positive")
	}

	switch c.Imagery.Provider {
	case "google":
		if c.Imagery.GoogleAPIKey == "" {
			errs = append(errs, "imagery.google_api_key is required when imagery.provider is google")
		}
	case "blank":
	default:
		errs = append(errs, fmt.Sprintf("imagery.provider must be google or blank, got %q", c.Imagery.Provider))
	}

	for _, p := range c.Footprints.Providers {
		if !knownProviders[p] {
			errs = append(errs, fmt.Sprintf("footprints.providers: unknown provider %q", p))
		}
	}
	if c.Footprints.Uses("mapbox") && c.Footprints.MapboxToken == "" {
		errs = append(errs, "footprints.mapbox_token is required when mapbox is a footprint provider")
	}
	if c.Footprints.Uses("postgis") && !c.Database.Enabled {
		errs = append(errs, "database.enabled must be true when postgis is a footprint provider")
	}
	for _, r := range c.Footprints.OverpassRadii {
		if r <= 0 {
			errs = append(errs, fmt.Sprintf("footprints.overpass_radii must be positive, got %d", r))
		}
	}

	if c.Database.Enabled {
		errs = append(errs, c.Database.validate()...)
	}

	if len(errs) > 0 {
		return validationError(errs)
	}
	return nil
}

func (d DatabaseConfig) validate() []string {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user is required")
	}
	if d.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	return errs
}

func validationError(errs []string) error {
	return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
}

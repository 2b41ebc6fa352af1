// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"receipt-encoder/pkg/escpos/canvas"
	"receipt-encoder/pkg/escpos/layout"
	"receipt-encoder/pkg/escpos/raster"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Printer  PrinterConfig  `mapstructure:"printer"`
	Canvas   CanvasConfig   `mapstructure:"canvas"`
	Layout   layout.Metrics `mapstructure:"layout"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	MaxDocumentBytes int64    `mapstructure:"max_document_bytes"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PrinterConfig holds the defaults applied to every document
type PrinterConfig struct {
	Profile        string        `mapstructure:"profile"`
	Codepage       string        `mapstructure:"codepage"`
	Classifier     string        `mapstructure:"classifier"`
	Initialize     bool          `mapstructure:"initialize"`
	Dither         string        `mapstructure:"dither"`
	Threshold      int           `mapstructure:"threshold"`
	MaxStripHeight int           `mapstructure:"max_strip_height"`
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
}

// CanvasConfig configures documents rendered on the host
type CanvasConfig struct {
	Surface        string `mapstructure:"surface"`
	FontFile       string `mapstructure:"font_file"`
	canvas.Options `mapstructure:",squash"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from config.yaml and RECEIPT_ENCODER_* environment
// variables. A missing file leaves the defaults in place.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "../../internal/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable support
	v.SetEnvPrefix("RECEIPT_ENCODER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8086")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.tls.enabled", false)

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.max_document_bytes", 8<<20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Printer defaults
	v.SetDefault("printer.profile", layout.Profile58mm)
	v.SetDefault("printer.codepage", "")
	v.SetDefault("printer.classifier", layout.ClassifierCodepoint)
	v.SetDefault("printer.initialize", true)
	v.SetDefault("printer.dither", string(raster.Threshold))
	v.SetDefault("printer.threshold", raster.DefaultThreshold)
	v.SetDefault("printer.max_strip_height", 1662)
	v.SetDefault("printer.job_timeout", "10s")

	// Canvas defaults
	d := canvas.DefaultOptions()
	v.SetDefault("canvas.surface", canvas.SurfaceRaster)
	v.SetDefault("canvas.font_file", "")
	v.SetDefault("canvas.font_size_normal", d.FontSizeNormal)
	v.SetDefault("canvas.font_size_large", d.FontSizeLarge)
	v.SetDefault("canvas.line_height_normal", d.LineHeightNormal)
	v.SetDefault("canvas.line_height_large", d.LineHeightLarge)
	v.SetDefault("canvas.line_interval", d.LineInterval)
	v.SetDefault("canvas.foot", d.Foot)
	v.SetDefault("canvas.rtl", false)

	// App defaults
	v.SetDefault("app.name", "receipt-encoder")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !slices.Contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !slices.Contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	if _, ok := layout.LookupProfile(config.Printer.Profile); !ok {
		return fmt.Errorf("printer.profile %q is not a known profile", config.Printer.Profile)
	}
	if _, ok := layout.ClassifierByName(config.Printer.Classifier); !ok {
		return fmt.Errorf("printer.classifier %q is not a known classifier", config.Printer.Classifier)
	}
	if _, err := raster.ParseAlgorithm(config.Printer.Dither); err != nil {
		return fmt.Errorf("printer.dither: %w", err)
	}
	if config.Printer.Threshold < 0 || config.Printer.Threshold > 255 {
		return fmt.Errorf("printer.threshold must be between 0 and 255")
	}
	if config.Printer.MaxStripHeight < 8 {
		return fmt.Errorf("printer.max_strip_height must be at least 8")
	}

	switch strings.ToLower(config.Canvas.Surface) {
	case canvas.SurfaceRaster, canvas.SurfaceVector:
	default:
		return fmt.Errorf("canvas.surface must be %q or %q", canvas.SurfaceRaster, canvas.SurfaceVector)
	}

	return nil
}

// RasterOptions returns the configured dithering
func (c *Config) RasterOptions() raster.Options {
	algorithm, _ := raster.ParseAlgorithm(c.Printer.Dither)
	return raster.Options{Algorithm: algorithm, Threshold: uint8(c.Printer.Threshold)}
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}

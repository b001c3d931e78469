package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/loadcsv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. NEO4J_URI or
// NEO4J_CSV_BATCH_SIZE.
const EnvPrefix = "NEO4J"

// Config is the server and CLI configuration.
type Config struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// ReadOnly hides every tool that writes to the database.
	ReadOnly bool `mapstructure:"read_only"`

	Telemetry         bool   `mapstructure:"telemetry"`
	AnalyticsEndpoint string `mapstructure:"analytics_endpoint"`

	// ManifestDir holds import manifests loaded next to the embedded ones.
	// A manifest on disk replaces an embedded manifest of the same name.
	ManifestDir string `mapstructure:"manifest_dir"`
	// ImportDir resolves relative CSV paths. It should be the import
	// directory of the Neo4j server so LOAD CSV sees the same files.
	ImportDir   string `mapstructure:"import_dir"`
	Concurrency int    `mapstructure:"concurrency"`

	Log LogConfig `mapstructure:"log"`
	CSV CSVConfig `mapstructure:"csv"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CSVConfig is the textual form of loadcsv.Config.
type CSVConfig struct {
	FieldSeparator         string `mapstructure:"field_separator"`
	ArraySeparator         string `mapstructure:"array_separator"`
	Quote                  string `mapstructure:"quote"`
	SkipHeaderRow          bool   `mapstructure:"skip_header_row"`
	StringIDs              bool   `mapstructure:"string_ids"`
	BatchSize              int    `mapstructure:"batch_size"`
	PermissiveNames        bool   `mapstructure:"permissive_names"`
	LegacyEndpointFallback bool   `mapstructure:"legacy_endpoint_fallback"`
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for environment variables to be picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	csv := loadcsv.DefaultConfig()

	v.SetDefault("uri", "bolt://localhost:7687")
	v.SetDefault("username", "neo4j")
	v.SetDefault("password", "password")
	v.SetDefault("database", "neo4j")
	v.SetDefault("read_only", false)
	v.SetDefault("telemetry", false)
	v.SetDefault("analytics_endpoint", "")
	v.SetDefault("manifest_dir", "tools/config")
	v.SetDefault("import_dir", "")
	v.SetDefault("concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("csv.field_separator", string(csv.FieldSeparator))
	v.SetDefault("csv.array_separator", string(csv.ArraySeparator))
	v.SetDefault("csv.quote", string(csv.Quote))
	v.SetDefault("csv.skip_header_row", csv.SkipHeaderRow)
	v.SetDefault("csv.string_ids", csv.StringIDs)
	v.SetDefault("csv.batch_size", csv.BatchSize)
	v.SetDefault("csv.permissive_names", csv.PermissiveNames)
	v.SetDefault("csv.legacy_endpoint_fallback", csv.LegacyEndpointFallback)
}

// Load reads defaults, an optional config file and NEO4J_* environment
// variables into a validated Config. Flags bound to v take precedence.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("NEO4J_URI is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("NEO4J_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}
	if c.Telemetry && c.AnalyticsEndpoint == "" {
		return fmt.Errorf("NEO4J_ANALYTICS_ENDPOINT is required when telemetry is enabled")
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("NEO4J_LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	if _, err := c.LoaderConfig(); err != nil {
		return err
	}
	return nil
}

// LoaderConfig converts the CSV section into a validated loader configuration.
func (c *Config) LoaderConfig() (loadcsv.Config, error) {
	fieldSep, err := loadcsv.ParseSeparator(c.CSV.FieldSeparator)
	if err != nil {
		return loadcsv.Config{}, fmt.Errorf("NEO4J_CSV_FIELD_SEPARATOR: %w", err)
	}
	arraySep, err := loadcsv.ParseSeparator(c.CSV.ArraySeparator)
	if err != nil {
		return loadcsv.Config{}, fmt.Errorf("NEO4J_CSV_ARRAY_SEPARATOR: %w", err)
	}
	if utf8.RuneCountInString(c.CSV.Quote) > 1 {
		return loadcsv.Config{}, fmt.Errorf("NEO4J_CSV_QUOTE must be at most one character, got %q", c.CSV.Quote)
	}
	quote, _ := utf8.DecodeRuneInString(c.CSV.Quote)
	if quote == utf8.RuneError {
		quote = 0
	}

	cfg := loadcsv.Config{
		FieldSeparator:         fieldSep,
		ArraySeparator:         arraySep,
		Quote:                  quote,
		SkipHeaderRow:          c.CSV.SkipHeaderRow,
		StringIDs:              c.CSV.StringIDs,
		BatchSize:              c.CSV.BatchSize,
		PermissiveNames:        c.CSV.PermissiveNames,
		LegacyEndpointFallback: c.CSV.LegacyEndpointFallback,
	}
	if err := cfg.Validate(); err != nil {
		return loadcsv.Config{}, fmt.Errorf("invalid CSV configuration: %w", err)
	}
	return cfg, nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("NEO4J_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger. w must not be stdout when the stdio
// transport is used.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

package types

import "errors"

// Config holds backend selection and the tunables of a catalog sync run.
type Config struct {
	Backend    string           `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir    string           `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	DSN        string           `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	Sync       SyncConfig       `json:"sync" yaml:"sync" mapstructure:"sync"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" mapstructure:"logging"`
	Vocabulary VocabularyConfig `json:"vocabulary" yaml:"vocabulary" mapstructure:"vocabulary"`
}

// SyncConfig controls how records are applied to the store.
type SyncConfig struct {
	// SourceName and SourceURL identify the origin of price observations.
	SourceName string `json:"source_name" yaml:"source_name" mapstructure:"source_name"`
	SourceURL  string `json:"source_url" yaml:"source_url" mapstructure:"source_url"`

	// PageSize is the number of records per page when a record file is
	// replayed through the pagination loop. Zero selects DefaultPageSize.
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// PruneStaleAttributes replaces a product's association set on every
	// sync instead of only adding to it.
	PruneStaleAttributes bool `json:"prune_stale_attributes" yaml:"prune_stale_attributes" mapstructure:"prune_stale_attributes"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// VocabularyConfig holds translation entries merged over the built-in tables.
type VocabularyConfig struct {
	Materials map[string]string `json:"materials,omitempty" yaml:"materials,omitempty" mapstructure:"materials"`
	SizeTerms map[string]string `json:"size_terms,omitempty" yaml:"size_terms,omitempty" mapstructure:"size_terms"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendLibSQL = "libsql"
)

// Defaults applied by DefaultConfig.
const (
	DefaultSourceName = "maileg"
	DefaultSourceURL  = "https://maileg.com/de/collections/mause"
	DefaultPageSize   = 24
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrDSNEmpty         = errors.New("libsql backend requires a dsn")
	ErrPageSizeInvalid  = errors.New("page size must not be negative")
	ErrSourceURLEmpty   = errors.New("source url must not be empty")
	ErrLogLevelUnknown  = errors.New("unknown log level")
	ErrLogFormatUnknown = errors.New("unknown log format")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendLibSQL: true,
}

var (
	knownLogLevels  = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}
	knownLogFormats = map[string]bool{"": true, "text": true, "json": true}
)

// DefaultConfig returns a Config for the local SQLite backend.
func DefaultConfig() Config {
	return Config{
		Backend: BackendSQLite,
		Sync: SyncConfig{
			SourceName: DefaultSourceName,
			SourceURL:  DefaultSourceURL,
			PageSize:   DefaultPageSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendLibSQL && c.DSN == "" {
		return ErrDSNEmpty
	}
	if c.Sync.PageSize < 0 {
		return ErrPageSizeInvalid
	}
	if c.Sync.SourceName != "" && c.Sync.SourceURL == "" {
		return ErrSourceURLEmpty
	}
	if !knownLogLevels[c.Logging.Level] {
		return ErrLogLevelUnknown
	}
	if !knownLogFormats[c.Logging.Format] {
		return ErrLogFormatUnknown
	}
	return nil
}

// EffectivePageSize returns PageSize, or DefaultPageSize when unset.
func (s SyncConfig) EffectivePageSize() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/catalog/internal/paths"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "CATALOG"
)

// envKeys are the config keys that CATALOG_* variables override, for
// example CATALOG_SYNC_PAGE_SIZE. data_dir is resolved by the paths package
// and vocabulary tables are file-only.
var envKeys = []string{
	"backend",
	"dsn",
	"sync.source_name",
	"sync.source_url",
	"sync.page_size",
	"sync.prune_stale_attributes",
	"logging.level",
	"logging.format",
}

// loadConfig reads config.yaml from configDir over the defaults. A missing
// file is not an error.
func loadConfig(configDir string) (types.Config, error) {
	def := types.DefaultConfig()

	v := viper.New()
	v.SetDefault("backend", def.Backend)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("dsn", def.DSN)
	v.SetDefault("sync.source_name", def.Sync.SourceName)
	v.SetDefault("sync.source_url", def.Sync.SourceURL)
	v.SetDefault("sync.page_size", def.Sync.PageSize)
	v.SetDefault("sync.prune_stale_attributes", def.Sync.PruneStaleAttributes)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return types.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}

	// Viper folds map keys to lower case; translation tables are matched
	// case-sensitively, so they are read from the file directly.
	vocab, err := readVocabulary(filepath.Join(configDir, paths.ConfigFile))
	if err != nil {
		return types.Config{}, err
	}
	cfg.Vocabulary = vocab
	return cfg, nil
}

func readVocabulary(path string) (types.VocabularyConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return types.VocabularyConfig{}, nil
	}
	if err != nil {
		return types.VocabularyConfig{}, fmt.Errorf("read config: %w", err)
	}
	var file struct {
		Vocabulary types.VocabularyConfig `yaml:"vocabulary"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return types.VocabularyConfig{}, fmt.Errorf("decode vocabulary: %w", err)
	}
	return file.Vocabulary, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether a file was written.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, paths.ConfigFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := types.DefaultConfig()
	cfg.DataDir = dataDir
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := "# catalog configuration\n# Environment overrides use the CATALOG_ prefix, e.g. CATALOG_SYNC_PAGE_SIZE.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

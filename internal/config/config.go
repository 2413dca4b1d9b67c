// internal/config/config.go

// Package config loads scan settings from a YAML file and LICET_ environment
// variables layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full user-tunable surface. Anything not set in the file or
// environment keeps its default.
type Config struct {
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
	FuzzyThreshold      int           `mapstructure:"fuzzy_threshold"`
	ConfirmThreshold    int           `mapstructure:"confirm_threshold"`
	UnitTimeout         time.Duration `mapstructure:"unit_timeout"`
	Threads             int           `mapstructure:"threads"`

	MaxFileSize     int64 `mapstructure:"max_file_size"`
	MaxSourceFiles  int   `mapstructure:"max_source_files"`
	SourceHeadBytes int   `mapstructure:"source_head_bytes"`

	// CustomAliases maps additional license names to canonical ids, layered
	// over the built-in alias table.
	CustomAliases map[string]string `mapstructure:"custom_aliases"`

	// LicensePatterns are extra filename globs treated as license files.
	LicensePatterns []string `mapstructure:"license_patterns"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("similarity_threshold", 0.97)
	v.SetDefault("fuzzy_threshold", 30)
	v.SetDefault("confirm_threshold", 100)
	v.SetDefault("unit_timeout", 30*time.Second)
	v.SetDefault("threads", 0) // 0 = number of CPUs
	v.SetDefault("max_file_size", 1<<20)
	v.SetDefault("max_source_files", 100)
	v.SetDefault("source_head_bytes", 16<<10)
}

// Load reads configuration from path, or from .licet.yaml in the working
// directory and $HOME when path is empty. A missing file is not an error; an
// unreadable or malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LICET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(".licet")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// sample is the annotated config written by `licet config init`.
const sample = `# licet configuration
#
# Detection thresholds.
similarity_threshold: 0.97 # bigram similarity acceptance (0-1)
fuzzy_threshold: 30        # fuzzy-hash standalone distance bound
confirm_threshold: 100     # relaxed bound confirming similarity matches
unit_timeout: 30s          # per-file processing bound
threads: 0                 # 0 = number of CPUs

# Scanner limits.
max_file_size: 1048576   # bytes read per file
max_source_files: 100    # source files swept for headers per scan
source_head_bytes: 16384 # bytes of each source file kept for detection

# Map additional license names to canonical ids.
custom_aliases: {}
#  "Our Internal License": "MIT"

# Extra filename globs treated as license files.
license_patterns: []
#  - "LEGAL*"
`

// WriteSample writes the annotated sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return os.WriteFile(path, []byte(sample), 0o644)
}

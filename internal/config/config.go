package config

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save
const CurrentVersion = 1

// DirName is the per-project config directory
const DirName = ".filoc"

// EnvPrefix is the prefix for environment overrides (FILOC_RANKING_TOPN etc.)
const EnvPrefix = "FILOC"

// Config represents the complete filoc configuration
type Config struct {
	Version int `toml:"version" json:"version" mapstructure:"version"`

	Ranking   RankingConfig   `toml:"ranking" json:"ranking" mapstructure:"ranking"`
	Embedder  EmbedderConfig  `toml:"embedder" json:"embedder" mapstructure:"embedder"`
	Cache     CacheConfig     `toml:"cache" json:"cache" mapstructure:"cache"`
	Workspace WorkspaceConfig `toml:"workspace" json:"workspace" mapstructure:"workspace"`
	Lister    ListerConfig    `toml:"lister" json:"lister" mapstructure:"lister"`
	Eval      EvalConfig      `toml:"eval" json:"eval" mapstructure:"eval"`
	Logging   LoggingConfig   `toml:"logging" json:"logging" mapstructure:"logging"`
}

// RankingConfig controls candidate scoring and selection
type RankingConfig struct {
	TopN            int        `toml:"topN" json:"topN" mapstructure:"topN"`
	WeightLexical   float64    `toml:"weightLexical" json:"weightLexical" mapstructure:"weightLexical"`
	WeightSemantic  float64    `toml:"weightSemantic" json:"weightSemantic" mapstructure:"weightSemantic"`
	Representation  string     `toml:"representation" json:"representation" mapstructure:"representation"` // "path" or "content"
	MaxContentBytes int64      `toml:"maxContentBytes" json:"maxContentBytes" mapstructure:"maxContentBytes"`
	BM25            BM25Config `toml:"bm25" json:"bm25" mapstructure:"bm25"`
}

// BM25Config holds the Okapi BM25 parameters
type BM25Config struct {
	K1 float64 `toml:"k1" json:"k1" mapstructure:"k1"`
	B  float64 `toml:"b" json:"b" mapstructure:"b"`
}

// EmbedderConfig selects and configures the sentence-embedding model
type EmbedderConfig struct {
	Kind          string `toml:"kind" json:"kind" mapstructure:"kind"` // "onnx" or "hash"
	ModelPath     string `toml:"modelPath" json:"modelPath" mapstructure:"modelPath"`
	TokenizerPath string `toml:"tokenizerPath" json:"tokenizerPath" mapstructure:"tokenizerPath"`
	OrtLibrary    string `toml:"ortLibrary" json:"ortLibrary" mapstructure:"ortLibrary"`
	MaxSeqLen     int    `toml:"maxSeqLen" json:"maxSeqLen" mapstructure:"maxSeqLen"`
	Dimension     int    `toml:"dimension" json:"dimension" mapstructure:"dimension"`
	ModelID       string `toml:"modelId" json:"modelId" mapstructure:"modelId"` // empty = model file name
}

// CacheConfig controls the persistent embedding cache
type CacheConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" json:"path" mapstructure:"path"` // empty = ~/.filoc/cache.db
}

// WorkspaceConfig controls where repositories are checked out
type WorkspaceConfig struct {
	Dir               string `toml:"dir" json:"dir" mapstructure:"dir"` // empty = ~/.filoc/checkouts
	CloneURL          string `toml:"cloneURL" json:"cloneURL" mapstructure:"cloneURL"`
	GitTimeoutSeconds int    `toml:"gitTimeoutSeconds" json:"gitTimeoutSeconds" mapstructure:"gitTimeoutSeconds"`
	Clean             bool   `toml:"clean" json:"clean" mapstructure:"clean"`
}

// ListerConfig controls which files become candidates
type ListerConfig struct {
	Include          []string `toml:"include" json:"include" mapstructure:"include"`
	Exclude          []string `toml:"exclude" json:"exclude" mapstructure:"exclude"`
	MaxFileSizeBytes int64    `toml:"maxFileSizeBytes" json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
}

// EvalConfig controls benchmark runs
type EvalConfig struct {
	FailFast  bool   `toml:"failFast" json:"failFast" mapstructure:"failFast"`
	OutputDir string `toml:"outputDir" json:"outputDir" mapstructure:"outputDir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `toml:"format" json:"format" mapstructure:"format"` // "human", "json" or "pretty"
	Level  string `toml:"level" json:"level" mapstructure:"level"`
	File   string `toml:"file" json:"file" mapstructure:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Ranking: RankingConfig{
			TopN:            10,
			WeightLexical:   0.5,
			WeightSemantic:  0.5,
			Representation:  "path",
			MaxContentBytes: 1 << 20,
			BM25: BM25Config{
				K1: 1.2,
				B:  0.75,
			},
		},
		Embedder: EmbedderConfig{
			Kind:      "hash",
			MaxSeqLen: 256,
			Dimension: 384,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Workspace: WorkspaceConfig{
			CloneURL:          "https://github.com/{repo}.git",
			GitTimeoutSeconds: 300,
			Clean:             true,
		},
		Lister: ListerConfig{
			Include: []string{},
			Exclude: []string{".git/**", "**/node_modules/**"},
		},
		Eval: EvalConfig{
			FailFast:  true,
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from <repoRoot>/.filoc/config.{toml,json,yaml}.
// A missing file yields the defaults (still subject to FILOC_* overrides).
func LoadConfig(repoRoot string) (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(repoRoot, DirName))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return unmarshal(v)
}

// LoadConfigFile loads configuration from an explicit path. The format is
// taken from the file extension.
func LoadConfigFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("ranking.topN", d.Ranking.TopN)
	v.SetDefault("ranking.weightLexical", d.Ranking.WeightLexical)
	v.SetDefault("ranking.weightSemantic", d.Ranking.WeightSemantic)
	v.SetDefault("ranking.representation", d.Ranking.Representation)
	v.SetDefault("ranking.maxContentBytes", d.Ranking.MaxContentBytes)
	v.SetDefault("ranking.bm25.k1", d.Ranking.BM25.K1)
	v.SetDefault("ranking.bm25.b", d.Ranking.BM25.B)

	v.SetDefault("embedder.kind", d.Embedder.Kind)
	v.SetDefault("embedder.modelPath", d.Embedder.ModelPath)
	v.SetDefault("embedder.tokenizerPath", d.Embedder.TokenizerPath)
	v.SetDefault("embedder.ortLibrary", d.Embedder.OrtLibrary)
	v.SetDefault("embedder.maxSeqLen", d.Embedder.MaxSeqLen)
	v.SetDefault("embedder.dimension", d.Embedder.Dimension)
	v.SetDefault("embedder.modelId", d.Embedder.ModelID)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)

	v.SetDefault("workspace.dir", d.Workspace.Dir)
	v.SetDefault("workspace.cloneURL", d.Workspace.CloneURL)
	v.SetDefault("workspace.gitTimeoutSeconds", d.Workspace.GitTimeoutSeconds)
	v.SetDefault("workspace.clean", d.Workspace.Clean)

	v.SetDefault("lister.include", d.Lister.Include)
	v.SetDefault("lister.exclude", d.Lister.Exclude)
	v.SetDefault("lister.maxFileSizeBytes", d.Lister.MaxFileSizeBytes)

	v.SetDefault("eval.failFast", d.Eval.FailFast)
	v.SetDefault("eval.outputDir", d.Eval.OutputDir)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the default config file location for a project root
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, DirName, "config.toml")
}

// Save writes the configuration as TOML to path, creating parent dirs.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.WriteTOML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteTOML encodes the configuration as TOML
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}

	r := c.Ranking
	if r.TopN < 0 {
		return &ConfigError{Field: "ranking.topN", Message: "must be >= 0"}
	}
	if !validWeight(r.WeightLexical) {
		return &ConfigError{Field: "ranking.weightLexical", Message: "must be a finite number >= 0"}
	}
	if !validWeight(r.WeightSemantic) {
		return &ConfigError{Field: "ranking.weightSemantic", Message: "must be a finite number >= 0"}
	}
	switch r.Representation {
	case "path", "content":
	default:
		return &ConfigError{Field: "ranking.representation", Message: "must be \"path\" or \"content\""}
	}
	if r.MaxContentBytes < 0 {
		return &ConfigError{Field: "ranking.maxContentBytes", Message: "must be >= 0"}
	}
	if r.BM25.K1 < 0 || r.BM25.B < 0 || r.BM25.B > 1 {
		return &ConfigError{Field: "ranking.bm25", Message: "k1 must be >= 0 and b within [0, 1]"}
	}

	e := c.Embedder
	switch e.Kind {
	case "hash":
		if e.Dimension <= 0 {
			return &ConfigError{Field: "embedder.dimension", Message: "must be > 0"}
		}
	case "onnx":
		if e.ModelPath == "" {
			return &ConfigError{Field: "embedder.modelPath", Message: "required for the onnx embedder"}
		}
		if e.TokenizerPath == "" {
			return &ConfigError{Field: "embedder.tokenizerPath", Message: "required for the onnx embedder"}
		}
		if e.MaxSeqLen <= 0 {
			return &ConfigError{Field: "embedder.maxSeqLen", Message: "must be > 0"}
		}
	default:
		return &ConfigError{Field: "embedder.kind", Message: "must be \"onnx\" or \"hash\""}
	}

	if c.Workspace.GitTimeoutSeconds <= 0 {
		return &ConfigError{Field: "workspace.gitTimeoutSeconds", Message: "must be > 0"}
	}
	if !strings.Contains(c.Workspace.CloneURL, "{repo}") {
		return &ConfigError{Field: "workspace.cloneURL", Message: "must contain the {repo} placeholder"}
	}
	if c.Lister.MaxFileSizeBytes < 0 {
		return &ConfigError{Field: "lister.maxFileSizeBytes", Message: "must be >= 0"}
	}

	switch c.Logging.Format {
	case "human", "json", "pretty":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human, json or pretty"}
	}

	return nil
}

func validWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w >= 0
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

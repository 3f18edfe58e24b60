// Package config loads the nblast CLI configuration from a YAML file, an
// optional .env file and NBLAST_* environment variables, in increasing
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/nblast/internal/errs"
	"github.com/hupe1980/nblast/matrix"
	"github.com/hupe1980/nblast/scoretable"
	"github.com/hupe1980/nblast/skeleton"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NBLAST_"

// Storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Catalog backends.
const (
	CatalogNone     = ""
	CatalogStore    = "store"
	CatalogDynamoDB = "dynamodb"
)

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
	// Dir, if set, receives a copy of the log in run-<timestamp>.log.
	Dir string `yaml:"dir,omitempty"`
}

// StorageConfig selects the blob store holding skeletons and tables.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Root      string `yaml:"root,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// CatalogConfig selects where the current score table is recorded.
type CatalogConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Prefix  string `yaml:"prefix,omitempty"`
	Table   string `yaml:"table,omitempty"`
	BaseURI string `yaml:"base_uri,omitempty"`
}

// ResourceConfig bounds skeleton loading.
type ResourceConfig struct {
	CacheBytes         int64 `yaml:"cache_bytes"`
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes,omitempty"`
	MaxConcurrentLoads int64 `yaml:"max_concurrent_loads,omitempty"`
	ReadBytesPerSec    int64 `yaml:"read_bytes_per_sec,omitempty"`
}

// GenerateConfig controls score table estimation.
type GenerateConfig struct {
	KnownMatches string    `yaml:"known_matches"`
	QueryPrefix  string    `yaml:"query_prefix"`
	TargetPrefix string    `yaml:"target_prefix"`
	Iterations   int       `yaml:"iterations"`
	Workers      int       `yaml:"workers"`
	Seed         *uint64   `yaml:"seed,omitempty"`
	DistanceBins []float64 `yaml:"distance_bins,omitempty"`
	AngleBins    []float64 `yaml:"angle_bins,omitempty"`
	Epsilon      float64   `yaml:"epsilon"`
	Output       string    `yaml:"output"`
	Precision    int       `yaml:"precision"`
	// ECDFPrefix, if set, receives known.tsv and random.tsv ECDF dumps.
	ECDFPrefix string `yaml:"ecdf_prefix,omitempty"`
	Publish    bool   `yaml:"publish,omitempty"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Config is the complete CLI configuration.
type Config struct {
	AngleMode string         `yaml:"angle_mode"`
	Table     string         `yaml:"table,omitempty"`
	Log       LogConfig      `yaml:"log"`
	Storage   StorageConfig  `yaml:"storage"`
	Catalog   CatalogConfig  `yaml:"catalog,omitempty"`
	Resources ResourceConfig `yaml:"resources"`
	Generate  GenerateConfig `yaml:"generate"`
	Metrics   MetricsConfig  `yaml:"metrics,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AngleMode: skeleton.Cosine.Label(),
		Log:       LogConfig{Level: "info", Format: "text"},
		Storage:   StorageConfig{Backend: BackendLocal, Root: ".", Secure: true},
		Resources: ResourceConfig{CacheBytes: 256 << 20},
		Generate: GenerateConfig{
			Iterations:   1000,
			Workers:      runtime.NumCPU(),
			DistanceBins: append([]float64(nil), matrix.DefaultDistanceBins...),
			AngleBins:    append([]float64(nil), matrix.DefaultAngleBins...),
			Epsilon:      matrix.DefaultEpsilon,
			Output:       "smat.tsv",
			Precision:    scoretable.DefaultPrecision,
		},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
// envFiles are loaded with godotenv before overrides are applied; missing
// files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read config %s: %w", errs.ErrConfiguration, path, err)
		}
		defer f.Close()
		if err := Decode(f, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", errs.ErrConfiguration, envFile, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges YAML from r into cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid YAML: %w", errs.ErrConfiguration, err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyEnv overrides fields from NBLAST_* variables resolved by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var problems []error

	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				problems = append(problems, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				problems = append(problems, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("ANGLE_MODE", &c.AngleMode)
	str("TABLE", &c.Table)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_DIR", &c.Log.Dir)
	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("STORAGE_ROOT", &c.Storage.Root)
	str("STORAGE_BUCKET", &c.Storage.Bucket)
	str("STORAGE_PREFIX", &c.Storage.Prefix)
	str("STORAGE_ENDPOINT", &c.Storage.Endpoint)
	str("STORAGE_REGION", &c.Storage.Region)
	str("STORAGE_ACCESS_KEY", &c.Storage.AccessKey)
	str("STORAGE_SECRET_KEY", &c.Storage.SecretKey)
	boolean("STORAGE_SECURE", &c.Storage.Secure)
	str("CATALOG_BACKEND", &c.Catalog.Backend)
	str("CATALOG_TABLE", &c.Catalog.Table)
	str("KNOWN_MATCHES", &c.Generate.KnownMatches)
	str("OUTPUT", &c.Generate.Output)
	integer("ITERATIONS", &c.Generate.Iterations)
	integer("WORKERS", &c.Generate.Workers)
	str("METRICS_TEXTFILE", &c.Metrics.Textfile)

	if v, ok := lookup(EnvPrefix + "SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Generate.Seed = &seed
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", errs.ErrConfiguration, errors.Join(problems...))
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var problems []error

	if _, err := c.Mode(); err != nil {
		problems = append(problems, err)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		problems = append(problems, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.Root == "" {
			problems = append(problems, errors.New("storage.root is required for the local backend"))
		}
	case BackendS3, BackendMinIO:
		if c.Storage.Bucket == "" {
			problems = append(problems, fmt.Errorf("storage.bucket is required for the %s backend", c.Storage.Backend))
		}
		if c.Storage.Backend == BackendMinIO && c.Storage.Endpoint == "" {
			problems = append(problems, errors.New("storage.endpoint is required for the minio backend"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	switch c.Catalog.Backend {
	case CatalogNone, CatalogStore:
	case CatalogDynamoDB:
		if c.Catalog.Table == "" {
			problems = append(problems, errors.New("catalog.table is required for the dynamodb catalog"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown catalog.backend %q", c.Catalog.Backend))
	}

	g := c.Generate
	if g.Iterations <= 0 {
		problems = append(problems, fmt.Errorf("generate.iterations must be positive, got %d", g.Iterations))
	}
	if g.Workers <= 0 {
		problems = append(problems, fmt.Errorf("generate.workers must be positive, got %d", g.Workers))
	}
	if g.Epsilon <= 0 {
		problems = append(problems, fmt.Errorf("generate.epsilon must be positive, got %v", g.Epsilon))
	}
	if g.Precision < 0 {
		problems = append(problems, fmt.Errorf("generate.precision must not be negative, got %d", g.Precision))
	}
	if err := scoretable.ValidateBins("distance", g.DistanceBins); err != nil {
		problems = append(problems, err)
	}
	if err := scoretable.ValidateBins("angle", g.AngleBins); err != nil {
		problems = append(problems, err)
	}
	if c.Resources.CacheBytes < 0 {
		problems = append(problems, errors.New("resources.cache_bytes must not be negative"))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", errs.ErrConfiguration, errors.Join(problems...))
	}
	return nil
}

// Mode returns the configured angle mode.
func (c *Config) Mode() (skeleton.AngleMode, error) {
	return skeleton.ParseAngleMode(c.AngleMode)
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Storage.Root, &c.Log.Dir, &c.Metrics.Textfile, &c.Generate.KnownMatches} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

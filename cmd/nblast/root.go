package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/nblast"
	"github.com/hupe1980/nblast/blobstore"
	miniostore "github.com/hupe1980/nblast/blobstore/minio"
	s3store "github.com/hupe1980/nblast/blobstore/s3"
	"github.com/hupe1980/nblast/catalog"
	"github.com/hupe1980/nblast/dataset"
	"github.com/hupe1980/nblast/internal/config"
	"github.com/hupe1980/nblast/internal/resource"
	"github.com/hupe1980/nblast/metrics/prom"
	"github.com/hupe1980/nblast/scoretable"
	"github.com/hupe1980/nblast/skeleton"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath      string
	envFile         string
	logLevel        string
	logFormat       string
	logDir          string
	metricsTextfile string
	sine            bool

	cfg     *config.Config
	log     *slog.Logger
	logger  *nblast.Logger
	metrics *prom.Collector
	logFile *os.File
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "nblast",
		Short:         "Compare neuron skeletons with NBLAST",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `nblast scores the morphological similarity of tree-shaped 3D skeletons
stored as SWC files, and estimates the distance/angle score tables the
comparison depends on from known matching pairs and random pairs.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file with NBLAST_* overrides")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	pf.StringVar(&a.logDir, "log-dir", "", "directory receiving a copy of the log as run-<timestamp>.log")
	pf.StringVar(&a.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	pf.BoolVar(&a.sine, "sine", false, "use sine instead of cosine angle measures")

	root.AddCommand(
		newQueryCmd(a),
		newGenerateCmd(a),
		newRandomCmd(a),
		newCountsCmd(a),
		newTableCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the
// logger and metrics collector.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("log-dir") {
		cfg.Log.Dir = a.logDir
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = a.metricsTextfile
	}
	if a.sine {
		cfg.AngleMode = skeleton.Sine.Label()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := cfg.Log.SlogLevel()
	w := a.stderr
	if cfg.Log.Dir != "" {
		if err := os.MkdirAll(cfg.Log.Dir, 0o755); err != nil {
			return fmt.Errorf("%w: log dir: %w", nblast.ErrConfiguration, err)
		}
		name := "run-" + time.Now().UTC().Format("20060102T150405Z") + ".log"
		f, err := os.OpenFile(filepath.Join(cfg.Log.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("%w: log file: %w", nblast.ErrConfiguration, err)
		}
		a.logFile = f
		w = io.MultiWriter(a.stderr, f)
	}

	hopts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	a.logger = nblast.NewLogger(h)
	a.log = a.logger.Logger
	a.metrics = prom.New()

	return nil
}

// finish flushes metrics and closes the log file. It is safe to call when
// setup never ran.
func (a *app) finish() error {
	var errs []error
	if a.metrics != nil && a.cfg != nil && a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, err)
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

func (a *app) mode() skeleton.AngleMode {
	mode, _ := a.cfg.Mode() // validated in setup
	return mode
}

func (a *app) openStore(ctx context.Context) (blobstore.Store, error) {
	st := a.cfg.Storage
	switch st.Backend {
	case config.BackendS3:
		opts := []s3store.Option{s3store.WithPrefix(st.Prefix)}
		if st.Region != "" {
			opts = append(opts, s3store.WithRegion(st.Region))
		}
		if st.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(st.Endpoint))
		}
		return s3store.New(ctx, st.Bucket, opts...)
	case config.BackendMinIO:
		client, err := miniostore.NewClient(st.Endpoint, st.AccessKey, st.SecretKey, st.Secure)
		if err != nil {
			return nil, fmt.Errorf("%w: minio: %w", nblast.ErrConfiguration, err)
		}
		return miniostore.NewStore(client, st.Bucket, st.Prefix), nil
	default:
		return blobstore.NewLocalStore(st.Root), nil
	}
}

// openCatalog returns nil when no catalog is configured.
func (a *app) openCatalog(ctx context.Context, store blobstore.Store) (catalog.Catalog, error) {
	c := a.cfg.Catalog
	switch c.Backend {
	case config.CatalogStore:
		return catalog.NewStoreCatalog(store, c.Prefix), nil
	case config.CatalogDynamoDB:
		var opts []s3store.Option
		if a.cfg.Storage.Region != "" {
			opts = append(opts, s3store.WithRegion(a.cfg.Storage.Region))
		}
		baseURI := c.BaseURI
		if baseURI == "" {
			baseURI = a.cfg.Storage.Bucket + "/" + a.cfg.Storage.Prefix
		}
		return s3store.NewDDBCatalog(ctx, c.Table, baseURI, opts...)
	default:
		return nil, nil
	}
}

func (a *app) controller() *resource.Controller {
	r := a.cfg.Resources
	if r.MemoryLimitBytes == 0 && r.MaxConcurrentLoads == 0 && r.ReadBytesPerSec == 0 {
		return nil
	}
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   r.MemoryLimitBytes,
		MaxConcurrentLoads: r.MaxConcurrentLoads,
		ReadBytesPerSec:    r.ReadBytesPerSec,
	})
}

func (a *app) openDataset(ctx context.Context, store blobstore.Store, prefix string) (*dataset.Collection, error) {
	c, err := dataset.Open(ctx, store, prefix,
		dataset.WithCacheBytes(a.cfg.Resources.CacheBytes),
		dataset.WithController(a.controller()),
		dataset.WithLogger(a.log),
	)
	if err != nil {
		return nil, err
	}
	a.log.Debug("dataset opened", "prefix", prefix, "skeletons", c.Len())
	return c, nil
}

// loadTable resolves the score table from, in order, a local file, a named
// blob in the store or the catalog's current entry.
func (a *app) loadTable(ctx context.Context, path, blob string) (*scoretable.Table, error) {
	if path == "" {
		path = a.cfg.Table
	}
	if path != "" {
		return scoretable.ReadFile(path)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if blob == "" {
		cat, err := a.openCatalog(ctx, store)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, fmt.Errorf("%w: no score table given; use --table, --table-blob or a catalog", nblast.ErrConfiguration)
		}
		entry, err := cat.Current(ctx)
		if err != nil {
			return nil, err
		}
		a.log.Info("using catalog table", "name", entry.Name, "version", entry.Version)
		blob = entry.Name
	}
	return scoretable.Load(ctx, store, blob)
}

// fileLoader loads skeletons addressed by their SWC path.
type fileLoader struct{}

func (fileLoader) Load(_ context.Context, path string) (*skeleton.Skeleton, error) {
	return skeleton.ReadFile(path)
}

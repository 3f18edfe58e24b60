package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/hupe1980/nblast"
	"github.com/hupe1980/nblast/dataset"
	"github.com/hupe1980/nblast/match"
	"github.com/hupe1980/nblast/matrix"
	"github.com/hupe1980/nblast/scoretable"
)

const lockTimeout = 30 * time.Second

func newGenerateCmd(a *app) *cobra.Command {
	var (
		iterations int
		workers    int
		seed       uint64
		output     string
		known      string
		queries    string
		targets    string
		publish    bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Estimate a score table from known and random skeleton pairs",
		Long: `Sample known matching pairs and random pairs, accumulate their segment
distance/angle statistics and write the log-likelihood ratio score table.

The output compression follows the file extension (.zst, .lz4). With
generate.ecdf_prefix set, the two cumulative distributions are written next
to it. With --publish, the table is also stored in the configured blob store
and recorded as the catalog's current table.

Example:
  nblast generate --known fc_gold.txt --queries fc --targets fc -n 5000 -o smat.tsv.zst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := &a.cfg.Generate
			flags := cmd.Flags()
			if flags.Changed("iterations") {
				g.Iterations = iterations
			}
			if flags.Changed("workers") {
				g.Workers = workers
			}
			if flags.Changed("seed") {
				g.Seed = &seed
			}
			if flags.Changed("output") {
				g.Output = output
			}
			if flags.Changed("known") {
				g.KnownMatches = known
			}
			if flags.Changed("queries") {
				g.QueryPrefix = queries
			}
			if flags.Changed("targets") {
				g.TargetPrefix = targets
			}
			if flags.Changed("publish") {
				g.Publish = publish
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.runGenerate(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "number of known and random pairs to sample")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "sampling workers")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (reproducible with one worker)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "score table output file")
	cmd.Flags().StringVar(&known, "known", "", "known matches file (query target per line)")
	cmd.Flags().StringVar(&queries, "queries", "", "store prefix of the query skeletons")
	cmd.Flags().StringVar(&targets, "targets", "", "store prefix of the target skeletons")
	cmd.Flags().BoolVar(&publish, "publish", false, "store the table and publish it to the catalog")
	return cmd
}

func (a *app) runGenerate(ctx context.Context) error {
	g := a.cfg.Generate
	if g.KnownMatches == "" {
		return fmt.Errorf("%w: generate.known_matches is required", nblast.ErrConfiguration)
	}

	pairs, err := readKnownFile(g.KnownMatches)
	if err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	qc, err := a.openDataset(ctx, store, g.QueryPrefix)
	if err != nil {
		return err
	}
	loader := dataset.Union{qc}
	tc := qc
	if g.TargetPrefix != g.QueryPrefix {
		if tc, err = a.openDataset(ctx, store, g.TargetPrefix); err != nil {
			return err
		}
		loader = append(loader, tc)
	}

	opts := []matrix.Option{
		matrix.WithIterations(g.Iterations),
		matrix.WithWorkers(g.Workers),
		matrix.WithBins(g.DistanceBins, g.AngleBins),
		matrix.WithEpsilon(g.Epsilon),
		matrix.WithMatcher(match.New(match.WithAngleMode(a.mode()))),
		matrix.WithLogger(a.log),
		matrix.WithRecorder(a.metrics),
	}
	if g.Seed != nil {
		opts = append(opts, matrix.WithSeed(*g.Seed))
	}
	b, err := matrix.NewBuilder(opts...)
	if err != nil {
		return err
	}

	res, err := b.Build(ctx, matrix.Source{
		KnownPairs: pairs,
		Queries:    qc.IDs(),
		Targets:    tc.IDs(),
		Loader:     loader,
	})
	a.logger.LogBuild(ctx, iterationsOf(res), skippedOf(res), err)
	if err != nil {
		return err
	}

	enc := scoretable.WithPrecision(g.Precision)
	if err := writeLocked(ctx, g.Output, res.Table, enc); err != nil {
		return err
	}
	a.log.Info("score table written", "path", g.Output)

	if g.ECDFPrefix != "" {
		if err := writeECDFs(g.ECDFPrefix, res, a.mode().Label()); err != nil {
			return err
		}
	}

	if g.Publish {
		return a.publish(ctx, filepath.Base(g.Output), res.Table, enc)
	}
	return nil
}

func readKnownFile(path string) ([]matrix.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nblast.ErrInput, err)
	}
	defer f.Close()
	pairs, err := dataset.ReadKnownMatches(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pairs, nil
}

// writeLocked writes the table while holding path.lock so that concurrent
// runs targeting the same output do not interleave.
func writeLocked(ctx context.Context, path string, t *scoretable.Table, opts ...scoretable.EncodeOption) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	lock := flock.New(path + ".lock")
	lctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	ok, err := lock.TryLockContext(lctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: held by another process", path)
	}
	defer lock.Unlock() //nolint:errcheck

	return scoretable.WriteFile(path, t, opts...)
}

func writeECDFs(prefix string, res *matrix.Result, label string) error {
	for name, c := range map[string]*matrix.Counts{"known.tsv": res.Known, "random.tsv": res.Random} {
		t, err := c.Table(scoretable.WithAngleLabel(label))
		if err != nil {
			return err
		}
		// ECDF cells lie in [0,1].
		if err := scoretable.WriteFile(prefix+name, t, scoretable.WithPrecision(8)); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) publish(ctx context.Context, name string, t *scoretable.Table, opts ...scoretable.EncodeOption) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	cat, err := a.openCatalog(ctx, store)
	if err != nil {
		return err
	}
	if cat == nil {
		return fmt.Errorf("%w: --publish requires catalog.backend", nblast.ErrConfiguration)
	}

	if err := scoretable.Save(ctx, store, name, t, opts...); err != nil {
		return err
	}
	entry, err := cat.Publish(ctx, name)
	if err != nil {
		return err
	}
	a.log.Info("score table published", "name", entry.Name, "version", entry.Version)
	return nil
}

func iterationsOf(res *matrix.Result) int {
	if res == nil {
		return 0
	}
	return res.Stats.Iterations
}

func skippedOf(res *matrix.Result) int {
	if res == nil {
		return 0
	}
	return len(res.Stats.SkippedSkeletons)
}

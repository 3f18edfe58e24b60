package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/nblast"
	"github.com/hupe1980/nblast/match"
	"github.com/hupe1980/nblast/matrix"
	"github.com/hupe1980/nblast/scoretable"
)

func newRandomCmd(a *app) *cobra.Command {
	var (
		pairs   int
		workers int
		seed    uint64
	)

	cmd := &cobra.Command{
		Use:   "random <swc>...",
		Short: "Print segment matches of random skeleton pairs",
		Long: `Draw random query/target pairs from the given SWC files and print, for
each pair, a "# query target" header followed by one
"qid tid distance angle" line per segment match. The stream can be fed to
"nblast counts --random".

Example:
  nblast random -n 1000 data/*.swc > random.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			out := bufio.NewWriter(a.stdout)
			opts := []matrix.Option{
				matrix.WithIterations(pairs),
				matrix.WithWorkers(workers),
				matrix.WithMatcher(match.New(match.WithAngleMode(a.mode()), match.WithSink(out))),
				matrix.WithLogger(a.log),
				matrix.WithRecorder(a.metrics),
			}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, matrix.WithSeed(seed))
			}
			b, err := matrix.NewBuilder(opts...)
			if err != nil {
				return err
			}

			_, stats, err := b.Sample(cmd.Context(), matrix.Source{
				Queries: paths,
				Targets: paths,
				Loader:  fileLoader{},
			}, matrix.Random)
			if ferr := out.Flush(); ferr != nil && err == nil {
				err = ferr
			}
			if err != nil {
				return err
			}
			a.log.Info("random pairs sampled",
				"pairs", stats.Random.Pairs,
				"matches", stats.Random.Matches,
				"skipped", stats.Random.Skipped,
			)
			return nil
		},
	}

	cmd.Flags().IntVarP(&pairs, "pairs", "n", 1000, "number of random pairs")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "sampling workers")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")
	return cmd
}

func newCountsCmd(a *app) *cobra.Command {
	var (
		known     string
		random    string
		output    string
		precision int
	)

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Build a score table from known and random match streams",
		Long: `Read two match streams as printed by "nblast random" (or plain
"distance angle" lines), bin them, and write the log-likelihood ratio table
to --output or stdout.

Example:
  nblast counts --known known.txt --random random.txt -o smat.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := a.cfg.Generate
			k, err := readCounts(known, g.DistanceBins, g.AngleBins)
			if err != nil {
				return err
			}
			r, err := readCounts(random, g.DistanceBins, g.AngleBins)
			if err != nil {
				return err
			}
			if k, err = k.ECDF(); err != nil {
				return fmt.Errorf("known samples: %w", err)
			}
			if r, err = r.ECDF(); err != nil {
				return fmt.Errorf("random samples: %w", err)
			}

			tbl, err := matrix.LogLikelihoodRatio(k, r, g.Epsilon, scoretable.WithAngleLabel(a.mode().Label()))
			if err != nil {
				return err
			}
			if output == "" {
				return scoretable.Encode(a.stdout, tbl, scoretable.WithPrecision(precision))
			}
			return writeLocked(cmd.Context(), output, tbl, scoretable.WithPrecision(precision))
		},
	}

	cmd.Flags().StringVar(&known, "known", "", "match stream of known pairs")
	cmd.Flags().StringVar(&random, "random", "", "match stream of random pairs")
	cmd.Flags().StringVarP(&output, "output", "o", "", "score table output file (default stdout)")
	cmd.Flags().IntVar(&precision, "precision", scoretable.DefaultPrecision, "decimal places of scores")
	_ = cmd.MarkFlagRequired("known")
	_ = cmd.MarkFlagRequired("random")
	return cmd
}

func readCounts(path string, distanceBins, angleBins []float64) (*matrix.Counts, error) {
	c, err := matrix.NewCounts(distanceBins, angleBins)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nblast.ErrInput, err)
	}
	defer f.Close()
	if _, err := matrix.ReadSamples(f, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

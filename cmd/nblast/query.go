package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hupe1980/nblast"
	"github.com/hupe1980/nblast/skeleton"
)

type queryFlags struct {
	table     string
	tableBlob string
	dataset   string
	strict    bool
	workers   int
}

func newQueryCmd(a *app) *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query <query> [target...]",
		Short: "Score a query skeleton against one or more targets",
		Long: `Score the query skeleton against every target and print one
"query target score" line per successful comparison. Targets that cannot be
loaded or scored are reported on stderr and skipped.

Without --dataset, arguments are SWC file paths. With --dataset, arguments
are skeleton ids below that store prefix and an empty target list compares
against the whole dataset.

Example:
  nblast query --table smat.tsv a.swc b.swc c.swc
  nblast query --dataset fc 5HT1A-M-500143 --log-level warn`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd.Context(), f, args[0], args[1:])
		},
	}

	cmd.Flags().StringVarP(&f.table, "table", "t", "", "score table file (.tsv, .tsv.zst, .tsv.lz4)")
	cmd.Flags().StringVar(&f.tableBlob, "table-blob", "", "score table blob name in the configured store")
	cmd.Flags().StringVar(&f.dataset, "dataset", "", "resolve query and targets as ids below this store prefix")
	cmd.Flags().BoolVar(&f.strict, "strict-angles", false, "fail comparisons containing undefined angles")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "concurrent comparisons (default: generate.workers)")
	return cmd
}

func (a *app) runQuery(ctx context.Context, f queryFlags, queryArg string, targets []string) error {
	tbl, err := a.loadTable(ctx, f.table, f.tableBlob)
	if err != nil {
		return err
	}
	if label := tbl.AngleLabel(); label != a.mode().Label() {
		return fmt.Errorf("%w: table %q columns do not match angle mode %s", nblast.ErrConfiguration, label, a.mode())
	}

	workers := f.workers
	if workers <= 0 {
		workers = a.cfg.Generate.Workers
	}
	opts := []nblast.Option{
		nblast.WithAngleMode(a.mode()),
		nblast.WithLogger(a.logger),
		nblast.WithMetricsCollector(a.metrics),
		nblast.WithWorkers(workers),
	}
	if f.strict {
		opts = append(opts, nblast.WithStrictAngles())
	}
	scorer, err := nblast.NewScorer(tbl, opts...)
	if err != nil {
		return err
	}

	var (
		loader nblast.Loader = fileLoader{}
		name                 = skeleton.NameFromPath
	)
	if f.dataset != "" {
		store, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		coll, err := a.openDataset(ctx, store, f.dataset)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			targets = coll.IDs()
		}
		loader = coll
		name = func(id string) string { return id }
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: no targets given", nblast.ErrConfiguration)
	}

	query, err := loader.Load(ctx, queryArg)
	if err != nil {
		return err
	}

	results, err := scorer.ScoreMany(ctx, query, targets, loader)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(a.stdout)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(a.stderr, "skipping %s: %v\n", r.Target, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", query.Name(), name(r.Target), strconv.FormatFloat(r.Result.Score, 'f', 6, 64))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		a.log.Warn("some targets were skipped", "failed", failed, "total", len(results))
	}
	return nil
}

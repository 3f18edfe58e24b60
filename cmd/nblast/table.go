package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/nblast/scoretable"
)

func newTableCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Inspect and convert score tables",
	}
	cmd.AddCommand(newTableInspectCmd(a), newTableConvertCmd(a))
	return cmd
}

func newTableInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the dimensions, bins and value range of a score table",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := scoretable.ReadFile(args[0])
			if err != nil {
				return err
			}

			rows, cols := t.Dims()
			lo, hi := math.Inf(1), math.Inf(-1)
			for i := range rows {
				for j := range cols {
					v := t.At(i, j)
					lo = math.Min(lo, v)
					hi = math.Max(hi, v)
				}
			}

			w := a.stdout
			fmt.Fprintf(w, "File:           %s\n", args[0])
			fmt.Fprintf(w, "Compression:    %s\n", scoretable.CompressionFromName(args[0]))
			fmt.Fprintf(w, "Dimensions:     %d x %d\n", rows, cols)
			fmt.Fprintf(w, "Angle label:    %s\n", t.AngleLabel())
			fmt.Fprintf(w, "Distance bins:  %s\n", joinFloats(t.DistanceBins()))
			fmt.Fprintf(w, "Angle bins:     %s\n", joinFloats(t.AngleBins()))
			fmt.Fprintf(w, "Score range:    [%s, %s]\n", formatFloat(lo), formatFloat(hi))
			return nil
		},
	}
}

func newTableConvertCmd(a *app) *cobra.Command {
	var precision int

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Rewrite a score table, changing compression by extension",
		Long: `Read a score table and write it to another file. Compression of both
files follows their extensions (.zst, .lz4, otherwise plain text).

Example:
  nblast table convert smat.tsv smat.tsv.zst`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := scoretable.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := writeLocked(cmd.Context(), args[1], t, scoretable.WithPrecision(precision)); err != nil {
				return err
			}
			a.log.Info("score table converted", "from", args[0], "to", args[1],
				"compression", scoretable.CompressionFromName(args[1]).String())
			return nil
		},
	}
	cmd.Flags().IntVar(&precision, "precision", scoretable.DefaultPrecision, "decimal places of scores")
	return cmd
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

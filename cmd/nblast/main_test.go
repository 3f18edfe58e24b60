package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/nblast/blobstore"
	"github.com/hupe1980/nblast/catalog"
	"github.com/hupe1980/nblast/matrix"
	"github.com/hupe1980/nblast/scoretable"
	"github.com/hupe1980/nblast/skeleton"
	"github.com/hupe1980/nblast/testutil"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// invoke runs the CLI with NBLAST_* overrides isolated from the host.
func invoke(t *testing.T, args ...string) result {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "NBLAST_") {
			t.Setenv(k, "")
		}
	}

	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...)
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeSWC(t *testing.T, path string, sk *skeleton.Skeleton) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(testutil.SWC(sk)), 0o644))
	return path
}

// translate moves sk by offset so that unrelated skeletons never overlap.
func translate(t *testing.T, sk *skeleton.Skeleton, offset r3.Vec) *skeleton.Skeleton {
	t.Helper()
	points := sk.Points()
	for i := range points {
		points[i].Pos = r3.Add(points[i].Pos, offset)
	}
	out, err := skeleton.New(sk.Name(), points)
	require.NoError(t, err)
	return out
}

func constantTable(t *testing.T, path string) string {
	t.Helper()
	tbl, err := scoretable.Constant([]float64{1000, 10000}, []float64{0.5, 1}, 1)
	require.NoError(t, err)
	require.NoError(t, scoretable.WriteFile(path, tbl))
	return path
}

func TestQuery_Files(t *testing.T) {
	dir := t.TempDir()
	tbl := constantTable(t, filepath.Join(dir, "smat.tsv"))
	a := writeSWC(t, filepath.Join(dir, "a.swc"), testutil.Line("a", r3.Vec{}, r3.Vec{X: 10}, 5))
	b := writeSWC(t, filepath.Join(dir, "b.swc"), testutil.Line("b", r3.Vec{Y: 5}, r3.Vec{X: 10}, 8))

	res := invoke(t, "query", "--table", tbl, a, b, filepath.Join(dir, "missing.swc"))

	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "a b 1.000000\n", res.stdout)
	assert.Contains(t, res.stderr, "skipping")
	assert.Contains(t, res.stderr, "missing.swc")
}

func TestQuery_AngleModeMismatch(t *testing.T) {
	dir := t.TempDir()
	tbl := constantTable(t, filepath.Join(dir, "smat.tsv"))
	a := writeSWC(t, filepath.Join(dir, "a.swc"), testutil.Line("a", r3.Vec{}, r3.Vec{X: 10}, 5))

	res := invoke(t, "--sine", "query", "--table", tbl, a, a)
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "angle mode")
}

func TestQuery_NoTable(t *testing.T) {
	dir := t.TempDir()
	a := writeSWC(t, filepath.Join(dir, "a.swc"), testutil.Line("a", r3.Vec{}, r3.Vec{X: 10}, 5))

	res := invoke(t, "query", a, a)
	assert.Equal(t, 2, res.code)
}

func TestInvalidLogFormat(t *testing.T) {
	res := invoke(t, "--log-format", "xml", "table", "inspect", "x.tsv")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "log.format")
}

func TestTableInspect(t *testing.T) {
	path := constantTable(t, filepath.Join(t.TempDir(), "smat.tsv"))

	res := invoke(t, "table", "inspect", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Dimensions:     2 x 2")
	assert.Contains(t, res.stdout, "Angle label:    cos")
	assert.Contains(t, res.stdout, "Distance bins:  1000 10000")
	assert.Contains(t, res.stdout, "Score range:    [1, 1]")
}

func TestTableInspect_Missing(t *testing.T) {
	res := invoke(t, "table", "inspect", filepath.Join(t.TempDir(), "nope.tsv"))
	assert.Equal(t, 3, res.code)
}

func TestTableConvert(t *testing.T) {
	dir := t.TempDir()
	in := constantTable(t, filepath.Join(dir, "smat.tsv"))
	out := filepath.Join(dir, "out", "smat.tsv.zst")

	res := invoke(t, "table", "convert", in, out)
	require.Equal(t, 0, res.code, res.stderr)

	got, err := scoretable.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 10000}, got.DistanceBins())
	assert.Equal(t, 1.0, got.Score(10, 1))
}

func TestCounts(t *testing.T) {
	dir := t.TempDir()
	known := filepath.Join(dir, "known.txt")
	random := filepath.Join(dir, "random.txt")
	require.NoError(t, os.WriteFile(known, []byte("# a b\n0 1 100 0.95\n1 2 200 0.97\n"), 0o644))
	require.NoError(t, os.WriteFile(random, []byte("150000 0.05\n155000 0.02\n"), 0o644))

	res := invoke(t, "counts", "--known", known, "--random", random)
	require.Equal(t, 0, res.code, res.stderr)

	tbl, err := scoretable.Decode(strings.NewReader(res.stdout))
	require.NoError(t, err)
	rows, cols := tbl.Dims()
	assert.Equal(t, len(matrix.DefaultDistanceBins), rows)
	assert.Equal(t, len(matrix.DefaultAngleBins), cols)
	assert.InDelta(t, matrix.MaxLogRatio(matrix.DefaultEpsilon), tbl.At(0, cols-1), 1e-3)
	assert.InDelta(t, 0, tbl.At(rows-1, cols-1), 1e-9)
}

func TestRandom(t *testing.T) {
	dir := t.TempDir()
	a := writeSWC(t, filepath.Join(dir, "a.swc"), testutil.Line("a", r3.Vec{}, r3.Vec{X: 10}, 4))
	b := writeSWC(t, filepath.Join(dir, "b.swc"), testutil.Line("b", r3.Vec{Y: 3}, r3.Vec{Y: 10}, 6))

	res := invoke(t, "random", "-n", "3", "--seed", "7", a, b)
	require.Equal(t, 0, res.code, res.stderr)

	headers := 0
	for _, line := range strings.Split(strings.TrimSpace(res.stdout), "\n") {
		if strings.HasPrefix(line, "# ") {
			headers++
			continue
		}
		assert.Len(t, strings.Fields(line), 4, line)
	}
	assert.Equal(t, 3, headers)
}

func TestGenerateAndQueryCatalog(t *testing.T) {
	dir := t.TempDir()
	rng := testutil.NewRNG(3)
	for i, name := range []string{"n1", "n2", "n3"} {
		sk := translate(t, rng.RandomSkeleton(name, 30, 2000), r3.Vec{X: float64(i) * 1e6})
		writeSWC(t, filepath.Join(dir, "fc", name+".swc"), sk)
		writeSWC(t, filepath.Join(dir, "fc", name+"_m.swc"), rng.Jitter(sk, name+"_m", 500))
	}
	known := filepath.Join(dir, "known.csv")
	require.NoError(t, os.WriteFile(known, []byte("query,target\nn1,n1_m\nn2,n2_m\nn3,n3_m\n"), 0o644))

	output := filepath.Join(dir, "out", "smat.tsv.zst")
	cfgPath := filepath.Join(dir, "nblast.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
storage:
  backend: local
  root: `+dir+`
catalog:
  backend: store
  prefix: tables
generate:
  known_matches: `+known+`
  query_prefix: fc
  target_prefix: fc
  iterations: 40
  workers: 2
  output: `+output+`
  ecdf_prefix: `+filepath.Join(dir, "ecdf_")+`
`), 0o644))
	metricsFile := filepath.Join(dir, "nblast.prom")

	res := invoke(t, "--config", cfgPath, "--metrics-textfile", metricsFile, "generate", "--publish", "--seed", "1")
	require.Equal(t, 0, res.code, res.stderr)

	tbl, err := scoretable.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, matrix.DefaultDistanceBins, tbl.DistanceBins())
	assert.FileExists(t, filepath.Join(dir, "ecdf_known.tsv"))
	assert.FileExists(t, filepath.Join(dir, "ecdf_random.tsv"))

	entry, err := catalog.NewStoreCatalog(blobstore.NewLocalStore(dir), "tables").Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entry.Version)
	assert.Equal(t, "smat.tsv.zst", entry.Name)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "nblast_samples_total")

	res = invoke(t, "--config", cfgPath, "query", "--dataset", "fc", "n1", "n1_m", "n2")
	require.Equal(t, 0, res.code, res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "n1 n1_m "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "n1 n2 "), lines[1])
}

func TestLogDir(t *testing.T) {
	dir := t.TempDir()
	path := constantTable(t, filepath.Join(dir, "smat.tsv"))
	logs := filepath.Join(dir, "logs")

	res := invoke(t, "--log-dir", logs, "--log-level", "debug", "table", "convert", path, filepath.Join(dir, "smat.tsv.lz4"))
	require.Equal(t, 0, res.code, res.stderr)

	entries, err := os.ReadDir(logs)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "run-"))

	data, err := os.ReadFile(filepath.Join(logs, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "score table converted")
	assert.Contains(t, res.stderr, "score table converted")
}

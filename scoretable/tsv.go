package scoretable

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// HeaderCorner is the first header cell written by Encode.
const HeaderCorner = "dist/angle"

// DefaultPrecision is the number of decimals written for scores.
const DefaultPrecision = 4

type encodeOptions struct {
	precision int
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeOptions)

// WithPrecision sets the number of decimals written for scores.
func WithPrecision(p int) EncodeOption {
	return func(o *encodeOptions) {
		if p >= 0 {
			o.precision = p
		}
	}
}

// Encode writes t in tab-separated form. Boundaries are written in their
// shortest exact form, scores with a fixed number of decimals.
func Encode(w io.Writer, t *Table, optFns ...EncodeOption) error {
	opts := encodeOptions{precision: DefaultPrecision}
	for _, fn := range optFns {
		fn(&opts)
	}

	bw := bufio.NewWriter(w)

	bw.WriteString(HeaderCorner)
	for _, b := range t.angleBins {
		bw.WriteByte('\t')
		bw.WriteString(t.label)
		bw.WriteByte('_')
		bw.WriteString(strconv.FormatFloat(b, 'g', -1, 64))
	}
	bw.WriteByte('\n')

	a := len(t.angleBins)
	for i, d := range t.distanceBins {
		bw.WriteString(strconv.FormatFloat(d, 'g', -1, 64))
		for _, v := range t.grid[i*a : (i+1)*a] {
			bw.WriteByte('\t')
			bw.WriteString(strconv.FormatFloat(v, 'f', opts.precision, 64))
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

// Decode parses a table written by Encode. Blank lines are ignored; cells
// may be separated by tabs or, when a line has no tab, by runs of spaces.
func Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		label      string
		angleBins  []float64
		distBins   []float64
		grid       [][]float64
		haveHeader bool
		line       int
	)

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		cells := splitCells(text)

		if !haveHeader {
			if len(cells) < 2 {
				return nil, &ParseError{Line: line, Msg: "header has no angle columns"}
			}
			for _, c := range cells[1:] {
				l, b, err := parseColumn(c)
				if err != nil {
					return nil, &ParseError{Line: line, Msg: "bad angle column " + strconv.Quote(c), cause: err}
				}
				if label == "" {
					label = l
				} else if l != label {
					return nil, &ParseError{Line: line, Msg: "mixed angle labels " + strconv.Quote(label) + " and " + strconv.Quote(l)}
				}
				angleBins = append(angleBins, b)
			}
			haveHeader = true
			continue
		}

		if len(cells) != len(angleBins)+1 {
			return nil, &ParseError{Line: line, Msg: "row has " + strconv.Itoa(len(cells)) + " cells, want " + strconv.Itoa(len(angleBins)+1)}
		}
		d, err := strconv.ParseFloat(cells[0], 64)
		if err != nil {
			return nil, &ParseError{Line: line, Msg: "bad distance boundary", cause: err}
		}
		row := make([]float64, len(angleBins))
		for j, c := range cells[1:] {
			if row[j], err = strconv.ParseFloat(c, 64); err != nil {
				return nil, &ParseError{Line: line, Msg: "bad score", cause: err}
			}
		}
		distBins = append(distBins, d)
		grid = append(grid, row)
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: line, Msg: "read failed", cause: err}
	}

	if !haveHeader {
		return nil, &ParseError{Line: line, Msg: "missing header"}
	}
	if len(distBins) == 0 {
		return nil, &ParseError{Line: line, Msg: "no distance rows"}
	}

	return New(distBins, angleBins, grid, WithAngleLabel(label))
}

func splitCells(line string) []string {
	if !strings.Contains(line, "\t") {
		return strings.Fields(line)
	}
	cells := strings.Split(line, "\t")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// parseColumn splits "cos_0.2" into its label and boundary. The boundary
// follows the last underscore so labels may contain underscores.
func parseColumn(cell string) (string, float64, error) {
	i := strings.LastIndexByte(cell, '_')
	if i <= 0 {
		return "", 0, strconv.ErrSyntax
	}
	b, err := strconv.ParseFloat(cell[i+1:], 64)
	if err != nil {
		return "", 0, err
	}
	return cell[:i], b, nil
}

package dataset

import (
	"bufio"
	"io"
	"strings"

	"github.com/hupe1980/nblast/matrix"
)

// ReadKnownMatches parses a delimited list of known query/target pairs. The
// first non-blank line is a header and is skipped. Fields may be separated
// by commas, tabs or spaces; columns after the second are ignored.
func ReadKnownMatches(r io.Reader) ([]matrix.Pair, error) {
	sc := bufio.NewScanner(r)

	var (
		pairs  []matrix.Pair
		header = true
		line   int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if header {
			header = false
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == '\t' || r == ' ' || r == ';'
		})
		if len(fields) < 2 {
			return nil, &ParseError{Line: line, Text: text}
		}
		q, t := NormalizeID(fields[0]), NormalizeID(fields[1])
		if q == "" || t == "" {
			return nil, &ParseError{Line: line, Text: text}
		}
		pairs = append(pairs, matrix.Pair{Query: q, Target: t})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

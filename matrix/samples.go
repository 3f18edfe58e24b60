package matrix

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ReadSamples accumulates a sample stream into c and returns the number of
// samples added.
//
// Lines starting with '#' and blank lines are ignored. A sample line is
// either "qid tid distance angle" or "distance angle"; samples whose angle
// is NA are skipped.
func ReadSamples(r io.Reader, c *Counts) (int, error) {
	sc := bufio.NewScanner(r)

	var n, line int
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}

		fields := strings.Fields(text)
		var ds, as string
		switch len(fields) {
		case 2:
			ds, as = fields[0], fields[1]
		case 4:
			ds, as = fields[2], fields[3]
		default:
			return n, &ParseError{Line: line, Text: text}
		}

		if strings.EqualFold(as, "NA") {
			continue
		}
		d, err := strconv.ParseFloat(ds, 64)
		if err != nil {
			return n, &ParseError{Line: line, Text: text, cause: err}
		}
		a, err := strconv.ParseFloat(as, 64)
		if err != nil {
			return n, &ParseError{Line: line, Text: text, cause: err}
		}

		c.Increment(d, a, 1)
		n++
	}
	if err := sc.Err(); err != nil {
		return n, &ParseError{Line: line, cause: err}
	}
	return n, nil
}

package skeleton

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/nblast/internal/errs"
)

// Read parses an SWC stream. Blank lines and lines starting with '#' are
// skipped; every other line must be a valid point record.
func Read(r io.Reader, name string, optFns ...Option) (*Skeleton, error) {
	var points []Point

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := ParsePoint(text)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = line
			}
			return nil, err
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", errs.ErrInput, name, err)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrDegenerate, name, ErrEmpty)
	}

	return New(name, points, optFns...)
}

// ReadFile loads an SWC file. The skeleton is named after the file basename
// without its extension. A missing file yields an error matching both
// os.ErrNotExist and the input error class.
func ReadFile(path string, optFns ...Option) (*Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInput, err)
	}
	defer f.Close()

	return Read(f, NameFromPath(path), optFns...)
}

// NameFromPath returns the basename of path without its extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

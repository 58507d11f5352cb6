// Package feed decodes static telemetry files into cleaned domain records.
// A VesselReader handles sentence and tabular vessel feeds; an AircraftReader
// handles JSON Lines and tabular aircraft feeds. Each reader keeps the cleaning
// statistics of its most recent DecodeFile call.
package feed

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/geotelemetry-etl/internal/domain"
)

// ErrUnreadableEncoding is returned for files that are not valid UTF-8.
var ErrUnreadableEncoding = errors.New("unreadable encoding")

// ctxCheckEvery is how many lines are processed between cancellation checks.
const ctxCheckEvery = 512

// readContent loads a file as UTF-8 text with any byte order mark removed.
func readContent(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrUnreadableEncoding)
	}
	return string(data), nil
}

// splitLines splits on newlines, dropping a trailing carriage return.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func firstNonEmpty(lines []string) string {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return l
		}
	}
	return ""
}

// resolve sniffs the first non-empty line and picks the decode path for source.
func resolve(source domain.SourceType, lines []string) (domain.SourceFormat, bool) {
	return domain.ResolveFormat(source, domain.Sniff(firstNonEmpty(lines)))
}

// row is one data row of a tabular file.
type row struct {
	line   int
	record domain.RawRecord
	err    error
}

// readTable walks a header-named delimited file. Each data row is mapped to
// canonical field names through columns; unmapped headers are dropped. Rows
// that fail to parse are yielded with err set.
func readTable(ctx context.Context, content string, columns map[string]string, fn func(row) error) error {
	cr := csv.NewReader(strings.NewReader(content))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var header []string
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if header == nil {
				return fmt.Errorf("header: %w", err)
			}
			if err := fn(row{line: perr.StartLine, err: err}); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		if header == nil {
			header = make([]string, len(fields))
			for i, f := range fields {
				header[i] = columns[strings.TrimSpace(f)]
			}
			continue
		}
		if blankRow(fields) {
			continue
		}

		line, _ := cr.FieldPos(0)
		rec := make(domain.RawRecord, len(header))
		for i, f := range fields {
			if i < len(header) && header[i] != "" {
				rec[header[i]] = strings.TrimSpace(f)
			}
		}
		if err := fn(row{line: line, record: rec}); err != nil {
			return err
		}
	}
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

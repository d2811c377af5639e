// Package source reads product records handed over by the scraping
// collaborator and serves them page by page.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 * 1024 * 1024

// JSONLPager serves records read from a JSONL stream, one record per line,
// in pages of a fixed size.
type JSONLPager struct {
	records  []types.Record
	pageSize int
	skipped  int
}

// ReadJSONL decodes every line of r as a types.Record. Blank lines are
// ignored and malformed lines are skipped and counted. pageSize below 1
// selects types.DefaultPageSize.
func ReadJSONL(r io.Reader, pageSize int, logger *slog.Logger) (*JSONLPager, error) {
	if pageSize < 1 {
		pageSize = types.DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &JSONLPager{pageSize: pageSize}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec types.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			p.skipped++
			logger.Warn("skipping malformed record", "component", "source", "line", line, "error", err)
			continue
		}
		p.records = append(p.records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return p, nil
}

// OpenJSONL reads the JSONL file at path; "-" reads standard input.
func OpenJSONL(path string, pageSize int, logger *slog.Logger) (*JSONLPager, error) {
	if path == "-" {
		return ReadJSONL(os.Stdin, pageSize, logger)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f, pageSize, logger)
}

// Page returns the records of page n, counting from 1. Pages past the end
// are empty.
func (p *JSONLPager) Page(ctx context.Context, n int) ([]types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("page %d: pages start at 1", n)
	}
	start := (n - 1) * p.pageSize
	if start >= len(p.records) {
		return nil, nil
	}
	end := min(start+p.pageSize, len(p.records))
	return p.records[start:end], nil
}

// Len returns the number of records read.
func (p *JSONLPager) Len() int { return len(p.records) }

// Skipped returns the number of malformed lines that were dropped.
func (p *JSONLPager) Skipped() int { return p.skipped }

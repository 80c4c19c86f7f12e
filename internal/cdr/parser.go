// Package cdr parses raw call detail feeds and converts them into the
// JSON batch documents the processing pipeline consumes.
package cdr

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/model"
)

// feedFieldCount is the number of semicolon-separated fields in a raw
// feed line. Shorter lines are padded with empty fields.
const feedFieldCount = 11

// Parser reads raw carrier feeds. Feeds are Windows-1252 encoded text,
// one call per line, fields separated by semicolons and costs using a
// comma decimal separator.
type Parser struct{}

// NewParser creates a feed parser.
func NewParser() *Parser {
	return &Parser{}
}

// IsFeedFile reports whether a file name looks like a raw feed rather
// than an already-converted JSON document.
func IsFeedFile(name string) bool {
	base := filepath.Base(name)
	if strings.EqualFold(filepath.Ext(base), ".cdr") {
		return true
	}
	return strings.Contains(strings.ToUpper(base), "CDR") &&
		!strings.EqualFold(filepath.Ext(base), ".json")
}

// Parse reads a raw feed and returns its batch document. Blank lines
// are skipped; malformed numeric fields degrade to zero values rather
// than failing the batch.
func (p *Parser) Parse(ctx context.Context, r io.Reader, sourceName string) (*model.BatchDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	decoded := transform.NewReader(r, charmap.Windows1252.NewDecoder())
	scanner := bufio.NewScanner(decoded)

	var records []model.CDRRecord
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		records = append(records, parseLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", sourceName, err)
	}

	doc := &model.BatchDocument{
		Metadata: model.BatchMetadata{
			SourceFile:          sourceName,
			GenerationTimestamp: time.Now().Format(time.RFC3339),
			TotalRecords:        len(records),
		},
		Records: records,
	}

	slog.Debug("Parsed raw feed", "source", sourceName, "records", len(records))
	return doc, nil
}

// ParseFile parses the raw feed at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*model.BatchDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed: %w", err)
	}
	defer f.Close()

	return p.Parse(ctx, f, filepath.Base(path))
}

// ConvertFile parses the raw feed at path and writes the batch document
// as <stem>.json under destDir, returning the written path.
func (p *Parser) ConvertFile(ctx context.Context, path, destDir string) (string, error) {
	doc, err := p.ParseFile(ctx, path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating output directory: %v", common.ErrWriteFailure, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(destDir, stem+".json")

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshaling batch document: %v", common.ErrWriteFailure, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", common.ErrWriteFailure, filepath.Base(outPath), err)
	}

	slog.Info("Converted feed to JSON",
		"source", filepath.Base(path),
		"output", outPath,
		"records", doc.Metadata.TotalRecords)
	return outPath, nil
}

// LoadDocument reads an already-converted batch document. A top-level
// JSON array of records is accepted alongside the metadata envelope.
func LoadDocument(ctx context.Context, path string) (*model.BatchDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: batch %s", common.ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	var doc model.BatchDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Records != nil {
		if doc.Metadata.SourceFile == "" {
			doc.Metadata.SourceFile = filepath.Base(path)
		}
		if doc.Metadata.TotalRecords == 0 {
			doc.Metadata.TotalRecords = len(doc.Records)
		}
		return &doc, nil
	}

	var records []model.CDRRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse batch %s: %w", filepath.Base(path), err)
	}

	return &model.BatchDocument{
		Metadata: model.BatchMetadata{
			SourceFile:   filepath.Base(path),
			TotalRecords: len(records),
		},
		Records: records,
	}, nil
}

// parseLine splits one feed line into a record. Field order follows the
// carrier layout: timestamp, caller, called, duration, call type,
// operator, cost, contract code, service code, client city, prefix.
func parseLine(line string) model.CDRRecord {
	fields := strings.Split(line, ";")
	for len(fields) < feedFieldCount {
		fields = append(fields, "")
	}
	get := func(i int) string {
		return strings.TrimSpace(fields[i])
	}

	return model.CDRRecord{
		CallTime:        model.ParseCallTime(get(0)),
		CallerNumber:    get(1),
		CalledNumber:    get(2),
		DurationSeconds: parseSeconds(get(3)),
		RawCallType:     get(4),
		Operator:        get(5),
		OriginalCost:    parseCost(get(6)),
		ContractCode:    model.Code(get(7)),
		ServiceCode:     model.Code(get(8)),
		ClientCity:      get(9),
		DialedPrefix:    get(10),
	}
}

func parseSeconds(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseCost accepts both comma and dot decimal separators.
func parseCost(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}
	return ctx.Err()
}

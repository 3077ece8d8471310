package billing

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FileMetadata is the account header carried in the first two lines of a
// billing export.
type FileMetadata struct {
	AccountName    string
	AccountOwnerID string
	BillingMonth   string
	Currency       string
	CurrencyRate   string
	CreatedTime    string
}

// FindExportFiles lists billing export files in dir, sorted by name. The
// exports embed the billing month in the filename, so name order is
// chronological order.
func FindExportFiles(dir string) ([]string, error) {
	pattern := filepath.Join(dir, "*instances-*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("listing billing exports in %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadDirectory parses every billing export under dir into a single table.
// Files that fail to parse are skipped with a warning; an empty directory
// yields an empty table.
func LoadDirectory(dir string, logger zerolog.Logger) (*Table, []FileMetadata, error) {
	files, err := FindExportFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	var records []BillingRecord
	var metas []FileMetadata
	for _, path := range files {
		fileRecords, meta, err := ParseExportFile(path)
		if err != nil {
			logger.Warn().Str("file", filepath.Base(path)).Err(err).Msg("skipping unparseable billing export")
			continue
		}
		records = append(records, fileRecords...)
		metas = append(metas, meta)
	}

	logger.Info().
		Int("files", len(metas)).
		Int("records", len(records)).
		Msg("billing data loaded")

	return NewTable(records), metas, nil
}

// ParseExportFile parses one billing export. The format is two account
// metadata lines, a blank line, a column header line, and then the billing
// rows. The billing month from the metadata header is stamped onto every
// record, and records are flagged partial when the export was created
// inside its own billing month.
func ParseExportFile(path string) ([]BillingRecord, FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, FileMetadata{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, FileMetadata{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, FileMetadata{}, fmt.Errorf("%s: missing account metadata header", path)
	}

	meta := parseMetadata(rows[0], rows[1])
	partial := isPartialMonth(meta)

	// Skip blank separator rows between the metadata block and the data
	// header.
	idx := 2
	for idx < len(rows) && isBlankRow(rows[idx]) {
		idx++
	}
	if idx >= len(rows) {
		return nil, meta, nil
	}

	header := make(map[string]int, len(rows[idx]))
	for i, name := range rows[idx] {
		header[strings.TrimSpace(name)] = i
	}
	idx++

	records := make([]BillingRecord, 0, len(rows)-idx)
	for ; idx < len(rows); idx++ {
		row := rows[idx]
		if isBlankRow(row) {
			continue
		}
		rec := BillingRecord{
			ServiceName:    cell(row, header, ColServiceName),
			InstanceName:   cell(row, header, ColInstanceName),
			BillingMonth:   meta.BillingMonth,
			Cost:           numericCell(row, header, ColCost),
			OriginalCost:   numericCell(row, header, ColOriginalCost),
			UsageQuantity:  numericCell(row, header, ColUsageQuantity),
			Region:         cell(row, header, ColRegion),
			PlanName:       cell(row, header, ColPlanName),
			AccountID:      meta.AccountOwnerID,
			IsPartialMonth: partial,
		}
		if rec.BillingMonth == "" {
			rec.BillingMonth = cell(row, header, ColBillingMonth)
		}
		records = append(records, rec)
	}
	return records, meta, nil
}

func parseMetadata(keys, values []string) FileMetadata {
	fields := make(map[string]string, len(keys))
	for i, key := range keys {
		if i < len(values) {
			fields[strings.TrimSpace(key)] = strings.TrimSpace(values[i])
		}
	}
	meta := FileMetadata{
		AccountName:    fields["Account Name"],
		AccountOwnerID: fields["Account Owner ID"],
		BillingMonth:   fields["Billing Month"],
		Currency:       fields["Currency"],
		CurrencyRate:   fields["Currency Rate"],
		CreatedTime:    fields["Created Time"],
	}
	if meta.CreatedTime == "" {
		meta.CreatedTime = fields["Creation Date"]
	}
	return meta
}

// isPartialMonth reports whether the export was generated before its billing
// month closed. Missing or unparseable metadata counts as a complete month.
func isPartialMonth(meta FileMetadata) bool {
	if meta.BillingMonth == "" || meta.CreatedTime == "" {
		return false
	}
	created, err := time.Parse(time.RFC3339, meta.CreatedTime)
	if err != nil {
		return false
	}
	return created.UTC().Format("2006-01") == meta.BillingMonth
}

func isBlankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// numericCell coerces a numeric field, treating blanks and malformed values
// as zero, matching how exports with missing usage data are handled.
func numericCell(row []string, header map[string]int, name string) decimal.Decimal {
	raw := cell(row, header, name)
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

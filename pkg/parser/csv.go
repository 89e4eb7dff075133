package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

const defaultDateFormat = "2006-01-02"

// fallbackDateFormat covers dd/mm/yyyy exports, tried only when no
// explicit format was configured.
const fallbackDateFormat = "02/01/2006"

type csvColumns struct {
	date, description, amount int
}

// ParseCSV decodes a delimited statement. Malformed rows (short record,
// bad date, bad amount) each produce one PARSE_ERROR issue and are
// skipped; only an unreadable file or an unresolvable header fails the
// whole import.
func (p *Parser) ParseCSV(data []byte, opts models.CSVOptions) (*Result, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	if opts.Delimiter != "" {
		r.Comma = rune(opts.Delimiter[0])
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("reading csv: %v", err)}
	}
	if len(records) == 0 {
		return &Result{}, nil
	}

	cols := csvColumns{
		date:        opts.DateIndex,
		description: opts.DescriptionIndex,
		amount:      opts.AmountIndex,
	}
	start := 0
	if opts.HasHeader {
		resolved, err := resolveHeader(records[0], opts)
		if err != nil {
			return nil, &FormatError{Reason: err.Error()}
		}
		cols = resolved
		start = 1
	}

	result := &Result{}
	for i := start; i < len(records); i++ {
		line := i + 1
		entry, err := p.parseCSVRow(records[i], cols, opts, line)
		if err != nil {
			p.logger.Debug("skipping csv row", "line", line, "err", err)
			result.Issues = append(result.Issues, models.ImportIssue{
				Type:    models.IssueParseError,
				Line:    line,
				Message: err.Error(),
			})
			result.Rows++
			continue
		}
		result.Entries = append(result.Entries, entry)
		result.Rows++
	}
	return result, nil
}

func resolveHeader(header []string, opts models.CSVOptions) (csvColumns, error) {
	find := func(name string) (int, error) {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("column %q not found in header", name)
	}

	var cols csvColumns
	var err error
	if cols.date, err = find(opts.DateColumn); err != nil {
		return cols, err
	}
	if cols.description, err = find(opts.DescriptionColumn); err != nil {
		return cols, err
	}
	if cols.amount, err = find(opts.AmountColumn); err != nil {
		return cols, err
	}
	return cols, nil
}

func (p *Parser) parseCSVRow(rec []string, cols csvColumns, opts models.CSVOptions, line int) (models.StatementEntry, error) {
	need := cols.date
	if cols.description > need {
		need = cols.description
	}
	if cols.amount > need {
		need = cols.amount
	}
	if len(rec) <= need {
		return models.StatementEntry{}, fmt.Errorf("row has %d columns, need at least %d", len(rec), need+1)
	}

	date, err := parseDate(strings.TrimSpace(rec[cols.date]), opts.DateFormat)
	if err != nil {
		return models.StatementEntry{}, err
	}

	amount, err := NormalizeAmount(rec[cols.amount], opts.Locale)
	if err != nil {
		return models.StatementEntry{}, err
	}

	return models.StatementEntry{
		Date:        date,
		Description: strings.TrimSpace(rec[cols.description]),
		Amount:      amount,
		Line:        line,
	}, nil
}

func parseDate(raw, format string) (time.Time, error) {
	if format != "" {
		t, err := time.Parse(format, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing date %q: %w", raw, err)
		}
		return t, nil
	}
	if t, err := time.Parse(defaultDateFormat, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(fallbackDateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: unrecognized format", raw)
	}
	return t, nil
}

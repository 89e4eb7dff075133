package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

// OFX files are SGML-ish: tags are often unclosed and banks disagree on
// whitespace, so the battle-tested approach is regex extraction of the
// STMTTRN blocks rather than a strict XML parse.
var (
	ofxRootRegex  = regexp.MustCompile(`(?i)<OFX>`)
	stmtTrnRegex  = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	ofxFieldRegex = map[string]*regexp.Regexp{}
)

func init() {
	for _, tag := range []string{"DTPOSTED", "TRNAMT", "NAME", "MEMO", "FITID"} {
		ofxFieldRegex[tag] = regexp.MustCompile(fmt.Sprintf(`(?i)<%s>([^<\r\n]*)`, tag))
	}
}

// ParseOFX extracts every STMTTRN block from an OFX statement. Unlike CSV,
// OFX structure is rigid: a missing <OFX> root or an undecodable block
// fails the entire import with a FormatError, before any persistence.
func (p *Parser) ParseOFX(data []byte) (*Result, error) {
	content := string(data)
	if !ofxRootRegex.MatchString(content) {
		return nil, &FormatError{Reason: "missing <OFX> root element"}
	}

	matches := stmtTrnRegex.FindAllStringSubmatch(content, -1)
	result := &Result{}
	for i, match := range matches {
		entry, err := p.parseSTMTTRN(match[1], i+1)
		if err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("transaction block %d: %v", i+1, err)}
		}
		result.Entries = append(result.Entries, entry)
		result.Rows++
	}

	p.logger.Debug("parsed ofx statement", "transactions", result.Rows)
	return result, nil
}

func (p *Parser) parseSTMTTRN(block string, n int) (models.StatementEntry, error) {
	getField := func(tag string) string {
		if m := ofxFieldRegex[tag].FindStringSubmatch(block); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
		return ""
	}

	date, err := parseOFXDate(getField("DTPOSTED"))
	if err != nil {
		return models.StatementEntry{}, err
	}

	rawAmount := getField("TRNAMT")
	// TRNAMT is already sign-correct; Brazilian banks occasionally emit a
	// comma decimal separator even though the spec says period.
	amount, err := decimal.NewFromString(strings.ReplaceAll(rawAmount, ",", "."))
	if err != nil {
		return models.StatementEntry{}, fmt.Errorf("parsing TRNAMT %q: %w", rawAmount, err)
	}

	description := getField("NAME")
	if description == "" {
		description = getField("MEMO")
	}

	return models.StatementEntry{
		Date:        date,
		Description: description,
		Amount:      amount,
		ExternalID:  getField("FITID"),
		Line:        n,
	}, nil
}

// parseOFXDate reads DTPOSTED (YYYYMMDDHHMMSS[offset]). Only the date
// part matters for duplicate comparison, so the time and timezone suffix
// are dropped.
func parseOFXDate(raw string) (time.Time, error) {
	if len(raw) < 8 {
		return time.Time{}, fmt.Errorf("DTPOSTED %q too short", raw)
	}
	t, err := time.Parse("20060102", raw[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing DTPOSTED %q: %w", raw, err)
	}
	return t, nil
}

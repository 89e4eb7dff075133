package parser

import (
	"github.com/charmbracelet/log"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

// Parser decodes raw statement uploads into ordered StatementEntry slices.
type Parser struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Parser {
	return &Parser{
		logger: logger,
	}
}

// Result carries what one file yielded: the decoded entries in file order,
// the per-row issues for rows that could not be decoded, and how many rows
// were seen in total (decoded + rejected).
type Result struct {
	Entries []models.StatementEntry
	Issues  []models.ImportIssue
	Rows    int
}

// ProcessBytes parses data according to the request's file type, falling
// back to filename detection when the request leaves the type unset.
// CSV tolerates malformed rows (each becomes a PARSE_ERROR issue); OFX is
// rigid and a structural problem fails the whole file with a FormatError.
func (p *Parser) ProcessBytes(data []byte, filename string, req models.ImportRequest) (*Result, error) {
	fileType := req.FileType
	if fileType == "" {
		fileType = models.DetectFileType(filename)
	}
	p.logger.Debug("parsing statement", "type", fileType, "filename", filename)

	switch fileType {
	case models.FileTypeCSV:
		return p.ParseCSV(data, req.CSV)
	case models.FileTypeOFX:
		return p.ParseOFX(data)
	default:
		return nil, &FormatError{Reason: "unsupported file type", Filename: filename}
	}
}

// FormatError means the file itself is structurally unusable. It aborts
// the entire import before any persistence, unlike per-row parse issues.
type FormatError struct {
	Reason   string
	Filename string
}

func (e *FormatError) Error() string {
	if e.Filename != "" {
		return "invalid statement file " + e.Filename + ": " + e.Reason
	}
	return "invalid statement file: " + e.Reason
}

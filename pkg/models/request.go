package models

import "strings"

// FileType identifies the statement format of an upload.
type FileType string

const (
	FileTypeCSV FileType = "csv"
	FileTypeOFX FileType = "ofx"
)

// DetectFileType resolves a FileType from a filename extension. Returns ""
// when the extension is not a supported statement format.
func DetectFileType(filename string) FileType {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		return FileTypeCSV
	case strings.HasSuffix(lower, ".ofx"):
		return FileTypeOFX
	}
	return ""
}

// DuplicateStrategy controls what happens when an entry matches an already
// imported transaction or an earlier entry in the same file.
type DuplicateStrategy string

const (
	// DuplicateSkip drops the duplicate and records an informational issue.
	DuplicateSkip DuplicateStrategy = "SKIP"
	// DuplicateImportAnyway persists the duplicate with no issue recorded.
	DuplicateImportAnyway DuplicateStrategy = "IMPORT_ANYWAY"
	// DuplicateFlag persists the duplicate and records an issue for review.
	DuplicateFlag DuplicateStrategy = "FLAG"
)

// CSVOptions configures the CSV parser for one import. Columns are resolved
// by header name when HasHeader is set, by zero-based index otherwise.
type CSVOptions struct {
	Delimiter string `json:"delimiter"`
	HasHeader bool   `json:"has_header"`

	DateColumn        string `json:"date_column"`
	DescriptionColumn string `json:"description_column"`
	AmountColumn      string `json:"amount_column"`

	DateIndex        int `json:"date_index"`
	DescriptionIndex int `json:"description_index"`
	AmountIndex      int `json:"amount_index"`

	// DateFormat is a Go reference layout. Empty means ISO (2006-01-02)
	// with dd/mm/yyyy accepted as a fallback.
	DateFormat string `json:"date_format"`
	// Locale selects the decimal separator convention: "pt-BR" or "en-US".
	// Empty defaults to en-US.
	Locale string `json:"locale"`
}

// ImportRequest is the configuration for one import run. It is immutable
// for the duration of the call; the same defaults and allocation set apply
// to every entry in the file.
type ImportRequest struct {
	UserID     string            `json:"user_id"`
	CategoryID string            `json:"category_id"`
	Subtype    string            `json:"subtype"`
	SourceID   string            `json:"source_id"`
	FileType   FileType          `json:"file_type"`
	Strategy   DuplicateStrategy `json:"duplicate_strategy"`

	Allocations []Allocation `json:"allocations"`

	CSV CSVOptions `json:"csv"`
}

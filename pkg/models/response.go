package models

// IssueType tags one per-entry problem recorded during an import.
type IssueType string

const (
	// IssueParseError marks a row that could not be decoded. The row is
	// skipped and the rest of the file continues.
	IssueParseError IssueType = "PARSE_ERROR"
	// IssueDuplicateSkipped marks an entry dropped by the SKIP strategy.
	IssueDuplicateSkipped IssueType = "DUPLICATE_SKIPPED"
	// IssueDuplicateFlagged marks an entry imported under the FLAG
	// strategy and left for user review.
	IssueDuplicateFlagged IssueType = "DUPLICATE_FLAGGED"
	// IssuePersistenceError marks an entry the store refused.
	IssuePersistenceError IssueType = "PERSISTENCE_ERROR"
)

// ImportIssue records one problematic entry. A single bad row never aborts
// the batch; issues accumulate in the response instead.
type ImportIssue struct {
	Type        IssueType `json:"type"`
	Line        int       `json:"line"`
	Description string    `json:"description,omitempty"`
	Message     string    `json:"message"`
}

// ImportResponse is the aggregate result of one import run. Every entry
// lands in exactly one bucket: created, skipped duplicate, or issue of a
// non-duplicate type.
type ImportResponse struct {
	TotalEntries int           `json:"total_entries"`
	Created      int           `json:"created_transactions"`
	Duplicates   int           `json:"duplicate_entries"`
	Issues       []ImportIssue `json:"issues"`
}

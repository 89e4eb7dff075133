// Package importer drives one statement import end to end: parse,
// normalize, duplicate-check and persist every entry, accumulating
// per-entry outcomes into a single response. A bad row never aborts the
// batch; only an unusable file or an invalid request configuration does.
package importer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/caixinha-dev/caixinha/pkg/fingerprint"
	"github.com/caixinha-dev/caixinha/pkg/models"
	"github.com/caixinha-dev/caixinha/pkg/parser"
)

// TransactionStore is the persistence gateway the importer writes through.
// Each CreateTransaction call is its own transaction boundary; a failed
// row must not roll back rows already created.
type TransactionStore interface {
	ExistsFingerprint(ctx context.Context, userID, fp string) (bool, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) (string, error)
}

// Lookup resolves the foreign keys an import request references. Every id
// must exist and belong to the requesting user.
type Lookup interface {
	CategoryExists(ctx context.Context, id, userID string) (bool, error)
	ResponsibleExists(ctx context.Context, id, userID string) (bool, error)
	SourceExists(ctx context.Context, id, userID string) (bool, error)
}

// Importer is decoupled from CLI and HTTP details so both layers reuse it.
type Importer struct {
	store  TransactionStore
	lookup Lookup
	parser *parser.Parser
	logger *log.Logger
}

func New(store TransactionStore, lookup Lookup, logger *log.Logger) *Importer {
	return &Importer{
		store:  store,
		lookup: lookup,
		parser: parser.New(logger),
		logger: logger,
	}
}

// Run executes one import. Request-level failures (structurally invalid
// file, invalid allocation set, unknown category) return a non-nil error
// before anything is persisted. Everything after that point is partial-
// success territory: per-entry problems land in the response issue list
// and the loop keeps going.
//
// Entries are processed strictly in file order. The duplicate seen-set is
// scoped to this call, so a cancelled context returns the partial response
// accumulated so far together with the context error.
func (imp *Importer) Run(ctx context.Context, data []byte, filename string, req models.ImportRequest) (*models.ImportResponse, error) {
	if err := imp.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	parsed, err := imp.parser.ProcessBytes(data, filename, req)
	if err != nil {
		return nil, err
	}

	resp := &models.ImportResponse{
		TotalEntries: parsed.Rows,
		Issues:       parsed.Issues,
	}
	detector := newDuplicateDetector(imp.store)

	for _, entry := range parsed.Entries {
		select {
		case <-ctx.Done():
			imp.logger.Warn("import interrupted", "created", resp.Created, "remaining", parsed.Rows-resp.Created)
			return resp, ctx.Err()
		default:
		}
		imp.processEntry(ctx, detector, entry, req, resp)
	}

	imp.logger.Info("import complete",
		"file", filename,
		"total", resp.TotalEntries,
		"created", resp.Created,
		"duplicates", resp.Duplicates,
		"issues", len(resp.Issues))
	return resp, nil
}

func (imp *Importer) processEntry(ctx context.Context, detector *duplicateDetector, entry models.StatementEntry, req models.ImportRequest, resp *models.ImportResponse) {
	fp := fingerprint.ForEntry(req.UserID, entry)

	class, err := detector.Classify(ctx, req.UserID, fp, req.Strategy)
	if err != nil {
		resp.Issues = append(resp.Issues, issueFor(entry, models.IssuePersistenceError,
			fmt.Sprintf("duplicate lookup failed: %v", err)))
		return
	}

	switch class {
	case DuplicateSkip:
		resp.Duplicates++
		resp.Issues = append(resp.Issues, issueFor(entry, models.IssueDuplicateSkipped,
			"entry matches an already imported transaction"))
		return
	case DuplicateFlag:
		resp.Issues = append(resp.Issues, issueFor(entry, models.IssueDuplicateFlagged,
			"entry matches an already imported transaction, imported for review"))
	}

	tx := buildTransaction(entry, req)
	tx.Fingerprint = fp
	if _, err := imp.store.CreateTransaction(ctx, tx); err != nil {
		imp.logger.Debug("persist failed", "line", entry.Line, "err", err)
		resp.Issues = append(resp.Issues, issueFor(entry, models.IssuePersistenceError, err.Error()))
		return
	}
	resp.Created++
}

// buildTransaction applies the request defaults to one entry. The stored
// amount is the magnitude; the sign becomes the transaction type.
func buildTransaction(entry models.StatementEntry, req models.ImportRequest) *models.Transaction {
	return &models.Transaction{
		UserID:      req.UserID,
		Description: entry.Description,
		Amount:      entry.Amount.Abs(),
		Date:        entry.Date,
		Type:        models.TypeFromAmount(entry.Amount),
		Subtype:     req.Subtype,
		SourceID:    req.SourceID,
		CategoryID:  req.CategoryID,
		Allocations: req.Allocations,
	}
}

func issueFor(entry models.StatementEntry, t models.IssueType, msg string) models.ImportIssue {
	return models.ImportIssue{
		Type:        t,
		Line:        entry.Line,
		Description: entry.Description,
		Message:     msg,
	}
}

func (imp *Importer) validateRequest(ctx context.Context, req models.ImportRequest) error {
	if req.UserID == "" {
		return &RequestError{Field: "user_id", Message: "user_id is required"}
	}
	if req.CategoryID != "" {
		ok, err := imp.lookup.CategoryExists(ctx, req.CategoryID, req.UserID)
		if err != nil {
			return fmt.Errorf("resolving category: %w", err)
		}
		if !ok {
			return &RequestError{Field: "category_id", Message: fmt.Sprintf("category %s not found for user", req.CategoryID)}
		}
	}
	if req.SourceID != "" {
		ok, err := imp.lookup.SourceExists(ctx, req.SourceID, req.UserID)
		if err != nil {
			return fmt.Errorf("resolving source: %w", err)
		}
		if !ok {
			return &RequestError{Field: "source_id", Message: fmt.Sprintf("source %s not found for user", req.SourceID)}
		}
	}
	// One shared allocation set applies to every entry, so it is validated
	// exactly once, before any row is touched.
	return imp.validateAllocations(ctx, req.UserID, req.Allocations)
}

// RequestError is a request-level validation failure. It aborts the whole
// import with no partial response.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

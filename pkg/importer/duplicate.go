package importer

import (
	"context"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

// Classification is the duplicate detector's verdict for one entry.
type Classification int

const (
	// ClassificationNew means no matching transaction exists; persist normally.
	ClassificationNew Classification = iota
	// DuplicateSkip means drop the entry (SKIP strategy).
	DuplicateSkip
	// DuplicateImport means persist despite the match (IMPORT_ANYWAY).
	DuplicateImport
	// DuplicateFlag means persist and record an issue for review (FLAG).
	DuplicateFlag
)

// duplicateDetector checks each entry's fingerprint against transactions
// already persisted for the user and against earlier entries of the same
// batch. Statement exports sometimes repeat a transaction on adjacent
// lines, so the in-batch set matters even on a first import.
//
// The seen-set is scoped to one import call and discarded afterwards.
type duplicateDetector struct {
	store TransactionStore
	seen  map[string]struct{}
}

func newDuplicateDetector(store TransactionStore) *duplicateDetector {
	return &duplicateDetector{
		store: store,
		seen:  make(map[string]struct{}),
	}
}

// Classify resolves the outcome for one fingerprint under the given
// strategy. A NEW fingerprint is marked seen before the caller persists
// it, so later entries in the same file detect it regardless of
// persistence timing.
func (d *duplicateDetector) Classify(ctx context.Context, userID, fp string, strategy models.DuplicateStrategy) (Classification, error) {
	_, inBatch := d.seen[fp]
	if !inBatch {
		exists, err := d.store.ExistsFingerprint(ctx, userID, fp)
		if err != nil {
			return ClassificationNew, err
		}
		if !exists {
			d.seen[fp] = struct{}{}
			return ClassificationNew, nil
		}
	}

	switch strategy {
	case models.DuplicateImportAnyway:
		return DuplicateImport, nil
	case models.DuplicateFlag:
		return DuplicateFlag, nil
	default:
		return DuplicateSkip, nil
	}
}

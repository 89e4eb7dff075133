package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

// allocationEpsilon absorbs rounding from decimal division elsewhere.
// Exact equality on divided percentages is a trap even with exact
// decimals (100/3 three ways).
var (
	allocationEpsilon = decimal.RequireFromString("0.01")
	fullAllocation    = decimal.NewFromInt(100)
)

// AllocationError is fatal to the whole batch: every entry shares the one
// allocation set, so there is nothing to partially import.
type AllocationError struct {
	Reason string
}

func (e *AllocationError) Error() string {
	return "invalid allocation: " + e.Reason
}

// validateAllocations checks that percentages sum to 100 within epsilon
// and that every responsible party exists and belongs to the user. An
// empty set is valid and means the transaction is wholly the owner's.
func (imp *Importer) validateAllocations(ctx context.Context, userID string, allocations []models.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}

	total := decimal.Zero
	seen := make(map[string]struct{}, len(allocations))
	var missing []string

	for _, a := range allocations {
		if a.ResponsibleID == "" {
			return &AllocationError{Reason: "allocation with empty responsible_id"}
		}
		if _, dup := seen[a.ResponsibleID]; dup {
			return &AllocationError{Reason: fmt.Sprintf("responsible %s allocated twice", a.ResponsibleID)}
		}
		seen[a.ResponsibleID] = struct{}{}

		if a.Percentage.IsNegative() || a.Percentage.GreaterThan(fullAllocation) {
			return &AllocationError{Reason: fmt.Sprintf("percentage %s out of range for responsible %s", a.Percentage, a.ResponsibleID)}
		}
		total = total.Add(a.Percentage)

		ok, err := imp.lookup.ResponsibleExists(ctx, a.ResponsibleID, userID)
		if err != nil {
			return fmt.Errorf("resolving responsible %s: %w", a.ResponsibleID, err)
		}
		if !ok {
			missing = append(missing, a.ResponsibleID)
		}
	}

	if len(missing) > 0 {
		return &AllocationError{Reason: "unknown responsible ids: " + strings.Join(missing, ", ")}
	}

	if total.Sub(fullAllocation).Abs().GreaterThan(allocationEpsilon) {
		return &AllocationError{Reason: fmt.Sprintf("percentages sum to %s, expected 100", total)}
	}
	return nil
}

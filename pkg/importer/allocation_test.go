package importer

import (
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

func newTestImporter() *Importer {
	return New(newFakeStore(), newFakeLookup(), log.Default())
}

func TestValidateAllocations_Valid(t *testing.T) {
	imp := newTestImporter()
	tests := []struct {
		name        string
		allocations []models.Allocation
	}{
		{"empty set", nil},
		{"single full", []models.Allocation{{ResponsibleID: "resp-1", Percentage: pct("100")}}},
		{"even split", []models.Allocation{
			{ResponsibleID: "resp-1", Percentage: pct("50")},
			{ResponsibleID: "resp-2", Percentage: pct("50")},
		}},
		{"within epsilon", []models.Allocation{
			{ResponsibleID: "resp-1", Percentage: pct("33.33")},
			{ResponsibleID: "resp-2", Percentage: pct("66.66")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, imp.validateAllocations(context.Background(), "user-1", tt.allocations))
		})
	}
}

func TestValidateAllocations_Invalid(t *testing.T) {
	imp := newTestImporter()
	tests := []struct {
		name        string
		allocations []models.Allocation
		contains    string
	}{
		{"under 100", []models.Allocation{{ResponsibleID: "resp-1", Percentage: pct("90")}}, "sum"},
		{"over 100", []models.Allocation{
			{ResponsibleID: "resp-1", Percentage: pct("60")},
			{ResponsibleID: "resp-2", Percentage: pct("60")},
		}, "sum"},
		{"beyond epsilon", []models.Allocation{{ResponsibleID: "resp-1", Percentage: pct("99.98")}}, "sum"},
		{"empty id", []models.Allocation{{ResponsibleID: "", Percentage: pct("100")}}, "responsible_id"},
		{"repeated id", []models.Allocation{
			{ResponsibleID: "resp-1", Percentage: pct("50")},
			{ResponsibleID: "resp-1", Percentage: pct("50")},
		}, "twice"},
		{"negative percentage", []models.Allocation{
			{ResponsibleID: "resp-1", Percentage: pct("-10")},
			{ResponsibleID: "resp-2", Percentage: pct("110")},
		}, "range"},
		{"unknown responsible", []models.Allocation{{ResponsibleID: "ghost", Percentage: pct("100")}}, "ghost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := imp.validateAllocations(context.Background(), "user-1", tt.allocations)
			require.Error(t, err)
			var allocErr *AllocationError
			require.ErrorAs(t, err, &allocErr)
			assert.Contains(t, allocErr.Error(), tt.contains)
		})
	}
}

func TestValidateAllocations_EpsilonBoundary(t *testing.T) {
	imp := newTestImporter()

	// Exactly 0.01 off is still accepted; 0.02 is not.
	ok := []models.Allocation{{ResponsibleID: "resp-1", Percentage: pct("99.99")}}
	assert.NoError(t, imp.validateAllocations(context.Background(), "user-1", ok))

	bad := []models.Allocation{{ResponsibleID: "resp-1", Percentage: pct("99.98")}}
	assert.Error(t, imp.validateAllocations(context.Background(), "user-1", bad))
}

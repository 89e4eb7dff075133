package fingerprint

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

var (
	day    = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	amount = decimal.RequireFromString("-125.75")
)

func TestForEntry_PrefersExternalID(t *testing.T) {
	withID := models.StatementEntry{Date: day, Description: "Supermarket", Amount: amount, ExternalID: "FIT123"}
	withoutID := models.StatementEntry{Date: day, Description: "Supermarket", Amount: amount}

	assert.Equal(t, External("u1", "FIT123"), ForEntry("u1", withID))
	assert.Equal(t, Composite("u1", day, amount, "Supermarket"), ForEntry("u1", withoutID))
	assert.NotEqual(t, ForEntry("u1", withID), ForEntry("u1", withoutID))
}

func TestComposite_Deterministic(t *testing.T) {
	a := Composite("u1", day, amount, "Supermarket")
	b := Composite("u1", day, amount, "Supermarket")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestComposite_NormalizesDescription(t *testing.T) {
	a := Composite("u1", day, amount, "Supermarket")
	b := Composite("u1", day, amount, "  SUPERMARKET ")
	c := Composite("u1", day, amount, "super  market")
	assert.Equal(t, a, b, "case and padding must not defeat detection")
	assert.NotEqual(t, a, c)
}

func TestComposite_SeparatesUsers(t *testing.T) {
	assert.NotEqual(t,
		Composite("u1", day, amount, "Supermarket"),
		Composite("u2", day, amount, "Supermarket"))
}

func TestComposite_AmountScaleInsensitive(t *testing.T) {
	// 850.5 and 850.50 are the same value and must collide.
	a := Composite("u1", day, decimal.RequireFromString("850.5"), "Pay")
	b := Composite("u1", day, decimal.RequireFromString("850.50"), "Pay")
	assert.Equal(t, a, b)
}

func TestExternal_TrimsReference(t *testing.T) {
	assert.Equal(t, External("u1", "FIT123"), External("u1", " FIT123 "))
}

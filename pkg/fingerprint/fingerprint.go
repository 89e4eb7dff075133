// Package fingerprint derives the deterministic key used to detect
// duplicate transactions. The key is never stored as its own entity; it is
// computed on demand against persisted rows and in-batch entries.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

// ForEntry computes the duplicate key for one statement entry. When the
// entry carries a bank reference (OFX FITID) that alone identifies the
// movement; otherwise the key is a composite of user, date, amount and
// normalized description.
func ForEntry(userID string, entry models.StatementEntry) string {
	if entry.ExternalID != "" {
		return External(userID, entry.ExternalID)
	}
	return Composite(userID, entry.Date, entry.Amount, entry.Description)
}

// External keys on the bank's own reference id.
func External(userID, externalID string) string {
	return hash(fmt.Sprintf("ext|%s|%s", userID, strings.TrimSpace(externalID)))
}

// Composite keys on user, date, exact amount and normalized description.
// The description is lowercased and space-collapsed so cosmetic export
// differences do not defeat detection.
func Composite(userID string, date time.Time, amount decimal.Decimal, description string) string {
	return hash(fmt.Sprintf("cmp|%s|%s|%s|%s",
		userID,
		date.Format("2006-01-02"),
		amount.String(),
		normalize(description)))
}

func normalize(description string) string {
	return strings.Join(strings.Fields(strings.ToLower(description)), " ")
}

func hash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", sum)[:16]
}

package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Locale names accepted by NormalizeAmount. Anything else falls back to
// the en-US convention.
const (
	LocalePtBR = "pt-BR"
	LocaleEnUS = "en-US"
)

// NormalizeAmount converts a locale-formatted decimal string into an exact
// decimal. pt-BR uses "." for thousands and "," for decimals; en-US (the
// default) is the inverse. Currency symbols and whitespace are stripped
// first, so "R$ 1.234,56" and "$1,234.56" both come out as 1234.56.
func NormalizeAmount(raw, locale string) (decimal.Decimal, error) {
	s := stripCurrency(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", raw)
	}

	switch locale {
	case LocalePtBR:
		switch {
		case strings.Contains(s, ","):
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		case looksLikeThousands(s):
			s = strings.ReplaceAll(s, ".", "")
		}
		// A lone dot with a non-3-digit tail ("850.50") is a decimal
		// point even in pt-BR; bank exports mix conventions freely.
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return d, nil
}

// looksLikeThousands reports whether every dot-separated group after the
// first has exactly three digits, i.e. "1.234" or "1.234.567".
func looksLikeThousands(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts[1:] {
		if len(part) != 3 {
			return false
		}
	}
	return true
}

func stripCurrency(raw string) string {
	s := strings.TrimSpace(raw)
	for _, sym := range []string{"R$", "US$", "$", "€", "£"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	// Some exports wrap negatives in parentheses.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	return strings.TrimSpace(s)
}

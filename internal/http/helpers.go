package http

import (
	"strings"

	"budgie/internal/core"
)

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// AmountJSON renders money both as exact cents and as a decimal string.
type AmountJSON struct {
	Cents  int64  `json:"cents"`
	Amount string `json:"amount"`
}

func amountJSON(m core.Money) AmountJSON {
	return AmountJSON{Cents: m.Cents, Amount: m.String()}
}

func amountsJSON(in map[string]core.Money) map[string]AmountJSON {
	out := make(map[string]AmountJSON, len(in))
	for k, m := range in {
		out[k] = amountJSON(m)
	}
	return out
}

// backend/src/processors/normalizer.go
package processors

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/momovisor/backend/src/models"
)

// readableDateLayouts are the human-readable timestamp formats seen in SMS
// backup exports, tried in order after the epoch-milliseconds attribute.
var readableDateLayouts = []string{
	"2 Jan 2006 3:04:05 PM",
	"2 Jan 2006 15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
}

// Normalizer canonicalizes extracted fields. It never fails: a field that
// cannot be normalized is simply left absent and propagated, leaving the
// downstream gate to decide whether the record is still usable.
type Normalizer struct{}

func NewNormalizer() *Normalizer { return &Normalizer{} }

// Normalize converts a provisional field set into its canonical form.
func (n *Normalizer) Normalize(fields models.ExtractedFields) models.NormalizedFields {
	normalized := models.NormalizedFields{
		Counterparty: strings.TrimSpace(fields.Counterparty),
		Reference:    strings.TrimSpace(fields.Reference),
	}

	if fields.AmountText != "" {
		cleaned := strings.TrimSpace(fields.AmountText)
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		cleaned = strings.ReplaceAll(cleaned, " ", "")
		if amount, err := decimal.NewFromString(cleaned); err == nil {
			normalized.Amount = amount
			normalized.HasAmount = true
		}
	}

	if ts, ok := normalizeTimestamp(fields.DateText, fields.ReadableDate); ok {
		normalized.Timestamp = ts
		normalized.HasTimestamp = true
	}

	if fields.Phone != "" {
		normalized.Phone = stripPhoneFormatting(fields.Phone)
	}

	return normalized
}

// normalizeTimestamp converts either accepted source format into a canonical
// UTC instant: numeric epoch-milliseconds first, readable date as fallback.
func normalizeTimestamp(dateText, readableDate string) (time.Time, bool) {
	if millis, err := strconv.ParseInt(strings.TrimSpace(dateText), 10, 64); err == nil && millis > 0 {
		return time.UnixMilli(millis).UTC(), true
	}
	readable := strings.TrimSpace(readableDate)
	if readable != "" {
		for _, layout := range readableDateLayouts {
			if ts, err := time.Parse(layout, readable); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// stripPhoneFormatting removes spaces, dashes and parentheses, keeping a
// leading plus sign and the digits.
func stripPhoneFormatting(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

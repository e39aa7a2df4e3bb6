// backend/src/processors/extractor.go
package processors

import (
	"regexp"
	"strings"

	"github.com/username/momovisor/backend/src/models"
)

// momoIndicators is the fixed detection keyword set. A body matching none of
// these is not a mobile-money notification and is rejected outright.
var momoIndicators = []string{
	"momo",
	"mobile money",
	"rwf",
	"txid",
	"received",
	"payment",
	"transferred",
	"deposit",
	"withdrew",
	"cash in",
	"cash out",
}

// amountPatterns are tried in order; the first match wins. They tolerate
// thousands separators and both "RWF 2,000" and "2,000 RWF" spellings.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)RWF\s*(\d[\d,]*(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*RWF`),
	regexp.MustCompile(`(?i)amount[:\s]+RWF\s*(\d[\d,]*(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)amount[:\s]+(\d[\d,]*(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*francs`),
}

// referencePatterns are tried in order; the first match wins.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btxid[:\s]*(\w+)`),
	regexp.MustCompile(`(?i)\bref(?:erence)?[:\s]+(\w+)`),
	regexp.MustCompile(`(?i)\bid[:\s]+(\w+)`),
}

var (
	phonePattern = regexp.MustCompile(`(?:\+|0)[\d\s-]{8,}\d`)
	// Counterparty names: letters, spaces, apostrophes and hyphens after
	// "from"/"to", ending at punctuation, a parenthesis, a continuation verb
	// or the end of the body.
	nameTerminator = `(?:\s+(?:has|have|was|is|on|at|for|via)\b|\s*[.,(]|$)`
	fromPattern    = regexp.MustCompile(`(?i)\bfrom\s+([A-Za-z][A-Za-z' -]*?[A-Za-z])` + nameTerminator)
	toPattern      = regexp.MustCompile(`(?i)\bto\s+([A-Za-z][A-Za-z' -]*?[A-Za-z])` + nameTerminator)
)

// Extractor turns one raw SMS into a provisional field set.
// It is a pure function of the message: no side effects, no state.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns the provisional fields for a message, or a non-empty
// failure reason when the message cannot be treated as a MoMo notification.
// A missing amount is not a failure here; the loader gate decides usability.
func (e *Extractor) Extract(msg models.RawMessage) (models.ExtractedFields, models.FailureReason) {
	body := msg.Body
	if strings.TrimSpace(body) == "" {
		return models.ExtractedFields{}, models.ReasonUnrecognizedFormat
	}

	lowerBody := strings.ToLower(body)
	if !isMomoBody(lowerBody) {
		return models.ExtractedFields{}, models.ReasonNotMomoMessage
	}

	fields := models.ExtractedFields{
		DateText:     msg.Date,
		ReadableDate: msg.ReadableDate,
	}

	for _, pattern := range amountPatterns {
		if match := pattern.FindStringSubmatch(body); match != nil {
			fields.AmountText = match[1]
			break
		}
	}

	if match := fromPattern.FindStringSubmatch(body); match != nil {
		fields.Counterparty = strings.TrimSpace(match[1])
	} else if match := toPattern.FindStringSubmatch(body); match != nil {
		fields.Counterparty = strings.TrimSpace(match[1])
	}
	if fields.Counterparty == "" && msg.ContactName != "" && msg.ContactName != "(Unknown)" {
		fields.Counterparty = msg.ContactName
	}

	if match := phonePattern.FindString(body); match != "" {
		fields.Phone = strings.TrimSpace(match)
	}

	for _, pattern := range referencePatterns {
		if match := pattern.FindStringSubmatch(body); match != nil {
			fields.Reference = match[1]
			break
		}
	}

	return fields, ""
}

func isMomoBody(lowerBody string) bool {
	for _, indicator := range momoIndicators {
		if strings.Contains(lowerBody, indicator) {
			return true
		}
	}
	return false
}

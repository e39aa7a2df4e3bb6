package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawMessage is one SMS unit as read from the backup XML document.
// Immutable once parsed; every downstream record traces back to exactly one of these.
type RawMessage struct {
	Address      string `json:"address"`
	Body         string `json:"body"`
	Date         string `json:"date"`          // epoch milliseconds, as exported
	ReadableDate string `json:"readable_date"` // human-readable fallback, may be empty
	ContactName  string `json:"contact_name"`
}

// FailureReason is the typed reason a message was routed to the dead-letter log.
type FailureReason string

const (
	ReasonNotMomoMessage     FailureReason = "NOT_MOMO_MESSAGE"
	ReasonUnrecognizedFormat FailureReason = "UNRECOGNIZED_FORMAT"
	ReasonInvalidAmount      FailureReason = "INVALID_AMOUNT"
)

// ExtractedFields is the provisional field set the extractor pulls out of a body.
// Every field is optional: extraction is heuristic and absence is a valid outcome.
type ExtractedFields struct {
	AmountText   string // raw matched amount text, e.g. "2,000"
	Counterparty string
	Phone        string
	Reference    string
	DateText     string // epoch-milliseconds attribute, verbatim
	ReadableDate string
}

// NormalizedFields is the canonical form of ExtractedFields.
// Absent fields stay absent; the classifier and loader decide usability.
type NormalizedFields struct {
	Amount       decimal.Decimal
	HasAmount    bool
	Timestamp    time.Time
	HasTimestamp bool
	Counterparty string
	Phone        string
	Reference    string
}

package models

import "github.com/shopspring/decimal"

// Transaction type vocabulary. The classifier only ever emits these values;
// the database schema enforces them with a CHECK constraint.
const (
	TypeCashIn   = "CASH_IN"
	TypeCashOut  = "CASH_OUT"
	TypePayment  = "PAYMENT"
	TypeTransfer = "TRANSFER"
	TypeDeposit  = "DEPOSIT"
	TypeOther    = "OTHER"
)

// Category vocabulary. CategoryOther is the guaranteed fallback.
const (
	CategoryBills     = "bills"
	CategoryAirtime   = "airtime"
	CategoryTransport = "transport"
	CategoryFood      = "food"
	CategoryShopping  = "shopping"
	CategoryTransfer  = "transfer"
	CategoryOther     = "other"
)

// ClassifiedTransaction is a fully normalized and classified transaction
// candidate, ready for the loader. Built once per successful message; the
// pipeline never mutates it after creation.
type ClassifiedTransaction struct {
	Date         string          `json:"date"` // canonical "2006-01-02 15:04:05" UTC
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Type         string          `json:"type"`
	Category     string          `json:"category"`
	Counterparty string          `json:"counterparty,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	Address      string          `json:"address,omitempty"`
	HashID       string          `json:"hash_id"`
}

// Transaction is the persisted row shape served by the API.
type Transaction struct {
	ID            int64   `json:"id"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Category      string  `json:"category"`
	Counterparty  string  `json:"counterparty,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Reference     string  `json:"reference,omitempty"`
	Address       string  `json:"address,omitempty"`
	HashID        string  `json:"hash_id"`
	ProcessedDate string  `json:"processed_date"`
}

// DeadLetterEntry is one append-only row of the dead-letter log.
type DeadLetterEntry struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	Address    string `json:"address,omitempty"`
	RawBody    string `json:"raw_body"`
	Reason     string `json:"reason"`
	CapturedAt string `json:"captured_at"`
}

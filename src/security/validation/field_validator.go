// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/models"
)

// ErrValidationFailed is the sentinel wrapped by every validator here.
var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxDescriptionLength  = 1024
	MaxCounterpartyLength = 255
	MaxPhoneLength        = 20
	MaxReferenceLength    = 100

	transactionDateLayout = "2006-01-02 15:04:05"
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateTransactionType checks the value against the fixed type vocabulary.
func ValidateTransactionType(t string) error {
	switch t {
	case models.TypeCashIn, models.TypeCashOut, models.TypePayment,
		models.TypeTransfer, models.TypeDeposit, models.TypeOther:
		return nil
	}
	return fmt.Errorf("%w: '%s' is not a valid transaction type", ErrValidationFailed, t)
}

// ValidateTransactionDate checks the canonical timestamp format.
func ValidateTransactionDate(date string) error {
	if _, err := time.Parse(transactionDateLayout, date); err != nil {
		return fmt.Errorf("%w: date ('%s') is not in the expected format (%s)", ErrValidationFailed, date, transactionDateLayout)
	}
	return nil
}

// ValidateTransactionInput validates a manually submitted transaction before
// it reaches the store. The same invariants the pipeline guarantees apply:
// positive amount, canonical date, known type, non-empty category.
func ValidateTransactionInput(tx models.Transaction) error {
	if err := ValidateStringNotEmpty(tx.Description, "description"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(tx.Description, MaxDescriptionLength, "description"); err != nil {
		return err
	}
	if err := ValidateTransactionType(tx.Type); err != nil {
		return err
	}
	if err := ValidateStringNotEmpty(tx.Category, "category"); err != nil {
		return err
	}
	if err := ValidateTransactionDate(tx.Date); err != nil {
		return err
	}
	if tx.Amount <= 0 {
		logger.L.Warn("Rejected transaction with non-positive amount", "amount", tx.Amount)
		return fmt.Errorf("%w: amount must be greater than zero", ErrValidationFailed)
	}
	if err := ValidateStringMaxLength(tx.Counterparty, MaxCounterpartyLength, "counterparty"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(tx.Phone, MaxPhoneLength, "phone"); err != nil {
		return err
	}
	return ValidateStringMaxLength(tx.Reference, MaxReferenceLength, "reference")
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/models"
)

func validInput() models.Transaction {
	return models.Transaction{
		Date:        "2024-05-11 13:00:21",
		Description: "You have received 2000 RWF from Jane Smith",
		Amount:      2000,
		Type:        models.TypeCashIn,
		Category:    models.CategoryOther,
	}
}

func TestValidateTransactionInput(t *testing.T) {
	logger.InitLogger("error")

	assert.NoError(t, ValidateTransactionInput(validInput()))

	tests := []struct {
		name   string
		mutate func(*models.Transaction)
	}{
		{"empty description", func(tx *models.Transaction) { tx.Description = "  " }},
		{"unknown type", func(tx *models.Transaction) { tx.Type = "WIRE" }},
		{"empty category", func(tx *models.Transaction) { tx.Category = "" }},
		{"bad date format", func(tx *models.Transaction) { tx.Date = "11/05/2024" }},
		{"zero amount", func(tx *models.Transaction) { tx.Amount = 0 }},
		{"negative amount", func(tx *models.Transaction) { tx.Amount = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validInput()
			tt.mutate(&tx)
			assert.ErrorIs(t, ValidateTransactionInput(tx), ErrValidationFailed)
		})
	}
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "received 2000 RWF", SanitizeText(`<script>alert(1)</script>received 2000 RWF`))
	assert.Equal(t, "plain body", SanitizeText("plain body"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "line one\nline two", StripUnprintable("line one\nline \x00two\x07"))
}

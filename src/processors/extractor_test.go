package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/momovisor/backend/src/models"
)

func TestExtractRejectsNonMomoMessages(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		name string
		msg  models.RawMessage
		want models.FailureReason
	}{
		{
			name: "empty body",
			msg:  models.RawMessage{Address: "M-Money", Body: "   "},
			want: models.ReasonUnrecognizedFormat,
		},
		{
			name: "verification code",
			msg:  models.RawMessage{Address: "Google", Body: "Your verification code is 482913"},
			want: models.ReasonNotMomoMessage,
		},
		{
			name: "chat message",
			msg:  models.RawMessage{Address: "+250788000000", Body: "See you at the stadium tonight"},
			want: models.ReasonNotMomoMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, reason := extractor.Extract(tt.msg)
			assert.Equal(t, tt.want, reason)
		})
	}
}

func TestExtractReceivedMessage(t *testing.T) {
	extractor := NewExtractor()
	msg := models.RawMessage{
		Address:      "M-Money",
		Body:         "You have received 2000 RWF from Jane Smith (+250 788 123 456) on your mobile money account at 2024-05-11.",
		Date:         "1715430021000",
		ReadableDate: "11 May 2024 1:00:21 PM",
	}

	fields, reason := extractor.Extract(msg)
	require.Empty(t, reason)

	assert.Equal(t, "2000", fields.AmountText)
	assert.Equal(t, "Jane Smith", fields.Counterparty)
	assert.Equal(t, "+250 788 123 456", fields.Phone)
	assert.Equal(t, "1715430021000", fields.DateText)
}

func TestExtractPaymentWithReference(t *testing.T) {
	extractor := NewExtractor()
	msg := models.RawMessage{
		Address: "M-Money",
		Body:    "TxId: 73214484437. Your payment of 1,000 RWF to Kigali Coffee Shop has been completed.",
		Date:    "1715430021000",
	}

	fields, reason := extractor.Extract(msg)
	require.Empty(t, reason)

	assert.Equal(t, "1,000", fields.AmountText)
	assert.Equal(t, "73214484437", fields.Reference)
	assert.Equal(t, "Kigali Coffee Shop", fields.Counterparty)
}

func TestExtractAmountSpellings(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		body string
		want string
	}{
		{"You have received RWF 5,500 on your MoMo account", "5,500"},
		{"Cash in of 300 RWF completed", "300"},
		{"MoMo payment amount: 1200 confirmed", "1200"},
		{"Transferred 2500 francs to agent", "2500"},
	}
	for _, tt := range tests {
		fields, reason := extractor.Extract(models.RawMessage{Address: "M-Money", Body: tt.body})
		require.Empty(t, reason, "body %q", tt.body)
		assert.Equal(t, tt.want, fields.AmountText, "body %q", tt.body)
	}
}

func TestExtractCounterpartyContactFallback(t *testing.T) {
	extractor := NewExtractor()

	fields, reason := extractor.Extract(models.RawMessage{
		Address:     "M-Money",
		Body:        "MoMo deposit of 700 RWF confirmed",
		ContactName: "Eric Mugisha",
	})
	require.Empty(t, reason)
	assert.Equal(t, "Eric Mugisha", fields.Counterparty)

	fields, reason = extractor.Extract(models.RawMessage{
		Address:     "M-Money",
		Body:        "MoMo deposit of 700 RWF confirmed",
		ContactName: "(Unknown)",
	})
	require.Empty(t, reason)
	assert.Empty(t, fields.Counterparty)
}

func TestExtractMissingAmountIsNotAFailure(t *testing.T) {
	extractor := NewExtractor()

	fields, reason := extractor.Extract(models.RawMessage{
		Address: "M-Money",
		Body:    "Your MoMo account PIN was changed successfully",
	})
	require.Empty(t, reason)
	assert.Empty(t, fields.AmountText)
}

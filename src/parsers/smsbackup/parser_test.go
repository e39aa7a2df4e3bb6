package smsbackup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/momovisor/backend/src/parsers"
)

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<smses count="2">
  <sms address="M-Money" date="1715430021000" body="You have received 2000 RWF from Jane Smith" readable_date="11 May 2024 1:00:21 PM" contact_name="(Unknown)" />
  <sms address="+250788000000" date="1715430099000" body="See you tonight" readable_date="11 May 2024 1:01:39 PM" contact_name="Alex" />
</smses>`

func TestParseDocument(t *testing.T) {
	parser := NewParser()

	messages, err := parser.Parse(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "M-Money", messages[0].Address)
	assert.Equal(t, "1715430021000", messages[0].Date)
	assert.Equal(t, "You have received 2000 RWF from Jane Smith", messages[0].Body)
	assert.Equal(t, "11 May 2024 1:00:21 PM", messages[0].ReadableDate)
	assert.Equal(t, "(Unknown)", messages[0].ContactName)

	assert.Equal(t, "Alex", messages[1].ContactName)
}

func TestParseEmptyDocument(t *testing.T) {
	parser := NewParser()

	messages, err := parser.Parse(strings.NewReader(`<smses count="0"></smses>`))
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestParseMalformedDocument(t *testing.T) {
	parser := NewParser()

	tests := []string{
		"not xml at all",
		`<smses count="1"><sms address="M-Money"`,
		"",
	}
	for _, input := range tests {
		_, err := parser.Parse(strings.NewReader(input))
		assert.ErrorIs(t, err, parsers.ErrMalformedDocument, "input %q", input)
	}
}

// backend/src/parsers/smsbackup/parser.go
package smsbackup

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/username/momovisor/backend/src/models"
	"github.com/username/momovisor/backend/src/parsers"
)

// smsElement mirrors one <sms> element of an SMS Backup & Restore export.
// All values are attributes on the element.
type smsElement struct {
	Address      string `xml:"address,attr"`
	Date         string `xml:"date,attr"`
	Body         string `xml:"body,attr"`
	ReadableDate string `xml:"readable_date,attr"`
	ContactName  string `xml:"contact_name,attr"`
}

// smsDocument is the root <smses> element.
type smsDocument struct {
	XMLName  xml.Name     `xml:"smses"`
	Count    string       `xml:"count,attr"`
	Messages []smsElement `xml:"sms"`
}

// SMSBackupParser implements the parsers.Parser interface for SMS backup XML files.
type SMSBackupParser struct{}

// NewParser creates a new instance of the SMSBackupParser.
func NewParser() *SMSBackupParser {
	return &SMSBackupParser{}
}

// Parse reads an SMS backup XML document and converts its elements into raw
// messages. A document that cannot be decoded at all is a fatal batch error;
// individual elements are passed through as-is and judged by the extractor.
func (p *SMSBackupParser) Parse(file io.Reader) ([]models.RawMessage, error) {
	var doc smsDocument
	decoder := xml.NewDecoder(file)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: sms backup parser: %v", parsers.ErrMalformedDocument, err)
	}

	messages := make([]models.RawMessage, 0, len(doc.Messages))
	for _, sms := range doc.Messages {
		messages = append(messages, models.RawMessage{
			Address:      sms.Address,
			Body:         sms.Body,
			Date:         sms.Date,
			ReadableDate: sms.ReadableDate,
			ContactName:  sms.ContactName,
		})
	}
	return messages, nil
}

// backend/src/parsers/parser.go
package parsers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/momovisor/backend/src/models"
)

// ErrMalformedDocument marks a document-level parse failure. It is fatal for
// the batch: the run is reported and aborted, never retried automatically.
var ErrMalformedDocument = errors.New("malformed input document")

// Parser turns one input document into the raw message stream the pipeline consumes.
type Parser interface {
	Parse(file io.Reader) ([]models.RawMessage, error)
}

var registry = map[string]func() Parser{}

// Register adds a parser constructor under a source name. Called from the
// concrete parser packages' wiring in main.
func Register(source string, factory func() Parser) {
	registry[strings.ToLower(source)] = factory
}

// GetParser returns the parser registered for the given source name.
func GetParser(source string) (Parser, error) {
	factory, ok := registry[strings.ToLower(source)]
	if !ok {
		return nil, fmt.Errorf("no parser registered for source '%s'", source)
	}
	return factory(), nil
}

// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/username/momovisor/backend/src/models"
)

var (
	// ErrParsingFailed marks a document-level failure; the batch is aborted.
	ErrParsingFailed = errors.New("error parsing input document")
	// ErrStorageFailed marks an exhausted storage retry; the batch is aborted
	// with partial-progress reporting, already-upserted rows are kept.
	ErrStorageFailed = errors.New("storage write failed")
)

// IngestService runs the extraction-classification pipeline over one input
// document and maintains the derived aggregate snapshot.
type IngestService interface {
	// ProcessDocument runs one batch. The returned report is non-nil even on
	// error, carrying the counts committed before the failure.
	ProcessDocument(file io.Reader, source, filename string) (*models.IngestReport, error)
	// BuildSnapshot returns the dashboard snapshot, recomputed from storage
	// or served from cache.
	BuildSnapshot(limit int) (*models.AggregateSnapshot, error)
	// InvalidateCaches drops all cached report data.
	InvalidateCaches()
}

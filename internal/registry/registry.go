// Package registry is the document registry: listing, fetching, mutating,
// and exporting generated documents. It runs in one of two modes behind a
// single interface, remote service backed or a local fallback store, and
// both modes honor identical filter, sort, and pagination semantics.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/MichaelBlackwell/bidfoundry/internal/api/swarmhq"
	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
	"github.com/MichaelBlackwell/bidfoundry/internal/kvstore"
)

// SortField selects the list sort key.
type SortField string

const (
	SortCreatedAt  SortField = "createdAt"
	SortUpdatedAt  SortField = "updatedAt"
	SortTitle      SortField = "title"
	SortConfidence SortField = "confidence"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultLimit is the page size when the caller does not specify one.
const DefaultLimit = 20

// CopySuffix is appended to the title of a duplicated document.
const CopySuffix = " (Copy)"

// Query selects, orders, and pages a document listing. Zero values mean
// "no filter" and the documented defaults (updatedAt desc, offset 0,
// limit 20).
type Query struct {
	Status    domain.DocumentStatus
	Type      domain.DocumentType
	Search    string
	SortBy    SortField
	SortOrder SortOrder
	Offset    int
	Limit     int
}

// Page is one page of a filtered listing. Total always reflects the whole
// filtered set, not the page.
type Page struct {
	Documents []domain.GeneratedDocument `json:"documents"`
	Total     int                        `json:"total"`
	HasMore   bool                       `json:"has_more"`
}

// ShareOptions tune a share-link request.
type ShareOptions struct {
	ExpiresInHours int
	Password       string
}

// ShareLink is a shareable URL with its expiry.
type ShareLink struct {
	URL       string
	ExpiresAt time.Time
}

// ExportResult carries either an opaque rendered payload (rendering
// formats) or a URL (share format): exactly one, never both.
type ExportResult struct {
	Format  string
	Payload []byte
	URL     string
}

// Store is the registry contract, identical in both modes.
type Store interface {
	// List returns a filtered, sorted, paginated page of documents.
	List(ctx context.Context, q Query) (*Page, error)

	// Get returns the full output for a document, or (nil, nil) when the
	// id does not exist. Absence is a normal outcome, not an error.
	Get(ctx context.Context, id string) (*domain.FinalOutput, error)

	// Delete removes a document. NOT_FOUND when no record matches.
	Delete(ctx context.Context, id string) error

	// Duplicate clones a document: new id, copy-marked title, draft
	// status, both timestamps set to now. NOT_FOUND when the source is
	// missing.
	Duplicate(ctx context.Context, id string) (*domain.GeneratedDocument, error)

	// UpdateStatus records a human approve/reject decision and refreshes
	// the updated timestamp. NOT_FOUND when the id is missing.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, notes string) (*domain.GeneratedDocument, error)

	// Export renders the document in the given format, or returns a
	// share URL for the "share" format.
	Export(ctx context.Context, id, format string) (*ExportResult, error)

	// Share returns a shareable link for the document.
	Share(ctx context.Context, id string, opts ShareOptions) (*ShareLink, error)
}

// Options select the registry mode. The choice is made once at startup;
// call sites never branch on mode.
type Options struct {
	// Fallback selects the local fallback store instead of the remote
	// service.
	Fallback bool

	// StorePath is the storage area location for fallback mode.
	StorePath string

	Logger *slog.Logger
}

// Open builds the registry for the selected mode.
func Open(opts Options, client *swarmhq.Client) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if !opts.Fallback {
		return NewRemote(client), nil
	}

	path := opts.StorePath
	if path == "" {
		path = "bidfoundry.db"
	}
	kv, err := kvstore.Open(path)
	if err != nil {
		return nil, err
	}
	return NewFallback(kv, WithFallbackLogger(logger)), nil
}

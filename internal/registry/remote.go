package registry

import (
	"context"
	"time"

	"github.com/MichaelBlackwell/bidfoundry/internal/api/swarmhq"
	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

// Remote is the service-backed registry mode. Filtering, sorting, and
// pagination run server-side under the same contract the fallback store
// implements locally.
type Remote struct {
	client *swarmhq.Client
}

var _ Store = (*Remote)(nil)

// NewRemote creates a registry backed by the remote service.
func NewRemote(client *swarmhq.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) List(ctx context.Context, q Query) (*Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	res, err := r.client.ListDocuments(ctx, swarmhq.ListQuery{
		Limit:     limit,
		Offset:    q.Offset,
		Status:    string(q.Status),
		Type:      string(q.Type),
		Search:    q.Search,
		SortBy:    string(q.SortBy),
		SortOrder: string(q.SortOrder),
	})
	if err != nil {
		return nil, err
	}
	return &Page{Documents: res.Documents, Total: res.Total, HasMore: res.HasMore}, nil
}

func (r *Remote) Get(ctx context.Context, id string) (*domain.FinalOutput, error) {
	return r.client.GetDocument(ctx, id)
}

func (r *Remote) Delete(ctx context.Context, id string) error {
	return r.client.DeleteDocument(ctx, id)
}

func (r *Remote) Duplicate(ctx context.Context, id string) (*domain.GeneratedDocument, error) {
	return r.client.DuplicateDocument(ctx, id)
}

func (r *Remote) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, notes string) (*domain.GeneratedDocument, error) {
	return r.client.UpdateDocumentStatus(ctx, id, status, notes)
}

func (r *Remote) Export(ctx context.Context, id, format string) (*ExportResult, error) {
	payload, shareURL, err := r.client.ExportDocument(ctx, id, format)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Format: format, Payload: payload, URL: shareURL}, nil
}

func (r *Remote) Share(ctx context.Context, id string, opts ShareOptions) (*ShareLink, error) {
	link, err := r.client.ShareDocument(ctx, id, swarmhq.ShareOptions{
		ExpiresInHours: opts.ExpiresInHours,
		Password:       opts.Password,
	})
	if err != nil {
		return nil, err
	}

	expires, _ := time.Parse(time.RFC3339, link.ExpiresAt)
	return &ShareLink{URL: link.URL, ExpiresAt: expires}, nil
}

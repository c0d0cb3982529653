package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
	"github.com/MichaelBlackwell/bidfoundry/internal/kvstore"
)

// StorageKey is the fixed namespace the fallback store persists under.
const StorageKey = "bidfoundry.documents.v1"

// shareBaseURL is where fallback share links point. The links are local
// stand-ins; nothing serves them.
const shareBaseURL = "https://share.bidfoundry.app/d/"

const defaultShareExpiryHours = 72

// FallbackOption configures the fallback store.
type FallbackOption func(*Fallback)

// WithFallbackLogger sets the store's logger.
func WithFallbackLogger(logger *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		f.logger = logger
	}
}

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) FallbackOption {
	return func(f *Fallback) {
		f.now = now
	}
}

// Fallback is the local, non-authoritative document registry used when no
// remote service is configured. It persists its record set as a JSON list
// under one fixed key and seeds deterministic sample records on first
// access. Every mutation serializes its read-transform-persist cycle under
// one mutex so no two mutations interleave.
type Fallback struct {
	kv     *kvstore.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu sync.Mutex
}

var _ Store = (*Fallback)(nil)

// NewFallback creates a fallback store over the given storage area.
func NewFallback(kv *kvstore.Store, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		kv:     kv,
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return "doc-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fallback) List(ctx context.Context, q Query) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs, err := f.load()
	if err != nil {
		return nil, err
	}
	return Apply(docs, q), nil
}

func (f *Fallback) Get(ctx context.Context, id string) (*domain.FinalOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.ID == id {
			return synthesizeOutput(d), nil
		}
	}
	return nil, nil
}

func (f *Fallback) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs, err := f.load()
	if err != nil {
		return err
	}

	kept := docs[:0]
	found := false
	for _, d := range docs {
		if d.ID == id {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return domain.ErrNotFoundf("document %s not found", id).WithOrigin(domain.OriginRegistry)
	}
	return f.persist(kept)
}

func (f *Fallback) Duplicate(ctx context.Context, id string) (*domain.GeneratedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	docs, err := f.load()
	if err != nil {
		return nil, err
	}

	for _, d := range docs {
		if d.ID != id {
			continue
		}
		now := f.now()
		clone := d
		clone.ID = f.newID()
		clone.Title = d.Title + CopySuffix
		clone.Status = domain.StatusDraft
		clone.CreatedAt = now
		clone.UpdatedAt = now

		docs = append(docs, clone)
		if err := f.persist(docs); err != nil {
			return nil, err
		}
		return &clone, nil
	}
	return nil, domain.ErrNotFoundf("document %s not found", id).WithOrigin(domain.OriginRegistry)
}

func (f *Fallback) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, notes string) (*domain.GeneratedDocument, error) {
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, domain.NewError(domain.CodeValidation, fmt.Sprintf("status must be approved or rejected, got %q", status)).
			WithOrigin(domain.OriginRegistry)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	docs, err := f.load()
	if err != nil {
		return nil, err
	}

	for i := range docs {
		if docs[i].ID != id {
			continue
		}
		docs[i].Status = status
		docs[i].UpdatedAt = f.now()
		if err := f.persist(docs); err != nil {
			return nil, err
		}
		if notes != "" {
			f.logger.Debug("review decision recorded",
				slog.String("document_id", id),
				slog.String("status", string(status)),
				slog.String("notes", notes),
			)
		}
		updated := docs[i]
		return &updated, nil
	}
	return nil, domain.ErrNotFoundf("document %s not found", id).WithOrigin(domain.OriginRegistry)
}

func (f *Fallback) Export(ctx context.Context, id, format string) (*ExportResult, error) {
	if format == "share" {
		link, err := f.Share(ctx, id, ShareOptions{})
		if err != nil {
			return nil, err
		}
		return &ExportResult{Format: format, URL: link.URL}, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.find(id)
	if err != nil {
		return nil, err
	}

	out := synthesizeOutput(*doc)
	switch format {
	case "markdown", "pdf", "docx":
		return &ExportResult{Format: format, Payload: renderMarkdown(*doc, out)}, nil
	case "json":
		payload, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render json export: %w", err)
		}
		return &ExportResult{Format: format, Payload: payload}, nil
	default:
		return nil, domain.NewError(domain.CodeExport, fmt.Sprintf("unsupported export format %q", format)).
			WithOrigin(domain.OriginExport)
	}
}

func (f *Fallback) Share(ctx context.Context, id string, opts ShareOptions) (*ShareLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.find(id); err != nil {
		return nil, err
	}

	hours := opts.ExpiresInHours
	if hours <= 0 {
		hours = defaultShareExpiryHours
	}

	return &ShareLink{
		URL:       shareBaseURL + id + "?t=" + uuid.NewString(),
		ExpiresAt: f.now().Add(time.Duration(hours) * time.Hour),
	}, nil
}

// find looks up a record by id. Callers hold f.mu.
func (f *Fallback) find(id string) (*domain.GeneratedDocument, error) {
	docs, err := f.load()
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == id {
			return &docs[i], nil
		}
	}
	return nil, domain.ErrNotFoundf("document %s not found", id).WithOrigin(domain.OriginRegistry)
}

// load reads the persisted record set, seeding on first access. A corrupted
// stored value is treated as empty and re-seeded rather than failing the
// caller.
func (f *Fallback) load() ([]domain.GeneratedDocument, error) {
	raw, ok, err := f.kv.Get(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read fallback store: %w", err)
	}
	if ok {
		var docs []domain.GeneratedDocument
		if err := json.Unmarshal([]byte(raw), &docs); err == nil {
			return docs, nil
		}
		f.logger.Warn("fallback store corrupted, re-seeding", slog.String("key", StorageKey))
	}

	docs := seedDocuments()
	if err := f.persist(docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (f *Fallback) persist(docs []domain.GeneratedDocument) error {
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode fallback store: %w", err)
	}
	if err := f.kv.Set(StorageKey, string(raw)); err != nil {
		return fmt.Errorf("persist fallback store: %w", err)
	}
	return nil
}

// renderMarkdown produces the opaque export payload for rendering formats.
func renderMarkdown(doc domain.GeneratedDocument, out *domain.FinalOutput) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "Type: %s | Status: %s | Confidence: %.0f\n\n", doc.Type, doc.Status, doc.Confidence)
	for _, s := range out.Content.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, s.Content)
	}
	return []byte(b.String())
}

// Package export is the gateway for rendered exports and shareable links.
// Its failures carry the dedicated EXPORT_ERROR code so a consumer can
// offer "retry export" separately from "retry generation".
package export

import (
	"context"
	"log/slog"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
	"github.com/MichaelBlackwell/bidfoundry/internal/registry"
)

// FormatShare requests a link instead of a rendered payload.
const FormatShare = "share"

// Gateway requests exports and share links for completed documents.
type Gateway struct {
	store  registry.Store
	logger *slog.Logger
}

// New creates a gateway over the active registry mode.
func New(store registry.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{store: store, logger: logger}
}

// Export renders a document in the given format. The result carries an
// opaque payload for rendering formats and a URL for the share format,
// exactly one of the two.
func (g *Gateway) Export(ctx context.Context, id, format string) (*registry.ExportResult, error) {
	res, err := g.store.Export(ctx, id, format)
	if err != nil {
		return nil, g.wrap(err, id)
	}
	return res, nil
}

// Share returns a shareable link for a document.
func (g *Gateway) Share(ctx context.Context, id string, opts registry.ShareOptions) (*registry.ShareLink, error) {
	link, err := g.store.Share(ctx, id, opts)
	if err != nil {
		return nil, g.wrap(err, id)
	}
	return link, nil
}

// wrap retags failures as EXPORT_ERROR. NOT_FOUND keeps its code, since a
// missing document is a registry fact rather than a rendering failure, but
// is still attributed to the export origin.
func (g *Gateway) wrap(err error, id string) error {
	de, ok := domain.AsError(err)
	if !ok {
		g.logger.Debug("export failed", slog.String("document_id", id), slog.String("error", err.Error()))
		return domain.NewError(domain.CodeExport, err.Error()).WithOrigin(domain.OriginExport)
	}

	de.Origin = domain.OriginExport
	if de.Code != domain.CodeNotFound {
		de.Code = domain.CodeExport
	}
	return de
}

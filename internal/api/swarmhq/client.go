// Package swarmhq is the HTTP client for the swarm document-generation
// service. Every boundary call goes through one request helper that applies
// ambient credentials, traces the exchange, and normalizes failures.
package swarmhq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIKey sets the ambient credential sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithLogger sets the logger used for diagnostic payload logging.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracing wraps the transport with OpenTelemetry instrumentation.
func WithTracing() ClientOption {
	return func(c *Client) {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient.Transport = otelhttp.NewTransport(base)
	}
}

// Client talks to the swarm generation service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StartGeneration submits a generation request.
func (c *Client) StartGeneration(ctx context.Context, req *GenerateRequest) (*domain.GenerationStartResult, error) {
	var out domain.GenerationStartResult
	if err := c.do(ctx, http.MethodPost, "/api/generate", req, &out, domain.OriginGeneration); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerationStatus fetches the current status of an in-flight request.
// Polling this endpoint is the source of truth for the lifecycle.
func (c *Client) GenerationStatus(ctx context.Context, requestID string) (*domain.GenerationStatus, error) {
	var out domain.GenerationStatus
	path := fmt.Sprintf("/api/generate/%s/status", url.PathEscape(requestID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out, domain.OriginGeneration); err != nil {
		return nil, err
	}
	return &out, nil
}

// Regenerate asks the service to re-run generation for a document.
func (c *Client) Regenerate(ctx context.Context, documentID string, opts domain.RegenerationOptions) (*domain.GenerationStartResult, error) {
	var out domain.GenerationStartResult
	path := fmt.Sprintf("/api/generate/%s/regenerate", url.PathEscape(documentID))
	if err := c.do(ctx, http.MethodPost, path, opts, &out, domain.OriginGeneration); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDocuments lists registry documents with filtering, sorting, and
// pagination applied server-side.
func (c *Client) ListDocuments(ctx context.Context, q ListQuery) (*DocumentPage, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		params.Set("sortOrder", q.SortOrder)
	}

	path := "/api/documents"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out DocumentPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out, domain.OriginRegistry); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDocument fetches the full output for a document. A missing id is a
// normal outcome and returns (nil, nil).
func (c *Client) GetDocument(ctx context.Context, id string) (*domain.FinalOutput, error) {
	var out domain.FinalOutput
	path := fmt.Sprintf("/api/documents/%s", url.PathEscape(id))
	err := c.do(ctx, http.MethodGet, path, nil, &out, domain.OriginRegistry)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// DeleteDocument removes a document. Fails with NOT_FOUND when no record
// matches.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/documents/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, path, nil, nil, domain.OriginRegistry)
}

// DuplicateDocument clones a document into a fresh draft.
func (c *Client) DuplicateDocument(ctx context.Context, id string) (*domain.GeneratedDocument, error) {
	var out domain.GeneratedDocument
	path := fmt.Sprintf("/api/documents/%s/duplicate", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, nil, &out, domain.OriginRegistry); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDocumentStatus records a human approve/reject decision.
func (c *Client) UpdateDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, notes string) (*domain.GeneratedDocument, error) {
	action := "approve"
	if status == domain.StatusRejected {
		action = "reject"
	}

	var out domain.GeneratedDocument
	path := fmt.Sprintf("/api/documents/%s/%s", url.PathEscape(id), action)
	body := statusUpdateRequest{Status: string(status), Notes: notes}
	if err := c.do(ctx, http.MethodPost, path, body, &out, domain.OriginRegistry); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportDocument requests a rendered export. For the "share" format the
// response carries a URL only; for rendering formats a payload only.
func (c *Client) ExportDocument(ctx context.Context, id, format string) (payload []byte, shareURL string, err error) {
	var out exportResponse
	path := fmt.Sprintf("/api/documents/%s/export", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, exportRequest{Format: format}, &out, domain.OriginExport); err != nil {
		return nil, "", err
	}
	return out.Payload, out.URL, nil
}

// ShareDocument requests a shareable link for a document.
func (c *Client) ShareDocument(ctx context.Context, id string, opts ShareOptions) (*ShareLink, error) {
	var out ShareLink
	path := fmt.Sprintf("/api/documents/%s/share", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, opts, &out, domain.OriginExport); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSettings fetches the current provider/model selection and the provider
// catalog.
func (c *Client) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var out domain.Settings
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &out, domain.OriginSettings); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings selects a new provider+model pair.
func (c *Client) UpdateSettings(ctx context.Context, provider, model string) (*domain.Settings, error) {
	var out domain.Settings
	body := settingsUpdateRequest{Provider: provider, Model: model}
	if err := c.do(ctx, http.MethodPut, "/api/settings", body, &out, domain.OriginSettings); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProfiles lists company profiles.
func (c *Client) ListProfiles(ctx context.Context) ([]domain.CompanyProfile, error) {
	var out struct {
		Profiles []domain.CompanyProfile `json:"profiles"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profiles", nil, &out, domain.OriginProfiles); err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

// GetProfile fetches one company profile.
func (c *Client) GetProfile(ctx context.Context, id string) (*domain.CompanyProfile, error) {
	var out domain.CompanyProfile
	path := fmt.Sprintf("/api/profiles/%s", url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, path, nil, &out, domain.OriginProfiles); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProfile creates a company profile.
func (c *Client) CreateProfile(ctx context.Context, in ProfileInput) (*domain.CompanyProfile, error) {
	var out domain.CompanyProfile
	if err := c.do(ctx, http.MethodPost, "/api/profiles", in, &out, domain.OriginProfiles); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile updates a company profile.
func (c *Client) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*domain.CompanyProfile, error) {
	var out domain.CompanyProfile
	path := fmt.Sprintf("/api/profiles/%s", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPut, path, in, &out, domain.OriginProfiles); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProfile removes a company profile.
func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/profiles/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, path, nil, nil, domain.OriginProfiles)
}

// do executes one exchange. Non-2xx responses are normalized; transport
// failures are treated identically to any other normalized error.
func (c *Client) do(ctx context.Context, method, path string, body, out any, origin domain.Origin) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewError(domain.CodeUnknown, err.Error()).WithOrigin(origin)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewError(domain.CodeUnknown, "read response: "+err.Error()).
			WithStatus(resp.StatusCode).WithOrigin(origin)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return normalizeError(resp.StatusCode, http.StatusText(resp.StatusCode), respBody, c.logger).
			WithOrigin(origin)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

package swarmhq

import (
	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

// GenerateRequest is the wire shape of a generation submission. The config
// is already in canonical form (see internal/swarm).
type GenerateRequest struct {
	DocumentType       domain.DocumentType `json:"document_type"`
	CompanyProfileID   string              `json:"company_profile_id"`
	OpportunityContext string              `json:"opportunity_context"`
	Config             domain.SwarmConfig  `json:"config"`
	PushChannelID      string              `json:"push_channel_id,omitempty"`
}

// ListQuery is the flat query-parameter set accepted by the document list
// endpoint. Zero values are omitted from the request.
type ListQuery struct {
	Limit     int
	Offset    int
	Status    string
	Type      string
	Search    string
	SortBy    string
	SortOrder string
}

// DocumentPage is the list endpoint's response envelope.
type DocumentPage struct {
	Documents []domain.GeneratedDocument `json:"documents"`
	Total     int                        `json:"total"`
	HasMore   bool                       `json:"has_more"`
}

// statusUpdateRequest is the body for approve/reject.
type statusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// exportRequest selects a rendering format.
type exportRequest struct {
	Format string `json:"format"`
}

// exportResponse carries either a payload (rendering formats) or a URL
// (share), never both.
type exportResponse struct {
	Payload []byte `json:"payload,omitempty"` // base64 on the wire
	URL     string `json:"url,omitempty"`
}

// ShareOptions tune a share-link request.
type ShareOptions struct {
	ExpiresInHours int    `json:"expires_in_hours,omitempty"`
	Password       string `json:"password,omitempty"`
}

// ShareLink is a shareable URL for a completed document.
type ShareLink struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

// settingsUpdateRequest selects a new provider+model pair.
type settingsUpdateRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ProfileInput is the create/update body for a company profile.
type ProfileInput struct {
	Name         string   `json:"name"`
	Summary      string   `json:"summary"`
	Capabilities []string `json:"capabilities,omitempty"`
}

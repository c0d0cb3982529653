// Package domain holds the canonical types shared by the generation
// tracker, the document registry, and the export gateway.
package domain

import "time"

// DocumentType enumerates the document kinds the swarm can produce.
type DocumentType string

const (
	DocumentProposal            DocumentType = "proposal"
	DocumentCapabilityStatement DocumentType = "capability-statement"
	DocumentCompetitiveAnalysis DocumentType = "competitive-analysis"
	DocumentExecutiveSummary    DocumentType = "executive-summary"
)

// Intensity controls how aggressively the swarm debates.
type Intensity string

const (
	IntensityQuick    Intensity = "quick"
	IntensityStandard Intensity = "standard"
	IntensityDeep     Intensity = "deep"
)

// ConsensusStrategy selects how the blue team converges on a final draft.
type ConsensusStrategy string

const (
	ConsensusMajority  ConsensusStrategy = "majority"
	ConsensusUnanimous ConsensusStrategy = "unanimous"
	ConsensusModerated ConsensusStrategy = "moderated"
)

// RiskTolerance is the swarm's posture toward unresolved critiques.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskBalanced     RiskTolerance = "balanced"
	RiskAggressive   RiskTolerance = "aggressive"
)

// BlueTeamRoles toggles the cooperating reviewer roles, keyed the way the
// generation service expects them on the wire.
type BlueTeamRoles struct {
	StrategyArchitect   bool `json:"strategyArchitect"`
	MarketAnalyst       bool `json:"marketAnalyst"`
	ComplianceNavigator bool `json:"complianceNavigator"`
	CaptureStrategist   bool `json:"captureStrategist"`
}

// RedTeamRoles toggles the adversarial reviewer roles.
type RedTeamRoles struct {
	DevilsAdvocate      bool `json:"devilsAdvocate"`
	CompetitorSimulator bool `json:"competitorSimulator"`
	EvaluatorSimulator  bool `json:"evaluatorSimulator"`
	RiskAssessor        bool `json:"riskAssessor"`
}

// SwarmConfig is the canonical tuning block for a generation run.
type SwarmConfig struct {
	Intensity            Intensity          `json:"intensity"`
	Rounds               int                `json:"rounds"`
	Consensus            ConsensusStrategy  `json:"consensus"`
	BlueTeam             BlueTeamRoles      `json:"blueTeamRoles"`
	RedTeam              RedTeamRoles       `json:"redTeamRoles"`
	Specialists          []string           `json:"specialists,omitempty"`
	RiskTolerance        RiskTolerance      `json:"riskTolerance"`
	EscalationThresholds map[string]float64 `json:"escalationThresholds,omitempty"`
}

// GenerationRequest is a fully-specified submission to the swarm.
type GenerationRequest struct {
	DocumentType       DocumentType `json:"documentType"`
	CompanyProfileID   string       `json:"companyProfileId"`
	OpportunityContext string       `json:"opportunityContext"`
	Config             SwarmConfig  `json:"config"`
}

// GenerationState is the tracker's view of one in-flight request.
type GenerationState string

const (
	StateQueued   GenerationState = "queued"
	StateRunning  GenerationState = "running"
	StateComplete GenerationState = "complete"
	StateError    GenerationState = "error"
	StateReview   GenerationState = "review"
)

// Terminal reports whether no further transitions are possible for a request
// in this state without a fresh submission.
func (s GenerationState) Terminal() bool {
	return s == StateComplete || s == StateReview || s == StateError
}

// GenerationStartResult is the service's acknowledgment of a submission.
type GenerationStartResult struct {
	RequestID                string `json:"request_id"`
	Status                   string `json:"status"` // "queued" or "started"
	EstimatedDurationSeconds int    `json:"estimated_duration_seconds,omitempty"`
}

// GenerationProgress is reported while a request is running.
type GenerationProgress struct {
	CurrentRound int    `json:"current_round"`
	TotalRounds  int    `json:"total_rounds"`
	Phase        string `json:"phase"`
}

// GenerationStatus is one observation of a request's lifecycle. Result is
// populated only for complete/review, Error only for error.
type GenerationStatus struct {
	RequestID string              `json:"request_id"`
	Status    GenerationState     `json:"status"`
	Progress  *GenerationProgress `json:"progress,omitempty"`
	Result    *FinalOutput        `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// DebateKind classifies a debate log entry.
type DebateKind string

const (
	DebateCritique  DebateKind = "critique"
	DebateResponse  DebateKind = "response"
	DebateSynthesis DebateKind = "synthesis"
)

// DebateEntry is one chronological record of the debate. The log order is
// the authoritative record of the process and is never reordered.
type DebateEntry struct {
	ID        string     `json:"id"`
	Round     int        `json:"round"` // 1-indexed
	Phase     string     `json:"phase"`
	AgentID   string     `json:"agent_id"`
	Kind      DebateKind `json:"kind"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// DocumentSection is one section of the generated document body.
type DocumentSection struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Content             string   `json:"content"`
	Confidence          float64  `json:"confidence"`
	UnresolvedCritiques []string `json:"unresolved_critiques,omitempty"`
}

// DocumentContent is the structured body of a generated document.
type DocumentContent struct {
	ID                string            `json:"id"`
	Sections          []DocumentSection `json:"sections"`
	OverallConfidence float64           `json:"overall_confidence"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ConfidenceReport carries overall and per-section confidence scores.
type ConfidenceReport struct {
	Overall    float64            `json:"overall"`
	PerSection map[string]float64 `json:"per_section,omitempty"`
}

// RedTeamReport is the adversarial side's slice of the debate plus summary.
type RedTeamReport struct {
	Entries []DebateEntry `json:"entries"`
	Summary string        `json:"summary"`
}

// GenerationMetrics are the counters accumulated over a run.
//
// Invariants held by the service: Critical+Major+Minor == TotalCritiques and
// Accepted+Rebutted+Acknowledged <= TotalCritiques.
type GenerationMetrics struct {
	RoundsCompleted   int   `json:"rounds_completed"`
	TotalCritiques    int   `json:"total_critiques"`
	CriticalCount     int   `json:"critical_count"`
	MajorCount        int   `json:"major_count"`
	MinorCount        int   `json:"minor_count"`
	AcceptedCount     int   `json:"accepted_count"`
	RebuttedCount     int   `json:"rebutted_count"`
	AcknowledgedCount int   `json:"acknowledged_count"`
	ElapsedMs         int64 `json:"elapsed_ms"`
}

// FinalOutput is the full result of a completed generation run.
type FinalOutput struct {
	DocumentID          string            `json:"document_id"`
	Content             DocumentContent   `json:"content"`
	Confidence          ConfidenceReport  `json:"confidence"`
	RedTeamReport       RedTeamReport     `json:"red_team_report"`
	DebateLog           []DebateEntry     `json:"debate_log"`
	Metrics             GenerationMetrics `json:"metrics"`
	RequiresHumanReview bool              `json:"requires_human_review"`
}

// DocumentStatus is the registry lifecycle state of a document.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "draft"
	StatusApproved DocumentStatus = "approved"
	StatusRejected DocumentStatus = "rejected"
)

// GeneratedDocument is the registry's summary record. The registry owns the
// canonical copy; the tracker discards its in-flight state once the registry
// reflects completion.
type GeneratedDocument struct {
	ID               string         `json:"id"`
	Type             DocumentType   `json:"type"`
	Title            string         `json:"title"`
	CompanyProfileID string         `json:"company_profile_id"`
	Status           DocumentStatus `json:"status"`
	Confidence       float64        `json:"confidence"` // 0-100
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// RegenerationOptions steer a retry of a finished or failed run. When both
// retry flags are asserted, RetryWithHigherRounds wins; NewConfig is merged
// over whichever base config was chosen.
type RegenerationOptions struct {
	RetryWithSameConfig   bool         `json:"retry_with_same_config,omitempty"`
	RetryWithHigherRounds bool         `json:"retry_with_higher_rounds,omitempty"`
	NewConfig             *SwarmConfig `json:"new_config,omitempty"`
}

// CompanyProfile is the reusable company context a request references.
type CompanyProfile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Summary      string    `json:"summary"`
	Capabilities []string  `json:"capabilities,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProviderInfo describes one upstream model provider as reported by the
// settings endpoint.
type ProviderInfo struct {
	Name       string   `json:"name"`
	Configured bool     `json:"configured"`
	Models     []string `json:"models"`
}

// Settings is the service-side provider/model selection.
type Settings struct {
	Provider  string         `json:"provider"`
	Model     string         `json:"model"`
	Available []ProviderInfo `json:"available"`
}

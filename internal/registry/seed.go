package registry

import (
	"fmt"
	"time"

	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

// seedDocuments is the deterministic sample set the fallback store writes
// on first access. The approved records carry confidences 91, 87, 85, 82,
// and 79 (stored out of order) so confidence sorting is observable.
func seedDocuments() []domain.GeneratedDocument {
	at := func(day, hour int) time.Time {
		return time.Date(2025, time.November, day, hour, 0, 0, 0, time.UTC)
	}

	return []domain.GeneratedDocument{
		{
			ID:               "doc-001",
			Type:             domain.DocumentProposal,
			Title:            "Aurora Logistics Modernization Proposal",
			CompanyProfileID: "profile-hale-dynamics",
			Status:           domain.StatusDraft,
			Confidence:       62,
			CreatedAt:        at(3, 9),
			UpdatedAt:        at(4, 11),
		},
		{
			ID:               "doc-002",
			Type:             domain.DocumentProposal,
			Title:            "Meridian Health Records Migration Proposal",
			CompanyProfileID: "profile-hale-dynamics",
			Status:           domain.StatusApproved,
			Confidence:       91,
			CreatedAt:        at(1, 10),
			UpdatedAt:        at(2, 16),
		},
		{
			ID:               "doc-003",
			Type:             domain.DocumentCompetitiveAnalysis,
			Title:            "Northwind Fulfillment Competitive Analysis",
			CompanyProfileID: "profile-hale-dynamics",
			Status:           domain.StatusApproved,
			Confidence:       85,
			CreatedAt:        at(2, 8),
			UpdatedAt:        at(3, 14),
		},
		{
			ID:               "doc-004",
			Type:             domain.DocumentExecutiveSummary,
			Title:            "Q4 Capture Pipeline Executive Summary",
			CompanyProfileID: "profile-hale-dynamics",
			Status:           domain.StatusDraft,
			Confidence:       74,
			CreatedAt:        at(5, 13),
			UpdatedAt:        at(5, 13),
		},
		{
			ID:               "doc-005",
			Type:             domain.DocumentProposal,
			Title:            "Castellan Grid Resilience Proposal",
			CompanyProfileID: "profile-castellan",
			Status:           domain.StatusApproved,
			Confidence:       79,
			CreatedAt:        at(4, 9),
			UpdatedAt:        at(6, 10),
		},
		{
			ID:               "doc-006",
			Type:             domain.DocumentCapabilityStatement,
			Title:            "Legacy Mainframe Support Capability Statement",
			CompanyProfileID: "profile-castellan",
			Status:           domain.StatusRejected,
			Confidence:       45,
			CreatedAt:        at(1, 15),
			UpdatedAt:        at(2, 9),
		},
		{
			ID:               "doc-007",
			Type:             domain.DocumentCapabilityStatement,
			Title:            "Cloud Migration Capability Statement",
			CompanyProfileID: "profile-hale-dynamics",
			Status:           domain.StatusApproved,
			Confidence:       87,
			CreatedAt:        at(3, 11),
			UpdatedAt:        at(5, 17),
		},
		{
			ID:               "doc-008",
			Type:             domain.DocumentCompetitiveAnalysis,
			Title:            "Castellan Sector Positioning Analysis",
			CompanyProfileID: "profile-castellan",
			Status:           domain.StatusApproved,
			Confidence:       82,
			CreatedAt:        at(6, 8),
			UpdatedAt:        at(7, 12),
		},
	}
}

// synthesizeOutput builds the deterministic full output the fallback store
// serves for a record. Section confidences bracket the document confidence
// so the per-section map is non-trivial.
func synthesizeOutput(doc domain.GeneratedDocument) *domain.FinalOutput {
	sections := []domain.DocumentSection{
		{
			ID:         doc.ID + "-s1",
			Title:      "Executive Summary",
			Content:    fmt.Sprintf("Overview of %s.", doc.Title),
			Confidence: clampConfidence(doc.Confidence + 4),
		},
		{
			ID:         doc.ID + "-s2",
			Title:      "Approach",
			Content:    "Delivery approach developed across the debate rounds.",
			Confidence: doc.Confidence,
		},
		{
			ID:                  doc.ID + "-s3",
			Title:               "Risk Posture",
			Content:             "Residual risks surfaced by the red team.",
			Confidence:          clampConfidence(doc.Confidence - 6),
			UnresolvedCritiques: []string{"pricing assumptions unverified"},
		},
	}

	perSection := make(map[string]float64, len(sections))
	for _, s := range sections {
		perSection[s.ID] = s.Confidence
	}

	entries := []domain.DebateEntry{
		{
			ID: doc.ID + "-d1", Round: 1, Phase: "critique",
			AgentID: "devils-advocate", Kind: domain.DebateCritique,
			Content:   "The timeline assumes zero procurement delay.",
			Timestamp: doc.CreatedAt.Add(5 * time.Minute),
		},
		{
			ID: doc.ID + "-d2", Round: 1, Phase: "response",
			AgentID: "strategy-architect", Kind: domain.DebateResponse,
			Content:   "Added a contingency track to the delivery plan.",
			Timestamp: doc.CreatedAt.Add(9 * time.Minute),
		},
		{
			ID: doc.ID + "-d3", Round: 1, Phase: "synthesis",
			AgentID: "compliance-navigator", Kind: domain.DebateSynthesis,
			Content:   "Merged the contingency track into section 2.",
			Timestamp: doc.CreatedAt.Add(12 * time.Minute),
		},
	}

	return &domain.FinalOutput{
		DocumentID: doc.ID,
		Content: domain.DocumentContent{
			ID:                doc.ID,
			Sections:          sections,
			OverallConfidence: doc.Confidence,
			UpdatedAt:         doc.UpdatedAt,
		},
		Confidence: domain.ConfidenceReport{
			Overall:    doc.Confidence,
			PerSection: perSection,
		},
		RedTeamReport: domain.RedTeamReport{
			Entries: entries[:1],
			Summary: "One critique raised; addressed in synthesis.",
		},
		DebateLog: entries,
		Metrics: domain.GenerationMetrics{
			RoundsCompleted:   1,
			TotalCritiques:    1,
			MajorCount:        1,
			AcceptedCount:     1,
			ElapsedMs:         720_000,
			AcknowledgedCount: 0,
		},
		RequiresHumanReview: domain.RequiresHumanReview(doc.Confidence, doc.Status),
	}
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

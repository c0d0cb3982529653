// Package swarm translates the user-facing generation configuration into
// the canonical shape the generation service expects. The presentation
// layer keys role toggles by readable identifiers ("strategy-architect");
// the service schema keys them by its own field names (strategyArchitect).
// That impedance mismatch lives here and nowhere else.
package swarm

import "github.com/MichaelBlackwell/bidfoundry/internal/domain"

// UserConfig is the user-facing shape of a swarm configuration. Role maps
// are keyed by human-readable identifiers; absent keys resolve to the
// documented defaults and unknown keys are ignored.
type UserConfig struct {
	Intensity            domain.Intensity         `json:"intensity"`
	Rounds               int                      `json:"rounds"`
	Consensus            domain.ConsensusStrategy `json:"consensus"`
	BlueTeam             map[string]bool          `json:"blueTeamRoles,omitempty"`
	RedTeam              map[string]bool          `json:"redTeamRoles,omitempty"`
	Specialists          []string                 `json:"specialists,omitempty"`
	RiskTolerance        domain.RiskTolerance     `json:"riskTolerance"`
	EscalationThresholds map[string]float64       `json:"escalationThresholds,omitempty"`
}

// User-facing role identifiers.
const (
	RoleStrategyArchitect   = "strategy-architect"
	RoleMarketAnalyst       = "market-analyst"
	RoleComplianceNavigator = "compliance-navigator"
	RoleCaptureStrategist   = "capture-strategist"

	RoleDevilsAdvocate      = "devils-advocate"
	RoleCompetitorSimulator = "competitor-simulator"
	RoleEvaluatorSimulator  = "evaluator-simulator"
	RoleRiskAssessor        = "risk-assessor"
)

// Defaults applied when a role key is absent from the user config. New roles
// are additive here.
var (
	blueTeamDefaults = map[string]bool{
		RoleStrategyArchitect:   true,
		RoleMarketAnalyst:       false,
		RoleComplianceNavigator: true,
		RoleCaptureStrategist:   false,
	}

	redTeamDefaults = map[string]bool{
		RoleDevilsAdvocate:      true,
		RoleCompetitorSimulator: false,
		RoleEvaluatorSimulator:  true,
		RoleRiskAssessor:        false,
	}
)

// Encode converts a user-facing configuration into the canonical service
// shape. It is pure and total: it never fails, absent toggles resolve to
// their documented defaults, and every non-role field passes through
// unchanged.
func Encode(uc UserConfig) domain.SwarmConfig {
	return domain.SwarmConfig{
		Intensity: uc.Intensity,
		Rounds:    uc.Rounds,
		Consensus: uc.Consensus,
		BlueTeam: domain.BlueTeamRoles{
			StrategyArchitect:   resolve(uc.BlueTeam, RoleStrategyArchitect, blueTeamDefaults),
			MarketAnalyst:       resolve(uc.BlueTeam, RoleMarketAnalyst, blueTeamDefaults),
			ComplianceNavigator: resolve(uc.BlueTeam, RoleComplianceNavigator, blueTeamDefaults),
			CaptureStrategist:   resolve(uc.BlueTeam, RoleCaptureStrategist, blueTeamDefaults),
		},
		RedTeam: domain.RedTeamRoles{
			DevilsAdvocate:      resolve(uc.RedTeam, RoleDevilsAdvocate, redTeamDefaults),
			CompetitorSimulator: resolve(uc.RedTeam, RoleCompetitorSimulator, redTeamDefaults),
			EvaluatorSimulator:  resolve(uc.RedTeam, RoleEvaluatorSimulator, redTeamDefaults),
			RiskAssessor:        resolve(uc.RedTeam, RoleRiskAssessor, redTeamDefaults),
		},
		Specialists:          uc.Specialists,
		RiskTolerance:        uc.RiskTolerance,
		EscalationThresholds: uc.EscalationThresholds,
	}
}

// Decode converts a canonical configuration back to the user-facing shape
// with every role key present. Encode(Decode(c)) == c.
func Decode(c domain.SwarmConfig) UserConfig {
	return UserConfig{
		Intensity: c.Intensity,
		Rounds:    c.Rounds,
		Consensus: c.Consensus,
		BlueTeam: map[string]bool{
			RoleStrategyArchitect:   c.BlueTeam.StrategyArchitect,
			RoleMarketAnalyst:       c.BlueTeam.MarketAnalyst,
			RoleComplianceNavigator: c.BlueTeam.ComplianceNavigator,
			RoleCaptureStrategist:   c.BlueTeam.CaptureStrategist,
		},
		RedTeam: map[string]bool{
			RoleDevilsAdvocate:      c.RedTeam.DevilsAdvocate,
			RoleCompetitorSimulator: c.RedTeam.CompetitorSimulator,
			RoleEvaluatorSimulator:  c.RedTeam.EvaluatorSimulator,
			RoleRiskAssessor:        c.RedTeam.RiskAssessor,
		},
		Specialists:          c.Specialists,
		RiskTolerance:        c.RiskTolerance,
		EscalationThresholds: c.EscalationThresholds,
	}
}

func resolve(toggles map[string]bool, key string, defaults map[string]bool) bool {
	if v, ok := toggles[key]; ok {
		return v
	}
	return defaults[key]
}

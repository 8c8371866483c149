package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event dispatch metrics
var (
	// EventsDispatched tracks inbound events by variant and status
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_events_dispatched_total",
			Help: "Inbound events dispatched by event type and status",
		},
		[]string{"event", "status"},
	)
)

// Score metrics
var (
	// ScoreMutations tracks score ledger mutations by operation
	ScoreMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_score_mutations_total",
			Help: "Score ledger mutations by operation",
		},
		[]string{"operation"},
	)

	// DecayRuns counts daily decay applications
	DecayRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guildpulse_decay_runs_total",
			Help: "Daily score decay applications",
		},
	)
)

// Role metrics
var (
	// RoleGrants counts role grants applied through the platform
	RoleGrants = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guildpulse_role_grants_total",
			Help: "Role grants applied through the role directory",
		},
	)

	// RoleRevocations counts role revocations applied through the platform
	RoleRevocations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guildpulse_role_revocations_total",
			Help: "Role revocations applied through the role directory",
		},
	)

	// PanelReactions tracks reaction-panel outcomes by action
	PanelReactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_panel_reactions_total",
			Help: "Reaction panel outcomes (grant, revoke, blocked, foreign)",
		},
		[]string{"action"},
	)
)

// Verification metrics
var (
	// CodesIssued counts issued verification codes
	CodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guildpulse_verification_codes_issued_total",
			Help: "Verification codes issued",
		},
	)

	// CodeRedemptions tracks redemption attempts by outcome
	CodeRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guildpulse_verification_redemptions_total",
			Help: "Verification code redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	// CodesExpired counts entries removed by the expiry sweep
	CodesExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guildpulse_verification_codes_expired_total",
			Help: "Verification entries removed at expiry",
		},
	)
)

// Persistence metrics
var (
	// PersistenceFailures counts failed durable writes of the state document
	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guildpulse_persistence_failures_total",
			Help: "Failed durable writes of the state document",
		},
	)
)

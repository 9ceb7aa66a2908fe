package scanner

import (
	"time"

	"github.com/mselser95/polyarb-agent/internal/circuitbreaker"
)

// State is the orchestrator's position in the scan cycle.
type State string

const (
	StateIdle      State = "IDLE"
	StateScanning  State = "SCANNING"
	StateExecuting State = "EXECUTING"
	StateCooldown  State = "COOLDOWN"
	StateStopped   State = "STOPPED"
)

//nolint:gochecknoglobals // fixed label set
var allStates = []State{StateIdle, StateScanning, StateExecuting, StateCooldown, StateStopped}

// Cycle skip reasons.
const (
	SkipNone          = ""
	SkipBalanceTooLow = "balance-too-low"
	SkipBreakerOpen   = "circuit-breaker-open"
	SkipNoOpportunity = "no-opportunities"
	SkipPanic         = "panic"
	SkipStopRequested = "stop-requested"
)

// CycleStats describes one completed scan cycle.
type CycleStats struct {
	Number        int           `json:"number"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	ScanDuration  time.Duration `json:"scan_duration"`
	Markets       int           `json:"markets"`
	Opportunities int           `json:"opportunities"`
	Executed      int           `json:"executed"`
	Failed        int           `json:"failed"`
	Profit        float64       `json:"profit"`
	Balance       float64       `json:"balance"`
	Skipped       string        `json:"skipped,omitempty"`
}

// Status is a point-in-time copy of the orchestrator for the HTTP API.
type Status struct {
	State           State                  `json:"state"`
	Mode            string                 `json:"mode"`
	StartedAt       time.Time              `json:"started_at"`
	Cycles          int                    `json:"cycles"`
	StartingCapital float64                `json:"starting_capital"`
	Balance         float64                `json:"balance"`
	RealizedPnL     float64                `json:"realized_pnl"`
	TradesExecuted  int                    `json:"trades_executed"`
	LastCycle       *CycleStats            `json:"last_cycle,omitempty"`
	Breaker         *circuitbreaker.Status `json:"circuit_breaker,omitempty"`
}

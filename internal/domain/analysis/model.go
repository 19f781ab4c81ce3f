package analysis

import (
	"errors"

	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
)

var ErrInvalidGameweek = errors.New("gameweek must be at least 1")

// Verdict is the outcome of a single diagnostic.
type Verdict string

const (
	VerdictOK               Verdict = "ok"
	VerdictOptimal          Verdict = "optimal"
	VerdictSuboptimal       Verdict = "suboptimal"
	VerdictNoCaptain        Verdict = "no_captain_selected"
	VerdictInsufficientData Verdict = "insufficient_data"
)

// StatSource tells where a reconciled player's numbers came from.
type StatSource string

const (
	StatSourceExact    StatSource = "exact"
	StatSourceFallback StatSource = "fallback"
	StatSourceNone     StatSource = "none"
)

type WarningCode string

const (
	WarningMissingIdentity      WarningCode = "missing_identity"
	WarningMissingHistoricalRow WarningCode = "missing_historical_row"
	WarningNoHistoricalData     WarningCode = "no_historical_data"
	WarningUpstreamUnavailable  WarningCode = "upstream_unavailable"
)

// Warning records a recovered data problem. Slot and ElementID are zero for team-level warnings.
type Warning struct {
	Code      WarningCode
	Slot      int
	ElementID int64
	Message   string
}

// Input is everything a reconciliation needs. History may be nil.
type Input struct {
	Picks     []manager.Pick
	Entry     manager.EntrySummary
	History   *playerstats.Table
	Directory player.Directory
	Gameweek  int
}

// ReconciledPlayer is a pick joined with its identity and resolved gameweek stats.
// Cost is in tenths of a million.
type ReconciledPlayer struct {
	manager.Pick

	Name              string
	TeamCode          int
	TeamName          string
	PhotoURL          string
	Points            float64
	Goals             float64
	Assists           float64
	GoalContributions float64
	Cost              float64
	Form              float64
	Source            StatSource
	EffectivePoints   float64
	InStartingXI      bool
}

func (p ReconciledPlayer) CostMillions() float64 {
	return p.Cost / 10
}

type CaptainCheck struct {
	Verdict            Verdict
	CaptainSlot        int
	CaptainName        string
	ViceCaptainName    string
	CaptainPoints      float64
	Multiplier         int
	CaptainEffective   float64
	CaptainBonus       float64
	BestSlot           int
	BestName           string
	BestPoints         float64
	BestAsCaptain      float64
	PointsDifferential float64
}

type Underperformers struct {
	Verdict    Verdict
	Fraction   float64
	MeanPoints float64
	Threshold  float64
	Players    []ReconciledPlayer
}

type ValueEntry struct {
	Slot         int
	Name         string
	Position     player.Position
	Points       float64
	CostMillions float64
	Efficiency   float64
}

type ValueRanking struct {
	Verdict Verdict
	Top     []ValueEntry
}

type PositionTotal struct {
	Position player.Position
	Points   float64
	Players  int
}

type PositionBreakdown struct {
	Verdict Verdict
	Totals  []PositionTotal
	Best    player.Position
}

type LineupCheck struct {
	Verdict            Verdict
	BestBenchSlot      int
	BestBenchName      string
	BestBenchPoints    float64
	WorstStarterSlot   int
	WorstStarterName   string
	WorstStarterPoints float64
	PointsDifferential float64
}

// PitchRow is one line of the formation, ordered by slot.
type PitchRow struct {
	Position player.Position
	Players  []ReconciledPlayer
}

type Formation struct {
	Label string
	Rows  []PitchRow
	Bench []ReconciledPlayer
}

// TeamAnalysis is the full reconciliation result for one manager and gameweek.
type TeamAnalysis struct {
	Gameweek        int
	Entry           manager.EntrySummary
	Players         []ReconciledPlayer
	Starters        []ReconciledPlayer
	Bench           []ReconciledPlayer
	StartingPoints  float64
	BenchPoints     float64
	Captain         CaptainCheck
	Underperformers Underperformers
	Value           ValueRanking
	Positions       PositionBreakdown
	Lineup          LineupCheck
	Formation       Formation
	Warnings        []Warning
}

// Empty reports whether the analysis was built without any picks.
func (a TeamAnalysis) Empty() bool {
	return len(a.Players) == 0
}

package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
)

// Options tunes the diagnostics.
type Options struct {
	UnderperformFraction float64
	TopValueCount        int
	Epsilon              float64
	FallbackWindow       int
}

func DefaultOptions() Options {
	return Options{
		UnderperformFraction: 0.7,
		TopValueCount:        3,
		Epsilon:              0.001,
		FallbackWindow:       3,
	}
}

func NormalizeOptions(opts Options) Options {
	defaults := DefaultOptions()
	if opts.UnderperformFraction <= 0 || math.IsNaN(opts.UnderperformFraction) {
		opts.UnderperformFraction = defaults.UnderperformFraction
	}
	if opts.TopValueCount < 1 {
		opts.TopValueCount = defaults.TopValueCount
	}
	if opts.Epsilon <= 0 || math.IsNaN(opts.Epsilon) {
		opts.Epsilon = defaults.Epsilon
	}
	if opts.FallbackWindow < 1 {
		opts.FallbackWindow = defaults.FallbackWindow
	}
	return opts
}

// Engine reconciles a manager's picks against the historical store.
// It holds no mutable state and performs no I/O, so one Engine can serve concurrent requests.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: NormalizeOptions(opts)}
}

func (e *Engine) Options() Options {
	return e.opts
}

// Reconcile joins picks with identities and stats and derives the team diagnostics.
// The only error is a gameweek below 1; every data problem is reported as a warning.
func (e *Engine) Reconcile(in Input) (TeamAnalysis, error) {
	if in.Gameweek < 1 {
		return TeamAnalysis{}, fmt.Errorf("%w: got %d", ErrInvalidGameweek, in.Gameweek)
	}

	out := TeamAnalysis{
		Gameweek: in.Gameweek,
		Entry:    in.Entry,
	}
	if len(in.Picks) == 0 {
		return e.insufficient(out), nil
	}

	picks := append([]manager.Pick(nil), in.Picks...)
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].Slot < picks[j].Slot })

	out.Players = make([]ReconciledPlayer, 0, len(picks))
	hasData := false
	for _, pick := range picks {
		item, warnings := e.reconcilePick(pick, in)
		out.Players = append(out.Players, item)
		out.Warnings = append(out.Warnings, warnings...)
		if item.Source != StatSourceNone {
			hasData = true
		}
	}

	for _, item := range out.Players {
		if item.InStartingXI {
			out.Starters = append(out.Starters, item)
			out.StartingPoints += item.EffectivePoints
			continue
		}
		out.Bench = append(out.Bench, item)
		out.BenchPoints += item.Points
	}

	out.Captain = captainCheck(out.Players, hasData)
	out.Underperformers = underperformers(out.Starters, e.opts.UnderperformFraction, hasData)
	out.Value = valueRanking(out.Players, e.opts.Epsilon, e.opts.TopValueCount, hasData)
	out.Positions = positionBreakdown(out.Players, hasData)
	out.Lineup = lineupCheck(out.Starters, out.Bench, hasData)
	out.Formation = buildFormation(out.Starters, out.Bench)

	return out, nil
}

func (e *Engine) insufficient(out TeamAnalysis) TeamAnalysis {
	out.Captain = CaptainCheck{Verdict: VerdictInsufficientData}
	out.Underperformers = Underperformers{Verdict: VerdictInsufficientData, Fraction: e.opts.UnderperformFraction}
	out.Value = ValueRanking{Verdict: VerdictInsufficientData}
	out.Positions = PositionBreakdown{Verdict: VerdictInsufficientData}
	out.Lineup = LineupCheck{Verdict: VerdictInsufficientData}
	return out
}

func (e *Engine) reconcilePick(pick manager.Pick, in Input) (ReconciledPlayer, []Warning) {
	item := ReconciledPlayer{
		Pick:         pick,
		InStartingXI: pick.Starter(),
	}
	var warnings []Warning

	if entry, ok := in.Directory.Lookup(pick.ElementID); ok {
		item.Name = entry.WebName
		item.TeamCode = entry.TeamCode
		item.TeamName = in.Directory.TeamName(entry.TeamCode)
		item.PhotoURL = entry.PhotoURL()
		if !item.Position.Valid() {
			item.Position = entry.Position
		}
	} else {
		item.Name = player.PlaceholderName(pick.ElementID)
		item.TeamName = player.UnknownTeamName
		warnings = append(warnings, Warning{
			Code:      WarningMissingIdentity,
			Slot:      pick.Slot,
			ElementID: pick.ElementID,
			Message:   fmt.Sprintf("player %d is not in the player directory", pick.ElementID),
		})
	}
	if !item.Position.Valid() {
		item.Position = player.PositionUnknown
	}

	stats := resolveStats(in.History, item.Name, in.Gameweek, e.opts.FallbackWindow)
	item.Points = stats.points
	item.Goals = stats.goals
	item.Assists = stats.assists
	item.GoalContributions = stats.contributions
	item.Cost = stats.cost
	item.Form = stats.form
	item.Source = stats.source
	item.EffectivePoints = item.Points * float64(pick.Multiplier)

	switch stats.source {
	case StatSourceFallback:
		warnings = append(warnings, Warning{
			Code:      WarningMissingHistoricalRow,
			Slot:      pick.Slot,
			ElementID: pick.ElementID,
			Message:   fmt.Sprintf("no row for %s in gameweek %d, used mean of %d earlier gameweek(s)", item.Name, in.Gameweek, stats.samples),
		})
	case StatSourceNone:
		warnings = append(warnings, Warning{
			Code:      WarningNoHistoricalData,
			Slot:      pick.Slot,
			ElementID: pick.ElementID,
			Message:   fmt.Sprintf("no historical rows for %s", item.Name),
		})
	}

	return item, warnings
}

type resolvedStats struct {
	points        float64
	goals         float64
	assists       float64
	contributions float64
	cost          float64
	form          float64
	samples       int
	source        StatSource
}

func resolveStats(table *playerstats.Table, name string, gameweek, window int) resolvedStats {
	if row, ok := table.Lookup(name, gameweek); ok {
		return resolvedStats{
			points:        float64(row.TotalPoints),
			goals:         float64(row.GoalsScored),
			assists:       float64(row.Assists),
			contributions: float64(row.GoalContributions),
			cost:          float64(row.Cost),
			form:          row.Form,
			samples:       1,
			source:        StatSourceExact,
		}
	}

	history := table.History(name)
	if len(history) == 0 {
		return resolvedStats{source: StatSourceNone}
	}

	recent := table.HistoryUpTo(name, gameweek)
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}
	if len(recent) == 0 {
		// Only later gameweeks exist: stats stay zero, cost comes from the nearest row.
		return resolvedStats{cost: float64(history[0].Cost), source: StatSourceFallback}
	}

	out := resolvedStats{source: StatSourceFallback, samples: len(recent)}
	for _, row := range recent {
		out.points += float64(row.TotalPoints)
		out.goals += float64(row.GoalsScored)
		out.assists += float64(row.Assists)
	}
	n := float64(len(recent))
	out.points /= n
	out.goals /= n
	out.assists /= n
	out.contributions = out.goals + out.assists

	latest := recent[len(recent)-1]
	out.cost = float64(latest.Cost)
	out.form = latest.Form
	return out
}

package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/fpl-insight/internal/domain/player"
)

// floatTolerance absorbs rounding in fraction * mean comparisons.
const floatTolerance = 1e-9

func captainCheck(players []ReconciledPlayer, hasData bool) CaptainCheck {
	check := CaptainCheck{}
	captainIdx := -1
	for i, item := range players {
		if item.IsViceCaptain && check.ViceCaptainName == "" {
			check.ViceCaptainName = item.Name
		}
		if captainIdx < 0 && item.IsCaptain && item.InStartingXI {
			captainIdx = i
		}
	}
	if captainIdx < 0 {
		check.Verdict = VerdictNoCaptain
		return check
	}

	captain := players[captainIdx]
	check.CaptainSlot = captain.Slot
	check.CaptainName = captain.Name
	check.CaptainPoints = captain.Points
	check.Multiplier = captain.Multiplier
	check.CaptainEffective = captain.EffectivePoints
	check.CaptainBonus = captain.Points * float64(max(captain.Multiplier-1, 0))
	if !hasData {
		check.Verdict = VerdictInsufficientData
		return check
	}

	factor := float64(captain.Multiplier)
	if factor < 2 {
		factor = 2
	}

	// players are ordered by slot, so the first maximum has the lowest slot
	best := captain
	for _, item := range players {
		if item.Points > best.Points {
			best = item
		}
	}

	check.BestSlot = best.Slot
	check.BestName = best.Name
	check.BestPoints = best.Points
	check.BestAsCaptain = best.Points * factor
	if best.Points > captain.Points {
		check.Verdict = VerdictSuboptimal
		check.PointsDifferential = (best.Points - captain.Points) * factor
		return check
	}
	check.Verdict = VerdictOptimal
	return check
}

func underperformers(starters []ReconciledPlayer, fraction float64, hasData bool) Underperformers {
	out := Underperformers{Fraction: fraction}
	if len(starters) == 0 || !hasData {
		out.Verdict = VerdictInsufficientData
		return out
	}

	total := 0.0
	for _, item := range starters {
		total += item.Points
	}
	out.MeanPoints = total / float64(len(starters))
	out.Threshold = fraction * out.MeanPoints

	for _, item := range starters {
		if item.Points < out.Threshold-floatTolerance {
			out.Players = append(out.Players, item)
		}
	}
	out.Verdict = VerdictOK
	return out
}

// Efficiency returns points per million with epsilon guarding a zero cost. Non-finite results are 0.
func Efficiency(points, cost, epsilon float64) float64 {
	eff := points / (cost/10 + epsilon)
	if math.IsNaN(eff) || math.IsInf(eff, 0) {
		return 0
	}
	return eff
}

func valueRanking(players []ReconciledPlayer, epsilon float64, topN int, hasData bool) ValueRanking {
	if len(players) == 0 || !hasData {
		return ValueRanking{Verdict: VerdictInsufficientData}
	}

	entries := make([]ValueEntry, 0, len(players))
	for _, item := range players {
		entries = append(entries, ValueEntry{
			Slot:         item.Slot,
			Name:         item.Name,
			Position:     item.Position,
			Points:       item.Points,
			CostMillions: item.CostMillions(),
			Efficiency:   Efficiency(item.Points, item.Cost, epsilon),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Efficiency != entries[j].Efficiency {
			return entries[i].Efficiency > entries[j].Efficiency
		}
		return entries[i].Slot < entries[j].Slot
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return ValueRanking{Verdict: VerdictOK, Top: entries}
}

func positionBreakdown(players []ReconciledPlayer, hasData bool) PositionBreakdown {
	out := PositionBreakdown{}
	byPosition := make(map[player.Position]*PositionTotal, len(player.Positions)+1)
	for _, item := range players {
		total, ok := byPosition[item.Position]
		if !ok {
			total = &PositionTotal{Position: item.Position}
			byPosition[item.Position] = total
		}
		total.Points += item.EffectivePoints
		total.Players++
	}

	order := append(append([]player.Position(nil), player.Positions...), player.PositionUnknown)
	for _, pos := range order {
		if total, ok := byPosition[pos]; ok {
			out.Totals = append(out.Totals, *total)
		}
	}

	if len(out.Totals) == 0 || !hasData {
		out.Verdict = VerdictInsufficientData
		return out
	}

	best := out.Totals[0]
	for _, total := range out.Totals[1:] {
		if total.Points > best.Points {
			best = total
		}
	}
	out.Best = best.Position
	out.Verdict = VerdictOK
	return out
}

func lineupCheck(starters, bench []ReconciledPlayer, hasData bool) LineupCheck {
	out := LineupCheck{}
	if len(starters) == 0 || len(bench) == 0 || !hasData {
		out.Verdict = VerdictInsufficientData
		return out
	}

	bestBench := bench[0]
	for _, item := range bench[1:] {
		if item.Points > bestBench.Points {
			bestBench = item
		}
	}
	worstStarter := starters[0]
	for _, item := range starters[1:] {
		if item.Points < worstStarter.Points {
			worstStarter = item
		}
	}

	out.BestBenchSlot = bestBench.Slot
	out.BestBenchName = bestBench.Name
	out.BestBenchPoints = bestBench.Points
	out.WorstStarterSlot = worstStarter.Slot
	out.WorstStarterName = worstStarter.Name
	out.WorstStarterPoints = worstStarter.Points

	if bestBench.Points > worstStarter.Points {
		out.Verdict = VerdictSuboptimal
		out.PointsDifferential = bestBench.Points - worstStarter.Points
		return out
	}
	out.Verdict = VerdictOptimal
	return out
}

// buildFormation groups starters into pitch rows and labels the shape as DEF-MID-FWD counts.
func buildFormation(starters, bench []ReconciledPlayer) Formation {
	out := Formation{Bench: append([]ReconciledPlayer(nil), bench...)}

	order := append(append([]player.Position(nil), player.Positions...), player.PositionUnknown)
	var counts []string
	for _, pos := range order {
		var row []ReconciledPlayer
		for _, item := range starters {
			if item.Position == pos {
				row = append(row, item)
			}
		}
		if len(row) == 0 {
			continue
		}
		out.Rows = append(out.Rows, PitchRow{Position: pos, Players: row})
		if pos != player.PositionGoalkeeper && pos != player.PositionUnknown {
			counts = append(counts, strconv.Itoa(len(row)))
		}
	}
	out.Label = strings.Join(counts, "-")
	return out
}

package analysis

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
)

const fixtureGW = 5

// slotPosition lays out a 4-4-2 with a GK/DEF/MID/FWD bench.
func slotPosition(slot int) player.Position {
	switch {
	case slot == 1 || slot == 12:
		return player.PositionGoalkeeper
	case slot <= 5 || slot == 13:
		return player.PositionDefender
	case slot <= 9 || slot == 14:
		return player.PositionMidfielder
	default:
		return player.PositionForward
	}
}

// squadInput builds a full squad where slot i scores points[i-1] in fixtureGW.
// Captain sits in slot 1 with multiplier 2; bench multipliers are 0.
func squadInput(t *testing.T, points []int) Input {
	t.Helper()
	if len(points) != manager.SquadSize {
		t.Fatalf("fixture needs %d points, got %d", manager.SquadSize, len(points))
	}

	entries := make([]player.Entry, 0, len(points))
	picks := make([]manager.Pick, 0, len(points))
	rows := make([]playerstats.Row, 0, len(points))
	for i, pts := range points {
		slot := i + 1
		id := int64(100 + slot)
		name := fmt.Sprintf("P%d", slot)
		entries = append(entries, player.Entry{ID: id, WebName: name, TeamCode: 1, Position: slotPosition(slot)})

		mult := 1
		if slot > manager.StartingSlots {
			mult = 0
		}
		picks = append(picks, manager.Pick{ElementID: id, Slot: slot, Multiplier: mult})
		rows = append(rows, playerstats.Row{PlayerName: name, Gameweek: fixtureGW, TotalPoints: pts, Cost: 50})
	}
	picks[0].IsCaptain = true
	picks[0].Multiplier = 2
	picks[1].IsViceCaptain = true

	table, _ := playerstats.NewTable(rows)
	return Input{
		Picks:     picks,
		History:   table,
		Directory: player.NewDirectory(entries, map[int]string{1: "Arsenal"}),
		Gameweek:  fixtureGW,
	}
}

func setCaptain(in *Input, slot int) {
	for i := range in.Picks {
		in.Picks[i].IsCaptain = in.Picks[i].Slot == slot
		if in.Picks[i].Slot <= manager.StartingSlots {
			in.Picks[i].Multiplier = 1
		}
		if in.Picks[i].Slot == slot {
			in.Picks[i].Multiplier = 2
		}
	}
}

func reconcile(t *testing.T, in Input) TeamAnalysis {
	t.Helper()
	out, err := NewEngine(DefaultOptions()).Reconcile(in)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	return out
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestReconcile_EffectivePointsAndTotals(t *testing.T) {
	in := squadInput(t, []int{6, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1})
	out := reconcile(t, in)

	if len(out.Players) != 15 || len(out.Starters) != 11 || len(out.Bench) != 4 {
		t.Fatalf("unexpected split players=%d starters=%d bench=%d", len(out.Players), len(out.Starters), len(out.Bench))
	}
	for _, item := range out.Players {
		if item.EffectivePoints != item.Points*float64(item.Multiplier) {
			t.Fatalf("slot %d effective=%v want %v", item.Slot, item.EffectivePoints, item.Points*float64(item.Multiplier))
		}
		if item.InStartingXI != (item.Slot <= 11) {
			t.Fatalf("slot %d starter flag=%v", item.Slot, item.InStartingXI)
		}
		if item.Source != StatSourceExact {
			t.Fatalf("slot %d expected exact source, got %s", item.Slot, item.Source)
		}
		if item.TeamName != "Arsenal" {
			t.Fatalf("slot %d unexpected team %q", item.Slot, item.TeamName)
		}
	}
	if out.StartingPoints != 12+20 {
		t.Fatalf("StartingPoints=%v want 32", out.StartingPoints)
	}
	if out.BenchPoints != 4 {
		t.Fatalf("BenchPoints=%v want 4", out.BenchPoints)
	}
	if len(out.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", out.Warnings)
	}
}

func TestReconcile_CaptainSuboptimal(t *testing.T) {
	points := repeat(2, 15)
	points[5] = 4
	points[6] = 6
	in := squadInput(t, points)
	setCaptain(&in, 6)

	out := reconcile(t, in)
	c := out.Captain
	if c.Verdict != VerdictSuboptimal {
		t.Fatalf("expected suboptimal captain, got %s", c.Verdict)
	}
	if c.CaptainEffective != 8 || c.CaptainBonus != 4 {
		t.Fatalf("unexpected captain effective=%v bonus=%v", c.CaptainEffective, c.CaptainBonus)
	}
	if c.BestName != "P7" || c.BestAsCaptain != 12 {
		t.Fatalf("unexpected best %s as captain %v", c.BestName, c.BestAsCaptain)
	}
	if c.PointsDifferential != 4 {
		t.Fatalf("PointsDifferential=%v want 4", c.PointsDifferential)
	}
	if c.ViceCaptainName != "P2" {
		t.Fatalf("unexpected vice captain %q", c.ViceCaptainName)
	}
}

func TestReconcile_CaptainOptimalOnTie(t *testing.T) {
	points := repeat(2, 15)
	points[0] = 6
	points[8] = 6
	out := reconcile(t, squadInput(t, points))

	if out.Captain.Verdict != VerdictOptimal {
		t.Fatalf("expected optimal captain, got %s", out.Captain.Verdict)
	}
	if out.Captain.BestSlot != 1 || out.Captain.PointsDifferential != 0 {
		t.Fatalf("unexpected best slot=%d diff=%v", out.Captain.BestSlot, out.Captain.PointsDifferential)
	}
}

func TestReconcile_NoCaptain(t *testing.T) {
	in := squadInput(t, repeat(3, 15))
	in.Picks[0].IsCaptain = false
	in.Picks[0].Multiplier = 1

	out := reconcile(t, in)
	if out.Captain.Verdict != VerdictNoCaptain {
		t.Fatalf("expected no_captain_selected, got %s", out.Captain.Verdict)
	}
	if out.Underperformers.Verdict != VerdictOK {
		t.Fatalf("other diagnostics should still run, got %s", out.Underperformers.Verdict)
	}
}

func TestReconcile_BenchCaptainIsIgnored(t *testing.T) {
	in := squadInput(t, repeat(3, 15))
	in.Picks[0].IsCaptain = false
	in.Picks[14].IsCaptain = true

	out := reconcile(t, in)
	if out.Captain.Verdict != VerdictNoCaptain {
		t.Fatalf("bench captain must not count, got %s", out.Captain.Verdict)
	}
}

func TestReconcile_UnderperformerThresholdIsStrict(t *testing.T) {
	tests := []struct {
		name     string
		low      int
		high     int
		wantSlot []int
	}{
		{name: "exactly at threshold", low: 7, high: 13, wantSlot: nil},
		{name: "below threshold", low: 6, high: 14, wantSlot: []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := repeat(10, 15)
			points[1] = tt.low
			points[2] = tt.high
			in := squadInput(t, points)
			in.Picks[0].IsCaptain = false
			in.Picks[0].Multiplier = 1

			out := reconcile(t, in)
			u := out.Underperformers
			if u.MeanPoints != 10 {
				t.Fatalf("MeanPoints=%v want 10", u.MeanPoints)
			}
			var got []int
			for _, item := range u.Players {
				got = append(got, item.Slot)
			}
			if !reflect.DeepEqual(got, tt.wantSlot) {
				t.Fatalf("flagged slots=%v want %v", got, tt.wantSlot)
			}
		})
	}
}

func TestReconcile_LineupCheck(t *testing.T) {
	t.Run("bench beats worst starter", func(t *testing.T) {
		points := repeat(8, 15)
		points[3] = 5
		points[12] = 9
		points[11] = 2
		out := reconcile(t, squadInput(t, points))

		l := out.Lineup
		if l.Verdict != VerdictSuboptimal {
			t.Fatalf("expected suboptimal lineup, got %s", l.Verdict)
		}
		if l.BestBenchSlot != 13 || l.WorstStarterSlot != 4 || l.PointsDifferential != 4 {
			t.Fatalf("unexpected lineup check %+v", l)
		}
	})

	t.Run("equal points keep lineup", func(t *testing.T) {
		points := repeat(5, 15)
		out := reconcile(t, squadInput(t, points))
		if out.Lineup.Verdict != VerdictOptimal || out.Lineup.PointsDifferential != 0 {
			t.Fatalf("unexpected lineup check %+v", out.Lineup)
		}
	})
}

func TestReconcile_PositionBreakdown(t *testing.T) {
	entries := []player.Entry{
		{ID: 1, WebName: "Keeper", Position: player.PositionGoalkeeper},
		{ID: 2, WebName: "Back", Position: player.PositionDefender},
		{ID: 3, WebName: "Wide", Position: player.PositionDefender},
		{ID: 4, WebName: "Mid", Position: player.PositionMidfielder},
	}
	table, _ := playerstats.NewTable([]playerstats.Row{
		{PlayerName: "Keeper", Gameweek: 3, TotalPoints: 2, Cost: 45},
		{PlayerName: "Back", Gameweek: 3, TotalPoints: 8, Cost: 50},
		{PlayerName: "Wide", Gameweek: 3, TotalPoints: 6, Cost: 55},
		{PlayerName: "Mid", Gameweek: 3, TotalPoints: 10, Cost: 80},
	})
	in := Input{
		Picks: []manager.Pick{
			{ElementID: 4, Slot: 4, Multiplier: 1},
			{ElementID: 1, Slot: 1, Multiplier: 1},
			{ElementID: 3, Slot: 3, Multiplier: 1},
			{ElementID: 2, Slot: 2, Multiplier: 1},
		},
		History:   table,
		Directory: player.NewDirectory(entries, nil),
		Gameweek:  3,
	}

	out := reconcile(t, in)
	want := []PositionTotal{
		{Position: player.PositionGoalkeeper, Points: 2, Players: 1},
		{Position: player.PositionDefender, Points: 14, Players: 2},
		{Position: player.PositionMidfielder, Points: 10, Players: 1},
	}
	if !reflect.DeepEqual(out.Positions.Totals, want) {
		t.Fatalf("Totals=%+v want %+v", out.Positions.Totals, want)
	}
	if out.Positions.Best != player.PositionDefender {
		t.Fatalf("Best=%s want DEF", out.Positions.Best)
	}
	if out.Players[0].Slot != 1 || out.Players[3].Slot != 4 {
		t.Fatalf("players must be ordered by slot: %+v", out.Players)
	}
	if out.Lineup.Verdict != VerdictInsufficientData {
		t.Fatalf("no bench should leave lineup check without data, got %s", out.Lineup.Verdict)
	}
}

func TestReconcile_ValueRanking(t *testing.T) {
	points := repeat(2, 15)
	points[4] = 10
	points[7] = 10
	points[13] = 12
	out := reconcile(t, squadInput(t, points))

	if out.Value.Verdict != VerdictOK || len(out.Value.Top) != 3 {
		t.Fatalf("unexpected value ranking %+v", out.Value)
	}
	gotSlots := []int{out.Value.Top[0].Slot, out.Value.Top[1].Slot, out.Value.Top[2].Slot}
	if !reflect.DeepEqual(gotSlots, []int{14, 5, 8}) {
		t.Fatalf("top slots=%v want [14 5 8]", gotSlots)
	}
	want := 12 / (5.0 + 0.001)
	if math.Abs(out.Value.Top[0].Efficiency-want) > 1e-9 {
		t.Fatalf("Efficiency=%v want %v", out.Value.Top[0].Efficiency, want)
	}
}

func TestReconcile_FallbackUsesRecentMean(t *testing.T) {
	table, _ := playerstats.NewTable([]playerstats.Row{
		{PlayerName: "Saka", Gameweek: 1, TotalPoints: 2, GoalsScored: 0, Cost: 85},
		{PlayerName: "Saka", Gameweek: 2, TotalPoints: 4, GoalsScored: 1, Cost: 86},
		{PlayerName: "Saka", Gameweek: 3, TotalPoints: 6, GoalsScored: 1, Assists: 1, Cost: 87},
		{PlayerName: "Saka", Gameweek: 4, TotalPoints: 8, GoalsScored: 1, Assists: 2, Cost: 88},
		{PlayerName: "Saka", Gameweek: 9, TotalPoints: 15, Cost: 95},
	})
	in := Input{
		Picks:     []manager.Pick{{ElementID: 7, Slot: 1, Multiplier: 1}},
		History:   table,
		Directory: player.NewDirectory([]player.Entry{{ID: 7, WebName: "Saka", Position: player.PositionMidfielder}}, nil),
		Gameweek:  6,
	}

	out := reconcile(t, in)
	got := out.Players[0]
	if got.Source != StatSourceFallback {
		t.Fatalf("expected fallback source, got %s", got.Source)
	}
	if got.Points != 6 || got.Goals != 1 || got.Assists != 1 || got.GoalContributions != 2 {
		t.Fatalf("unexpected fallback stats %+v", got)
	}
	if got.Cost != 88 {
		t.Fatalf("Cost=%v want latest 88", got.Cost)
	}
	if len(out.Warnings) != 1 || out.Warnings[0].Code != WarningMissingHistoricalRow {
		t.Fatalf("unexpected warnings %+v", out.Warnings)
	}
}

func TestReconcile_FallbackBeforeFirstRow(t *testing.T) {
	table, _ := playerstats.NewTable([]playerstats.Row{
		{PlayerName: "Late", Gameweek: 10, TotalPoints: 9, Cost: 60},
	})
	in := Input{
		Picks:     []manager.Pick{{ElementID: 8, Slot: 1, Multiplier: 1}},
		History:   table,
		Directory: player.NewDirectory([]player.Entry{{ID: 8, WebName: "Late"}}, nil),
		Gameweek:  2,
	}

	got := reconcile(t, in).Players[0]
	if got.Points != 0 || got.Cost != 60 || got.Source != StatSourceFallback {
		t.Fatalf("unexpected stats %+v", got)
	}
}

func TestReconcile_NoHistoryYieldsZeros(t *testing.T) {
	in := squadInput(t, repeat(4, 15))
	in.History = nil

	out := reconcile(t, in)
	for _, item := range out.Players {
		if item.Points != 0 || item.Cost != 0 || item.Source != StatSourceNone {
			t.Fatalf("slot %d expected zeroed stats, got %+v", item.Slot, item)
		}
		if eff := Efficiency(item.Points, item.Cost, DefaultOptions().Epsilon); math.IsNaN(eff) || math.IsInf(eff, 0) {
			t.Fatalf("slot %d efficiency is not finite", item.Slot)
		}
	}
	if len(out.Warnings) != 15 {
		t.Fatalf("expected one warning per pick, got %d", len(out.Warnings))
	}
	for name, verdict := range map[string]Verdict{
		"captain":         out.Captain.Verdict,
		"underperformers": out.Underperformers.Verdict,
		"lineup":          out.Lineup.Verdict,
		"value":           out.Value.Verdict,
		"positions":       out.Positions.Verdict,
	} {
		if verdict != VerdictInsufficientData {
			t.Fatalf("%s verdict=%s want insufficient_data", name, verdict)
		}
	}
}

func TestReconcile_MissingIdentity(t *testing.T) {
	in := squadInput(t, repeat(4, 15))
	in.Picks[3].ElementID = 999

	out := reconcile(t, in)
	got := out.Players[3]
	if got.Name != "Player_999" || got.TeamName != player.UnknownTeamName || got.Position != player.PositionUnknown {
		t.Fatalf("unexpected placeholder %+v", got)
	}

	codes := map[WarningCode]int{}
	for _, w := range out.Warnings {
		if w.Slot == 4 {
			codes[w.Code]++
		}
	}
	if codes[WarningMissingIdentity] != 1 || codes[WarningNoHistoricalData] != 1 {
		t.Fatalf("unexpected warnings for slot 4: %+v", codes)
	}
	if out.Captain.Verdict == VerdictInsufficientData {
		t.Fatalf("one unknown player must not disable diagnostics")
	}
}

func TestReconcile_EmptyPicks(t *testing.T) {
	out := reconcile(t, Input{Gameweek: 4, Entry: manager.EntrySummary{TotalPoints: 120}})

	if !out.Empty() || out.StartingPoints != 0 || out.BenchPoints != 0 {
		t.Fatalf("expected empty analysis, got %+v", out)
	}
	if out.Captain.Verdict != VerdictInsufficientData || out.Lineup.Verdict != VerdictInsufficientData {
		t.Fatalf("expected insufficient data verdicts, got %s/%s", out.Captain.Verdict, out.Lineup.Verdict)
	}
	if out.Entry.TotalPoints != 120 {
		t.Fatalf("entry summary should be carried through")
	}
}

func TestReconcile_InvalidGameweek(t *testing.T) {
	_, err := NewEngine(DefaultOptions()).Reconcile(Input{Gameweek: 0})
	if !errors.Is(err, ErrInvalidGameweek) {
		t.Fatalf("expected ErrInvalidGameweek, got %v", err)
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	points := []int{3, 9, 1, 7, 7, 2, 12, 0, 4, 6, 5, 8, 3, 11, 2}
	in := squadInput(t, points)
	in.Picks[0], in.Picks[14] = in.Picks[14], in.Picks[0]

	engine := NewEngine(DefaultOptions())
	first, err := engine.Reconcile(in)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := engine.Reconcile(in)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile is not deterministic")
	}
	if in.Picks[0].Slot != 15 {
		t.Fatalf("input picks must not be reordered")
	}
}

func TestReconcile_Formation(t *testing.T) {
	out := reconcile(t, squadInput(t, repeat(2, 15)))

	if out.Formation.Label != "4-4-2" {
		t.Fatalf("Label=%q want 4-4-2", out.Formation.Label)
	}
	if len(out.Formation.Rows) != 4 || len(out.Formation.Bench) != 4 {
		t.Fatalf("unexpected rows=%d bench=%d", len(out.Formation.Rows), len(out.Formation.Bench))
	}
}

func TestNormalizeOptions(t *testing.T) {
	got := NormalizeOptions(Options{UnderperformFraction: -1, TopValueCount: 0, Epsilon: math.NaN()})
	if !reflect.DeepEqual(got, DefaultOptions()) {
		t.Fatalf("NormalizeOptions()=%+v want defaults", got)
	}
}

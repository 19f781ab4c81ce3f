package playerstats

import (
	"math"
	"testing"
)

func TestNewTable_DedupFirstSeenAndDerivedColumns(t *testing.T) {
	table, report := NewTable([]Row{
		{PlayerName: "Salah", Gameweek: 2, GoalsScored: 1, Assists: 1, TotalPoints: 12, Cost: 130},
		{PlayerName: "Salah", Gameweek: 1, GoalsScored: 0, Assists: 0, TotalPoints: 2, Cost: 125},
		{PlayerName: "Salah", Gameweek: 2, GoalsScored: 3, TotalPoints: 20, Cost: 130},
		{PlayerName: " Salah ", Gameweek: 3, TotalPoints: 4, Cost: 0},
		{PlayerName: "", Gameweek: 1},
		{PlayerName: "Haaland", Gameweek: 0},
	})

	if report.Input != 6 || report.Kept != 3 || report.Duplicates != 1 || report.Invalid != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	row, ok := table.Lookup("Salah", 2)
	if !ok {
		t.Fatalf("expected row for Salah gw2")
	}
	if row.TotalPoints != 12 {
		t.Fatalf("expected first-seen duplicate to win, got points=%d", row.TotalPoints)
	}
	if row.GoalContributions != 2 {
		t.Fatalf("unexpected goal contributions: %d", row.GoalContributions)
	}
	if math.Abs(row.PointsPerMillion-12/13.0) > 1e-9 {
		t.Fatalf("unexpected points per million: %v", row.PointsPerMillion)
	}
	if row.Form != 7 {
		t.Fatalf("expected form=(2+12)/2=7, got %v", row.Form)
	}

	gw3, _ := table.Lookup("Salah", 3)
	if gw3.PointsPerMillion != 0 {
		t.Fatalf("expected zero cost to yield zero ppm, got %v", gw3.PointsPerMillion)
	}
	if gw3.Form != 6 {
		t.Fatalf("expected form=(2+12+4)/3=6, got %v", gw3.Form)
	}
}

func TestTable_HistoryUpTo(t *testing.T) {
	table, _ := NewTable([]Row{
		{PlayerName: "Saka", Gameweek: 5, TotalPoints: 5},
		{PlayerName: "Saka", Gameweek: 1, TotalPoints: 1},
		{PlayerName: "Saka", Gameweek: 3, TotalPoints: 3},
	})

	got := table.HistoryUpTo("Saka", 4)
	if len(got) != 2 || got[0].Gameweek != 1 || got[1].Gameweek != 3 {
		t.Fatalf("unexpected history: %+v", got)
	}
	if len(table.HistoryUpTo("Saka", 0)) != 0 {
		t.Fatalf("expected no rows before gw1")
	}
	if len(table.History("Nobody")) != 0 {
		t.Fatalf("expected empty history for unknown player")
	}

	got[0].TotalPoints = 99
	again, _ := table.Lookup("Saka", 1)
	if again.TotalPoints != 1 {
		t.Fatalf("history must return a copy")
	}
}

func TestTable_RowsFilter(t *testing.T) {
	table, _ := NewTable([]Row{
		{PlayerName: "B", Gameweek: 1},
		{PlayerName: "A", Gameweek: 2},
		{PlayerName: "A", Gameweek: 1},
		{PlayerName: "C", Gameweek: 4},
	})

	all := table.Rows(Filter{})
	if len(all) != 4 || all[0].PlayerName != "A" || all[0].Gameweek != 1 {
		t.Fatalf("unexpected ordering: %+v", all)
	}

	filtered := table.Rows(Filter{Players: []string{"C", "A", "A", "missing"}, FromGW: 2, ToGW: 4})
	if len(filtered) != 2 || filtered[0].PlayerName != "A" || filtered[1].PlayerName != "C" {
		t.Fatalf("unexpected filtered rows: %+v", filtered)
	}

	minGW, maxGW := table.GameweekRange()
	if minGW != 1 || maxGW != 4 {
		t.Fatalf("unexpected range: %d..%d", minGW, maxGW)
	}
}

func TestTable_NilSafe(t *testing.T) {
	var table *Table
	if table.Len() != 0 || table.HasPlayer("x") || len(table.Rows(Filter{})) != 0 {
		t.Fatalf("nil table must behave as empty")
	}
	if _, ok := table.Lookup("x", 1); ok {
		t.Fatalf("nil table lookup must miss")
	}
}

package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
)

func statsFixture(t *testing.T) *StatsService {
	t.Helper()

	table, _ := playerstats.NewTable([]playerstats.Row{
		{PlayerName: "M.Salah", Gameweek: 1, GoalsScored: 1, Assists: 1, TotalPoints: 12, Cost: 130},
		{PlayerName: "M.Salah", Gameweek: 2, TotalPoints: 2, Cost: 130},
		{PlayerName: "M.Salah", Gameweek: 3, GoalsScored: 1, TotalPoints: 7, Cost: 131},
		{PlayerName: "Haaland", Gameweek: 1, GoalsScored: 2, TotalPoints: 13, Cost: 150},
		{PlayerName: "Haaland", Gameweek: 2, TotalPoints: 2, Cost: 150},
		{PlayerName: "Mbeumo", Gameweek: 1, Assists: 1, TotalPoints: 6, Cost: 80},
		{PlayerName: "Mbeumo", Gameweek: 2, GoalsScored: 1, TotalPoints: 9, Cost: 80},
	})
	return NewStatsService(staticHistory{table: table})
}

func TestStatsService_Overview(t *testing.T) {
	t.Parallel()

	got, err := statsFixture(t).Overview(context.Background(), playerstats.Filter{})
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if got.Rows != 7 || got.TotalPoints != 51 || got.TotalGoals != 5 || got.TotalAssists != 2 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got.Top[0].Name != "M.Salah" || got.Top[0].TotalPoints != 21 || got.Top[0].BestPoints != 12 {
		t.Fatalf("unexpected top player: %+v", got.Top[0])
	}
	if got.Top[1].Name != "Haaland" || got.Top[2].Name != "Mbeumo" {
		t.Fatalf("expected ties to keep name order, got %s,%s", got.Top[1].Name, got.Top[2].Name)
	}
}

func TestStatsService_OverviewFiltered(t *testing.T) {
	t.Parallel()

	got, err := statsFixture(t).Overview(context.Background(), playerstats.Filter{Players: []string{"Haaland"}, FromGW: 2})
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if got.Rows != 1 || got.TotalPoints != 2 || len(got.Players) != 1 {
		t.Fatalf("unexpected filtered overview: %+v", got)
	}

	_, err = statsFixture(t).Overview(context.Background(), playerstats.Filter{FromGW: 5, ToGW: 2})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
}

func TestStatsService_ValueAnalysis(t *testing.T) {
	t.Parallel()

	got, err := statsFixture(t).ValueAnalysis(context.Background(), playerstats.Filter{})
	if err != nil {
		t.Fatalf("value analysis: %v", err)
	}
	if len(got.Players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(got.Players))
	}
	best := got.Efficient[0]
	if best.Name != "Mbeumo" {
		t.Fatalf("expected Mbeumo as most efficient, got %s", best.Name)
	}
	if math.Abs(best.PointsPerMillion-7.5/8) > 1e-9 {
		t.Fatalf("unexpected mean points per million: %v", best.PointsPerMillion)
	}
	if got.Recommendations[0].Name != "Mbeumo" || got.Recommendations[0].RecommendationScore <= 0 {
		t.Fatalf("unexpected recommendation: %+v", got.Recommendations[0])
	}
}

func TestStatsService_TrendsRestartFormOnFilteredRange(t *testing.T) {
	t.Parallel()

	got, err := statsFixture(t).Trends(context.Background(), playerstats.Filter{Players: []string{"M.Salah"}, FromGW: 2})
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if len(got) != 1 || len(got[0].Points) != 2 {
		t.Fatalf("unexpected trend shape: %+v", got)
	}
	if got[0].Points[0].Form != 2 || got[0].Points[1].Form != 4.5 {
		t.Fatalf("unexpected rolling form: %+v", got[0].Points)
	}

	defaults, err := statsFixture(t).Trends(context.Background(), playerstats.Filter{})
	if err != nil {
		t.Fatalf("default trends: %v", err)
	}
	if len(defaults) != 3 || defaults[0].Name != "Haaland" {
		t.Fatalf("expected first three players by name, got %+v", defaults)
	}
}

func TestStatsService_SearchPlayers(t *testing.T) {
	t.Parallel()

	service := statsFixture(t)
	got, err := service.SearchPlayers(context.Background(), "salah", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "M.Salah" {
		t.Fatalf("unexpected matches: %+v", got)
	}

	got, err = service.SearchPlayers(context.Background(), "m", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two players containing m, got %+v", got)
	}

	if _, err := service.SearchPlayers(context.Background(), "  ", 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank query, got %v", err)
	}
}

func TestStatsService_ExportCSV(t *testing.T) {
	t.Parallel()

	data, err := statsFixture(t).ExportCSV(context.Background(), playerstats.Filter{Players: []string{"Mbeumo"}})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(exportHeader, ",") {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[2][0] != "Mbeumo" || records[2][1] != "2" || records[2][10] != "1.13" || records[2][11] != "7.50" {
		t.Fatalf("unexpected second row: %v", records[2])
	}
}

func TestStatsService_CaptainHistory(t *testing.T) {
	t.Parallel()

	service := statsFixture(t)
	got, err := service.CaptainHistory(context.Background(), "M.Salah", 1)
	if err != nil {
		t.Fatalf("captain history: %v", err)
	}
	if len(got.Rows) != 3 || got.SeasonAverage != 7 {
		t.Fatalf("unexpected history: %+v", got)
	}
	if !got.HasGameweek || got.GameweekPoints != 12 || got.DeltaFromAverage != 5 {
		t.Fatalf("unexpected gameweek comparison: %+v", got)
	}

	if _, err := service.CaptainHistory(context.Background(), "Nobody", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsService_HistoryUnavailable(t *testing.T) {
	t.Parallel()

	service := NewStatsService(staticHistory{err: ErrDependencyUnavailable})
	if _, err := service.Overview(context.Background(), playerstats.Filter{}); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

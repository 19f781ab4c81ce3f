package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/fpl-insight/internal/domain/analysis"
	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
	managermock "github.com/riskibarqy/fpl-insight/internal/mocks/domain/manager"
)

type fakeTeamAnalyzer struct {
	mu      sync.Mutex
	calls   []int
	results map[int]analysis.TeamAnalysis
	errs    map[int]error
}

func (f *fakeTeamAnalyzer) AnalyzeManagerTeam(_ context.Context, managerID int64, gw int) (AnalysisResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, gw)
	f.mu.Unlock()

	if err := f.errs[gw]; err != nil {
		return AnalysisResult{}, err
	}
	return AnalysisResult{ManagerID: managerID, Gameweek: gw, Analysis: f.results[gw]}, nil
}

func seasonGameweek(gw, points int, captain analysis.Verdict, captainLost, lineupLost float64) analysis.TeamAnalysis {
	out := analysis.TeamAnalysis{
		Gameweek:    gw,
		Entry:       manager.EntrySummary{GameweekPoints: points},
		Players:     []analysis.ReconciledPlayer{{Name: "x"}},
		BenchPoints: 3,
		Captain:     analysis.CaptainCheck{Verdict: captain, PointsDifferential: captainLost},
		Lineup:      analysis.LineupCheck{Verdict: analysis.VerdictOptimal},
	}
	if lineupLost > 0 {
		out.Lineup = analysis.LineupCheck{Verdict: analysis.VerdictSuboptimal, PointsDifferential: lineupLost}
	}
	return out
}

func TestSeasonService_AnalyzeSeason(t *testing.T) {
	t.Parallel()

	managerRepo := managermock.NewRepository(t)
	managerRepo.
		On("ListHistory", mock.Anything, int64(42)).
		Return([]manager.GameweekHistory{{Gameweek: 1}, {Gameweek: 2}, {Gameweek: 3}, {Gameweek: 5}}, nil).
		Once()

	analyzer := &fakeTeamAnalyzer{
		results: map[int]analysis.TeamAnalysis{
			2: seasonGameweek(2, 70, analysis.VerdictOptimal, 0, 0),
			3: seasonGameweek(3, 40, analysis.VerdictSuboptimal, 6, 2),
			5: {Gameweek: 5},
		},
		errs: map[int]error{},
	}

	service := NewSeasonService(managerRepo, analyzer, staticGameweek{current: CurrentGameweek{Gameweek: 5}}, 3, logging.NewNop())
	got, err := service.AnalyzeSeason(context.Background(), SeasonInput{ManagerID: 42, FromGW: 2})
	if err != nil {
		t.Fatalf("analyze season: %v", err)
	}

	if got.FromGW != 2 || got.ToGW != 5 {
		t.Fatalf("unexpected range: %d..%d", got.FromGW, got.ToGW)
	}
	if len(analyzer.calls) != 3 {
		t.Fatalf("expected only played gameweeks 2,3,5 to be analysed, got %v", analyzer.calls)
	}

	summary := got.Summary
	if len(summary.Gameweeks) != 2 || summary.Gameweeks[0].Gameweek != 2 || summary.Gameweeks[1].Gameweek != 3 {
		t.Fatalf("unexpected gameweek summaries: %+v", summary.Gameweeks)
	}
	if summary.TotalPoints != 110 || summary.CaptainPointsLost != 6 || summary.LineupPointsLost != 2 {
		t.Fatalf("unexpected season totals: %+v", summary)
	}
	if summary.BestGameweek != 2 || summary.WorstGameweek != 3 {
		t.Fatalf("unexpected best/worst: %d/%d", summary.BestGameweek, summary.WorstGameweek)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Gameweek != 5 {
		t.Fatalf("expected gameweek 5 to be skipped without picks, got %+v", got.Skipped)
	}
}

func TestSeasonService_AnalyzeSeason_SkipsFailedGameweeks(t *testing.T) {
	t.Parallel()

	managerRepo := managermock.NewRepository(t)
	managerRepo.
		On("ListHistory", mock.Anything, int64(42)).
		Return(nil, fmt.Errorf("%w: history timeout", ErrDependencyUnavailable)).
		Once()

	analyzer := &fakeTeamAnalyzer{
		results: map[int]analysis.TeamAnalysis{
			1: seasonGameweek(1, 50, analysis.VerdictOptimal, 0, 0),
		},
		errs: map[int]error{2: fmt.Errorf("%w: entry 42", ErrNotFound)},
	}

	service := NewSeasonService(managerRepo, analyzer, nil, 0, logging.NewNop())
	got, err := service.AnalyzeSeason(context.Background(), SeasonInput{ManagerID: 42, FromGW: 1, ToGW: 2})
	if err != nil {
		t.Fatalf("analyze season: %v", err)
	}
	if got.Summary.TotalPoints != 50 || len(got.Skipped) != 1 || got.Skipped[0].Gameweek != 2 {
		t.Fatalf("unexpected season result: %+v", got)
	}
	if got.WorkerCount != 2 {
		t.Fatalf("expected worker count capped by task count, got %d", got.WorkerCount)
	}
}

func TestSeasonService_AnalyzeSeason_UnknownManager(t *testing.T) {
	t.Parallel()

	managerRepo := managermock.NewRepository(t)
	managerRepo.
		On("ListHistory", mock.Anything, int64(7)).
		Return(nil, fmt.Errorf("%w: entry 7", ErrNotFound)).
		Once()

	service := NewSeasonService(managerRepo, &fakeTeamAnalyzer{}, nil, 2, logging.NewNop())
	_, err := service.AnalyzeSeason(context.Background(), SeasonInput{ManagerID: 7, FromGW: 1, ToGW: 3})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeasonService_AnalyzeSeason_InvalidRange(t *testing.T) {
	t.Parallel()

	service := NewSeasonService(nil, &fakeTeamAnalyzer{}, nil, 2, logging.NewNop())
	for _, input := range []SeasonInput{
		{ManagerID: 0},
		{ManagerID: 1, FromGW: 5, ToGW: 3},
		{ManagerID: 1, FromGW: 1, ToGW: 40},
	} {
		if _, err := service.AnalyzeSeason(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", input, err)
		}
	}
}

func TestNormalizeSeasonWorkerCount(t *testing.T) {
	if got := normalizeSeasonWorkerCount(0, 10); got != defaultSeasonWorkers {
		t.Fatalf("expected default workers, got %d", got)
	}
	if got := normalizeSeasonWorkerCount(50, 20); got != maxSeasonWorkers {
		t.Fatalf("expected capped workers, got %d", got)
	}
	if got := normalizeSeasonWorkerCount(4, 0); got != 1 {
		t.Fatalf("expected 1 worker without tasks, got %d", got)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fpl-insight/internal/domain/analysis"
	"github.com/riskibarqy/fpl-insight/internal/domain/gameweek"
	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

const (
	defaultSeasonWorkers = 4
	maxSeasonWorkers     = 8
)

type teamAnalyzer interface {
	AnalyzeManagerTeam(ctx context.Context, managerID int64, gw int) (AnalysisResult, error)
}

type SeasonInput struct {
	ManagerID int64
	FromGW    int
	ToGW      int
}

type SkippedGameweek struct {
	Gameweek int
	Reason   string
}

type SeasonResult struct {
	Summary     analysis.SeasonSummary
	FromGW      int
	ToGW        int
	Skipped     []SkippedGameweek
	WorkerCount int
	DurationMs  int64
}

type seasonTaskResult struct {
	gameweek int
	summary  analysis.GameweekSummary
	err      error
	empty    bool
}

type SeasonService struct {
	managerRepo manager.Repository
	analyzer    teamAnalyzer
	gameweeks   currentGameweekProvider
	workers     int
	logger      *logging.Logger
}

func NewSeasonService(
	managerRepo manager.Repository,
	analyzer teamAnalyzer,
	gameweeks currentGameweekProvider,
	workers int,
	logger *logging.Logger,
) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SeasonService{
		managerRepo: managerRepo,
		analyzer:    analyzer,
		gameweeks:   gameweeks,
		workers:     workers,
		logger:      logger,
	}
}

// AnalyzeSeason analyses every played gameweek of a manager in [FromGW, ToGW] and folds the results.
// Zero bounds mean gameweek 1 and the current gameweek.
func (s *SeasonService) AnalyzeSeason(ctx context.Context, input SeasonInput) (SeasonResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.AnalyzeSeason",
		attribute.Int64("manager.id", input.ManagerID),
	)
	defer span.End()

	if input.ManagerID <= 0 {
		return SeasonResult{}, fmt.Errorf("%w: manager id must be greater than zero", ErrInvalidInput)
	}
	if s.analyzer == nil {
		return SeasonResult{}, fmt.Errorf("%w: team analyzer is not configured", ErrDependencyUnavailable)
	}

	fromGW, toGW, err := s.resolveRange(ctx, input.FromGW, input.ToGW)
	if err != nil {
		return SeasonResult{}, err
	}

	gameweeks, err := s.playedGameweeks(ctx, input.ManagerID, fromGW, toGW)
	if err != nil {
		recordSpanError(span, err)
		return SeasonResult{}, err
	}

	start := time.Now()
	workerCount := normalizeSeasonWorkerCount(s.workers, len(gameweeks))
	result := SeasonResult{
		FromGW:      fromGW,
		ToGW:        toGW,
		WorkerCount: workerCount,
	}
	if len(gameweeks) == 0 {
		result.Summary = analysis.Season(input.ManagerID, nil)
		return result, nil
	}

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return SeasonResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	rows := make([]seasonTaskResult, len(gameweeks))
	var workers sync.WaitGroup
	for i, gw := range gameweeks {
		i, gw := i, gw
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			row := seasonTaskResult{gameweek: gw}
			out, err := s.analyzer.AnalyzeManagerTeam(ctx, input.ManagerID, gw)
			switch {
			case err != nil:
				row.err = err
			case out.Analysis.Empty():
				row.empty = true
			default:
				row.summary = analysis.Summarize(out.Analysis)
			}
			rows[i] = row
		}); err != nil {
			workers.Done()
			return SeasonResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	summaries := make([]analysis.GameweekSummary, 0, len(rows))
	for _, row := range rows {
		switch {
		case row.err != nil:
			if errors.Is(row.err, context.Canceled) || errors.Is(row.err, context.DeadlineExceeded) {
				return SeasonResult{}, row.err
			}
			s.logger.WarnContext(ctx, "season gameweek analysis failed",
				"manager_id", input.ManagerID,
				"gameweek", row.gameweek,
				"error", row.err,
			)
			result.Skipped = append(result.Skipped, SkippedGameweek{Gameweek: row.gameweek, Reason: row.err.Error()})
		case row.empty:
			result.Skipped = append(result.Skipped, SkippedGameweek{Gameweek: row.gameweek, Reason: "no picks available"})
		default:
			summaries = append(summaries, row.summary)
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Gameweek < summaries[j].Gameweek })
	result.Summary = analysis.Season(input.ManagerID, summaries)
	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

func (s *SeasonService) resolveRange(ctx context.Context, fromGW, toGW int) (int, int, error) {
	if fromGW == 0 {
		fromGW = gameweek.MinGameweek
	}
	if toGW == 0 {
		toGW = gameweek.MaxGameweek
		if s.gameweeks != nil {
			toGW = s.gameweeks.Current(ctx).Gameweek
		}
	}
	if err := gameweek.Validate(fromGW); err != nil {
		return 0, 0, fmt.Errorf("%w: from: %w", ErrInvalidInput, err)
	}
	if err := gameweek.Validate(toGW); err != nil {
		return 0, 0, fmt.Errorf("%w: to: %w", ErrInvalidInput, err)
	}
	if fromGW > toGW {
		return 0, 0, fmt.Errorf("%w: from gameweek %d is after to gameweek %d", ErrInvalidInput, fromGW, toGW)
	}
	return fromGW, toGW, nil
}

// playedGameweeks narrows the range to gameweeks the manager has a history row for.
// Without a readable history every gameweek in range is attempted.
func (s *SeasonService) playedGameweeks(ctx context.Context, managerID int64, fromGW, toGW int) ([]int, error) {
	all := make([]int, 0, toGW-fromGW+1)
	for gw := fromGW; gw <= toGW; gw++ {
		all = append(all, gw)
	}
	if s.managerRepo == nil {
		return all, nil
	}

	history, err := s.managerRepo.ListHistory(ctx, managerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
			return nil, fmt.Errorf("list manager history manager=%d: %w", managerID, err)
		}
		s.logger.WarnContext(ctx, "manager history unavailable, analysing full range",
			"manager_id", managerID,
			"error", err,
		)
		return all, nil
	}

	out := make([]int, 0, len(all))
	for _, gw := range manager.PlayedGameweeks(history) {
		if gw >= fromGW && gw <= toGW {
			out = append(out, gw)
		}
	}
	return out, nil
}

func normalizeSeasonWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = defaultSeasonWorkers
	}
	if value > maxSeasonWorkers {
		value = maxSeasonWorkers
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}

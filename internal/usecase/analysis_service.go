package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fpl-insight/internal/domain/analysis"
	"github.com/riskibarqy/fpl-insight/internal/domain/gameweek"
	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-insight/internal/platform/id"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

// SourceRequested marks a gameweek chosen by the caller rather than detected.
const SourceRequested gameweek.Source = "requested"

type historyProvider interface {
	Table(ctx context.Context) (*playerstats.Table, error)
}

type currentGameweekProvider interface {
	Current(ctx context.Context) CurrentGameweek
}

type AnalysisResult struct {
	ID             string
	ManagerID      int64
	Gameweek       int
	GameweekSource gameweek.Source
	Analysis       analysis.TeamAnalysis
	GeneratedAt    time.Time
}

type AnalysisService struct {
	managerRepo manager.Repository
	playerRepo  player.Repository
	history     historyProvider
	gameweeks   currentGameweekProvider
	engine      *analysis.Engine
	ids         id.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewAnalysisService(
	managerRepo manager.Repository,
	playerRepo player.Repository,
	history historyProvider,
	gameweeks currentGameweekProvider,
	engine *analysis.Engine,
	ids id.Generator,
	logger *logging.Logger,
) *AnalysisService {
	if engine == nil {
		engine = analysis.NewEngine(analysis.DefaultOptions())
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AnalysisService{
		managerRepo: managerRepo,
		playerRepo:  playerRepo,
		history:     history,
		gameweeks:   gameweeks,
		engine:      engine,
		ids:         ids,
		logger:      logger,
		now:         time.Now,
	}
}

// AnalyzeManagerTeam reconciles a manager's picks for a gameweek; gw 0 means the current one.
// Supplier failures other than an unknown manager degrade to warnings.
func (s *AnalysisService) AnalyzeManagerTeam(ctx context.Context, managerID int64, gw int) (AnalysisResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnalysisService.AnalyzeManagerTeam",
		attribute.Int64("manager.id", managerID),
		attribute.Int("gameweek", gw),
	)
	defer span.End()

	if managerID <= 0 {
		return AnalysisResult{}, fmt.Errorf("%w: manager id must be greater than zero", ErrInvalidInput)
	}

	source := SourceRequested
	if gw == 0 {
		if s.gameweeks == nil {
			return AnalysisResult{}, fmt.Errorf("%w: gameweek is required", ErrInvalidInput)
		}
		current := s.gameweeks.Current(ctx)
		gw, source = current.Gameweek, current.Source
	}
	if err := gameweek.Validate(gw); err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var (
		snapshot     manager.TeamSnapshot
		snapshotErr  error
		directory    player.Directory
		directoryErr error
		table        *playerstats.Table
		historyErr   error
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		snapshot, snapshotErr = s.managerRepo.GetTeamSnapshot(ctx, managerID, gw)
		if errors.Is(snapshotErr, ErrNotFound) || errors.Is(snapshotErr, ErrInvalidInput) {
			return snapshotErr
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		if s.playerRepo == nil {
			return nil
		}
		directory, directoryErr = s.playerRepo.GetDirectory(ctx)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		if s.history == nil {
			return nil
		}
		table, historyErr = s.history.Table(ctx)
		return nil
	})
	if err := p.Wait(); err != nil {
		recordSpanError(span, err)
		return AnalysisResult{}, fmt.Errorf("get team snapshot manager=%d gw=%d: %w", managerID, gw, err)
	}

	var warnings []analysis.Warning
	if snapshotErr != nil {
		s.logger.WarnContext(ctx, "team snapshot unavailable", "manager_id", managerID, "gameweek", gw, "error", snapshotErr)
		warnings = append(warnings, upstreamWarning("team snapshot unavailable", snapshotErr))
		snapshot = manager.TeamSnapshot{ManagerID: managerID, Gameweek: gw}
	}
	if directoryErr != nil {
		s.logger.WarnContext(ctx, "player directory unavailable", "error", directoryErr)
		warnings = append(warnings, upstreamWarning("player directory unavailable", directoryErr))
		directory = player.Directory{}
	}
	if historyErr != nil {
		s.logger.WarnContext(ctx, "historical stats unavailable", "error", historyErr)
		warnings = append(warnings, upstreamWarning("historical stats unavailable", historyErr))
		table = nil
	}

	result, err := s.engine.Reconcile(analysis.Input{
		Picks:     snapshot.Picks,
		Entry:     snapshot.Entry,
		History:   table,
		Directory: directory,
		Gameweek:  gw,
	})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(warnings) > 0 {
		result.Warnings = append(warnings, result.Warnings...)
	}

	analysisID, err := s.ids.NewID()
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("create analysis id: %w", err)
	}

	return AnalysisResult{
		ID:             analysisID,
		ManagerID:      managerID,
		Gameweek:       gw,
		GameweekSource: source,
		Analysis:       result,
		GeneratedAt:    s.now().UTC(),
	}, nil
}

func upstreamWarning(message string, err error) analysis.Warning {
	return analysis.Warning{
		Code:    analysis.WarningUpstreamUnavailable,
		Message: fmt.Sprintf("%s: %v", message, err),
	}
}

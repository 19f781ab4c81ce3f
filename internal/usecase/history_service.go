package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-insight/internal/platform/cache"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

const historyCacheKey = "history:table"

// HistoryInfo describes the loaded historical store.
type HistoryInfo struct {
	Source     string
	Rows       int
	Players    int
	MinGW      int
	MaxGW      int
	Duplicates int
	Invalid    int
	Fallback   bool
	LoadedAt   time.Time
}

type historySnapshot struct {
	table *playerstats.Table
	info  HistoryInfo
}

// HistoryService builds the playerstats.Table once per process and shares it read-only.
type HistoryService struct {
	primary      playerstats.Repository
	primaryName  string
	fallback     playerstats.Repository
	fallbackName string
	logger       *logging.Logger
	store        *cache.Store
	now          func() time.Time

	mu   sync.RWMutex
	info HistoryInfo
}

func NewHistoryService(primaryName string, primary playerstats.Repository, fallbackName string, fallback playerstats.Repository, logger *logging.Logger) *HistoryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &HistoryService{
		primary:      primary,
		primaryName:  primaryName,
		fallback:     fallback,
		fallbackName: fallbackName,
		logger:       logger,
		store:        cache.NewStore(0),
		now:          time.Now,
	}
}

// Table returns the shared historical store, loading it on first use.
func (s *HistoryService) Table(ctx context.Context) (*playerstats.Table, error) {
	v, err := s.store.GetOrLoad(ctx, historyCacheKey, s.load)
	if err != nil {
		return nil, err
	}
	snapshot, _ := v.(historySnapshot)
	return snapshot.table, nil
}

// Reload discards the current table and loads it again.
func (s *HistoryService) Reload(ctx context.Context) (HistoryInfo, error) {
	s.store.Delete(ctx, historyCacheKey)
	if _, err := s.Table(ctx); err != nil {
		return HistoryInfo{}, err
	}
	return s.Info(), nil
}

func (s *HistoryService) Info() HistoryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

func (s *HistoryService) load(ctx context.Context) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HistoryService.load")
	defer span.End()

	source := s.primaryName
	rows, err := s.listRows(ctx, s.primary)
	if err != nil {
		if !shouldFallBack(err) || s.fallback == nil {
			recordSpanError(span, err)
			return nil, fmt.Errorf("%w: load historical stats from %s: %w", ErrDependencyUnavailable, source, err)
		}
		s.logger.WarnContext(ctx, "historical stats unavailable, using fallback dataset",
			"source", source,
			"fallback", s.fallbackName,
			"error", err,
		)
		source = s.fallbackName
		rows, err = s.listRows(ctx, s.fallback)
		if err != nil {
			recordSpanError(span, err)
			return nil, fmt.Errorf("%w: load fallback historical stats: %w", ErrDependencyUnavailable, err)
		}
	}

	table, report := playerstats.NewTable(rows)
	minGW, maxGW := table.GameweekRange()
	info := HistoryInfo{
		Source:     source,
		Rows:       report.Kept,
		Players:    len(table.Players()),
		MinGW:      minGW,
		MaxGW:      maxGW,
		Duplicates: report.Duplicates,
		Invalid:    report.Invalid,
		Fallback:   source != s.primaryName,
		LoadedAt:   s.now().UTC(),
	}
	if report.Duplicates > 0 || report.Invalid > 0 {
		s.logger.WarnContext(ctx, "historical stats contained unusable rows",
			"source", source,
			"duplicates", report.Duplicates,
			"invalid", report.Invalid,
		)
	}
	s.logger.InfoContext(ctx, "historical stats loaded",
		"source", source,
		"rows", info.Rows,
		"players", info.Players,
		"min_gw", minGW,
		"max_gw", maxGW,
	)

	s.mu.Lock()
	s.info = info
	s.mu.Unlock()
	return historySnapshot{table: table, info: info}, nil
}

func (s *HistoryService) listRows(ctx context.Context, repo playerstats.Repository) ([]playerstats.Row, error) {
	if repo == nil {
		return nil, playerstats.ErrEmptyDataset
	}
	rows, err := repo.ListRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, playerstats.ErrEmptyDataset
	}
	return rows, nil
}

func shouldFallBack(err error) bool {
	return errors.Is(err, playerstats.ErrMissingColumns) ||
		errors.Is(err, playerstats.ErrEmptyDataset) ||
		errors.Is(err, fs.ErrNotExist)
}

package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
	"github.com/riskibarqy/fpl-insight/internal/platform/resilience"
	"github.com/riskibarqy/fpl-insight/internal/usecase"
)

type TeamAnalyzer interface {
	AnalyzeManagerTeam(ctx context.Context, managerID int64, gw int) (usecase.AnalysisResult, error)
}

type SeasonAnalyzer interface {
	AnalyzeSeason(ctx context.Context, input usecase.SeasonInput) (usecase.SeasonResult, error)
}

type StatsReader interface {
	Overview(ctx context.Context, filter playerstats.Filter) (usecase.Overview, error)
	ValueAnalysis(ctx context.Context, filter playerstats.Filter) (usecase.ValueAnalysis, error)
	Trends(ctx context.Context, filter playerstats.Filter) ([]usecase.PlayerTrend, error)
	SearchPlayers(ctx context.Context, query string, limit int) ([]usecase.PlayerMatch, error)
	ExportCSV(ctx context.Context, filter playerstats.Filter) ([]byte, error)
	CaptainHistory(ctx context.Context, name string, gw int) (usecase.CaptainHistory, error)
}

type HistoryManager interface {
	Reload(ctx context.Context) (usecase.HistoryInfo, error)
	Info() usecase.HistoryInfo
}

type GameweekReader interface {
	Current(ctx context.Context) usecase.CurrentGameweek
}

// BreakerStateFunc reports the upstream circuit state for health output.
type BreakerStateFunc func() resilience.CircuitState

type Handler struct {
	analysis  TeamAnalyzer
	season    SeasonAnalyzer
	stats     StatsReader
	history   HistoryManager
	gameweeks GameweekReader
	breaker   BreakerStateFunc
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	analysis TeamAnalyzer,
	season SeasonAnalyzer,
	stats StatsReader,
	history HistoryManager,
	gameweeks GameweekReader,
	breaker BreakerStateFunc,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		analysis:  analysis,
		season:    season,
		stats:     stats,
		history:   history,
		gameweeks: gameweeks,
		breaker:   breaker,
		logger:    logger.Named("httpapi"),
		validator: validator.New(),
	}
}

type healthDTO struct {
	Status   string         `json:"status"`
	Upstream string         `json:"upstream,omitempty"`
	History  historyInfoDTO `json:"history"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	out := healthDTO{Status: "ok"}
	if h.history != nil {
		out.History = historyInfoToDTO(h.history.Info())
	}
	if h.breaker != nil {
		out.Upstream = string(h.breaker())
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetCurrentGameweek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentGameweek")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, currentGameweekToDTO(h.gameweeks.Current(ctx)))
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

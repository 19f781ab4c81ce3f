package httpapi

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fpl-insight/internal/usecase"
)

func (h *Handler) GetManagerAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetManagerAnalysis")
	defer span.End()

	managerID, err := parseManagerID(r.PathValue("managerID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	gw, err := queryInt(r.URL.Query(), "gw")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	req := managerAnalysisRequest{ManagerID: managerID, Gameweek: gw}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	span.SetAttributes(attribute.Int64("fpl.manager_id", req.ManagerID), attribute.Int("fpl.gameweek", req.Gameweek))

	result, err := h.analysis.AnalyzeManagerTeam(ctx, req.ManagerID, req.Gameweek)
	if err != nil {
		h.logger.WarnContext(ctx, "analyze manager team failed", "manager_id", req.ManagerID, "gameweek", req.Gameweek, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamAnalysisToDTO(result))
}

func (h *Handler) GetManagerSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetManagerSeason")
	defer span.End()

	managerID, err := parseManagerID(r.PathValue("managerID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := r.URL.Query()
	from, err := queryInt(query, "from")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	to, err := queryInt(query, "to")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	req := managerSeasonRequest{ManagerID: managerID, FromGW: from, ToGW: to}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.season.AnalyzeSeason(ctx, usecase.SeasonInput{
		ManagerID: req.ManagerID,
		FromGW:    req.FromGW,
		ToGW:      req.ToGW,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "analyze season failed", "manager_id", req.ManagerID, "from", req.FromGW, "to", req.ToGW, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(result))
}

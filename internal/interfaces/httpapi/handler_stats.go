package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) GetStatsOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatsOverview")
	defer span.End()

	req, err := parseStatsFilter(r.URL.Query())
	if err == nil {
		err = h.validateRequest(ctx, req)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	overview, err := h.stats.Overview(ctx, req.filter())
	if err != nil {
		h.logger.WarnContext(ctx, "stats overview failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, overviewToDTO(overview))
}

func (h *Handler) GetValueAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetValueAnalysis")
	defer span.End()

	req, err := parseStatsFilter(r.URL.Query())
	if err == nil {
		err = h.validateRequest(ctx, req)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	value, err := h.stats.ValueAnalysis(ctx, req.filter())
	if err != nil {
		h.logger.WarnContext(ctx, "value analysis failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, valueAnalysisToDTO(value))
}

func (h *Handler) GetPlayerTrends(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerTrends")
	defer span.End()

	req, err := parseStatsFilter(r.URL.Query())
	if err == nil {
		err = h.validateRequest(ctx, req)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	trends, err := h.stats.Trends(ctx, req.filter())
	if err != nil {
		h.logger.WarnContext(ctx, "player trends failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, trendsToDTO(trends))
}

func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchPlayers")
	defer span.End()

	query := r.URL.Query()
	limit, err := queryInt(query, "limit")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if limit == 0 {
		limit = defaultSearchLimit
	}

	req := searchPlayersRequest{Query: strings.TrimSpace(query.Get("q")), Limit: limit}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matches, err := h.stats.SearchPlayers(ctx, req.Query, req.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "search players failed", "query", req.Query, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(matches))
}

func (h *Handler) GetPlayerCaptainHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerCaptainHistory")
	defer span.End()

	gw, err := queryInt(r.URL.Query(), "gw")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	req := captainHistoryRequest{Name: strings.TrimSpace(r.PathValue("name")), Gameweek: gw}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	history, err := h.stats.CaptainHistory(ctx, req.Name, req.Gameweek)
	if err != nil {
		h.logger.WarnContext(ctx, "captain history failed", "player", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, captainHistoryToDTO(history))
}

func (h *Handler) ExportStatsCSV(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportStatsCSV")
	defer span.End()

	req, err := parseStatsFilter(r.URL.Query())
	if err == nil {
		err = h.validateRequest(ctx, req)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	data, err := h.stats.ExportCSV(ctx, req.filter())
	if err != nil {
		h.logger.WarnContext(ctx, "export stats csv failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeCSV(ctx, w, "fpl_stats.csv", data)
}

func (h *Handler) ReloadHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReloadHistory")
	defer span.End()

	info, err := h.history.Reload(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "reload history failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "history reloaded", "source", info.Source, "rows", info.Rows, "fallback", info.Fallback)
	writeSuccess(ctx, w, http.StatusOK, historyInfoToDTO(info))
}

package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET "+openAPIPath, handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerAnalysisRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/gameweeks/current", handler.GetCurrentGameweek)
	mux.HandleFunc("GET /v1/managers/{managerID}/analysis", handler.GetManagerAnalysis)
	mux.HandleFunc("GET /v1/managers/{managerID}/season", handler.GetManagerSeason)
}

func registerStatsRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/stats/overview", handler.GetStatsOverview)
	mux.HandleFunc("GET /v1/stats/value", handler.GetValueAnalysis)
	mux.HandleFunc("GET /v1/stats/trends", handler.GetPlayerTrends)
	mux.HandleFunc("GET /v1/stats/export.csv", handler.ExportStatsCSV)
	mux.HandleFunc("GET /v1/stats/players/search", handler.SearchPlayers)
	mux.HandleFunc("GET /v1/stats/players/{name}/history", handler.GetPlayerCaptainHistory)
	mux.HandleFunc("POST /v1/history/reload", handler.ReloadHistory)
}

func registerMCPRoutes(mux *http.ServeMux, mcpHandler http.Handler) {
	if mcpHandler == nil {
		return
	}
	mux.Handle("/mcp", mcpHandler)
}

package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	mcpServerName = "fpl-insight"

	toolAnalyzeManagerTeam = "analyze_manager_team"
	toolCurrentGameweek    = "current_gameweek"
	toolSearchPlayers      = "search_players"
)

type analyzeManagerTeamArgs struct {
	ManagerID int64 `json:"manager_id" jsonschema:"FPL manager (entry) id, required"`
	Gameweek  int   `json:"gw" jsonschema:"Gameweek 1-38 (0 = current)"`
}

type currentGameweekArgs struct{}

type searchPlayersArgs struct {
	Query string `json:"query" jsonschema:"Player name or fragment, required"`
	Limit int    `json:"limit" jsonschema:"Maximum matches (default 10)"`
}

// NewMCPServer exposes the analysis operations as MCP tools backed by the same handler services.
func NewMCPServer(handler *Handler, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: mcpServerName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolAnalyzeManagerTeam,
		Description: "Reconcile a manager's 15-man squad with historical stats and score captaincy, bench and value decisions",
	}, handler.toolAnalyzeManagerTeam)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolCurrentGameweek,
		Description: "Resolve the current FPL gameweek",
	}, handler.toolCurrentGameweek)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolSearchPlayers,
		Description: "Fuzzy search player names in the historical dataset",
	}, handler.toolSearchPlayers)

	return server
}

func NewMCPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (h *Handler) toolAnalyzeManagerTeam(ctx context.Context, _ *mcp.CallToolRequest, args analyzeManagerTeamArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := startSpan(ctx, "httpapi.Handler.toolAnalyzeManagerTeam")
	defer span.End()

	req := managerAnalysisRequest{ManagerID: args.ManagerID, Gameweek: args.Gameweek}
	if err := h.validateRequest(ctx, req); err != nil {
		return toolError(err), nil, nil
	}

	result, err := h.analysis.AnalyzeManagerTeam(ctx, req.ManagerID, req.Gameweek)
	if err != nil {
		h.logger.WarnContext(ctx, "mcp analyze manager team failed", "manager_id", req.ManagerID, "error", err)
		return toolError(err), nil, nil
	}
	return toolJSON(teamAnalysisToDTO(result))
}

func (h *Handler) toolCurrentGameweek(ctx context.Context, _ *mcp.CallToolRequest, _ currentGameweekArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := startSpan(ctx, "httpapi.Handler.toolCurrentGameweek")
	defer span.End()

	return toolJSON(currentGameweekToDTO(h.gameweeks.Current(ctx)))
}

func (h *Handler) toolSearchPlayers(ctx context.Context, _ *mcp.CallToolRequest, args searchPlayersArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := startSpan(ctx, "httpapi.Handler.toolSearchPlayers")
	defer span.End()

	req := searchPlayersRequest{Query: args.Query, Limit: args.Limit}
	if req.Limit == 0 {
		req.Limit = defaultSearchLimit
	}
	if err := h.validateRequest(ctx, req); err != nil {
		return toolError(err), nil, nil
	}

	matches, err := h.stats.SearchPlayers(ctx, req.Query, req.Limit)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(matchesToDTO(matches))
}

func toolJSON(payload any) (*mcp.CallToolResult, any, error) {
	raw, err := sonic.ConfigDefault.MarshalIndent(payload, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}

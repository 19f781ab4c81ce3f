package httpapi

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestToolAnalyzeManagerTeam(t *testing.T) {
	env := newTestEnv(t)

	res, _, err := env.handler.toolAnalyzeManagerTeam(context.Background(), nil, analyzeManagerTeamArgs{ManagerID: 77, Gameweek: 4})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, toolText(t, res), `"manager_id": 77`)
	require.Equal(t, 4, env.analyzer.gotGW)
}

func TestToolAnalyzeManagerTeam_InvalidArgsReturnToolError(t *testing.T) {
	env := newTestEnv(t)

	res, _, err := env.handler.toolAnalyzeManagerTeam(context.Background(), nil, analyzeManagerTeamArgs{Gameweek: 4})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, toolText(t, res), "invalid input")
	require.Zero(t, env.analyzer.gotManager)
}

func TestToolSearchPlayers_DefaultsLimit(t *testing.T) {
	env := newTestEnv(t)

	res, _, err := env.handler.toolSearchPlayers(context.Background(), nil, searchPlayersArgs{Query: "haland"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, defaultSearchLimit, env.stats.gotLimit)
	require.Contains(t, toolText(t, res), "Haaland")
}

func TestMCPServer_ListsAndCallsTools(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	server := NewMCPServer(env.handler, "test")
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{toolAnalyzeManagerTeam, toolCurrentGameweek, toolSearchPlayers}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: toolCurrentGameweek, Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, toolText(t, res), `"gameweek": 7`)
}

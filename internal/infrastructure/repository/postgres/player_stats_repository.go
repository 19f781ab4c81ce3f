package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	qb "github.com/riskibarqy/fpl-insight/internal/platform/querybuilder"
)

const (
	playerStatsTable     = "player_gameweek_stats"
	playerStatsBatchSize = 500
)

var playerStatsUpsertSuffix = "ON CONFLICT (player_name, gw) DO UPDATE SET " + strings.Join([]string{
	"player_id = EXCLUDED.player_id",
	"goals_scored = EXCLUDED.goals_scored",
	"assists = EXCLUDED.assists",
	"total_points = EXCLUDED.total_points",
	"now_cost = EXCLUDED.now_cost",
	"clean_sheets = EXCLUDED.clean_sheets",
	"goals_conceded = EXCLUDED.goals_conceded",
	"saves = EXCLUDED.saves",
	"updated_at = NOW()",
}, ", ")

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

func (r *PlayerStatsRepository) ListRows(ctx context.Context) ([]playerstats.Row, error) {
	return r.ListRowsFiltered(ctx, playerstats.Filter{})
}

// ListRowsFiltered pushes the gameweek and player restrictions of f into the query.
func (r *PlayerStatsRepository) ListRowsFiltered(ctx context.Context, f playerstats.Filter) ([]playerstats.Row, error) {
	columns, err := qb.ModelColumns(playerGameweekStatsModel{})
	if err != nil {
		return nil, fmt.Errorf("resolve player stats columns: %w", err)
	}

	conditions := make([]qb.Condition, 0, 3)
	if f.FromGW > 0 {
		conditions = append(conditions, qb.Gte("gw", f.FromGW))
	}
	if f.ToGW > 0 {
		conditions = append(conditions, qb.Lte("gw", f.ToGW))
	}
	if len(f.Players) > 0 {
		conditions = append(conditions, qb.In("player_name", stringSliceToAny(f.Players)))
	}

	query, args, err := qb.Select(columns...).From(playerStatsTable).
		Where(conditions...).
		OrderBy("player_name", "gw").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player stats query: %w", err)
	}

	var rows []playerGameweekStatsModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player stats: %w", err)
	}

	out := make([]playerstats.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerStatsFromModel(row))
	}
	return out, nil
}

// UpsertRows writes rows in batches inside one transaction, replacing existing (player_name, gw) pairs.
func (r *PlayerStatsRepository) UpsertRows(ctx context.Context, rows []playerstats.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert player stats tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(rows); start += playerStatsBatchSize {
		end := min(start+playerStatsBatchSize, len(rows))
		query, args, err := buildPlayerStatsUpsert(rows[start:end])
		if err != nil {
			return err
		}
		if query == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert player stats batch %d..%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert player stats tx: %w", err)
	}
	return nil
}

func buildPlayerStatsUpsert(rows []playerstats.Row) (string, []any, error) {
	models := make([]playerGameweekStatsModel, 0, len(rows))
	seen := make(map[string]map[int]struct{}, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.PlayerName)
		if name == "" || row.Gameweek < 1 {
			continue
		}
		if _, ok := seen[name]; !ok {
			seen[name] = make(map[int]struct{})
		}
		// ON CONFLICT rejects a statement that touches the same key twice.
		if _, dup := seen[name][row.Gameweek]; dup {
			continue
		}
		seen[name][row.Gameweek] = struct{}{}
		models = append(models, playerStatsToModel(row))
	}
	if len(models) == 0 {
		return "", nil, nil
	}

	query, args, err := qb.InsertModels(playerStatsTable, models, playerStatsUpsertSuffix)
	if err != nil {
		return "", nil, fmt.Errorf("build upsert player stats query: %w", err)
	}
	return query, args, nil
}

func playerStatsFromModel(row playerGameweekStatsModel) playerstats.Row {
	return playerstats.Row{
		PlayerID:      row.PlayerID.Int64,
		PlayerName:    row.PlayerName,
		Gameweek:      row.Gameweek,
		GoalsScored:   row.GoalsScored,
		Assists:       row.Assists,
		TotalPoints:   row.TotalPoints,
		Cost:          row.NowCost,
		CleanSheets:   row.CleanSheets,
		GoalsConceded: row.GoalsConceded,
		Saves:         row.Saves,
	}
}

func playerStatsToModel(row playerstats.Row) playerGameweekStatsModel {
	return playerGameweekStatsModel{
		PlayerID:      sql.NullInt64{Int64: row.PlayerID, Valid: row.PlayerID > 0},
		PlayerName:    strings.TrimSpace(row.PlayerName),
		Gameweek:      row.Gameweek,
		GoalsScored:   row.GoalsScored,
		Assists:       row.Assists,
		TotalPoints:   row.TotalPoints,
		NowCost:       row.Cost,
		CleanSheets:   row.CleanSheets,
		GoalsConceded: row.GoalsConceded,
		Saves:         row.Saves,
	}
}

func stringSliceToAny(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}

package postgres

import "database/sql"

type playerGameweekStatsModel struct {
	PlayerID      sql.NullInt64 `db:"player_id"`
	PlayerName    string        `db:"player_name"`
	Gameweek      int           `db:"gw"`
	GoalsScored   int           `db:"goals_scored"`
	Assists       int           `db:"assists"`
	TotalPoints   int           `db:"total_points"`
	NowCost       int           `db:"now_cost"`
	CleanSheets   int           `db:"clean_sheets"`
	GoalsConceded int           `db:"goals_conceded"`
	Saves         int           `db:"saves"`
}

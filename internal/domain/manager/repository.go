package manager

import "context"

// Repository supplies a manager's submitted teams and season history.
type Repository interface {
	GetTeamSnapshot(ctx context.Context, managerID int64, gameweek int) (TeamSnapshot, error)
	ListHistory(ctx context.Context, managerID int64) ([]GameweekHistory, error)
}

package fpl

import (
	"context"

	"github.com/riskibarqy/fpl-insight/internal/domain/gameweek"
	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
)

// ManagerRepository exposes the client as a manager.Repository.
type ManagerRepository struct {
	client *Client
}

func NewManagerRepository(client *Client) *ManagerRepository {
	return &ManagerRepository{client: client}
}

func (r *ManagerRepository) GetTeamSnapshot(ctx context.Context, managerID int64, gw int) (manager.TeamSnapshot, error) {
	return r.client.FetchTeamSnapshot(ctx, managerID, gw)
}

func (r *ManagerRepository) ListHistory(ctx context.Context, managerID int64) ([]manager.GameweekHistory, error) {
	return r.client.FetchEntryHistory(ctx, managerID)
}

type PlayerRepository struct {
	client *Client
}

func NewPlayerRepository(client *Client) *PlayerRepository {
	return &PlayerRepository{client: client}
}

func (r *PlayerRepository) GetDirectory(ctx context.Context) (player.Directory, error) {
	return r.client.FetchDirectory(ctx)
}

type GameweekRepository struct {
	client *Client
}

func NewGameweekRepository(client *Client) *GameweekRepository {
	return &GameweekRepository{client: client}
}

func (r *GameweekRepository) ListEvents(ctx context.Context) ([]gameweek.Event, error) {
	return r.client.FetchEvents(ctx)
}

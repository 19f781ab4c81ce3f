package cache

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fpl-insight/internal/domain/gameweek"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	basecache "github.com/riskibarqy/fpl-insight/internal/platform/cache"
)

const (
	playerStatsRowsKey = "playerstats:rows"
	playerDirectoryKey = "player:directory"
	gameweekEventsKey  = "gameweek:events"
)

type playerStatsWriter interface {
	UpsertRows(ctx context.Context, rows []playerstats.Row) error
}

type PlayerStatsRepository struct {
	next  playerstats.Repository
	cache *basecache.Store
}

func NewPlayerStatsRepository(next playerstats.Repository, cache *basecache.Store) *PlayerStatsRepository {
	return &PlayerStatsRepository{next: next, cache: cache}
}

func (r *PlayerStatsRepository) ListRows(ctx context.Context) ([]playerstats.Row, error) {
	v, err := r.cache.GetOrLoad(ctx, playerStatsRowsKey, func(ctx context.Context) (any, error) {
		items, err := r.next.ListRows(ctx)
		if err != nil {
			return nil, err
		}
		return append([]playerstats.Row(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]playerstats.Row)
	return append([]playerstats.Row(nil), items...), nil
}

func (r *PlayerStatsRepository) UpsertRows(ctx context.Context, rows []playerstats.Row) error {
	writer, ok := r.next.(playerStatsWriter)
	if !ok {
		return fmt.Errorf("player stats source %T is read-only", r.next)
	}
	if err := writer.UpsertRows(ctx, rows); err != nil {
		return err
	}

	r.cache.Delete(ctx, playerStatsRowsKey)
	return nil
}

// PlayerDirectoryRepository keeps the last good directory for the store TTL.
type PlayerDirectoryRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerDirectoryRepository(next player.Repository, cache *basecache.Store) *PlayerDirectoryRepository {
	return &PlayerDirectoryRepository{next: next, cache: cache}
}

func (r *PlayerDirectoryRepository) GetDirectory(ctx context.Context) (player.Directory, error) {
	v, err := r.cache.GetOrLoad(ctx, playerDirectoryKey, func(ctx context.Context) (any, error) {
		return r.next.GetDirectory(ctx)
	})
	if err != nil {
		return player.Directory{}, err
	}

	dir, _ := v.(player.Directory)
	return dir, nil
}

// Refresh reloads the directory from the source. On failure the cached copy is kept.
func (r *PlayerDirectoryRepository) Refresh(ctx context.Context) (player.Directory, error) {
	dir, err := r.next.GetDirectory(ctx)
	if err != nil {
		return player.Directory{}, err
	}

	r.cache.Set(ctx, playerDirectoryKey, dir)
	return dir, nil
}

type GameweekRepository struct {
	next  gameweek.Repository
	cache *basecache.Store
}

func NewGameweekRepository(next gameweek.Repository, cache *basecache.Store) *GameweekRepository {
	return &GameweekRepository{next: next, cache: cache}
}

func (r *GameweekRepository) ListEvents(ctx context.Context) ([]gameweek.Event, error) {
	v, err := r.cache.GetOrLoad(ctx, gameweekEventsKey, func(ctx context.Context) (any, error) {
		items, err := r.next.ListEvents(ctx)
		if err != nil {
			return nil, err
		}
		return append([]gameweek.Event(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]gameweek.Event)
	return append([]gameweek.Event(nil), items...), nil
}

func (r *GameweekRepository) Invalidate(ctx context.Context) {
	r.cache.Delete(ctx, gameweekEventsKey)
}

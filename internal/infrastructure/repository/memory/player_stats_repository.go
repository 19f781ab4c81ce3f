package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
)

type PlayerStatsRepository struct {
	mu   sync.RWMutex
	rows []playerstats.Row
}

func NewPlayerStatsRepository(rows []playerstats.Row) *PlayerStatsRepository {
	return &PlayerStatsRepository{rows: append([]playerstats.Row(nil), rows...)}
}

func (r *PlayerStatsRepository) ListRows(_ context.Context) ([]playerstats.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]playerstats.Row, 0, len(r.rows))
	out = append(out, r.rows...)
	return out, nil
}

func (r *PlayerStatsRepository) UpsertRows(_ context.Context, rows []playerstats.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := make(map[string]map[int]int, len(r.rows))
	for i, row := range r.rows {
		if _, ok := index[row.PlayerName]; !ok {
			index[row.PlayerName] = make(map[int]int)
		}
		index[row.PlayerName][row.Gameweek] = i
	}
	for _, row := range rows {
		if i, ok := index[row.PlayerName][row.Gameweek]; ok {
			r.rows[i] = row
			continue
		}
		if _, ok := index[row.PlayerName]; !ok {
			index[row.PlayerName] = make(map[int]int)
		}
		index[row.PlayerName][row.Gameweek] = len(r.rows)
		r.rows = append(r.rows, row)
	}
	return nil
}

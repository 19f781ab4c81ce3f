package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/fpl-insight/internal/domain/gameweek"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-insight/internal/infrastructure/repository/memory"
	gameweekmock "github.com/riskibarqy/fpl-insight/internal/mocks/domain/gameweek"
	playermock "github.com/riskibarqy/fpl-insight/internal/mocks/domain/player"
	playerstatsmock "github.com/riskibarqy/fpl-insight/internal/mocks/domain/playerstats"
	basecache "github.com/riskibarqy/fpl-insight/internal/platform/cache"
)

func TestPlayerStatsRepository_CachesRows(t *testing.T) {
	t.Parallel()

	next := playerstatsmock.NewRepository(t)
	next.On("ListRows", mock.Anything).Return([]playerstats.Row{{PlayerName: "Saka", Gameweek: 1}}, nil).Once()

	repo := NewPlayerStatsRepository(next, basecache.NewStore(time.Minute))
	for i := 0; i < 3; i++ {
		rows, err := repo.ListRows(context.Background())
		if err != nil {
			t.Fatalf("list rows: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("unexpected rows: %+v", rows)
		}
		rows[0].PlayerName = "mutated"
	}
}

func TestPlayerStatsRepository_UpsertInvalidates(t *testing.T) {
	t.Parallel()

	source := memory.NewPlayerStatsRepository([]playerstats.Row{{PlayerName: "Saka", Gameweek: 1}})
	repo := NewPlayerStatsRepository(source, basecache.NewStore(time.Minute))

	if _, err := repo.ListRows(context.Background()); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := repo.UpsertRows(context.Background(), []playerstats.Row{{PlayerName: "Saka", Gameweek: 2}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rows, err := repo.ListRows(context.Background())
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected cache invalidated after upsert, got %d rows", len(rows))
	}
}

func TestPlayerStatsRepository_UpsertReadOnlySource(t *testing.T) {
	t.Parallel()

	repo := NewPlayerStatsRepository(playerstatsmock.NewRepository(t), basecache.NewStore(time.Minute))
	if err := repo.UpsertRows(context.Background(), nil); err == nil {
		t.Fatalf("expected error for read-only source")
	}
}

func TestPlayerDirectoryRepository_RefreshKeepsLastGood(t *testing.T) {
	t.Parallel()

	first := player.NewDirectory([]player.Entry{{ID: 1, WebName: "Raya"}}, nil)
	second := player.NewDirectory([]player.Entry{{ID: 1, WebName: "Raya"}, {ID: 2, WebName: "Saliba"}}, nil)

	next := playermock.NewRepository(t)
	next.On("GetDirectory", mock.Anything).Return(first, nil).Once()
	next.On("GetDirectory", mock.Anything).Return(player.Directory{}, errors.New("bootstrap down")).Once()
	next.On("GetDirectory", mock.Anything).Return(second, nil).Once()

	repo := NewPlayerDirectoryRepository(next, basecache.NewStore(24*time.Hour))

	dir, err := repo.GetDirectory(context.Background())
	if err != nil || dir.Len() != 1 {
		t.Fatalf("initial load: len=%d err=%v", dir.Len(), err)
	}

	if _, err := repo.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	dir, _ = repo.GetDirectory(context.Background())
	if dir.Len() != 1 {
		t.Fatalf("expected cached directory after failed refresh, got len=%d", dir.Len())
	}

	if _, err := repo.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	dir, _ = repo.GetDirectory(context.Background())
	if dir.Len() != 2 {
		t.Fatalf("expected refreshed directory, got len=%d", dir.Len())
	}
}

func TestGameweekRepository_Invalidate(t *testing.T) {
	t.Parallel()

	next := gameweekmock.NewRepository(t)
	next.On("ListEvents", mock.Anything).Return([]gameweek.Event{{ID: 1}}, nil).Once()
	next.On("ListEvents", mock.Anything).Return([]gameweek.Event{{ID: 1}, {ID: 2, IsCurrent: true}}, nil).Once()

	repo := NewGameweekRepository(next, basecache.NewStore(time.Hour))
	if items, _ := repo.ListEvents(context.Background()); len(items) != 1 {
		t.Fatalf("unexpected first events: %+v", items)
	}
	if items, _ := repo.ListEvents(context.Background()); len(items) != 1 {
		t.Fatalf("expected cached events: %+v", items)
	}

	repo.Invalidate(context.Background())
	if items, _ := repo.ListEvents(context.Background()); len(items) != 2 {
		t.Fatalf("expected reloaded events: %+v", items)
	}
}

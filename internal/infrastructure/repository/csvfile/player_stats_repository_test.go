package csvfile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

const validCSV = `player_name,gw,goals_scored,assists,total_points,now_cost,clean_sheets,goals_conceded,saves,player_id
Salah,1,1,0,8,130,0,1,0,328
Salah,two,1,0,8,130,0,1,0,328
Haaland,1,n/a,1.0,13,150,,0,0,
Saka, 2 ,0,1,5,101,1,0,0,7
`

func TestDecode(t *testing.T) {
	rows, dropped, err := Decode(strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dropped != 1 {
		t.Fatalf("expected one dropped row, got %d", dropped)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].PlayerID != 328 || rows[0].TotalPoints != 8 || rows[0].Cost != 130 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].GoalsScored != 0 || rows[1].Assists != 1 || rows[1].CleanSheets != 0 {
		t.Fatalf("expected non-numeric cells coerced to 0: %+v", rows[1])
	}
	if rows[2].Gameweek != 2 {
		t.Fatalf("expected trimmed gameweek, got %d", rows[2].Gameweek)
	}
}

func TestDecode_MissingColumns(t *testing.T) {
	_, _, err := Decode(strings.NewReader("player_name,gw,total_points\nSalah,1,2\n"))
	if !errors.Is(err, playerstats.ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if !strings.Contains(err.Error(), "now_cost") {
		t.Fatalf("expected missing column names in error, got %v", err)
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, _, err := Decode(strings.NewReader("")); !errors.Is(err, playerstats.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset for empty input, got %v", err)
	}
	header := strings.Join(playerstats.RequiredColumns, ",") + "\n"
	if _, _, err := Decode(strings.NewReader(header)); !errors.Is(err, playerstats.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset for header only, got %v", err)
	}
}

func TestPlayerStatsRepository_ListRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fpl_features.csv")
	if err := os.WriteFile(path, []byte(validCSV), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rows, err := NewPlayerStatsRepository(path, logging.NewNop()).ListRows(context.Background())
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	_, err = NewPlayerStatsRepository(filepath.Join(dir, "missing.csv"), logging.NewNop()).ListRows(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

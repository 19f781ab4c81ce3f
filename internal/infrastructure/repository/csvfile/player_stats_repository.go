package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

const optionalPlayerIDColumn = "player_id"

// PlayerStatsRepository reads the historical dataset from a CSV file with a header row.
type PlayerStatsRepository struct {
	path   string
	logger *logging.Logger
}

func NewPlayerStatsRepository(path string, logger *logging.Logger) *PlayerStatsRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerStatsRepository{path: path, logger: logger}
}

func (r *PlayerStatsRepository) ListRows(ctx context.Context) ([]playerstats.Row, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open historical csv %s: %w", r.path, err)
	}
	defer f.Close()

	rows, dropped, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode historical csv %s: %w", r.path, err)
	}
	if dropped > 0 {
		r.logger.WarnContext(ctx, "dropped csv rows with unparseable gameweek",
			"path", r.path,
			"dropped", dropped,
		)
	}
	return rows, nil
}

// Decode parses a header-led CSV stream. Non-numeric stat cells become 0; rows whose
// gameweek cannot be parsed are dropped and counted.
func Decode(in io.Reader) ([]playerstats.Row, int, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, playerstats.ErrEmptyDataset
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	var missing []string
	for _, name := range playerstats.RequiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: %s", playerstats.ErrMissingColumns, strings.Join(missing, ", "))
	}

	var (
		out     []playerstats.Row
		dropped int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read record: %w", err)
		}

		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		gw, ok := parseNumber(cell("gw"))
		if !ok {
			dropped++
			continue
		}
		playerID, _ := parseNumber(cell(optionalPlayerIDColumn))

		out = append(out, playerstats.Row{
			PlayerID:      int64(playerID),
			PlayerName:    cell("player_name"),
			Gameweek:      gw,
			GoalsScored:   numberOrZero(cell("goals_scored")),
			Assists:       numberOrZero(cell("assists")),
			TotalPoints:   numberOrZero(cell("total_points")),
			Cost:          numberOrZero(cell("now_cost")),
			CleanSheets:   numberOrZero(cell("clean_sheets")),
			GoalsConceded: numberOrZero(cell("goals_conceded")),
			Saves:         numberOrZero(cell("saves")),
		})
	}

	if len(out) == 0 {
		return nil, dropped, playerstats.ErrEmptyDataset
	}
	return out, dropped, nil
}

func parseNumber(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

func numberOrZero(raw string) int {
	v, _ := parseNumber(raw)
	return v
}

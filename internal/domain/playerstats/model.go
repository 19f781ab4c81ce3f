package playerstats

import (
	"errors"
	"math"
	"sort"
	"strings"
)

const FormWindow = 3

// RequiredColumns are the columns a historical dataset must provide.
var RequiredColumns = []string{
	"player_name",
	"gw",
	"goals_scored",
	"assists",
	"total_points",
	"now_cost",
	"clean_sheets",
	"goals_conceded",
	"saves",
}

var (
	ErrMissingColumns = errors.New("historical dataset is missing required columns")
	ErrEmptyDataset   = errors.New("historical dataset is empty")
)

// Row is one observed gameweek performance of a player.
// Cost is expressed in tenths of a million, as FPL reports now_cost.
type Row struct {
	PlayerID      int64
	PlayerName    string
	Gameweek      int
	GoalsScored   int
	Assists       int
	TotalPoints   int
	Cost          int
	CleanSheets   int
	GoalsConceded int
	Saves         int

	GoalContributions int
	PointsPerMillion  float64
	Form              float64
}

func (r Row) CostMillions() float64 {
	return float64(r.Cost) / 10
}

// PointsPerMillion returns points divided by cost in millions, or 0 for a zero cost.
func PointsPerMillion(points, cost int) float64 {
	if cost <= 0 {
		return 0
	}
	out := float64(points) / (float64(cost) / 10)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0
	}
	return out
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// BuildReport summarises what NewTable did with its input.
type BuildReport struct {
	Input      int
	Kept       int
	Duplicates int
	Invalid    int
}

// Table is the read-only historical store keyed by (player name, gameweek).
// It is safe for concurrent use because nothing mutates it after NewTable.
type Table struct {
	byPlayer map[string][]Row
	index    map[string]map[int]int
	players  []string
	minGW    int
	maxGW    int
	size     int
}

// NewTable deduplicates rows (first occurrence of a name/gameweek pair wins),
// orders each player's rows by gameweek and fills the derived columns.
func NewTable(rows []Row) (*Table, BuildReport) {
	report := BuildReport{Input: len(rows)}
	t := &Table{
		byPlayer: make(map[string][]Row),
		index:    make(map[string]map[int]int),
	}

	seen := make(map[string]map[int]struct{})
	for _, row := range rows {
		row.PlayerName = normalizeName(row.PlayerName)
		if row.PlayerName == "" || row.Gameweek < 1 {
			report.Invalid++
			continue
		}
		gws, ok := seen[row.PlayerName]
		if !ok {
			gws = make(map[int]struct{})
			seen[row.PlayerName] = gws
		}
		if _, dup := gws[row.Gameweek]; dup {
			report.Duplicates++
			continue
		}
		gws[row.Gameweek] = struct{}{}
		t.byPlayer[row.PlayerName] = append(t.byPlayer[row.PlayerName], row)
	}

	for name, items := range t.byPlayer {
		sort.SliceStable(items, func(i, j int) bool { return items[i].Gameweek < items[j].Gameweek })

		idx := make(map[int]int, len(items))
		for i := range items {
			items[i].GoalContributions = items[i].GoalsScored + items[i].Assists
			items[i].PointsPerMillion = PointsPerMillion(items[i].TotalPoints, items[i].Cost)
			items[i].Form = rollingMean(items, i, FormWindow)
			idx[items[i].Gameweek] = i

			if t.minGW == 0 || items[i].Gameweek < t.minGW {
				t.minGW = items[i].Gameweek
			}
			if items[i].Gameweek > t.maxGW {
				t.maxGW = items[i].Gameweek
			}
		}
		t.byPlayer[name] = items
		t.index[name] = idx
		t.players = append(t.players, name)
		t.size += len(items)
	}
	sort.Strings(t.players)
	report.Kept = t.size

	return t, report
}

func rollingMean(items []Row, at, window int) float64 {
	start := at - window + 1
	if start < 0 {
		start = 0
	}
	sum := 0
	for i := start; i <= at; i++ {
		sum += items[i].TotalPoints
	}
	return float64(sum) / float64(at-start+1)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

// Lookup returns the canonical row for an exact (name, gameweek) pair.
func (t *Table) Lookup(name string, gameweek int) (Row, bool) {
	if t == nil {
		return Row{}, false
	}
	name = normalizeName(name)
	idx, ok := t.index[name][gameweek]
	if !ok {
		return Row{}, false
	}
	return t.byPlayer[name][idx], true
}

// History returns every row of a player ordered by gameweek.
func (t *Table) History(name string) []Row {
	if t == nil {
		return nil
	}
	items := t.byPlayer[normalizeName(name)]
	return append([]Row(nil), items...)
}

// HistoryUpTo returns the rows of a player with gameweek <= gameweek, ordered by gameweek.
func (t *Table) HistoryUpTo(name string, gameweek int) []Row {
	if t == nil {
		return nil
	}
	items := t.byPlayer[normalizeName(name)]
	end := sort.Search(len(items), func(i int) bool { return items[i].Gameweek > gameweek })
	return append([]Row(nil), items[:end]...)
}

func (t *Table) HasPlayer(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byPlayer[normalizeName(name)]
	return ok
}

// Players returns the distinct player names in lexical order.
func (t *Table) Players() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.players...)
}

// GameweekRange returns the lowest and highest gameweek present, or zeros for an empty table.
func (t *Table) GameweekRange() (int, int) {
	if t == nil {
		return 0, 0
	}
	return t.minGW, t.maxGW
}

// Filter narrows a table read to a set of players and an inclusive gameweek range.
// Zero values mean "no restriction".
type Filter struct {
	Players []string
	FromGW  int
	ToGW    int
}

func (f Filter) allowsGameweek(gw int) bool {
	if f.FromGW > 0 && gw < f.FromGW {
		return false
	}
	if f.ToGW > 0 && gw > f.ToGW {
		return false
	}
	return true
}

// Rows returns the rows matching the filter ordered by player name then gameweek.
func (t *Table) Rows(f Filter) []Row {
	if t == nil {
		return nil
	}

	names := t.players
	if len(f.Players) > 0 {
		names = make([]string, 0, len(f.Players))
		seen := make(map[string]struct{}, len(f.Players))
		for _, name := range f.Players {
			name = normalizeName(name)
			if _, ok := t.byPlayer[name]; !ok {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
		sort.Strings(names)
	}

	out := make([]Row, 0, len(names)*4)
	for _, name := range names {
		for _, row := range t.byPlayer[name] {
			if f.allowsGameweek(row.Gameweek) {
				out = append(out, row)
			}
		}
	}
	return out
}

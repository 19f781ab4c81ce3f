package player

import (
	"fmt"
	"sort"
	"strings"
)

// Position represents the FPL position class of a player.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
	PositionUnknown    Position = "UNKNOWN"
)

// Positions lists the known position classes in pitch order.
var Positions = []Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionForward,
}

const (
	UnknownTeamName = "Unknown"
	photoBaseURL    = "https://resources.premierleague.com/premierleague/photos/players/110x140/p"
)

// PositionFromElementType maps the FPL element_type code to a position class.
func PositionFromElementType(elementType int) Position {
	switch elementType {
	case 1:
		return PositionGoalkeeper
	case 2:
		return PositionDefender
	case 3:
		return PositionMidfielder
	case 4:
		return PositionForward
	default:
		return PositionUnknown
	}
}

// Rank returns the pitch order of the position; unknown positions sort last.
func (p Position) Rank() int {
	for i, item := range Positions {
		if item == p {
			return i
		}
	}
	return len(Positions)
}

func (p Position) Valid() bool {
	return p.Rank() < len(Positions)
}

// Entry is the identity metadata of one player in the global catalog.
type Entry struct {
	ID        int64
	WebName   string
	TeamCode  int
	Position  Position
	PhotoCode string
}

func (e Entry) Validate() error {
	if e.ID <= 0 {
		return fmt.Errorf("player id must be greater than zero")
	}
	if strings.TrimSpace(e.WebName) == "" {
		return fmt.Errorf("player %d web name is required", e.ID)
	}
	return nil
}

// PhotoURL returns the public portrait URL, or an empty string when no photo is known.
func (e Entry) PhotoURL() string {
	code := strings.TrimSuffix(strings.TrimSpace(e.PhotoCode), ".jpg")
	code = strings.TrimSuffix(code, ".png")
	if code == "" {
		return ""
	}
	return photoBaseURL + code + ".png"
}

// PlaceholderName is the display name used for ids missing from the directory.
func PlaceholderName(id int64) string {
	return fmt.Sprintf("Player_%d", id)
}

// Directory is an immutable snapshot of the player catalog and team names.
type Directory struct {
	players map[int64]Entry
	teams   map[int]string
}

func NewDirectory(entries []Entry, teams map[int]string) Directory {
	players := make(map[int64]Entry, len(entries))
	for _, item := range entries {
		if item.ID <= 0 {
			continue
		}
		if !item.Position.Valid() {
			item.Position = PositionUnknown
		}
		players[item.ID] = item
	}

	teamNames := make(map[int]string, len(teams))
	for code, name := range teams {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		teamNames[code] = name
	}

	return Directory{players: players, teams: teamNames}
}

func (d Directory) Lookup(id int64) (Entry, bool) {
	item, ok := d.players[id]
	return item, ok
}

// TeamName resolves a team code, falling back to UnknownTeamName.
func (d Directory) TeamName(code int) string {
	if name, ok := d.teams[code]; ok {
		return name
	}
	return UnknownTeamName
}

func (d Directory) Len() int {
	return len(d.players)
}

func (d Directory) Empty() bool {
	return len(d.players) == 0
}

// Entries returns the catalog ordered by player id.
func (d Directory) Entries() []Entry {
	out := make([]Entry, 0, len(d.players))
	for _, item := range d.players {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Teams returns a copy of the team code to name mapping.
func (d Directory) Teams() map[int]string {
	out := make(map[int]string, len(d.teams))
	for code, name := range d.teams {
		out[code] = name
	}
	return out
}

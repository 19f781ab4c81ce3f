package manager

import (
	"errors"
	"fmt"
	"sort"

	"github.com/riskibarqy/fpl-insight/internal/domain/player"
)

const (
	SquadSize     = 15
	StartingSlots = 11
)

var ErrInvalidPicks = errors.New("invalid team picks")

// Pick is one squad entry of a manager for a gameweek.
// Multiplier: 0 not used, 1 normal, 2 captain, 3 triple captain.
type Pick struct {
	ElementID     int64
	Slot          int
	Position      player.Position
	IsCaptain     bool
	IsViceCaptain bool
	Multiplier    int
}

// Starter reports whether the pick sits in the starting eleven; it depends on the slot only.
func (p Pick) Starter() bool {
	return p.Slot >= 1 && p.Slot <= StartingSlots
}

// EntrySummary carries the gameweek-level numbers FPL reports for an entry.
// TeamValue and Bank are in tenths of a million.
type EntrySummary struct {
	GameweekPoints     int
	TotalPoints        int
	TeamValue          int
	Bank               int
	OverallRank        int
	PointsOnBench      int
	EventTransfers     int
	EventTransfersCost int
	ActiveChip         string
}

// TeamSnapshot is what a manager submitted for one gameweek.
type TeamSnapshot struct {
	ManagerID int64
	Gameweek  int
	Entry     EntrySummary
	Picks     []Pick
}

// ValidatePicks checks the shape constraints a supplier payload must satisfy.
func ValidatePicks(picks []Pick) error {
	if len(picks) > SquadSize {
		return fmt.Errorf("%w: expected at most %d picks, got %d", ErrInvalidPicks, SquadSize, len(picks))
	}

	slots := make(map[int]struct{}, len(picks))
	elements := make(map[int64]struct{}, len(picks))
	for _, p := range picks {
		if p.ElementID <= 0 {
			return fmt.Errorf("%w: element id must be greater than zero", ErrInvalidPicks)
		}
		if p.Slot < 1 || p.Slot > SquadSize {
			return fmt.Errorf("%w: slot %d out of range 1..%d", ErrInvalidPicks, p.Slot, SquadSize)
		}
		if p.Multiplier < 0 {
			return fmt.Errorf("%w: negative multiplier for element %d", ErrInvalidPicks, p.ElementID)
		}
		if _, dup := slots[p.Slot]; dup {
			return fmt.Errorf("%w: duplicate slot %d", ErrInvalidPicks, p.Slot)
		}
		if _, dup := elements[p.ElementID]; dup {
			return fmt.Errorf("%w: duplicate element %d", ErrInvalidPicks, p.ElementID)
		}
		slots[p.Slot] = struct{}{}
		elements[p.ElementID] = struct{}{}
	}

	return nil
}

// GameweekHistory is one row of a manager's season history.
type GameweekHistory struct {
	Gameweek           int
	Points             int
	TotalPoints        int
	OverallRank        int
	Bank               int
	TeamValue          int
	EventTransfers     int
	EventTransfersCost int
	PointsOnBench      int
}

// PlayedGameweeks returns the gameweeks present in history, ascending.
func PlayedGameweeks(history []GameweekHistory) []int {
	out := make([]int, 0, len(history))
	seen := make(map[int]struct{}, len(history))
	for _, item := range history {
		if item.Gameweek < 1 {
			continue
		}
		if _, ok := seen[item.Gameweek]; ok {
			continue
		}
		seen[item.Gameweek] = struct{}{}
		out = append(out, item.Gameweek)
	}
	sort.Ints(out)
	return out
}

package fpl

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fpl-insight/internal/domain/gameweek"
	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/domain/player"
)

type bootstrapEnvelope struct {
	Elements []elementPayload `json:"elements"`
	Teams    []teamPayload    `json:"teams"`
	Events   []eventPayload   `json:"events"`
}

type elementPayload struct {
	ID          int64  `json:"id"`
	WebName     string `json:"web_name"`
	TeamCode    int    `json:"team_code"`
	ElementType int    `json:"element_type"`
	Photo       string `json:"photo"`
	NowCost     int    `json:"now_cost"`
}

type teamPayload struct {
	ID   int    `json:"id"`
	Code int    `json:"code"`
	Name string `json:"name"`
}

type eventPayload struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	DeadlineTime      string `json:"deadline_time"`
	IsCurrent         bool   `json:"is_current"`
	IsNext            bool   `json:"is_next"`
	Finished          bool   `json:"finished"`
	AverageEntryScore int    `json:"average_entry_score"`
	HighestScore      int    `json:"highest_score"`
}

type picksEnvelope struct {
	ActiveChip   *string              `json:"active_chip"`
	EntryHistory *entryHistoryPayload `json:"entry_history"`
	Picks        []pickPayload        `json:"picks"`
}

type entryHistoryPayload struct {
	Event              int `json:"event"`
	Points             int `json:"points"`
	TotalPoints        int `json:"total_points"`
	OverallRank        int `json:"overall_rank"`
	Bank               int `json:"bank"`
	Value              int `json:"value"`
	EventTransfers     int `json:"event_transfers"`
	EventTransfersCost int `json:"event_transfers_cost"`
	PointsOnBench      int `json:"points_on_bench"`
}

type pickPayload struct {
	Element       int64 `json:"element"`
	Position      int   `json:"position"`
	Multiplier    *int  `json:"multiplier"`
	IsCaptain     bool  `json:"is_captain"`
	IsViceCaptain bool  `json:"is_vice_captain"`
	ElementType   int   `json:"element_type"`
}

type historyEnvelope struct {
	Current []entryHistoryPayload `json:"current"`
}

func mapDirectory(payload bootstrapEnvelope) (player.Directory, int) {
	entries := make([]player.Entry, 0, len(payload.Elements))
	skipped := 0
	for _, item := range payload.Elements {
		entry := player.Entry{
			ID:        item.ID,
			WebName:   strings.TrimSpace(item.WebName),
			TeamCode:  item.TeamCode,
			Position:  player.PositionFromElementType(item.ElementType),
			PhotoCode: item.Photo,
		}
		if err := entry.Validate(); err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	teams := make(map[int]string, len(payload.Teams))
	for _, item := range payload.Teams {
		teams[item.Code] = item.Name
	}
	return player.NewDirectory(entries, teams), skipped
}

func mapEvents(payload bootstrapEnvelope) []gameweek.Event {
	out := make([]gameweek.Event, 0, len(payload.Events))
	for _, item := range payload.Events {
		if item.ID <= 0 {
			continue
		}
		out = append(out, gameweek.Event{
			ID:           item.ID,
			Name:         item.Name,
			Deadline:     parseDeadline(item.DeadlineTime),
			IsCurrent:    item.IsCurrent,
			IsNext:       item.IsNext,
			Finished:     item.Finished,
			AverageScore: item.AverageEntryScore,
			HighestScore: item.HighestScore,
		})
	}
	return out
}

func parseDeadline(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

// mapSnapshot validates a picks payload. An absent multiplier defaults to 2 for
// the captain, 1 for other starters and 0 on the bench; an absent entry history
// leaves the summary zeroed.
func mapSnapshot(managerID int64, gw int, payload picksEnvelope) (manager.TeamSnapshot, error) {
	out := manager.TeamSnapshot{
		ManagerID: managerID,
		Gameweek:  gw,
		Picks:     make([]manager.Pick, 0, len(payload.Picks)),
	}

	for _, item := range payload.Picks {
		pick := manager.Pick{
			ElementID:     item.Element,
			Slot:          item.Position,
			Position:      player.PositionFromElementType(item.ElementType),
			IsCaptain:     item.IsCaptain,
			IsViceCaptain: item.IsViceCaptain,
		}
		if !pick.Position.Valid() {
			pick.Position = ""
		}
		switch {
		case item.Multiplier != nil:
			pick.Multiplier = *item.Multiplier
		case !pick.Starter():
			pick.Multiplier = 0
		case pick.IsCaptain:
			pick.Multiplier = 2
		default:
			pick.Multiplier = 1
		}
		out.Picks = append(out.Picks, pick)
	}
	if err := manager.ValidatePicks(out.Picks); err != nil {
		return manager.TeamSnapshot{}, fmt.Errorf("%w: manager_id=%d gw=%d: %w", ErrMalformedPayload, managerID, gw, err)
	}

	if payload.EntryHistory != nil {
		out.Entry = mapEntrySummary(*payload.EntryHistory)
	}
	if payload.ActiveChip != nil {
		out.Entry.ActiveChip = strings.TrimSpace(*payload.ActiveChip)
	}
	return out, nil
}

func mapEntrySummary(item entryHistoryPayload) manager.EntrySummary {
	return manager.EntrySummary{
		GameweekPoints:     item.Points,
		TotalPoints:        item.TotalPoints,
		TeamValue:          item.Value,
		Bank:               item.Bank,
		OverallRank:        item.OverallRank,
		PointsOnBench:      item.PointsOnBench,
		EventTransfers:     item.EventTransfers,
		EventTransfersCost: item.EventTransfersCost,
	}
}

func mapHistory(payload historyEnvelope) []manager.GameweekHistory {
	out := make([]manager.GameweekHistory, 0, len(payload.Current))
	for _, item := range payload.Current {
		if item.Event < 1 {
			continue
		}
		out = append(out, manager.GameweekHistory{
			Gameweek:           item.Event,
			Points:             item.Points,
			TotalPoints:        item.TotalPoints,
			OverallRank:        item.OverallRank,
			Bank:               item.Bank,
			TeamValue:          item.Value,
			EventTransfers:     item.EventTransfers,
			EventTransfersCost: item.EventTransfersCost,
			PointsOnBench:      item.PointsOnBench,
		})
	}
	return out
}

package httpapi

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/fpl-insight/internal/domain/analysis"
	"github.com/riskibarqy/fpl-insight/internal/domain/manager"
	"github.com/riskibarqy/fpl-insight/internal/usecase"
)

type currentGameweekDTO struct {
	Gameweek int    `json:"gameweek"`
	Name     string `json:"name"`
	Deadline string `json:"deadline,omitempty"`
	Status   string `json:"status"`
	Source   string `json:"source"`
	Detected bool   `json:"detected"`
}

type entrySummaryDTO struct {
	GameweekPoints int    `json:"gameweek_points"`
	TotalPoints    int    `json:"total_points"`
	TeamValue      string `json:"team_value"`
	Bank           string `json:"bank"`
	OverallRank    int    `json:"overall_rank"`
	PointsOnBench  int    `json:"points_on_bench"`
	TransfersCost  int    `json:"transfers_cost"`
	ActiveChip     string `json:"active_chip,omitempty"`
}

type reconciledPlayerDTO struct {
	ElementID         int64   `json:"element_id"`
	Slot              int     `json:"slot"`
	Name              string  `json:"name"`
	Team              string  `json:"team"`
	Position          string  `json:"position"`
	PhotoURL          string  `json:"photo_url,omitempty"`
	IsCaptain         bool    `json:"is_captain"`
	IsViceCaptain     bool    `json:"is_vice_captain"`
	Multiplier        int     `json:"multiplier"`
	InStartingXI      bool    `json:"in_starting_xi"`
	Points            float64 `json:"points"`
	EffectivePoints   float64 `json:"effective_points"`
	Goals             float64 `json:"goals"`
	Assists           float64 `json:"assists"`
	GoalContributions float64 `json:"goal_contributions"`
	Form              float64 `json:"form"`
	Cost              string  `json:"cost"`
	StatSource        string  `json:"stat_source"`
}

type captainCheckDTO struct {
	Verdict            string  `json:"verdict"`
	Captain            string  `json:"captain,omitempty"`
	ViceCaptain        string  `json:"vice_captain,omitempty"`
	CaptainPoints      float64 `json:"captain_points"`
	Multiplier         int     `json:"multiplier"`
	CaptainBonus       float64 `json:"captain_bonus"`
	BestCandidate      string  `json:"best_candidate,omitempty"`
	BestAsCaptain      float64 `json:"best_as_captain"`
	PointsDifferential float64 `json:"points_differential"`
}

type underperformersDTO struct {
	Verdict    string   `json:"verdict"`
	Fraction   float64  `json:"fraction"`
	MeanPoints float64  `json:"mean_points"`
	Threshold  float64  `json:"threshold"`
	Players    []string `json:"players"`
}

type valueEntryDTO struct {
	Slot       int     `json:"slot"`
	Name       string  `json:"name"`
	Position   string  `json:"position"`
	Points     float64 `json:"points"`
	Cost       string  `json:"cost"`
	Efficiency float64 `json:"efficiency"`
}

type positionTotalDTO struct {
	Position string  `json:"position"`
	Points   float64 `json:"points"`
	Players  int     `json:"players"`
}

type positionBreakdownDTO struct {
	Verdict string             `json:"verdict"`
	Best    string             `json:"best,omitempty"`
	Totals  []positionTotalDTO `json:"totals"`
}

type lineupCheckDTO struct {
	Verdict            string  `json:"verdict"`
	BestBench          string  `json:"best_bench,omitempty"`
	BestBenchPoints    float64 `json:"best_bench_points"`
	WorstStarter       string  `json:"worst_starter,omitempty"`
	WorstStarterPoints float64 `json:"worst_starter_points"`
	PointsDifferential float64 `json:"points_differential"`
}

type pitchRowDTO struct {
	Position string   `json:"position"`
	Slots    []int    `json:"slots"`
	Players  []string `json:"players"`
}

type formationDTO struct {
	Label string        `json:"label"`
	Rows  []pitchRowDTO `json:"rows"`
	Bench []string      `json:"bench"`
}

type warningDTO struct {
	Code      string `json:"code"`
	Slot      int    `json:"slot,omitempty"`
	ElementID int64  `json:"element_id,omitempty"`
	Message   string `json:"message"`
}

type teamAnalysisDTO struct {
	ID              string                `json:"id"`
	ManagerID       int64                 `json:"manager_id"`
	Gameweek        int                   `json:"gameweek"`
	GameweekSource  string                `json:"gameweek_source"`
	GeneratedAt     string                `json:"generated_at"`
	Entry           entrySummaryDTO       `json:"entry"`
	Players         []reconciledPlayerDTO `json:"players"`
	StartingPoints  float64               `json:"starting_points"`
	BenchPoints     float64               `json:"bench_points"`
	Captain         captainCheckDTO       `json:"captain"`
	Underperformers underperformersDTO    `json:"underperformers"`
	Value           []valueEntryDTO       `json:"value"`
	ValueVerdict    string                `json:"value_verdict"`
	Positions       positionBreakdownDTO  `json:"positions"`
	Lineup          lineupCheckDTO        `json:"lineup"`
	Formation       formationDTO          `json:"formation"`
	Warnings        []warningDTO          `json:"warnings"`
}

type gameweekSummaryDTO struct {
	Gameweek          int     `json:"gameweek"`
	Points            int     `json:"points"`
	StartingPoints    float64 `json:"starting_points"`
	BenchPoints       float64 `json:"bench_points"`
	CaptainVerdict    string  `json:"captain_verdict"`
	Captain           string  `json:"captain,omitempty"`
	CaptainPointsLost float64 `json:"captain_points_lost"`
	LineupPointsLost  float64 `json:"lineup_points_lost"`
	Warnings          int     `json:"warnings"`
}

type skippedGameweekDTO struct {
	Gameweek int    `json:"gameweek"`
	Reason   string `json:"reason"`
}

type seasonDTO struct {
	ManagerID             int64                `json:"manager_id"`
	FromGW                int                  `json:"from_gw"`
	ToGW                  int                  `json:"to_gw"`
	TotalPoints           int                  `json:"total_points"`
	BenchPoints           float64              `json:"bench_points"`
	CaptainPointsLost     float64              `json:"captain_points_lost"`
	LineupPointsLost      float64              `json:"lineup_points_lost"`
	OptimalCaptaincies    int                  `json:"optimal_captaincies"`
	SuboptimalCaptaincies int                  `json:"suboptimal_captaincies"`
	BestGameweek          int                  `json:"best_gameweek,omitempty"`
	WorstGameweek         int                  `json:"worst_gameweek,omitempty"`
	Gameweeks             []gameweekSummaryDTO `json:"gameweeks"`
	Skipped               []skippedGameweekDTO `json:"skipped"`
	WorkerCount           int                  `json:"worker_count"`
	DurationMs            int64                `json:"duration_ms"`
}

type playerSummaryDTO struct {
	Name        string  `json:"name"`
	TotalPoints int     `json:"total_points"`
	AvgPoints   float64 `json:"avg_points"`
	BestPoints  int     `json:"best_points"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	AvgCost     string  `json:"avg_cost"`
	Gameweeks   int     `json:"gameweeks"`
}

type overviewDTO struct {
	Rows         int                `json:"rows"`
	TotalPoints  int                `json:"total_points"`
	TotalGoals   int                `json:"total_goals"`
	TotalAssists int                `json:"total_assists"`
	AvgPoints    float64            `json:"avg_points"`
	Top          []playerSummaryDTO `json:"top"`
	Players      []playerSummaryDTO `json:"players"`
}

type valueMetricDTO struct {
	Name                string  `json:"name"`
	TotalPoints         int     `json:"total_points"`
	AvgCost             string  `json:"avg_cost"`
	PointsPerMillion    float64 `json:"points_per_million"`
	Gameweeks           int     `json:"gameweeks"`
	RecommendationScore float64 `json:"recommendation_score"`
}

type valueAnalysisDTO struct {
	Efficient       []valueMetricDTO `json:"efficient"`
	Recommendations []valueMetricDTO `json:"recommendations"`
	Players         []valueMetricDTO `json:"players"`
}

type trendPointDTO struct {
	Gameweek          int     `json:"gameweek"`
	Points            int     `json:"points"`
	Goals             int     `json:"goals"`
	Assists           int     `json:"assists"`
	GoalContributions int     `json:"goal_contributions"`
	Cost              string  `json:"cost"`
	Form              float64 `json:"form"`
}

type playerTrendDTO struct {
	Name   string          `json:"name"`
	Points []trendPointDTO `json:"points"`
}

type playerMatchDTO struct {
	Name     string `json:"name"`
	Distance int    `json:"distance"`
}

type captainHistoryDTO struct {
	Name             string          `json:"name"`
	Gameweek         int             `json:"gameweek"`
	SeasonAverage    float64         `json:"season_average"`
	HasGameweek      bool            `json:"has_gameweek"`
	GameweekPoints   int             `json:"gameweek_points"`
	DeltaFromAverage float64         `json:"delta_from_average"`
	Rows             []trendPointDTO `json:"rows"`
}

type historyInfoDTO struct {
	Source     string `json:"source"`
	Rows       int    `json:"rows"`
	Players    int    `json:"players"`
	MinGW      int    `json:"min_gw"`
	MaxGW      int    `json:"max_gw"`
	Duplicates int    `json:"duplicates"`
	Invalid    int    `json:"invalid"`
	Fallback   bool   `json:"fallback"`
	LoadedAt   string `json:"loaded_at,omitempty"`
}

// formatMillions renders a cost in tenths of a million as e.g. "13.5".
func formatMillions(tenths float64) string {
	if math.IsNaN(tenths) || math.IsInf(tenths, 0) {
		return "0.0"
	}
	return decimal.NewFromFloat(tenths).Shift(-1).StringFixed(1)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func currentGameweekToDTO(v usecase.CurrentGameweek) currentGameweekDTO {
	return currentGameweekDTO{
		Gameweek: v.Gameweek,
		Name:     v.Name,
		Deadline: formatTime(v.Deadline),
		Status:   string(v.Status),
		Source:   string(v.Source),
		Detected: v.Detected,
	}
}

func entrySummaryToDTO(v manager.EntrySummary) entrySummaryDTO {
	return entrySummaryDTO{
		GameweekPoints: v.GameweekPoints,
		TotalPoints:    v.TotalPoints,
		TeamValue:      formatMillions(float64(v.TeamValue)),
		Bank:           formatMillions(float64(v.Bank)),
		OverallRank:    v.OverallRank,
		PointsOnBench:  v.PointsOnBench,
		TransfersCost:  v.EventTransfersCost,
		ActiveChip:     v.ActiveChip,
	}
}

func reconciledPlayerToDTO(v analysis.ReconciledPlayer) reconciledPlayerDTO {
	return reconciledPlayerDTO{
		ElementID:         v.ElementID,
		Slot:              v.Slot,
		Name:              v.Name,
		Team:              v.TeamName,
		Position:          string(v.Position),
		PhotoURL:          v.PhotoURL,
		IsCaptain:         v.IsCaptain,
		IsViceCaptain:     v.IsViceCaptain,
		Multiplier:        v.Multiplier,
		InStartingXI:      v.InStartingXI,
		Points:            round2(v.Points),
		EffectivePoints:   round2(v.EffectivePoints),
		Goals:             round2(v.Goals),
		Assists:           round2(v.Assists),
		GoalContributions: round2(v.GoalContributions),
		Form:              round2(v.Form),
		Cost:              formatMillions(v.Cost),
		StatSource:        string(v.Source),
	}
}

func playerNames(items []analysis.ReconciledPlayer) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func teamAnalysisToDTO(v usecase.AnalysisResult) teamAnalysisDTO {
	a := v.Analysis

	players := make([]reconciledPlayerDTO, 0, len(a.Players))
	for _, item := range a.Players {
		players = append(players, reconciledPlayerToDTO(item))
	}

	value := make([]valueEntryDTO, 0, len(a.Value.Top))
	for _, item := range a.Value.Top {
		value = append(value, valueEntryDTO{
			Slot:       item.Slot,
			Name:       item.Name,
			Position:   string(item.Position),
			Points:     round2(item.Points),
			Cost:       decimal.NewFromFloat(item.CostMillions).StringFixed(1),
			Efficiency: round2(item.Efficiency),
		})
	}

	totals := make([]positionTotalDTO, 0, len(a.Positions.Totals))
	for _, item := range a.Positions.Totals {
		totals = append(totals, positionTotalDTO{
			Position: string(item.Position),
			Points:   round2(item.Points),
			Players:  item.Players,
		})
	}

	rows := make([]pitchRowDTO, 0, len(a.Formation.Rows))
	for _, row := range a.Formation.Rows {
		slots := make([]int, 0, len(row.Players))
		for _, item := range row.Players {
			slots = append(slots, item.Slot)
		}
		rows = append(rows, pitchRowDTO{
			Position: string(row.Position),
			Slots:    slots,
			Players:  playerNames(row.Players),
		})
	}

	warnings := make([]warningDTO, 0, len(a.Warnings))
	for _, item := range a.Warnings {
		warnings = append(warnings, warningDTO{
			Code:      string(item.Code),
			Slot:      item.Slot,
			ElementID: item.ElementID,
			Message:   item.Message,
		})
	}

	return teamAnalysisDTO{
		ID:             v.ID,
		ManagerID:      v.ManagerID,
		Gameweek:       v.Gameweek,
		GameweekSource: string(v.GameweekSource),
		GeneratedAt:    formatTime(v.GeneratedAt),
		Entry:          entrySummaryToDTO(a.Entry),
		Players:        players,
		StartingPoints: round2(a.StartingPoints),
		BenchPoints:    round2(a.BenchPoints),
		Captain: captainCheckDTO{
			Verdict:            string(a.Captain.Verdict),
			Captain:            a.Captain.CaptainName,
			ViceCaptain:        a.Captain.ViceCaptainName,
			CaptainPoints:      round2(a.Captain.CaptainPoints),
			Multiplier:         a.Captain.Multiplier,
			CaptainBonus:       round2(a.Captain.CaptainBonus),
			BestCandidate:      a.Captain.BestName,
			BestAsCaptain:      round2(a.Captain.BestAsCaptain),
			PointsDifferential: round2(a.Captain.PointsDifferential),
		},
		Underperformers: underperformersDTO{
			Verdict:    string(a.Underperformers.Verdict),
			Fraction:   a.Underperformers.Fraction,
			MeanPoints: round2(a.Underperformers.MeanPoints),
			Threshold:  round2(a.Underperformers.Threshold),
			Players:    playerNames(a.Underperformers.Players),
		},
		Value:        value,
		ValueVerdict: string(a.Value.Verdict),
		Positions: positionBreakdownDTO{
			Verdict: string(a.Positions.Verdict),
			Best:    string(a.Positions.Best),
			Totals:  totals,
		},
		Lineup: lineupCheckDTO{
			Verdict:            string(a.Lineup.Verdict),
			BestBench:          a.Lineup.BestBenchName,
			BestBenchPoints:    round2(a.Lineup.BestBenchPoints),
			WorstStarter:       a.Lineup.WorstStarterName,
			WorstStarterPoints: round2(a.Lineup.WorstStarterPoints),
			PointsDifferential: round2(a.Lineup.PointsDifferential),
		},
		Formation: formationDTO{
			Label: a.Formation.Label,
			Rows:  rows,
			Bench: playerNames(a.Formation.Bench),
		},
		Warnings: warnings,
	}
}

func seasonToDTO(v usecase.SeasonResult) seasonDTO {
	s := v.Summary
	gameweeks := make([]gameweekSummaryDTO, 0, len(s.Gameweeks))
	for _, item := range s.Gameweeks {
		gameweeks = append(gameweeks, gameweekSummaryDTO{
			Gameweek:          item.Gameweek,
			Points:            item.Points,
			StartingPoints:    round2(item.StartingPoints),
			BenchPoints:       round2(item.BenchPoints),
			CaptainVerdict:    string(item.CaptainVerdict),
			Captain:           item.CaptainName,
			CaptainPointsLost: round2(item.CaptainPointsLost),
			LineupPointsLost:  round2(item.LineupPointsLost),
			Warnings:          item.Warnings,
		})
	}

	skipped := make([]skippedGameweekDTO, 0, len(v.Skipped))
	for _, item := range v.Skipped {
		skipped = append(skipped, skippedGameweekDTO{Gameweek: item.Gameweek, Reason: item.Reason})
	}

	return seasonDTO{
		ManagerID:             s.ManagerID,
		FromGW:                v.FromGW,
		ToGW:                  v.ToGW,
		TotalPoints:           s.TotalPoints,
		BenchPoints:           round2(s.BenchPoints),
		CaptainPointsLost:     round2(s.CaptainPointsLost),
		LineupPointsLost:      round2(s.LineupPointsLost),
		OptimalCaptaincies:    s.OptimalCaptaincies,
		SuboptimalCaptaincies: s.SuboptimalCaptaincies,
		BestGameweek:          s.BestGameweek,
		WorstGameweek:         s.WorstGameweek,
		Gameweeks:             gameweeks,
		Skipped:               skipped,
		WorkerCount:           v.WorkerCount,
		DurationMs:            v.DurationMs,
	}
}

func playerSummariesToDTO(items []usecase.PlayerSummary) []playerSummaryDTO {
	out := make([]playerSummaryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, playerSummaryDTO{
			Name:        item.Name,
			TotalPoints: item.TotalPoints,
			AvgPoints:   round2(item.AvgPoints),
			BestPoints:  item.BestPoints,
			Goals:       item.Goals,
			Assists:     item.Assists,
			AvgCost:     formatMillions(item.AvgCost),
			Gameweeks:   item.Gameweeks,
		})
	}
	return out
}

func overviewToDTO(v usecase.Overview) overviewDTO {
	return overviewDTO{
		Rows:         v.Rows,
		TotalPoints:  v.TotalPoints,
		TotalGoals:   v.TotalGoals,
		TotalAssists: v.TotalAssists,
		AvgPoints:    round2(v.AvgPoints),
		Top:          playerSummariesToDTO(v.Top),
		Players:      playerSummariesToDTO(v.Players),
	}
}

func valueMetricsToDTO(items []usecase.ValueMetric) []valueMetricDTO {
	out := make([]valueMetricDTO, 0, len(items))
	for _, item := range items {
		out = append(out, valueMetricDTO{
			Name:                item.Name,
			TotalPoints:         item.TotalPoints,
			AvgCost:             formatMillions(item.AvgCost),
			PointsPerMillion:    round2(item.PointsPerMillion),
			Gameweeks:           item.Gameweeks,
			RecommendationScore: round2(item.RecommendationScore),
		})
	}
	return out
}

func valueAnalysisToDTO(v usecase.ValueAnalysis) valueAnalysisDTO {
	return valueAnalysisDTO{
		Efficient:       valueMetricsToDTO(v.Efficient),
		Recommendations: valueMetricsToDTO(v.Recommendations),
		Players:         valueMetricsToDTO(v.Players),
	}
}

func trendPointsToDTO(items []usecase.TrendPoint) []trendPointDTO {
	out := make([]trendPointDTO, 0, len(items))
	for _, item := range items {
		out = append(out, trendPointDTO{
			Gameweek:          item.Gameweek,
			Points:            item.Points,
			Goals:             item.Goals,
			Assists:           item.Assists,
			GoalContributions: item.GoalContributions,
			Cost:              formatMillions(float64(item.Cost)),
			Form:              round2(item.Form),
		})
	}
	return out
}

func trendsToDTO(items []usecase.PlayerTrend) []playerTrendDTO {
	out := make([]playerTrendDTO, 0, len(items))
	for _, item := range items {
		out = append(out, playerTrendDTO{Name: item.Name, Points: trendPointsToDTO(item.Points)})
	}
	return out
}

func matchesToDTO(items []usecase.PlayerMatch) []playerMatchDTO {
	out := make([]playerMatchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, playerMatchDTO{Name: item.Name, Distance: item.Distance})
	}
	return out
}

func captainHistoryToDTO(v usecase.CaptainHistory) captainHistoryDTO {
	return captainHistoryDTO{
		Name:             v.Name,
		Gameweek:         v.Gameweek,
		SeasonAverage:    round2(v.SeasonAverage),
		HasGameweek:      v.HasGameweek,
		GameweekPoints:   v.GameweekPoints,
		DeltaFromAverage: round2(v.DeltaFromAverage),
		Rows:             trendPointsToDTO(v.Rows),
	}
}

func historyInfoToDTO(v usecase.HistoryInfo) historyInfoDTO {
	return historyInfoDTO{
		Source:     v.Source,
		Rows:       v.Rows,
		Players:    v.Players,
		MinGW:      v.MinGW,
		MaxGW:      v.MaxGW,
		Duplicates: v.Duplicates,
		Invalid:    v.Invalid,
		Fallback:   v.Fallback,
		LoadedAt:   formatTime(v.LoadedAt),
	}
}

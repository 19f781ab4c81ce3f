package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
)

const (
	overviewTopCount    = 10
	valueEfficientCount = 15
	valueRecommendCount = 5
	defaultTrendPlayers = 3
	defaultSearchLimit  = 10
	maxSearchLimit      = 50
)

// PlayerSummary aggregates one player's rows within a filter.
// AvgCost is in tenths of a million.
type PlayerSummary struct {
	Name        string
	TotalPoints int
	AvgPoints   float64
	BestPoints  int
	Goals       int
	Assists     int
	AvgCost     float64
	Gameweeks   int
}

type Overview struct {
	Rows         int
	TotalPoints  int
	TotalGoals   int
	TotalAssists int
	AvgPoints    float64
	Top          []PlayerSummary
	Players      []PlayerSummary
}

type ValueMetric struct {
	Name                string
	TotalPoints         int
	AvgCost             float64
	ValueMillions       float64
	PointsPerMillion    float64
	Gameweeks           int
	RecommendationScore float64
}

type ValueAnalysis struct {
	Efficient       []ValueMetric
	Recommendations []ValueMetric
	Players         []ValueMetric
}

type TrendPoint struct {
	Gameweek          int
	Points            int
	Goals             int
	Assists           int
	GoalContributions int
	Cost              int
	Form              float64
}

type PlayerTrend struct {
	Name   string
	Points []TrendPoint
}

type PlayerMatch struct {
	Name     string
	Distance int
}

type CaptainHistory struct {
	Name             string
	Gameweek         int
	Rows             []TrendPoint
	SeasonAverage    float64
	HasGameweek      bool
	GameweekPoints   int
	DeltaFromAverage float64
}

// StatsService answers aggregate questions over the historical store.
type StatsService struct {
	history historyProvider
}

func NewStatsService(history historyProvider) *StatsService {
	return &StatsService{history: history}
}

func (s *StatsService) Overview(ctx context.Context, filter playerstats.Filter) (Overview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Overview")
	defer span.End()

	rows, err := s.rows(ctx, filter)
	if err != nil {
		recordSpanError(span, err)
		return Overview{}, err
	}

	out := Overview{Rows: len(rows)}
	for _, row := range rows {
		out.TotalPoints += row.TotalPoints
		out.TotalGoals += row.GoalsScored
		out.TotalAssists += row.Assists
	}
	if len(rows) > 0 {
		out.AvgPoints = float64(out.TotalPoints) / float64(len(rows))
	}

	out.Players = summarizePlayers(rows)
	sort.SliceStable(out.Players, func(i, j int) bool {
		return out.Players[i].TotalPoints > out.Players[j].TotalPoints
	})
	out.Top = head(out.Players, overviewTopCount)
	return out, nil
}

func (s *StatsService) ValueAnalysis(ctx context.Context, filter playerstats.Filter) (ValueAnalysis, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ValueAnalysis")
	defer span.End()

	rows, err := s.rows(ctx, filter)
	if err != nil {
		recordSpanError(span, err)
		return ValueAnalysis{}, err
	}

	metrics := make([]ValueMetric, 0)
	for _, group := range groupByPlayer(rows) {
		m := ValueMetric{Name: group[0].PlayerName, Gameweeks: len(group)}
		costSum, ppmSum := 0, 0.0
		for _, row := range group {
			m.TotalPoints += row.TotalPoints
			costSum += row.Cost
			ppmSum += row.PointsPerMillion
		}
		m.AvgCost = float64(costSum) / float64(len(group))
		m.ValueMillions = m.AvgCost / 10
		m.PointsPerMillion = ppmSum / float64(len(group))
		if m.ValueMillions > 0 {
			m.RecommendationScore = finiteOrZero(m.PointsPerMillion / m.ValueMillions)
		}
		metrics = append(metrics, m)
	}

	out := ValueAnalysis{Players: metrics}

	efficient := append([]ValueMetric(nil), metrics...)
	sort.SliceStable(efficient, func(i, j int) bool {
		return efficient[i].PointsPerMillion > efficient[j].PointsPerMillion
	})
	out.Efficient = head(efficient, valueEfficientCount)

	recommended := append([]ValueMetric(nil), metrics...)
	sort.SliceStable(recommended, func(i, j int) bool {
		return recommended[i].RecommendationScore > recommended[j].RecommendationScore
	})
	out.Recommendations = head(recommended, valueRecommendCount)
	return out, nil
}

// Trends returns per-player gameweek series. Form is the rolling mean over the filtered series,
// so a narrowed gameweek range restarts the window. Without a player filter the first
// players in name order are used.
func (s *StatsService) Trends(ctx context.Context, filter playerstats.Filter) ([]PlayerTrend, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Trends")
	defer span.End()

	table, err := s.table(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if len(filter.Players) == 0 {
		filter.Players = head(table.Players(), defaultTrendPlayers)
	}

	out := make([]PlayerTrend, 0, len(filter.Players))
	for _, group := range groupByPlayer(table.Rows(filter)) {
		trend := PlayerTrend{Name: group[0].PlayerName, Points: make([]TrendPoint, 0, len(group))}
		for i, row := range group {
			point := trendPoint(row)
			point.Form = rollingPoints(group, i, playerstats.FormWindow)
			trend.Points = append(trend.Points, point)
		}
		out = append(out, trend)
	}
	return out, nil
}

// SearchPlayers ranks historical player names by fuzzy closeness to query.
func (s *StatsService) SearchPlayers(ctx context.Context, query string, limit int) ([]PlayerMatch, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.SearchPlayers")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	table, err := s.table(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	ranks := fuzzy.RankFindNormalizedFold(query, table.Players())
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})

	out := make([]PlayerMatch, 0, min(limit, len(ranks)))
	for _, rank := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, PlayerMatch{Name: rank.Target, Distance: rank.Distance})
	}
	return out, nil
}

var exportHeader = []string{
	"player_name",
	"gw",
	"goals_scored",
	"assists",
	"total_points",
	"now_cost",
	"clean_sheets",
	"goals_conceded",
	"saves",
	"goal_contributions",
	"points_per_million",
	"form",
}

// ExportCSV writes the filtered rows with their derived columns.
func (s *StatsService) ExportCSV(ctx context.Context, filter playerstats.Filter) ([]byte, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ExportCSV")
	defer span.End()

	rows, err := s.rows(ctx, filter)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	w := csv.NewWriter(buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.PlayerName,
			strconv.Itoa(row.Gameweek),
			strconv.Itoa(row.GoalsScored),
			strconv.Itoa(row.Assists),
			strconv.Itoa(row.TotalPoints),
			strconv.Itoa(row.Cost),
			strconv.Itoa(row.CleanSheets),
			strconv.Itoa(row.GoalsConceded),
			strconv.Itoa(row.Saves),
			strconv.Itoa(row.GoalContributions),
			decimal.NewFromFloat(row.PointsPerMillion).StringFixed(2),
			decimal.NewFromFloat(row.Form).StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row player=%s gw=%d: %w", row.PlayerName, row.Gameweek, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return append([]byte(nil), buf.B...), nil
}

// CaptainHistory returns a player's season series and compares one gameweek to the season average.
func (s *StatsService) CaptainHistory(ctx context.Context, name string, gw int) (CaptainHistory, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.CaptainHistory")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return CaptainHistory{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}
	if gw < 0 {
		return CaptainHistory{}, fmt.Errorf("%w: gameweek must not be negative", ErrInvalidInput)
	}

	table, err := s.table(ctx)
	if err != nil {
		recordSpanError(span, err)
		return CaptainHistory{}, err
	}
	rows := table.History(name)
	if len(rows) == 0 {
		return CaptainHistory{}, fmt.Errorf("%w: no historical data for player %q", ErrNotFound, name)
	}

	out := CaptainHistory{Name: rows[0].PlayerName, Gameweek: gw, Rows: make([]TrendPoint, 0, len(rows))}
	total := 0
	for _, row := range rows {
		out.Rows = append(out.Rows, trendPoint(row))
		total += row.TotalPoints
	}
	out.SeasonAverage = float64(total) / float64(len(rows))

	if row, ok := table.Lookup(name, gw); ok {
		out.HasGameweek = true
		out.GameweekPoints = row.TotalPoints
		out.DeltaFromAverage = float64(row.TotalPoints) - out.SeasonAverage
	}
	return out, nil
}

func (s *StatsService) table(ctx context.Context) (*playerstats.Table, error) {
	if s.history == nil {
		return nil, fmt.Errorf("%w: historical stats are not configured", ErrDependencyUnavailable)
	}
	return s.history.Table(ctx)
}

func (s *StatsService) rows(ctx context.Context, filter playerstats.Filter) ([]playerstats.Row, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return table.Rows(filter), nil
}

func validateFilter(filter playerstats.Filter) error {
	if filter.FromGW < 0 || filter.ToGW < 0 {
		return fmt.Errorf("%w: gameweek bounds must not be negative", ErrInvalidInput)
	}
	if filter.FromGW > 0 && filter.ToGW > 0 && filter.FromGW > filter.ToGW {
		return fmt.Errorf("%w: from gameweek %d is after to gameweek %d", ErrInvalidInput, filter.FromGW, filter.ToGW)
	}
	return nil
}

// groupByPlayer splits rows already ordered by player then gameweek.
func groupByPlayer(rows []playerstats.Row) [][]playerstats.Row {
	var out [][]playerstats.Row
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i == len(rows) || rows[i].PlayerName != rows[start].PlayerName {
			out = append(out, rows[start:i])
			start = i
		}
	}
	return out
}

func summarizePlayers(rows []playerstats.Row) []PlayerSummary {
	groups := groupByPlayer(rows)
	out := make([]PlayerSummary, 0, len(groups))
	for _, group := range groups {
		item := PlayerSummary{Name: group[0].PlayerName, Gameweeks: len(group), BestPoints: group[0].TotalPoints}
		costSum := 0
		for _, row := range group {
			item.TotalPoints += row.TotalPoints
			item.Goals += row.GoalsScored
			item.Assists += row.Assists
			costSum += row.Cost
			if row.TotalPoints > item.BestPoints {
				item.BestPoints = row.TotalPoints
			}
		}
		item.AvgPoints = float64(item.TotalPoints) / float64(len(group))
		item.AvgCost = float64(costSum) / float64(len(group))
		out = append(out, item)
	}
	return out
}

func trendPoint(row playerstats.Row) TrendPoint {
	return TrendPoint{
		Gameweek:          row.Gameweek,
		Points:            row.TotalPoints,
		Goals:             row.GoalsScored,
		Assists:           row.Assists,
		GoalContributions: row.GoalContributions,
		Cost:              row.Cost,
		Form:              row.Form,
	}
}

func rollingPoints(rows []playerstats.Row, at, window int) float64 {
	start := max(at-window+1, 0)
	sum := 0
	for i := start; i <= at; i++ {
		sum += rows[i].TotalPoints
	}
	return float64(sum) / float64(at-start+1)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

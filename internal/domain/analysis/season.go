package analysis

// GameweekSummary is the condensed view of one analysed gameweek.
type GameweekSummary struct {
	Gameweek          int
	Points            int
	StartingPoints    float64
	BenchPoints       float64
	CaptainVerdict    Verdict
	CaptainName       string
	CaptainPointsLost float64
	LineupPointsLost  float64
	Warnings          int
}

// SeasonSummary aggregates a run of gameweek analyses for one manager.
type SeasonSummary struct {
	ManagerID             int64
	Gameweeks             []GameweekSummary
	TotalPoints           int
	BenchPoints           float64
	CaptainPointsLost     float64
	LineupPointsLost      float64
	OptimalCaptaincies    int
	SuboptimalCaptaincies int
	BestGameweek          int
	WorstGameweek         int
}

func Summarize(gw TeamAnalysis) GameweekSummary {
	out := GameweekSummary{
		Gameweek:       gw.Gameweek,
		Points:         gw.Entry.GameweekPoints,
		StartingPoints: gw.StartingPoints,
		BenchPoints:    gw.BenchPoints,
		CaptainVerdict: gw.Captain.Verdict,
		CaptainName:    gw.Captain.CaptainName,
		Warnings:       len(gw.Warnings),
	}
	if gw.Captain.Verdict == VerdictSuboptimal {
		out.CaptainPointsLost = gw.Captain.PointsDifferential
	}
	if gw.Lineup.Verdict == VerdictSuboptimal {
		out.LineupPointsLost = gw.Lineup.PointsDifferential
	}
	return out
}

// Season folds per-gameweek summaries. The input order is kept; best and worst
// gameweek ties go to the earliest entry.
func Season(managerID int64, items []GameweekSummary) SeasonSummary {
	out := SeasonSummary{
		ManagerID: managerID,
		Gameweeks: append([]GameweekSummary(nil), items...),
	}

	bestPoints, worstPoints := 0, 0
	for i, item := range items {
		out.TotalPoints += item.Points
		out.BenchPoints += item.BenchPoints
		out.CaptainPointsLost += item.CaptainPointsLost
		out.LineupPointsLost += item.LineupPointsLost

		switch item.CaptainVerdict {
		case VerdictOptimal:
			out.OptimalCaptaincies++
		case VerdictSuboptimal:
			out.SuboptimalCaptaincies++
		}

		if i == 0 || item.Points > bestPoints {
			bestPoints = item.Points
			out.BestGameweek = item.Gameweek
		}
		if i == 0 || item.Points < worstPoints {
			worstPoints = item.Points
			out.WorstGameweek = item.Gameweek
		}
	}
	return out
}

package memory

import (
	"math"
	"math/rand/v2"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
)

const (
	SampleGameweeks = 30
	sampleSeed      = 20250815
)

type samplePlayer struct {
	name       string
	goalRate   float64
	assistRate float64
	minCost    int
	maxCost    int
}

var samplePlayers = []samplePlayer{
	{name: "Haaland", goalRate: 0.7, assistRate: 0.2, minCost: 100, maxCost: 150},
	{name: "Salah", goalRate: 0.7, assistRate: 0.2, minCost: 100, maxCost: 150},
	{name: "Kane", goalRate: 0.7, assistRate: 0.2, minCost: 70, maxCost: 100},
	{name: "De Bruyne", goalRate: 0.3, assistRate: 0.4, minCost: 70, maxCost: 100},
	{name: "Son", goalRate: 0.3, assistRate: 0.2, minCost: 70, maxCost: 100},
	{name: "Rashford", goalRate: 0.3, assistRate: 0.2, minCost: 70, maxCost: 100},
	{name: "Bruno Fernandes", goalRate: 0.3, assistRate: 0.4, minCost: 70, maxCost: 100},
	{name: "Saka", goalRate: 0.3, assistRate: 0.2, minCost: 70, maxCost: 100},
	{name: "Martinez", goalRate: 0.3, assistRate: 0.2, minCost: 70, maxCost: 100},
	{name: "Foden", goalRate: 0.3, assistRate: 0.2, minCost: 70, maxCost: 100},
}

// SamplePlayerStats returns the demo dataset used when no historical source is readable.
// It is seeded, so every call yields the same rows.
func SamplePlayerStats() []playerstats.Row {
	rng := rand.New(rand.NewPCG(sampleSeed, sampleSeed))

	out := make([]playerstats.Row, 0, len(samplePlayers)*SampleGameweeks)
	for _, p := range samplePlayers {
		for gw := 1; gw <= SampleGameweeks; gw++ {
			goals := poisson(rng, p.goalRate)
			assists := poisson(rng, p.assistRate)
			out = append(out, playerstats.Row{
				PlayerName:  p.name,
				Gameweek:    gw,
				GoalsScored: goals,
				Assists:     assists,
				TotalPoints: goals*4 + assists*3 + rng.IntN(3),
				Cost:        p.minCost + rng.IntN(p.maxCost-p.minCost),
			})
		}
	}
	return out
}

func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k, product := 0, rng.Float64()
	for product > limit {
		k++
		product *= rng.Float64()
	}
	return k
}

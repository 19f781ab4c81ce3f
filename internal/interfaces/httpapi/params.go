package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/riskibarqy/fpl-insight/internal/domain/playerstats"
	"github.com/riskibarqy/fpl-insight/internal/usecase"
)

const defaultSearchLimit = 10

type managerAnalysisRequest struct {
	ManagerID int64 `validate:"required,gt=0"`
	Gameweek  int   `validate:"gte=0,lte=38"`
}

type managerSeasonRequest struct {
	ManagerID int64 `validate:"required,gt=0"`
	FromGW    int   `validate:"gte=0,lte=38"`
	ToGW      int   `validate:"gte=0,lte=38"`
}

type statsFilterRequest struct {
	Players []string `validate:"max=20,dive,required,max=100"`
	FromGW  int      `validate:"gte=0,lte=38"`
	ToGW    int      `validate:"gte=0,lte=38"`
}

type searchPlayersRequest struct {
	Query string `validate:"required,max=100"`
	Limit int    `validate:"gte=1,lte=50"`
}

type captainHistoryRequest struct {
	Name     string `validate:"required,max=100"`
	Gameweek int    `validate:"gte=0,lte=38"`
}

func (r statsFilterRequest) filter() playerstats.Filter {
	return playerstats.Filter{Players: r.Players, FromGW: r.FromGW, ToGW: r.ToGW}
}

// queryInt returns 0 for an absent parameter.
func queryInt(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return v, nil
}

func parseManagerID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: manager id must be numeric, got %q", usecase.ErrInvalidInput, raw)
	}
	return v, nil
}

// queryPlayers accepts both ?players=a,b and repeated ?player=a&player=b.
func queryPlayers(values url.Values) []string {
	var out []string
	for _, raw := range values["players"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	for _, raw := range values["player"] {
		if raw = strings.TrimSpace(raw); raw != "" {
			out = append(out, raw)
		}
	}
	return out
}

func parseStatsFilter(values url.Values) (statsFilterRequest, error) {
	from, err := queryInt(values, "from")
	if err != nil {
		return statsFilterRequest{}, err
	}
	to, err := queryInt(values, "to")
	if err != nil {
		return statsFilterRequest{}, err
	}
	return statsFilterRequest{Players: queryPlayers(values), FromGW: from, ToGW: to}, nil
}

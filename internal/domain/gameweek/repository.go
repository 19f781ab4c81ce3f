package gameweek

import "context"

type Repository interface {
	ListEvents(ctx context.Context) ([]Event, error)
}

package playerstats

import "context"

// Repository loads the raw historical rows; derived columns are filled by NewTable.
type Repository interface {
	ListRows(ctx context.Context) ([]Row, error)
}

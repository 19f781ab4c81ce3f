package player

import "context"

// Repository supplies the global player catalog.
type Repository interface {
	GetDirectory(ctx context.Context) (Directory, error)
}

package identity

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListActive(ctx context.Context, excludeID int64) ([]*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}

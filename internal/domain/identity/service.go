package identity

import (
	"context"
	"fmt"
)

type Service struct {
	users Repository
}

func NewService(users Repository) *Service {
	return &Service{users: users}
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid user id: %d", id)
	}
	return s.users.GetByID(ctx, id)
}

// ChateableUsers returns the active users the caller can start a
// conversation with. The caller is excluded from the result.
func (s *Service) ChateableUsers(ctx context.Context, callerID int64) ([]*User, error) {
	if callerID <= 0 {
		return nil, fmt.Errorf("invalid caller id: %d", callerID)
	}
	return s.users.ListActive(ctx, callerID)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

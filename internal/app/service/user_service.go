package service

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/domain/repository"
	"context"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListAdministrators returns every administrator without credentials or
// bookkeeping fields.
func (s *UserService) ListAdministrators(ctx context.Context) ([]model.UserSummary, error) {
	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list administrators: %w", err)
	}
	out := make([]model.UserSummary, 0, len(admins))
	for i := range admins {
		out = append(out, admins[i].Summary())
	}
	return out, nil
}

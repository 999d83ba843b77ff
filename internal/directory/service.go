package directory

import (
	"context"

	"harilog/internal/constants"
	"harilog/internal/logger"
	"harilog/internal/rules"
)

// Service resolves a rule audience into concrete accounts.
type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// Resolve maps the audience selector onto the directory. Unknown audience
// types deliberately collapse to the admins set: mistyped configuration
// should reach operators, not vanish.
func (s *Service) Resolve(ctx context.Context, aud rules.Audience) ([]Account, error) {
	switch aud.Type {
	case constants.AudienceUsers:
		return s.repo.GetByIDs(ctx, aud.UserIDs)

	case constants.AudienceRole:
		role := aud.Role
		if role == "" {
			role = constants.RoleAdmin
		}
		return s.repo.GetByRoles(ctx, []string{role})

	case constants.AudienceAll:
		return s.repo.GetAll(ctx)

	default:
		return s.repo.GetByRoles(ctx, []string{constants.RoleSuperAdmin, constants.RoleAdmin})
	}
}

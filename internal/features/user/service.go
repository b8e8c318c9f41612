package user

import (
	"context"
	"fmt"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	GetUser(ctx context.Context, tenantID primitive.ObjectID, id string) (*User, error)
	ListUsers(ctx context.Context, tenantID primitive.ObjectID) ([]User, error)
	UpdateUser(ctx context.Context, user *User) error
	SetStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status UserStatus) error
}

type UserServiceImpl struct {
	Repo         UserRepository
	AuditService audit.AuditService
}

func NewUserService(repo UserRepository, auditService audit.AuditService) UserService {
	return &UserServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *UserServiceImpl) GetUser(ctx context.Context, tenantID primitive.ObjectID, id string) (*User, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, tenantID primitive.ObjectID) ([]User, error) {
	return s.Repo.List(ctx, tenantID)
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, user *User) error {
	old, err := s.Repo.GetByID(ctx, user.TenantID, user.ID.Hex())
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("user not found")
	}

	// Credentials and audit fields never change through this path.
	user.PasswordHash = old.PasswordHash
	user.CreatedAt = old.CreatedAt
	if user.Email == "" {
		user.Email = old.Email
	}

	if err := s.Repo.Update(ctx, user); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, user.TenantID, common_models.AuditActionUpdate, "users", user.ID.Hex(),
		map[string]common_models.Change{"user": {Old: old.Name, New: user.Name}})
	return nil
}

func (s *UserServiceImpl) SetStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status UserStatus) error {
	if status != UserStatusActive && status != UserStatusSuspended {
		return fmt.Errorf("unknown user status: %s", status)
	}

	if err := s.Repo.SetStatus(ctx, tenantID, id, status); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionUpdate, "users", id,
		map[string]common_models.Change{"status": {New: string(status)}})
	return nil
}

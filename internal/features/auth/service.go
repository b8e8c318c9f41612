package auth

import (
	"context"
	"errors"
	"fmt"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/audit"
	"flowcrm/internal/features/user"
	"flowcrm/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService interface {
	// Register opens a new workspace and its first user, who becomes the
	// workspace admin. Returns a signed token for the new user.
	Register(ctx context.Context, name, email, password, workspace string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthServiceImpl struct {
	Users        user.UserRepository
	Tenants      user.TenantRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewAuthService(users user.UserRepository, tenants user.TenantRepository, auditService audit.AuditService, logger *zap.Logger) AuthService {
	return &AuthServiceImpl{
		Users:        users,
		Tenants:      tenants,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password, workspace string) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password are required")
	}
	if existing, err := s.Users.FindByEmail(ctx, email); err != nil {
		return "", err
	} else if existing != nil {
		return "", fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	if workspace == "" {
		workspace = fmt.Sprintf("%s's workspace", name)
	}

	newUser := &user.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{"admin"},
		Status:       user.UserStatusActive,
	}

	tenant := &user.Tenant{Name: workspace, OwnerID: newUser.ID}
	if err := s.Tenants.Create(ctx, tenant); err != nil {
		return "", err
	}

	newUser.TenantID = tenant.ID
	if err := s.Users.Create(ctx, newUser); err != nil {
		return "", err
	}

	_ = s.AuditService.LogChange(ctx, tenant.ID, common_models.AuditActionCreate, "users", newUser.ID.Hex(),
		map[string]common_models.Change{
			"email":     {New: email},
			"workspace": {New: workspace},
		})

	s.Logger.Info("workspace registered",
		zap.String("tenant_id", tenant.ID.Hex()),
		zap.String("user_id", newUser.ID.Hex()))

	return utils.GenerateToken(newUser.ID, newUser.TenantID, newUser.Roles)
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	usr, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if usr == nil {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	if usr.Status == user.UserStatusSuspended {
		return "", errors.New("account suspended")
	}

	return utils.GenerateToken(usr.ID, usr.TenantID, usr.Roles)
}

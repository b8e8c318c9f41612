package auth

import (
	"context"
	"sync"
	"testing"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/user"
	"flowcrm/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	f.users[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID.Hex() == id && u.TenantID == tenantID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) List(ctx context.Context, tenantID primitive.ObjectID) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *user.User) error { return nil }

func (f *fakeUserRepo) SetStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status user.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID.Hex() == id {
			u.Status = status
		}
	}
	return nil
}

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[primitive.ObjectID]*user.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: make(map[primitive.ObjectID]*user.Tenant)}
}

func (f *fakeTenantRepo) Create(ctx context.Context, t *user.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	cp := *t
	f.tenants[t.ID] = &cp
	return nil
}

func (f *fakeTenantRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*user.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tenants[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

type noopAudit struct{}

func (noopAudit) LogChange(ctx context.Context, tenantID primitive.ObjectID, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (noopAudit) ListLogs(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newTestAuth() (AuthService, *fakeUserRepo, *fakeTenantRepo) {
	users := newFakeUserRepo()
	tenants := newFakeTenantRepo()
	svc := NewAuthService(users, tenants, noopAudit{}, zap.NewNop())
	return svc, users, tenants
}

func TestRegisterIssuesTenantScopedToken(t *testing.T) {
	svc, users, tenants := newTestAuth()

	token, err := svc.Register(context.Background(), "Asha", "asha@example.com", "hunter22", "Acme")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}

	usr, _ := users.FindByEmail(context.Background(), "asha@example.com")
	if usr == nil {
		t.Fatal("user not stored")
	}
	if claims.UserID != usr.ID.Hex() || claims.TenantID != usr.TenantID.Hex() {
		t.Errorf("claims = %+v, user = %+v", claims, usr)
	}
	if len(claims.Roles) == 0 || claims.Roles[0] != "admin" {
		t.Errorf("first user must be admin, got %v", claims.Roles)
	}
	if usr.PasswordHash == "hunter22" {
		t.Error("password stored in the clear")
	}

	tenant, _ := tenants.GetByID(context.Background(), usr.TenantID)
	if tenant == nil || tenant.Name != "Acme" {
		t.Errorf("tenant = %+v", tenant)
	}
	if tenant.OwnerID != usr.ID {
		t.Errorf("tenant owner = %s, want %s", tenant.OwnerID.Hex(), usr.ID.Hex())
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuth()

	if _, err := svc.Register(context.Background(), "Asha", "asha@example.com", "hunter22", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "Imposter", "asha@example.com", "other", ""); err == nil {
		t.Fatal("duplicate email must be rejected")
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc, _, _ := newTestAuth()

	if _, err := svc.Register(context.Background(), "Asha", "asha@example.com", "hunter22", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "asha@example.com", "hunter22"); err != nil {
		t.Errorf("valid login failed: %v", err)
	}
	if _, err := svc.Login(context.Background(), "asha@example.com", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "hunter22"); err != ErrInvalidCredentials {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRejectsSuspendedAccount(t *testing.T) {
	svc, users, _ := newTestAuth()

	if _, err := svc.Register(context.Background(), "Asha", "asha@example.com", "hunter22", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	usr, _ := users.FindByEmail(context.Background(), "asha@example.com")
	if err := users.SetStatus(context.Background(), usr.TenantID, usr.ID.Hex(), user.UserStatusSuspended); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(context.Background(), "asha@example.com", "hunter22"); err == nil {
		t.Fatal("suspended account must not log in")
	}
}

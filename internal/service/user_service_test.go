package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jebol-id/adminduk-api/internal/models"
	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
)

type memRTStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemRTStore(users ...*models.User) *memRTStore {
	s := &memRTStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memRTStore) FindByRoleAndRef(ctx context.Context, role models.Role, ref string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Role == role && (u.ID == ref || u.UUID == ref) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memRTStore) UsernameExists(ctx context.Context, username, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memRTStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = "u-" + user.Username
	}
	if user.UUID == "" {
		user.UUID = "uuid-" + user.Username
	}
	s.users[user.ID] = user
	return nil
}

func (s *memRTStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *memRTStore) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (s *memRTStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *memRTStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

type memRevoker struct {
	revoked []string
}

func (r *memRevoker) DeleteForUser(ctx context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

func newTestUserService(t *testing.T, store *memRTStore, revoker *memRevoker) *UserService {
	t.Helper()
	v := validator.New()
	require.NoError(t, RegisterUsernameValidation(v))
	return NewUserService(store, revoker, nil, v, zap.NewNop())
}

func TestCreateRTSuccess(t *testing.T) {
	store := newMemRTStore()
	svc := newTestUserService(t, store, &memRevoker{})

	info, err := svc.CreateRT(context.Background(), models.CreateRTUserRequest{
		Username: "rt01.kelurahan",
		Password: "rahasia123",
	}, "actor-1")
	require.NoError(t, err)

	assert.Equal(t, models.RoleRT, info.Role)
	assert.True(t, info.IsActive)
	assert.Equal(t, "rt01.kelurahan", info.Username)

	stored := store.users[info.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("rahasia123")))
}

func TestCreateRTDuplicateUsername(t *testing.T) {
	store := newMemRTStore(&models.User{ID: "u1", UUID: "uuid1", Username: "rt01", Role: models.RoleRT, IsActive: true})
	svc := newTestUserService(t, store, &memRevoker{})

	_, err := svc.CreateRT(context.Background(), models.CreateRTUserRequest{Username: "rt01", Password: "rahasia123"}, "actor-1")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, 422, appErr.Status)
	assert.Equal(t, "Username sudah terdaftar", appErr.Message)
}

func TestCreateRTRejectsInvalidUsernameCharacters(t *testing.T) {
	svc := newTestUserService(t, newMemRTStore(), &memRevoker{})

	_, err := svc.CreateRT(context.Background(), models.CreateRTUserRequest{Username: "rt 01!", Password: "rahasia123"}, "actor-1")
	require.Error(t, err)
	assert.Equal(t, 422, appErrors.FromError(err).Status)
}

func TestUpdateRTDeactivationRevokesTokens(t *testing.T) {
	user := &models.User{ID: "u1", UUID: "uuid1", Username: "rt01", Role: models.RoleRT, IsActive: true}
	revoker := &memRevoker{}
	svc := newTestUserService(t, newMemRTStore(user), revoker)

	inactive := false
	info, err := svc.UpdateRT(context.Background(), "uuid1", models.UpdateRTUserRequest{IsActive: &inactive}, "actor-1")
	require.NoError(t, err)

	assert.False(t, info.IsActive)
	assert.Equal(t, []string{"u1"}, revoker.revoked)
}

func TestUpdateRTNotFound(t *testing.T) {
	svc := newTestUserService(t, newMemRTStore(), &memRevoker{})

	_, err := svc.UpdateRT(context.Background(), "missing", models.UpdateRTUserRequest{}, "actor-1")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "RT user not found", appErr.Message)
}

func TestDeleteRTRevokesTokens(t *testing.T) {
	user := &models.User{ID: "u1", UUID: "uuid1", Username: "rt01", Role: models.RoleRT, IsActive: true}
	store := newMemRTStore(user)
	revoker := &memRevoker{}
	svc := newTestUserService(t, store, revoker)

	username, err := svc.DeleteRT(context.Background(), "u1", "actor-1")
	require.NoError(t, err)
	assert.Equal(t, "rt01", username)
	assert.Empty(t, store.users)
	assert.Equal(t, []string{"u1"}, revoker.revoked)
}

func TestResetRTPasswordMismatchedConfirmation(t *testing.T) {
	user := &models.User{ID: "u1", UUID: "uuid1", Username: "rt01", Role: models.RoleRT, IsActive: true}
	svc := newTestUserService(t, newMemRTStore(user), &memRevoker{})

	_, err := svc.ResetRTPassword(context.Background(), "u1", models.ResetRTPasswordRequest{
		Password:             "barurahasia1",
		PasswordConfirmation: "berbeda",
	}, "actor-1")
	require.Error(t, err)
	assert.Equal(t, 422, appErrors.FromError(err).Status)
}

func TestResetRTPasswordRevokesTokens(t *testing.T) {
	user := &models.User{ID: "u1", UUID: "uuid1", Username: "rt01", Role: models.RoleRT, IsActive: true, PasswordHash: "old"}
	store := newMemRTStore(user)
	revoker := &memRevoker{}
	svc := newTestUserService(t, store, revoker)

	_, err := svc.ResetRTPassword(context.Background(), "u1", models.ResetRTPasswordRequest{
		Password:             "barurahasia1",
		PasswordConfirmation: "barurahasia1",
	}, "actor-1")
	require.NoError(t, err)

	assert.NotEqual(t, "old", store.users["u1"].PasswordHash)
	assert.Equal(t, []string{"u1"}, revoker.revoked)
}

func TestListRTFiltersToRTRole(t *testing.T) {
	store := newMemRTStore(
		&models.User{ID: "u1", UUID: "uuid1", Username: "rt01", Role: models.RoleRT, IsActive: true},
		&models.User{ID: "u2", UUID: "uuid2", Username: "admin", Role: models.RoleSuperAdmin, IsActive: true},
	)
	svc := newTestUserService(t, store, &memRevoker{})

	infos, total, err := svc.ListRT(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, infos, 1)
	assert.Equal(t, "rt01", infos[0].Username)
}

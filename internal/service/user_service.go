package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jebol-id/adminduk-api/internal/models"
	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
)

var usernameChars = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// RegisterUsernameValidation adds the username_chars rule used by the RT
// account payloads.
func RegisterUsernameValidation(v *validator.Validate) error {
	return v.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernameChars.MatchString(fl.Field().String())
	})
}

type rtUserStore interface {
	FindByRoleAndRef(ctx context.Context, role models.Role, ref string) (*models.User, error)
	UsernameExists(ctx context.Context, username, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type userTokenRevoker interface {
	DeleteForUser(ctx context.Context, userID string) error
}

// UserService manages RT accounts. Only SUPER_ADMIN routes reach it.
type UserService struct {
	users     rtUserStore
	tokens    userTokenRevoker
	audits    auditStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users rtUserStore, tokens userTokenRevoker, audits auditStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
		_ = RegisterUsernameValidation(validate)
	}
	return &UserService{users: users, tokens: tokens, audits: audits, validator: validate, logger: logger}
}

// CreateRT provisions a new RT account, active by default.
func (s *UserService) CreateRT(ctx context.Context, req models.CreateRTUserRequest, actorID string) (*models.RTUserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid RT user payload")
	}

	taken, err := s.users.UsernameExists(ctx, req.Username, "")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check username")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Username sudah terdaftar")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.RoleRT,
		IsActive:     true,
		Notes:        req.Notes,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create RT user")
	}

	s.audit(ctx, actorID, models.AuditActionUserCreate, user.ID)

	info := models.RTUserFromUser(user)
	return &info, nil
}

// GetRT resolves an RT account by id or uuid.
func (s *UserService) GetRT(ctx context.Context, ref string) (*models.RTUserInfo, error) {
	user, err := s.findRT(ctx, ref)
	if err != nil {
		return nil, err
	}
	info := models.RTUserFromUser(user)
	return &info, nil
}

// ListRT returns RT accounts with pagination metadata.
func (s *UserService) ListRT(ctx context.Context, filter models.UserFilter) ([]models.RTUserInfo, int, error) {
	role := models.RoleRT
	filter.Role = &role

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list RT users")
	}

	infos := make([]models.RTUserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, models.RTUserFromUser(&users[i]))
	}
	return infos, total, nil
}

// UpdateRT applies partial updates to an RT account. Deactivation revokes the
// account's tokens so open sessions die immediately.
func (s *UserService) UpdateRT(ctx context.Context, ref string, req models.UpdateRTUserRequest, actorID string) (*models.RTUserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid RT user payload")
	}

	user, err := s.findRT(ctx, ref)
	if err != nil {
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		taken, err := s.users.UsernameExists(ctx, *req.Username, user.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check username")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Username sudah terdaftar")
		}
		user.Username = *req.Username
	}
	if req.Notes != nil {
		user.Notes = req.Notes
	}

	deactivated := false
	if req.IsActive != nil {
		deactivated = user.IsActive && !*req.IsActive
		user.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to update RT user")
	}

	if deactivated && s.tokens != nil {
		if err := s.tokens.DeleteForUser(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke tokens for deactivated RT user", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionUserUpdate, user.ID)

	info := models.RTUserFromUser(user)
	return &info, nil
}

// DeleteRT removes an RT account and revokes its tokens.
func (s *UserService) DeleteRT(ctx context.Context, ref string, actorID string) (string, error) {
	user, err := s.findRT(ctx, ref)
	if err != nil {
		return "", err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return "", appErrors.Internal(err, "failed to delete RT user")
	}

	if s.tokens != nil {
		if err := s.tokens.DeleteForUser(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke tokens for deleted RT user", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionUserDelete, user.ID)
	return user.Username, nil
}

// ResetRTPassword replaces an RT account's password and revokes its tokens.
func (s *UserService) ResetRTPassword(ctx context.Context, ref string, req models.ResetRTPasswordRequest, actorID string) (*models.RTUserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Konfirmasi password tidak cocok")
	}

	user, err := s.findRT(ctx, ref)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hash), time.Now().UTC()); err != nil {
		return nil, appErrors.Internal(err, "failed to reset password")
	}

	if s.tokens != nil {
		if err := s.tokens.DeleteForUser(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke tokens after password reset", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionPasswordReset, user.ID)

	info := models.RTUserFromUser(user)
	return &info, nil
}

func (s *UserService) findRT(ctx context.Context, ref string) (*models.User, error) {
	user, err := s.users.FindByRoleAndRef(ctx, models.RoleRT, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "RT user not found")
		}
		return nil, appErrors.Internal(err, "failed to load RT user")
	}
	return user, nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, targetID string) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Create(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "rt_user",
		ResourceID: &targetID,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jebol-id/adminduk-api/internal/models"
	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
)

// DefaultDeviceName labels tokens when the client sends no device_name.
const DefaultDeviceName = "mobile"

// TokenStore abstracts token persistence so the access-control logic is
// independent of the backing store.
type TokenStore interface {
	Create(ctx context.Context, token *models.PersonalToken) error
	FindByID(ctx context.Context, id string) (*models.PersonalToken, error)
	Delete(ctx context.Context, id string) error
	TouchLastUsed(ctx context.Context, id string, ts time.Time) error
}

type authUserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines token lifetimes for authentication flows.
type AuthConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthService issues and validates opaque bearer tokens and exposes the
// session-bound auth use cases.
type AuthService struct {
	users     authUserStore
	tokens    TokenStore
	audits    auditStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserStore, tokens TokenStore, audits auditStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		audits:    audits,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates by username and password and issues an access/refresh
// token pair. Unknown usernames and wrong passwords produce the identical
// Unauthenticated error so usernames cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthenticated
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrUnauthenticated
	}

	if !user.IsActive {
		return nil, appErrors.ErrForbidden
	}

	if !user.Role.CanLogin() {
		return nil, appErrors.ErrForbidden
	}

	device := req.DeviceName
	if device == "" {
		device = DefaultDeviceName
	}

	accessPlain, err := s.issueToken(ctx, user.ID, device+":"+models.AbilityAccess, []string{models.AbilityAccess}, s.config.AccessTTL)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	refreshPlain, err := s.issueToken(ctx, user.ID, device+":"+models.AbilityRefresh, []string{models.AbilityRefresh}, s.config.RefreshTTL)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create refresh token")
	}

	s.recordAudit(ctx, &user.ID, models.AuditActionLogin, req.IP, req.UserAgent, []byte(`{"status":"success"}`))

	return &models.LoginResponse{
		Token: accessPlain,
		User: models.UserInfo{
			ID:       user.ID,
			Name:     user.Username,
			Role:     user.Role,
			IsActive: user.IsActive,
		},
		AccessToken:  accessPlain,
		RefreshToken: refreshPlain,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.config.AccessTTL.Seconds()),
	}, nil
}

// Authenticate resolves a presented bearer token to its session. It rejects
// unresolvable and expired tokens; ability scoping is left to the route.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*models.Session, error) {
	id, secret, ok := splitToken(bearer)
	if !ok {
		return nil, appErrors.ErrUnauthenticated
	}

	token, err := s.tokens.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthenticated
		}
		return nil, appErrors.Internal(err, "failed to resolve token")
	}

	if !hashMatches(token.TokenHash, secret) {
		return nil, appErrors.ErrUnauthenticated
	}

	if token.Expired(s.now()) {
		return nil, appErrors.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthenticated
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}

	if !user.IsActive {
		return nil, appErrors.ErrUnauthenticated
	}

	if err := s.tokens.TouchLastUsed(ctx, token.ID, s.now()); err != nil {
		s.logger.Warn("failed to stamp token last_used_at", zap.Error(err))
	}

	return &models.Session{User: user, Token: token}, nil
}

// Refresh mints a new access token from a session authenticated with a
// refresh-ability token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, session *models.Session) (*models.RefreshResponse, error) {
	if session == nil || session.Token == nil {
		return nil, appErrors.ErrUnauthenticated
	}

	if !session.Token.Can(models.AbilityRefresh) {
		return nil, appErrors.ErrUnauthenticated
	}

	device := session.Token.DeviceLabel()
	accessPlain, err := s.issueToken(ctx, session.User.ID, device+":"+models.AbilityAccess, []string{models.AbilityAccess}, s.config.AccessTTL)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	s.recordAudit(ctx, &session.User.ID, models.AuditActionTokenRefresh, "", "", []byte(`{"status":"refreshed"}`))

	return &models.RefreshResponse{
		AccessToken: accessPlain,
		ExpiresIn:   int64(s.config.AccessTTL.Seconds()),
	}, nil
}

// Logout revokes only the token that authenticated the session.
func (s *AuthService) Logout(ctx context.Context, session *models.Session, ip, userAgent string) error {
	if session == nil || session.Token == nil {
		return appErrors.ErrUnauthenticated
	}

	if err := s.tokens.Delete(ctx, session.Token.ID); err != nil {
		return appErrors.Internal(err, "failed to revoke token")
	}

	s.recordAudit(ctx, &session.User.ID, models.AuditActionLogout, ip, userAgent, []byte(`{"status":"logout"}`))
	return nil
}

func (s *AuthService) issueToken(ctx context.Context, userID, name string, abilities []string, ttl time.Duration) (string, error) {
	secret, err := generateTokenSecret()
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(ttl)
	token := &models.PersonalToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		TokenHash: hashTokenSecret(secret),
		Abilities: abilities,
		ExpiresAt: &expiresAt,
		CreatedAt: s.now(),
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return "", err
	}

	return token.ID + "|" + secret, nil
}

func (s *AuthService) recordAudit(ctx context.Context, userID *string, action, ip, userAgent string, values []byte) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Create(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: userID,
		NewValues:  values,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func generateTokenSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashTokenSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func hashMatches(storedHash, secret string) bool {
	computed := hashTokenSecret(secret)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1
}

func splitToken(bearer string) (id, secret string, ok bool) {
	idx := strings.IndexByte(bearer, '|')
	if idx <= 0 || idx == len(bearer)-1 {
		return "", "", false
	}
	return bearer[:idx], bearer[idx+1:], true
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sport_shop/internal/events"
	"github.com/Skotchmaster/sport_shop/internal/models"
	"github.com/Skotchmaster/sport_shop/internal/principal"
	"github.com/Skotchmaster/sport_shop/internal/repo"
	"github.com/Skotchmaster/sport_shop/internal/service"
	"github.com/Skotchmaster/sport_shop/internal/transport"
	pkg_hash "github.com/Skotchmaster/sport_shop/pkg/hash"
	jwthelp "github.com/Skotchmaster/sport_shop/pkg/jwt"
	"github.com/Skotchmaster/sport_shop/pkg/logging"
	"github.com/Skotchmaster/sport_shop/pkg/tokens"
)

type AuthService struct {
	Repo          repo.Store
	JWTSecret     []byte
	RefreshSecret []byte
	Events        events.Publisher

	Now func() time.Time
}

func New(store repo.Store, jwtSecret, refreshSecret []byte, pub events.Publisher) *AuthService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &AuthService{Repo: store, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Events: pub}
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// issue signs a token pair for u and stores the hashed refresh token.
func (s *AuthService) issue(ctx context.Context, u *models.User) (*tokens.Pair, error) {
	pair, err := tokens.NewPair(s.JWTSecret, s.RefreshSecret, u.ID.String(), u.Role, u.DisplayName(), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, refreshRow(u.ID, pair)); err != nil {
		return nil, err
	}
	return pair, nil
}

func refreshRow(userID uuid.UUID, pair *tokens.Pair) *models.RefreshToken {
	return &models.RefreshToken{
		UserID:    userID,
		JTI:       pair.JTI,
		TokenHash: jwthelp.Sha256Hex(pair.RefreshToken),
		ExpiresAt: pair.RefreshExp,
	}
}

func result(u *models.User, pair *tokens.Pair) *transport.LoginResult {
	return &transport.LoginResult{
		User:         u,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessExp:    pair.AccessExp,
		RefreshExp:   pair.RefreshExp,
		IsAdmin:      u.IsAdmin(),
	}
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*transport.LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	l := logging.FromContext(ctx).With("svc", "auth.register", "email", email)

	if _, err := s.Repo.GetUserByEmail(ctx, email); err == nil {
		l.Warn("register_error", "status", 409, "reason", "user already exist")
		return nil, fmt.Errorf("%w: user with this email already exists", service.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: user with this email already exists", service.ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	ev := events.New(events.UserRegistered, map[string]any{"user_id": user.ID, "email": user.Email})
	if err := s.Events.PublishEvent(ctx, events.TopicUsers, user.ID.String(), ev); err != nil {
		l.Error("kafka_publish_error", "topic", events.TopicUsers, "error", err)
	}

	l.Info("user_registered", "user_id", user.ID)
	return result(user, pair), nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", req.Email)

	user, err := s.Repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login failed", "status", 401, "reason", "unknown email")
			return nil, service.ErrInvalidCredentials
		}
		l.Error("login failed", "status", 500, "error", err)
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login failed", "status", 401, "reason", "wrong password")
		return nil, service.ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		l.Error("login failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("login_succeeded", "user_id", user.ID)
	return result(user, pair), nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_rejected", "status", 401, "reason", "invalid token", "error", err)
		return nil, service.ErrInvalidRefreshToken
	}

	stored, err := s.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_rejected", "status", 401, "reason", "unknown jti")
			return nil, service.ErrInvalidRefreshToken
		}
		return nil, err
	}
	if stored.TokenHash != jwthelp.Sha256Hex(refreshToken) || stored.UserID.String() != claims.Subject {
		l.Warn("refresh_rejected", "status", 401, "reason", "token mismatch")
		return nil, service.ErrInvalidRefreshToken
	}

	user, err := s.Repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrInvalidRefreshToken
		}
		return nil, err
	}

	pair, err := tokens.NewPair(s.JWTSecret, s.RefreshSecret, user.ID.String(), user.Role, user.DisplayName(), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, refreshRow(user.ID, pair)); err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) {
			l.Warn("refresh_rejected", "status", 401, "reason", "revoked or expired")
			return nil, service.ErrInvalidRefreshToken
		}
		l.Error("refresh_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("refresh_rotated", "user_id", user.ID)
	return pair, nil
}

// LogOut revokes the refresh token. An empty token is a no-op.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.Repo.RevokeRefreshToken(ctx, jwthelp.Sha256Hex(refreshToken)); err != nil {
		logging.FromContext(ctx).Error("logout_error", "svc", "auth.logout", "status", 500, "error", err)
		return err
	}
	return nil
}

func (s *AuthService) user(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", service.ErrNotFound, id)
	}
	return u, err
}

func (s *AuthService) Profile(ctx context.Context, p principal.Principal) (*models.User, error) {
	return s.user(ctx, p.ID)
}

// UpdateProfile changes the caller's own account and re-issues tokens so the
// name claim follows. The password changes only when a new one is given.
func (s *AuthService) UpdateProfile(ctx context.Context, p principal.Principal, req transport.UpdateProfileRequest) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.update_profile", "user_id", p.ID)

	u, err := s.user(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		u.Name = strings.TrimSpace(req.Name)
	}
	if err := s.changeEmail(ctx, u, req.Email); err != nil {
		return nil, err
	}
	if req.Password != "" {
		if u.PasswordHash, err = pkg_hash.HashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, u); err != nil {
		l.Warn("update_profile_error", "error", err)
		return nil, err
	}
	pair, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	return result(u, pair), nil
}

func (s *AuthService) changeEmail(ctx context.Context, u *models.User, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || email == u.Email {
		return nil
	}
	other, err := s.Repo.GetUserByEmail(ctx, email)
	if err == nil && other.ID != u.ID {
		return fmt.Errorf("%w: email already in use", service.ErrConflict)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	u.Email = email
	return nil
}

func (s *AuthService) save(ctx context.Context, u *models.User) error {
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: email already in use", service.ErrConflict)
		}
		return err
	}
	return nil
}

func requireAdmin(p principal.Principal) error {
	if !p.IsAdmin {
		return service.ErrNotAuthorized
	}
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context, p principal.Principal) ([]models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.Repo.ListUsers(ctx)
}

func (s *AuthService) GetUser(ctx context.Context, p principal.Principal, id uuid.UUID) (*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.user(ctx, id)
}

func (s *AuthService) UpdateUser(ctx context.Context, p principal.Principal, id uuid.UUID, req transport.UpdateUserRequest) (*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	u, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		u.Name = strings.TrimSpace(req.Name)
	}
	if err := s.changeEmail(ctx, u, req.Email); err != nil {
		return nil, err
	}
	u.Role = models.RoleUser
	if req.IsAdmin {
		u.Role = models.RoleAdmin
	}

	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("user_updated", "svc", "auth.update_user", "admin_id", p.ID, "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, p principal.Principal, id uuid.UUID) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %s", service.ErrNotFound, id)
		}
		return err
	}
	logging.FromContext(ctx).Info("user_deleted", "svc", "auth.delete_user", "admin_id", p.ID, "user_id", id)
	return nil
}

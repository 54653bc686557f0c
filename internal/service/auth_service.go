package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"platepos/internal/apierror"
	"platepos/internal/config"
	"platepos/internal/dto"
	"platepos/internal/model"
	"platepos/internal/permission"
	"platepos/internal/repository"
	"platepos/internal/token"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// StepUp re-proves the password and mints a token bound to one sensitive
	// operation for the calling identity.
	StepUp(ctx context.Context, userID uuid.UUID, req dto.StepUpRequest) (*dto.StepUpResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req dto.ChangePasswordRequest) error
	// RequireAdditionalAuth is the coarse role-based gate. It fails safe: if
	// the identity cannot be resolved, the answer is true (require).
	RequireAdditionalAuth(ctx context.Context, userID uuid.UUID, action string) bool

	ListUsers(ctx context.Context, filter dto.UserFilter) ([]dto.UserResponse, int64, error)
	GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error
	ReactivateUser(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo   repository.UserRepository
	issuer *token.Issuer
	hasher token.Hasher
	cfg    *config.Config
}

func NewAuthService(repo repository.UserRepository, issuer *token.Issuer, hasher token.Hasher, cfg *config.Config) AuthService {
	return &authService{repo: repo, issuer: issuer, hasher: hasher, cfg: cfg}
}

func invalidCredentials() *apierror.APIError {
	return apierror.New(apierror.CodeInvalidToken, "invalid credentials")
}

// userMissing is the user-management flavor of USER_NOT_FOUND: a missing
// aggregate (404), unlike the auth pipeline where the same code is an
// identity failure (401).
func userMissing() *apierror.APIError {
	return apierror.New(apierror.CodeUserNotFound, "user not found").
		WithStatus(http.StatusNotFound)
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	role := model.Role(req.Role)
	if !model.ValidRole(role) {
		return nil, apierror.New(apierror.CodeValidationError, "unknown role")
	}

	var restaurantID *uuid.UUID
	if req.RestaurantID != nil {
		rid, err := uuid.Parse(*req.RestaurantID)
		if err != nil {
			return nil, apierror.New(apierror.CodeValidationError, "invalid restaurant_id")
		}
		restaurantID = &rid
	}
	// Every role except admin is tenant-scoped
	if role != model.RoleAdmin && restaurantID == nil {
		return nil, apierror.New(apierror.CodeValidationError, "restaurant_id is required for non-admin roles")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:        strings.ToLower(req.Email),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
		RestaurantID: restaurantID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apierror.New(apierror.CodeValidationError, "email or username already taken")
	}
	return userToResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByLogin(ctx, req.Username)
	if err != nil {
		return nil, invalidCredentials()
	}
	if !user.Active {
		return nil, apierror.New(apierror.CodeUserInactive, "account is deactivated")
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		// Non-fatal: the login itself succeeded
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last login")
	}

	return s.issueSession(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apierror.New(apierror.CodeInvalidToken, "refresh token invalid or expired")
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apierror.New(apierror.CodeInvalidToken, "malformed token")
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, apierror.New(apierror.CodeUserNotFound, "user not found")
	}
	if !user.Active {
		return nil, apierror.New(apierror.CodeUserInactive, "account is deactivated")
	}
	return s.issueSession(user)
}

func (s *authService) issueSession(user *model.User) (*dto.LoginResponse, error) {
	id := token.Identity{
		ID:           user.ID,
		Username:     user.Username,
		Role:         string(user.Role),
		RestaurantID: user.RestaurantID,
	}
	accessToken, err := s.issuer.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issuer.IssueRefresh(id)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         *userToResponse(user),
	}, nil
}

func (s *authService) StepUp(ctx context.Context, userID uuid.UUID, req dto.StepUpRequest) (*dto.StepUpResponse, error) {
	if !permission.IsSensitiveOperation(req.Operation) {
		return nil, apierror.New(apierror.CodeValidationError, "unknown sensitive operation")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apierror.New(apierror.CodeUserNotFound, "user not found")
	}
	// Step-up always re-proves the password, even inside a valid session
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, invalidCredentials()
	}
	stepUp, err := s.issuer.IssueStepUp(token.Identity{
		ID:           user.ID,
		Username:     user.Username,
		Role:         string(user.Role),
		RestaurantID: user.RestaurantID,
	}, req.Operation)
	if err != nil {
		return nil, err
	}
	return &dto.StepUpResponse{
		StepUpToken: stepUp,
		Operation:   req.Operation,
		ExpiresIn:   int(s.issuer.StepUpWindow() / time.Second),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req dto.ChangePasswordRequest) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return apierror.New(apierror.CodeUserNotFound, "user not found")
	}
	if !s.hasher.Verify(req.CurrentPassword, user.PasswordHash) {
		return invalidCredentials()
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.repo.Update(ctx, user)
}

func (s *authService) RequireAdditionalAuth(ctx context.Context, userID uuid.UUID, action string) bool {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		// Fail safe: an unresolvable identity requires extra auth, never the inverse
		log.Warn().Err(err).Str("user_id", userID.String()).Str("action", action).
			Msg("additional-auth lookup failed, requiring extra auth")
		return true
	}
	return permission.RequiresAdditionalAuth(user.Role, action)
}

// ─── User management ─────────────────────────────────────────────────────────

func (s *authService) ListUsers(ctx context.Context, filter dto.UserFilter) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, filter.IncludeInactive, filter.Role, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = *userToResponse(&users[i])
	}
	return resp, total, nil
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, userMissing()
	}
	return userToResponse(user), nil
}

func (s *authService) UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, userMissing()
	}
	if req.Email != nil {
		user.Email = strings.ToLower(*req.Email)
	}
	if req.Role != "" {
		user.Role = model.Role(req.Role)
	}
	if req.ExtraPermissions != nil {
		user.ExtraPermissions = req.ExtraPermissions
	}
	if req.RestaurantID != nil {
		rid, err := uuid.Parse(*req.RestaurantID)
		if err != nil {
			return nil, apierror.New(apierror.CodeValidationError, "invalid restaurant_id")
		}
		user.RestaurantID = &rid
	}
	if user.Role != model.RoleAdmin && user.RestaurantID == nil {
		return nil, apierror.New(apierror.CodeValidationError, "restaurant_id is required for non-admin roles")
	}
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return userToResponse(user), nil
}

func (s *authService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return userMissing()
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *authService) ReactivateUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return userMissing()
	}
	return s.repo.Reactivate(ctx, id)
}

func userToResponse(u *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:               u.ID.String(),
		Email:            u.Email,
		Username:         u.Username,
		Role:             string(u.Role),
		ExtraPermissions: u.ExtraPermissions,
		Active:           u.Active,
	}
	if u.RestaurantID != nil {
		rid := u.RestaurantID.String()
		resp.RestaurantID = &rid
	}
	if u.LastLoginAt != nil {
		ts := u.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &ts
	}
	return resp
}

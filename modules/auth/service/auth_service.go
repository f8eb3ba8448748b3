package service

import (
	"context"
	"time"

	"slotswap-api/core/cache"
	"slotswap-api/core/config"
	"slotswap-api/core/constants"
	coreEntity "slotswap-api/core/entity"
	"slotswap-api/core/errors"
	"slotswap-api/core/logger"
	"slotswap-api/core/utils"
	"slotswap-api/modules/auth/dto"
	"slotswap-api/modules/auth/entity"
	"slotswap-api/modules/auth/repository"

	"github.com/google/uuid"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, *errors.AppError)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, *errors.AppError)
	Logout(ctx context.Context, claims *utils.TokenClaims) *errors.AppError
	GetUserByID(ctx context.Context, id uuid.UUID) (*dto.UserResponse, *errors.AppError)
	VerifyAccessToken(ctx context.Context, token string) (*utils.TokenClaims, *errors.AppError)
}

type AuthService struct {
	repo  repository.UserRepositoryInterface
	cache cache.Cache
}

func NewAuthService(repo repository.UserRepositoryInterface, cache cache.Cache) *AuthService {
	return &AuthService{repo: repo, cache: cache}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, *errors.AppError) {
	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to check existing user", err)
	}
	if exists {
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "Email already registered", nil)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("AuthService:Register:HashPassword:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to hash password", err)
	}

	user := &entity.User{
		Email:        req.Email,
		Name:         req.Name,
		Handle:       utils.GenerateHandle(req.Name),
		PasswordHash: hash,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to create user", err)
	}

	logger.Info("AuthService:Register:Created", "user_id", user.ID, "handle", user.Handle)
	return s.buildAuthResponse(user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, *errors.AppError) {
	blocked, err := s.cache.IsLoginBlocked(ctx, req.Email)
	if err != nil {
		logger.Error("AuthService:Login:IsLoginBlocked:Error:", err)
	}
	if blocked {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Too many failed attempts, try again later", nil)
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get user", err)
	}
	if user == nil || !utils.ComparePassword(user.PasswordHash, req.Password) {
		if _, incErr := s.cache.IncrementLoginAttempt(ctx, req.Email); incErr != nil {
			logger.Error("AuthService:Login:IncrementLoginAttempt:Error:", incErr)
		}
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid email or password", nil)
	}

	if err := s.cache.ResetLoginAttempts(ctx, req.Email); err != nil {
		logger.Error("AuthService:Login:ResetLoginAttempts:Error:", err)
	}

	logger.Info("AuthService:Login:Success", "user_id", user.ID)
	return s.buildAuthResponse(user)
}

// Logout blacklists the current access token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *utils.TokenClaims) *errors.AppError {
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.cache.AddToTokenBlacklist(ctx, claims.ID, ttl); err != nil {
		logger.Error("AuthService:Logout:Blacklist:Error:", err)
		return errors.NewAppError(errors.ErrInternalServer, "Failed to logout", err)
	}
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*dto.UserResponse, *errors.AppError) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "User not found", nil)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// VerifyAccessToken parses the token, checks the scope and the blacklist.
// It backs the auth middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*utils.TokenClaims, *errors.AppError) {
	claims, err := utils.ValidateAndParseToken(token)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return nil, appErr
		}
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token", err)
	}

	if claims.Scope != constants.ScopeTokenAccess {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token scope", nil)
	}

	blacklisted, blErr := s.cache.IsTokenBlacklisted(ctx, claims.ID)
	if blErr != nil {
		logger.Error("AuthService:VerifyAccessToken:Blacklist:Error:", blErr)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to verify token", blErr)
	}
	if blacklisted {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Token has been revoked", nil)
	}

	return claims, nil
}

func (s *AuthService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, *errors.AppError) {
	cfg := config.Get()

	accessToken, err := utils.GenerateToken(user.ID, &user.Email, &user.Handle, constants.ScopeTokenAccess, cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Error("AuthService:buildAuthResponse:AccessToken:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to generate token", err)
	}
	refreshToken, err := utils.GenerateToken(user.ID, nil, nil, constants.ScopeTokenRefresh, cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Error("AuthService:buildAuthResponse:RefreshToken:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to generate token", err)
	}

	return &dto.AuthResponse{
		User: toUserResponse(user),
		Tokens: dto.TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    int64(cfg.JWT.AccessTokenTTL.Seconds()),
		},
	}, nil
}

func toUserResponse(user *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Handle:    user.Handle,
		CreatedAt: user.CreatedAt,
	}
}

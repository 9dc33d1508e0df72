package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
	"reading-journal/internal/utils"
)

const (
	profileCacheTTL      = 5 * time.Minute
	temporaryPasswordLen = 10
)

type AuthService struct {
	userRepo  UserRepository
	statsRepo StatisticsRepository
	jwtUtil   *utils.JWTUtil
	email     EmailService
	cache     Cache
	log       *logrus.Entry
}

func NewAuthService(userRepo UserRepository, statsRepo StatisticsRepository, jwtUtil *utils.JWTUtil, email EmailService, cache Cache, log *logrus.Entry) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		statsRepo: statsRepo,
		jwtUtil:   jwtUtil,
		email:     email,
		cache:     cache,
		log:       log,
	}
}

func profileCacheKey(userID primitive.ObjectID) string {
	return fmt.Sprintf("user_profile:%s", userID.Hex())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := req.Email
	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrDuplicate)
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Email:       email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        models.RoleReader,
		Password:    req.Password,
	}
	if err := user.HashPassword(); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.statsRepo.Ensure(ctx, user.ID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID.Hex()).Error("failed to initialize statistics")
	}

	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), string(user.Role), false)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID.Hex()).Info("user registered")
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Banned {
		s.log.WithField("user_id", user.ID.Hex()).Warn("banned user tried to log in")
		return nil, fmt.Errorf("user is banned: %w", models.ErrForbidden)
	}

	if err := user.ComparePassword(req.Password); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), string(user.Role), user.ResetRequired)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{Token: token, User: user}, nil
}

// Logout blacklists the token id until the token would have expired anyway
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return models.ErrUnauthorized
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	return s.cache.Set(ctx, utils.BlacklistKey(tokenID), true, ttl)
}

func (s *AuthService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	cacheKey := profileCacheKey(userID)

	var cached models.User
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, user, profileCacheTTL); err != nil {
		s.log.WithError(err).Warn("failed to cache user profile")
	}

	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, req models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fields := bson.M{}
	if req.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*req.DisplayName)
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
		s.invalidateProfile(ctx, userID)
	}

	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, req models.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.ComparePassword(req.OldPassword); err != nil {
		return fmt.Errorf("invalid old password: %w", models.ErrInvalidCredentials)
	}

	user.Password = req.NewPassword
	if err := user.HashPassword(); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, user.Password, false); err != nil {
		return err
	}
	s.invalidateProfile(ctx, userID)
	return nil
}

// ResetPassword replaces the password with a temporary one and mails it
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	tempPass, err := utils.GenerateCode(temporaryPasswordLen)
	if err != nil {
		return err
	}

	user.Password = tempPass
	if err := user.HashPassword(); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password, true); err != nil {
		return err
	}
	s.invalidateProfile(ctx, user.ID)

	return s.email.SendTemporaryPassword(user.Email, tempPass)
}

// SetInitialPassword is only allowed while reset_required is set and
// returns a fresh token without the reset flag.
func (s *AuthService) SetInitialPassword(ctx context.Context, userID primitive.ObjectID, req models.SetInitialPasswordRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if !user.ResetRequired {
		return "", fmt.Errorf("password reset not requested: %w", models.ErrForbidden)
	}

	if err := user.ComparePassword(req.TempPassword); err != nil {
		return "", fmt.Errorf("invalid temporary password: %w", models.ErrInvalidCredentials)
	}

	user.Password = req.NewPassword
	if err := user.HashPassword(); err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, user.Password, false); err != nil {
		return "", err
	}
	s.invalidateProfile(ctx, userID)

	return s.jwtUtil.GenerateToken(user.ID.Hex(), string(user.Role), false)
}

func (s *AuthService) invalidateProfile(ctx context.Context, userID primitive.ObjectID) {
	if err := s.cache.Delete(ctx, profileCacheKey(userID)); err != nil {
		s.log.WithError(err).Warn("failed to invalidate profile cache")
	}
}

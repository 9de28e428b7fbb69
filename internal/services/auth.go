package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"resource-system/config"
	"resource-system/internal/dto"
	"resource-system/internal/entities"
	"resource-system/internal/repositories"
	"resource-system/pkg/constants"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/filestorage"
	"resource-system/pkg/service"
	"resource-system/pkg/utils"
	"resource-system/pkg/validation"
)

const profilePhotoContext = "profile_photo"

type AuthServiceInterface interface {
	Register(ctx context.Context, payload dto.RegisterDTO) (*dto.AuthResponseDTO, error)
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	GetCurrent(ctx context.Context) (*entities.User, error)
	UpdateProfile(ctx context.Context, payload dto.UpdateProfileDTO, photo *dto.FileUploadDTO) (*entities.User, error)
	UploadPhoto(ctx context.Context, photo dto.FileUploadDTO) (*entities.User, error)
	ChangePassword(ctx context.Context, payload dto.ChangePasswordDTO) error
}

// LoginPolicy bounds failed login attempts per email.
type LoginPolicy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

type AuthService struct {
	userRepo    repositories.UserRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	jwtService  service.JWTService
	fileStorage filestorage.FileStorageInterface
	policy      LoginPolicy
	logger      *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	fileStorage filestorage.FileStorageInterface,
	policy LoginPolicy,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:    userRepo,
		cacheRepo:   cacheRepo,
		jwtService:  jwtService,
		fileStorage: fileStorage,
		policy:      policy,
		logger:      logger.Named("auth"),
	}
}

func emailTakenError() error {
	return apperrors.New(apperrors.KindInvalidRequest, "Email is already registered", apperrors.ErrEmailTaken)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) issue(user *entities.User) (*dto.AuthResponseDTO, error) {
	token, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponseDTO{Token: token, User: user}, nil
}

// Register creates a pending account. A system administrator starts approved.
func (s *AuthService) Register(ctx context.Context, payload dto.RegisterDTO) (*dto.AuthResponseDTO, error) {
	if err := validation.CheckRoleScope(payload.Role, payload.Department.String, payload.School.String); err != nil {
		return nil, err
	}

	email := normalizeEmail(payload.Email)
	taken, err := s.userRepo.EmailExists(ctx, nil, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, emailTakenError()
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	status := constants.UserStatusPending
	if payload.Role == constants.RoleSystemAdmin {
		status = constants.UserStatusApproved
	}

	user := &entities.User{
		FullName:    strings.TrimSpace(payload.FullName),
		Email:       email,
		Password:    hash,
		Role:        payload.Role,
		Department:  trimmedField(payload.Department),
		School:      schoolField(payload.Role, payload.School),
		PhoneNumber: payload.PhoneNumber,
		Status:      status,
		IsActive:    true,
	}
	if _, err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Uint64("userID", user.ID), zap.String("role", user.Role))
	return s.issue(user)
}

func trimmedField(v null.String) null.String {
	if strings.TrimSpace(v.String) == "" {
		return null.String{}
	}
	return null.StringFrom(strings.TrimSpace(v.String))
}

// schoolField keeps a school only for deans.
func schoolField(role string, v null.String) null.String {
	if !constants.RequiresSchool(role) {
		return null.String{}
	}
	return trimmedField(v)
}

func attemptsKey(email string) string {
	return "login_attempts:" + email
}

func lockKey(email string) string {
	return "login_lock:" + email
}

// checkLockout rejects logins while the lock marker for email exists.
func (s *AuthService) checkLockout(ctx context.Context, email string) error {
	if s.policy.MaxAttempts <= 0 {
		return nil
	}
	if _, err := s.cacheRepo.Get(ctx, lockKey(email)); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("lockout check unavailable", zap.Error(err))
		}
		return nil
	}
	return apperrors.New(apperrors.KindTooManyRequests,
		fmt.Sprintf("Too many failed attempts. Try again in %d minutes", int(s.policy.LockoutDuration.Minutes())),
		apperrors.ErrTooManyAttempts)
}

// recordFailure counts a failed login within the lockout window. Reaching the
// limit sets the lock marker for LockoutDuration and resets the counter.
func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.policy.MaxAttempts <= 0 {
		return
	}
	key := attemptsKey(email)
	n, err := s.cacheRepo.Incr(ctx, key)
	if err != nil {
		s.logger.Warn("failed to record login attempt", zap.Error(err))
		return
	}
	if n == 1 {
		if _, err := s.cacheRepo.Expire(ctx, key, s.policy.LockoutDuration); err != nil {
			s.logger.Warn("failed to set attempt window", zap.Error(err))
		}
	}
	if n < int64(s.policy.MaxAttempts) {
		return
	}
	if err := s.cacheRepo.Set(ctx, lockKey(email), n, s.policy.LockoutDuration); err != nil {
		s.logger.Warn("failed to set login lock", zap.Error(err))
		return
	}
	if err := s.cacheRepo.Del(ctx, key); err != nil {
		s.logger.Debug("failed to reset login attempts", zap.Error(err))
	}
	s.logger.Info("login locked", zap.String("email", email), zap.Duration("for", s.policy.LockoutDuration))
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	email := normalizeEmail(payload.Email)
	if err := s.checkLockout(ctx, email); err != nil {
		return nil, err
	}

	invalid := apperrors.New(apperrors.KindInvalidRequest, "Invalid credentials", apperrors.ErrInvalidCredentials)

	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.recordFailure(ctx, email)
			return nil, invalid
		}
		return nil, err
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.recordFailure(ctx, email)
		return nil, invalid
	}
	if err := s.cacheRepo.Del(ctx, attemptsKey(email)); err != nil {
		s.logger.Debug("failed to reset login attempts", zap.Error(err))
	}

	if !user.IsActive {
		return nil, apperrors.New(apperrors.KindForbidden, "Account is deactivated", apperrors.ErrAccountInactive)
	}
	if !user.IsApproved() {
		return nil, apperrors.New(apperrors.KindForbidden,
			"Your account is pending approval from the system administrator", apperrors.ErrAwaitingApproval)
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Uint64("userID", user.ID), zap.Error(err))
	} else {
		user.LastLogin = null.TimeFrom(now)
	}
	return s.issue(user)
}

func (s *AuthService) GetCurrent(ctx context.Context) (*entities.User, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, nil, actor.ID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, payload dto.UpdateProfileDTO, photo *dto.FileUploadDTO) (*entities.User, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, nil, actor.ID)
	if err != nil {
		return nil, err
	}

	if payload.FullName.Valid {
		user.FullName = strings.TrimSpace(payload.FullName.String)
	}
	if payload.Email.Valid {
		email := normalizeEmail(payload.Email.String)
		if email != user.Email {
			taken, err := s.userRepo.EmailExists(ctx, nil, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, emailTakenError()
			}
			user.Email = email
		}
	}
	if payload.PhoneNumber.Valid {
		user.PhoneNumber = payload.PhoneNumber
	}
	if payload.Department.Valid {
		user.Department = trimmedField(payload.Department)
	}
	if payload.School.Valid {
		user.School = schoolField(user.Role, payload.School)
	}
	if err := validation.CheckRoleScope(user.Role, user.Department.String, user.School.String); err != nil {
		return nil, err
	}

	var oldPhoto string
	if photo != nil {
		url, err := s.storePhoto(*photo)
		if err != nil {
			return nil, err
		}
		oldPhoto = user.ProfilePhoto.String
		user.ProfilePhoto = null.StringFrom(url)
	}

	if err := s.userRepo.Update(ctx, nil, user); err != nil {
		if photo != nil {
			_ = s.fileStorage.Delete(user.ProfilePhoto.String)
		}
		return nil, err
	}
	s.dropPhoto(oldPhoto)
	return user, nil
}

func (s *AuthService) UploadPhoto(ctx context.Context, photo dto.FileUploadDTO) (*entities.User, error) {
	return s.UpdateProfile(ctx, dto.UpdateProfileDTO{}, &photo)
}

func (s *AuthService) storePhoto(photo dto.FileUploadDTO) (string, error) {
	if err := validation.ValidateFile(photo.Header, photo.Content, profilePhotoContext); err != nil {
		return "", err
	}
	prefix := config.UploadContexts[profilePhotoContext].PathPrefix
	return s.fileStorage.Save(photo.Content, photo.Header.Filename, prefix)
}

func (s *AuthService) dropPhoto(url string) {
	if url == "" {
		return
	}
	if err := s.fileStorage.Delete(url); err != nil {
		s.logger.Warn("failed to delete previous profile photo", zap.String("path", url), zap.Error(err))
	}
}

func (s *AuthService) ChangePassword(ctx context.Context, payload dto.ChangePasswordDTO) error {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, nil, actor.ID)
	if err != nil {
		return err
	}
	if err := utils.ComparePasswords(user.Password, payload.CurrentPassword); err != nil {
		return apperrors.New(apperrors.KindInvalidRequest, "Current password is incorrect", apperrors.ErrInvalidCredentials)
	}

	hash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, nil, user.ID, hash)
}

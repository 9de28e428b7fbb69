package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"resource-system/internal/authz"
	"resource-system/internal/dto"
	"resource-system/internal/entities"
	"resource-system/internal/repositories"
	"resource-system/pkg/constants"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/types"
	"resource-system/pkg/utils"
	"resource-system/pkg/validation"
)

type UserServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	GetByStatus(ctx context.Context, status string, filter types.Filter) ([]entities.User, uint64, error)
	GetByDepartment(ctx context.Context, department string, filter types.Filter) ([]entities.User, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	Create(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*entities.User, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (*entities.User, error)
	Deactivate(ctx context.Context, id uint64) error
}

type UserService struct {
	userRepo repositories.UserRepositoryInterface
	scope    *authz.Scope
	logger   *zap.Logger
}

func NewUserService(userRepo repositories.UserRepositoryInterface, scope *authz.Scope, logger *zap.Logger) UserServiceInterface {
	return &UserService{userRepo: userRepo, scope: scope, logger: logger.Named("users")}
}

func (s *UserService) GetAll(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	return s.userRepo.GetAll(ctx, filter)
}

func (s *UserService) GetByStatus(ctx context.Context, status string, filter types.Filter) ([]entities.User, uint64, error) {
	if filter.Filter == nil {
		filter.Filter = map[string]string{}
	}
	filter.Filter["status"] = status
	filter.Filter["is_active"] = "true"
	return s.userRepo.GetAll(ctx, filter)
}

func (s *UserService) GetByDepartment(ctx context.Context, department string, filter types.Filter) ([]entities.User, uint64, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !s.scope.CanAccessDepartment(actor, department) {
		return nil, 0, apperrors.NewForbiddenError("You can only view users of your own department")
	}
	if filter.Filter == nil {
		filter.Filter = map[string]string{}
	}
	filter.Filter["department"] = department
	return s.userRepo.GetAll(ctx, filter)
}

func (s *UserService) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	user, err := s.userRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create is used by administrators, so the account starts approved.
func (s *UserService) Create(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error) {
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
	user := &entities.User{
		FullName:    strings.TrimSpace(payload.FullName),
		Email:       email,
		Password:    hash,
		Role:        payload.Role,
		Department:  trimmedField(payload.Department),
		School:      schoolField(payload.Role, payload.School),
		PhoneNumber: payload.PhoneNumber,
		Status:      constants.UserStatusApproved,
		IsActive:    true,
	}
	if _, err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created by administrator", zap.Uint64("userID", user.ID))
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*entities.User, error) {
	user, err := s.userRepo.FindByID(ctx, nil, id)
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
	if payload.Role.Valid {
		user.Role = payload.Role.String
	}
	if payload.Department.Valid {
		user.Department = trimmedField(payload.Department)
	}
	if payload.School.Valid || payload.Role.Valid {
		school := user.School
		if payload.School.Valid {
			school = payload.School
		}
		user.School = schoolField(user.Role, school)
	}
	if payload.PhoneNumber.Valid {
		user.PhoneNumber = payload.PhoneNumber
	}
	if payload.Status.Valid {
		user.Status = payload.Status.String
	}
	if payload.IsActive.Valid {
		user.IsActive = payload.IsActive.Bool
	}
	if err := validation.CheckRoleScope(user.Role, user.Department.String, user.School.String); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateStatus(ctx context.Context, id uint64, status string) (*entities.User, error) {
	if status != constants.UserStatusApproved && status != constants.UserStatusRejected {
		return nil, apperrors.NewBadRequestError("Status must be approved or rejected")
	}
	if err := s.userRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, err
	}
	s.logger.Info("user status changed", zap.Uint64("userID", id), zap.String("status", status))
	return s.userRepo.FindByID(ctx, nil, id)
}

func (s *UserService) Deactivate(ctx context.Context, id uint64) error {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return err
	}
	if actor.ID == id {
		return apperrors.NewBadRequestError("You cannot deactivate your own account")
	}
	return s.userRepo.Deactivate(ctx, nil, id)
}

package services

import (
	"context"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"resource-system/internal/authz"
	"resource-system/internal/dto"
	"resource-system/internal/entities"
	"resource-system/internal/events"
	"resource-system/internal/repositories"
	"resource-system/pkg/constants"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/eventbus"
	"resource-system/pkg/types"
	"resource-system/pkg/utils"
)

type RequestServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateRequestDTO) (*entities.Request, error)
	Decide(ctx context.Context, id uint64, payload dto.DecideRequestDTO) (*entities.Request, error)
	Cancel(ctx context.Context, id uint64) (*entities.Request, error)
	List(ctx context.Context, filter entities.RequestFilter, page types.Filter) ([]entities.Request, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Request, error)
}

type RequestService struct {
	requestRepo  repositories.RequestRepositoryInterface
	resourceRepo repositories.ResourceRepositoryInterface
	txManager    repositories.TxManagerInterface
	scope        *authz.Scope
	bus          eventbus.Publisher
	logger       *zap.Logger
}

func NewRequestService(
	requestRepo repositories.RequestRepositoryInterface,
	resourceRepo repositories.ResourceRepositoryInterface,
	txManager repositories.TxManagerInterface,
	scope *authz.Scope,
	bus eventbus.Publisher,
	logger *zap.Logger,
) RequestServiceInterface {
	return &RequestService{
		requestRepo:  requestRepo,
		resourceRepo: resourceRepo,
		txManager:    txManager,
		scope:        scope,
		bus:          bus,
		logger:       logger.Named("requests"),
	}
}

// Create books a resource window. The resource row lock serializes
// concurrent bookings of the same resource so the overlap check holds.
func (s *RequestService) Create(ctx context.Context, payload dto.CreateRequestDTO) (*entities.Request, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !payload.StartTime.Before(payload.EndTime) {
		return nil, apperrors.NewBadRequestError("End time must be after start time")
	}

	priority := payload.Priority
	if priority == "" {
		priority = constants.PriorityMedium
	}
	req := &entities.Request{
		RequestorID: actor.ID,
		ResourceID:  payload.ResourceID,
		StartTime:   payload.StartTime.UTC(),
		EndTime:     payload.EndTime.UTC(),
		Purpose:     payload.Purpose,
		Status:      constants.RequestStatusPending,
		Department:  actor.Department,
		Priority:    priority,
		ApprovalChain: []entities.ApprovalEntry{{
			Status:    constants.RequestStatusPending,
			Timestamp: time.Now().UTC(),
		}},
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.resourceRepo.FindByIDForUpdate(ctx, tx, payload.ResourceID)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				return apperrors.NewNotFoundError("Resource not found")
			}
			return err
		}
		if !res.IsActive {
			return apperrors.NewNotFoundError("Resource not found")
		}

		overlap, err := s.requestRepo.HasOverlap(ctx, tx, req.ResourceID, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if overlap {
			return apperrors.NewBadRequestError("Resource is already booked for the requested time")
		}

		_, err = s.requestRepo.Create(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.RequestCreatedEvent{
		RequestID:  req.ID,
		ResourceID: req.ResourceID,
		Requestor:  req.RequestorID,
		Department: req.Department.String,
	})
	return req, nil
}

func (s *RequestService) Decide(ctx context.Context, id uint64, payload dto.DecideRequestDTO) (*entities.Request, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(authz.Approvers...) {
		return nil, apperrors.NewForbiddenError("You are not allowed to decide on requests")
	}
	if payload.Status != constants.RequestStatusApproved && payload.Status != constants.RequestStatusRejected {
		return nil, apperrors.NewBadRequestError("Status must be approved or rejected")
	}

	var req *entities.Request
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.requestRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return requestNotFound(err)
		}
		if !s.scope.CanDecide(actor, current.Department.String) {
			return apperrors.NewForbiddenError("You can only decide on requests from your department")
		}
		if current.Status != constants.RequestStatusPending {
			return apperrors.NewConflictError("Request has already been decided")
		}

		entry := entities.ApprovalEntry{
			ApproverID: null.Uint64From(actor.ID),
			Status:     payload.Status,
			Comment:    payload.Comment,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.requestRepo.AppendApproval(ctx, tx, id, entry); err != nil {
			return err
		}
		if err := s.requestRepo.UpdateStatus(ctx, tx, id, payload.Status); err != nil {
			return err
		}
		if payload.Status == constants.RequestStatusApproved {
			if err := s.resourceRepo.Reserve(ctx, tx, current.ResourceID, assignmentOf(current)); err != nil {
				return err
			}
		}

		current.Status = payload.Status
		current.ApprovalChain = append(current.ApprovalChain, entry)
		req = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request decided",
		zap.Uint64("request_id", id),
		zap.String("status", req.Status),
		zap.Uint64("approver_id", actor.ID))
	s.bus.Publish(ctx, events.RequestStatusUpdatedEvent{
		RequestID:  req.ID,
		ResourceID: req.ResourceID,
		Status:     req.Status,
		UpdatedBy:  actor.ID,
		Requestor:  req.RequestorID,
	})
	return req, nil
}

// Cancel releases the resource only when the request had been approved and
// the resource still carries this request's assignment.
func (s *RequestService) Cancel(ctx context.Context, id uint64) (*entities.Request, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var req *entities.Request
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.requestRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return requestNotFound(err)
		}
		if current.RequestorID != actor.ID && !actor.IsAdmin() {
			return apperrors.NewForbiddenError("Only the requestor can cancel this request")
		}

		prior := current.Status
		switch prior {
		case constants.RequestStatusCancelled:
			return apperrors.NewConflictError("Request is already cancelled")
		case constants.RequestStatusRejected:
			return apperrors.NewConflictError("A rejected request cannot be cancelled")
		}

		if err := s.requestRepo.UpdateStatus(ctx, tx, id, constants.RequestStatusCancelled); err != nil {
			return err
		}
		if prior == constants.RequestStatusApproved {
			released, err := s.resourceRepo.Release(ctx, tx, current.ResourceID, assignmentOf(current))
			if err != nil {
				return err
			}
			if !released {
				s.logger.Debug("resource assignment belongs to another booking",
					zap.Uint64("request_id", id), zap.Uint64("resource_id", current.ResourceID))
			}
		}

		current.Status = constants.RequestStatusCancelled
		req = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.RequestCancelledEvent{
		RequestID:   req.ID,
		ResourceID:  req.ResourceID,
		CancelledBy: actor.ID,
	})
	return req, nil
}

// List scopes the query to what the actor may see. Only administrators may
// filter by an arbitrary department.
func (s *RequestService) List(ctx context.Context, filter entities.RequestFilter, page types.Filter) ([]entities.Request, uint64, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}

	switch actor.Role {
	case constants.RoleSystemAdmin:
	case constants.RoleSchoolDean:
		filter.Department = ""
		filter.Departments = s.scope.ResourceDepartments(actor)
	case constants.RoleDepartmentHead:
		filter.Department = ""
		filter.Departments = []string{actor.Department.String}
	default:
		filter.Department = ""
		filter.Departments = nil
		filter.RequestorID = actor.ID
	}
	return s.requestRepo.GetAll(ctx, filter, page)
}

func (s *RequestService) FindByID(ctx context.Context, id uint64) (*entities.Request, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	req, err := s.requestRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, requestNotFound(err)
	}
	if !s.scope.CanViewRequest(actor, req) {
		return nil, apperrors.NewForbiddenError("You are not allowed to view this request")
	}
	return req, nil
}

func assignmentOf(req *entities.Request) entities.Assignment {
	return entities.Assignment{UserID: req.RequestorID, StartTime: req.StartTime, EndTime: req.EndTime}
}

func requestNotFound(err error) error {
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		return apperrors.NewNotFoundError("Request not found")
	}
	return err
}

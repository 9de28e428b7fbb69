package services

import (
	"context"
	"errors"
	"slices"
	"strings"

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
	"resource-system/pkg/utils"
)

const transferInitiatedMessage = "Transfer initiated successfully"

type TransferServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateTransferDTO) (*dto.TransferResultDTO, error)
	List(ctx context.Context) ([]entities.ResourceTransfer, error)
	ListByDepartment(ctx context.Context, department string) ([]entities.ResourceTransfer, error)
}

type TransferService struct {
	transferRepo repositories.TransferRepositoryInterface
	resourceRepo repositories.ResourceRepositoryInterface
	txManager    repositories.TxManagerInterface
	scope        *authz.Scope
	bus          eventbus.Publisher
	logger       *zap.Logger
}

func NewTransferService(
	transferRepo repositories.TransferRepositoryInterface,
	resourceRepo repositories.ResourceRepositoryInterface,
	txManager repositories.TxManagerInterface,
	scope *authz.Scope,
	bus eventbus.Publisher,
	logger *zap.Logger,
) TransferServiceInterface {
	return &TransferService{
		transferRepo: transferRepo,
		resourceRepo: resourceRepo,
		txManager:    txManager,
		scope:        scope,
		bus:          bus,
		logger:       logger.Named("transfers"),
	}
}

// Create moves quantity units from the source resource to a matching
// resource in the target department, creating that resource if needed.
// Quantities change right away; the transfer row stays pending.
func (s *TransferService) Create(ctx context.Context, payload dto.CreateTransferDTO) (*dto.TransferResultDTO, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(authz.TransferInitiators...) {
		return nil, apperrors.NewForbiddenError("You are not allowed to transfer resources")
	}

	from := strings.TrimSpace(payload.FromDepartment)
	to := strings.TrimSpace(payload.ToDepartment)
	if from == "" || to == "" || payload.Reason == "" || payload.ResourceID == 0 {
		return nil, apperrors.NewBadRequestError("Resource, departments, quantity and reason are required")
	}
	if payload.Quantity <= 0 {
		return nil, apperrors.NewBadRequestError("Quantity must be positive")
	}
	if from == to {
		return nil, apperrors.NewBadRequestError("Source and target departments must differ")
	}
	if actor.Role == constants.RoleDepartmentHead && actor.Department.String != from {
		return nil, apperrors.NewForbiddenError("You can only transfer resources from your own department")
	}

	transfer := &entities.ResourceTransfer{
		ResourceID:     payload.ResourceID,
		FromDepartment: from,
		ToDepartment:   to,
		Quantity:       payload.Quantity,
		Reason:         payload.Reason,
		RequestedBy:    actor.ID,
		Status:         constants.TransferStatusPending,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		source, err := s.resourceRepo.FindByIDForUpdate(ctx, tx, payload.ResourceID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError("Resource not found")
			}
			return err
		}
		if !source.IsActive {
			return apperrors.NewNotFoundError("Resource not found")
		}
		if !source.Department.Valid || source.Department.String != from {
			return apperrors.NewBadRequestError("Resource does not belong to the source department")
		}

		ok, err := s.resourceRepo.DecrementQuantity(ctx, tx, source.ID, payload.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NewBadRequestError("Insufficient quantity")
		}

		targetID, err := s.creditTarget(ctx, tx, source, to, payload.Quantity, actor.ID)
		if err != nil {
			return err
		}
		transfer.TargetResourceID = null.Uint64From(targetID)

		_, err = s.transferRepo.Create(ctx, tx, transfer)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer created",
		zap.Uint64("transfer_id", transfer.ID),
		zap.Uint64("resource_id", transfer.ResourceID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("quantity", transfer.Quantity))
	s.bus.Publish(ctx, events.TransferCreatedEvent{Transfer: *transfer})

	return &dto.TransferResultDTO{Transfer: transfer, Message: transferInitiatedMessage}, nil
}

// creditTarget increments the same-named resource in the target department
// or inserts a copy of the source there.
func (s *TransferService) creditTarget(ctx context.Context, tx pgx.Tx, source *entities.Resource, department string, quantity int, actorID uint64) (uint64, error) {
	target, err := s.resourceRepo.FindActiveByNameAndDepartment(ctx, tx, source.Name, department)
	switch {
	case err == nil:
		if err := s.resourceRepo.IncrementQuantity(ctx, tx, target.ID, quantity); err != nil {
			return 0, err
		}
		return target.ID, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return 0, err
	}

	created := &entities.Resource{
		Name:           source.Name,
		Description:    source.Description,
		Type:           source.Type,
		Category:       source.Category,
		Location:       source.Location,
		Status:         constants.ResourceStatusAvailable,
		Department:     null.StringFrom(department),
		Quantity:       quantity,
		Specifications: source.Specifications,
		CreatedBy:      null.Uint64From(actorID),
	}
	return s.resourceRepo.Create(ctx, tx, created)
}

func (s *TransferService) List(ctx context.Context) ([]entities.ResourceTransfer, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	return s.transferRepo.ListByDepartments(ctx, s.scope.TransferDepartments(actor))
}

func (s *TransferService) ListByDepartment(ctx context.Context, department string) ([]entities.ResourceTransfer, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if visible := s.scope.TransferDepartments(actor); visible != nil && !slices.Contains(visible, department) {
		return nil, apperrors.NewForbiddenError("You can only view transfers of your own department")
	}
	return s.transferRepo.ListByDepartments(ctx, []string{department})
}

package services

import (
	"context"
	"strings"
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

type ResourceServiceInterface interface {
	GetAll(ctx context.Context, filter types.Filter) ([]entities.Resource, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Resource, error)
	Create(ctx context.Context, payload dto.CreateResourceDTO) (*entities.Resource, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateResourceDTO) (*entities.Resource, error)
	Delete(ctx context.Context, id uint64) error
	AddMaintenance(ctx context.Context, id uint64, payload dto.MaintenanceDTO) (*entities.Resource, error)
	Export(ctx context.Context, filter types.Filter) ([]entities.Resource, error)
}

type ResourceService struct {
	resourceRepo repositories.ResourceRepositoryInterface
	txManager    repositories.TxManagerInterface
	scope        *authz.Scope
	bus          eventbus.Publisher
	logger       *zap.Logger
}

func NewResourceService(
	resourceRepo repositories.ResourceRepositoryInterface,
	txManager repositories.TxManagerInterface,
	scope *authz.Scope,
	bus eventbus.Publisher,
	logger *zap.Logger,
) ResourceServiceInterface {
	return &ResourceService{
		resourceRepo: resourceRepo,
		txManager:    txManager,
		scope:        scope,
		bus:          bus,
		logger:       logger.Named("resources"),
	}
}

func iotOnlyError() error {
	return apperrors.NewForbiddenError("IoT Asset Manager can only manage IoT devices")
}

// GetAll applies department scoping. Only administrators may filter by an
// arbitrary department.
func (s *ResourceService) GetAll(ctx context.Context, filter types.Filter) ([]entities.Resource, uint64, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !actor.IsAdmin() && filter.Filter != nil {
		delete(filter.Filter, "department")
	}
	return s.resourceRepo.GetAll(ctx, filter, s.scope.ResourceDepartments(actor))
}

func (s *ResourceService) FindByID(ctx context.Context, id uint64) (*entities.Resource, error) {
	res, err := s.resourceRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !res.IsActive {
		return nil, apperrors.NewNotFoundError("Resource not found")
	}
	return res, nil
}

func (s *ResourceService) Create(ctx context.Context, payload dto.CreateResourceDTO) (*entities.Resource, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if !s.scope.CanManageResource(actor, payload.Type) {
		return nil, iotOnlyError()
	}

	res := &entities.Resource{
		Name:        strings.TrimSpace(payload.Name),
		Description: payload.Description,
		Type:        payload.Type,
		Category:    payload.Category,
		Location: entities.Location{
			Building: payload.Location.Building,
			Room:     payload.Location.Room,
		},
		Status:         constants.ResourceStatusAvailable,
		Quantity:       1,
		Specifications: payload.Specifications,
		CreatedBy:      null.Uint64From(actor.ID),
	}
	if d := strings.TrimSpace(payload.Department); d != "" {
		res.Department = null.StringFrom(d)
	}
	if payload.Status.Valid {
		res.Status = payload.Status.String
	}
	if payload.Quantity.Valid {
		res.Quantity = payload.Quantity.Int
	}
	if err := validateResource(res); err != nil {
		return nil, err
	}

	if _, err := s.resourceRepo.Create(ctx, nil, res); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ResourceCreated, res, actor.ID)
	return res, nil
}

// validateResource repeats the storage constraints with client-facing messages.
func validateResource(res *entities.Resource) error {
	if res.Type != constants.ResourceTypeClassroom && !res.Department.Valid {
		return apperrors.NewBadRequestError("Department is required unless the resource is a classroom")
	}
	if res.Quantity < 0 {
		return apperrors.NewBadRequestError("Quantity cannot be negative")
	}
	if res.Status == constants.ResourceStatusReserved && res.CurrentAssignment == nil {
		return apperrors.NewBadRequestError("A resource can only be reserved through an approved request")
	}
	return nil
}

func (s *ResourceService) Update(ctx context.Context, id uint64, payload dto.UpdateResourceDTO) (*entities.Resource, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var res *entities.Resource
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.resourceRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return apperrors.NewNotFoundError("Resource not found")
		}
		if !s.scope.CanManageResource(actor, current.Type) {
			return iotOnlyError()
		}
		if payload.Type.Valid && !s.scope.CanManageResource(actor, payload.Type.String) {
			return iotOnlyError()
		}

		applyResourceUpdate(current, payload)
		if err := validateResource(current); err != nil {
			return err
		}
		if err := s.resourceRepo.Update(ctx, tx, current); err != nil {
			return err
		}
		res = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ResourceUpdated, res, actor.ID)
	return s.resourceRepo.FindByID(ctx, nil, id)
}

func applyResourceUpdate(res *entities.Resource, p dto.UpdateResourceDTO) {
	if p.Name.Valid {
		res.Name = strings.TrimSpace(p.Name.String)
	}
	if p.Description.Valid {
		res.Description = p.Description.String
	}
	if p.Type.Valid {
		res.Type = p.Type.String
	}
	if p.Category.Valid {
		res.Category = p.Category.String
	}
	if p.Location != nil {
		res.Location = entities.Location{Building: p.Location.Building, Room: p.Location.Room}
	}
	if p.Status.Valid {
		res.Status = p.Status.String
	}
	if p.Department.Valid {
		if d := strings.TrimSpace(p.Department.String); d != "" {
			res.Department = null.StringFrom(d)
		} else {
			res.Department = null.String{}
		}
	}
	if p.Quantity.Valid {
		res.Quantity = p.Quantity.Int
	}
	if p.Specifications != nil {
		res.Specifications = p.Specifications
	}
}

func (s *ResourceService) Delete(ctx context.Context, id uint64) error {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return err
	}
	if err := s.resourceRepo.SoftDelete(ctx, nil, id); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.ResourceChangedEvent{Action: events.ResourceDeleted, ResourceID: id, ChangedBy: actor.ID})
	return nil
}

// AddMaintenance appends to the history and sets the status, available by default.
func (s *ResourceService) AddMaintenance(ctx context.Context, id uint64, payload dto.MaintenanceDTO) (*entities.Resource, error) {
	actor, err := utils.GetUserFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	status := constants.ResourceStatusAvailable
	if payload.Status.Valid {
		status = payload.Status.String
	}
	if status == constants.ResourceStatusReserved {
		return nil, apperrors.NewBadRequestError("A resource can only be reserved through an approved request")
	}
	record := entities.MaintenanceRecord{
		Date:        time.Now().UTC(),
		Description: strings.TrimSpace(payload.Description),
		Technician:  payload.Technician,
	}
	if payload.Date.Valid {
		record.Date = payload.Date.Time
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		res, err := s.resourceRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !res.IsActive {
			return apperrors.NewNotFoundError("Resource not found")
		}
		return s.resourceRepo.AddMaintenance(ctx, tx, id, record, status)
	})
	if err != nil {
		return nil, err
	}

	res, err := s.resourceRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ResourceMaintenance, res, actor.ID)
	return res, nil
}

// Export returns every visible resource matching the filter, unpaginated.
func (s *ResourceService) Export(ctx context.Context, filter types.Filter) ([]entities.Resource, error) {
	filter.WithPagination = false
	list, _, err := s.GetAll(ctx, filter)
	return list, err
}

func (s *ResourceService) publish(ctx context.Context, action string, res *entities.Resource, actorID uint64) {
	s.bus.Publish(ctx, events.ResourceChangedEvent{
		Action:     action,
		ResourceID: res.ID,
		Status:     res.Status,
		ChangedBy:  actorID,
	})
}

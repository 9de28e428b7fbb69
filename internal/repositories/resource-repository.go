package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resource-system/internal/entities"
	db "resource-system/internal/infrastructure/bd"
	"resource-system/pkg/types"
)

const (
	resourceTable  = "resources"
	resourceFields = `id, name, description, type, category, building, room, status, department, quantity,
		specifications, assigned_user_id, assigned_start, assigned_end, is_active, created_by, created_at, updated_at`
)

var allowedResourceFilters = map[string]string{
	"type":       "type",
	"status":     "status",
	"category":   "category",
	"department": "department",
	"building":   "building",
}

var allowedResourceSortFields = map[string]string{
	"id":         "id",
	"name":       "name",
	"type":       "type",
	"status":     "status",
	"quantity":   "quantity",
	"created_at": "created_at",
}

type ResourceRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Resource, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Resource, error)
	FindActiveByNameAndDepartment(ctx context.Context, tx pgx.Tx, name, department string) (*entities.Resource, error)
	GetAll(ctx context.Context, filter types.Filter, departments []string) ([]entities.Resource, uint64, error)
	Create(ctx context.Context, tx pgx.Tx, res *entities.Resource) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, res *entities.Resource) error
	SoftDelete(ctx context.Context, tx pgx.Tx, id uint64) error
	AddMaintenance(ctx context.Context, tx pgx.Tx, id uint64, record entities.MaintenanceRecord, status string) error
	Reserve(ctx context.Context, tx pgx.Tx, id uint64, assignment entities.Assignment) error
	Release(ctx context.Context, tx pgx.Tx, id uint64, assignment entities.Assignment) (bool, error)
	DecrementQuantity(ctx context.Context, tx pgx.Tx, id uint64, quantity int) (bool, error)
	IncrementQuantity(ctx context.Context, tx pgx.Tx, id uint64, quantity int) error
}

type resourceRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewResourceRepository(storage *pgxpool.Pool, logger *zap.Logger) ResourceRepositoryInterface {
	return &resourceRepository{storage: storage, logger: logger}
}

func (r *resourceRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanResource(row pgx.Row) (*entities.Resource, error) {
	var (
		res           entities.Resource
		assignedUser  null.Uint64
		assignedStart null.Time
		assignedEnd   null.Time
	)
	err := row.Scan(
		&res.ID, &res.Name, &res.Description, &res.Type, &res.Category,
		&res.Location.Building, &res.Location.Room, &res.Status, &res.Department, &res.Quantity,
		&res.Specifications, &assignedUser, &assignedStart, &assignedEnd,
		&res.IsActive, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, translatePgError(err, "scan resource")
	}
	if assignedUser.Valid {
		res.CurrentAssignment = &entities.Assignment{
			UserID:    assignedUser.Uint64,
			StartTime: assignedStart.Time,
			EndTime:   assignedEnd.Time,
		}
	}
	if res.Specifications == nil {
		res.Specifications = map[string]interface{}{}
	}
	res.MaintenanceHistory = []entities.MaintenanceRecord{}
	return &res, nil
}

func (r *resourceRepository) findOne(ctx context.Context, q Querier, where sq.Sqlizer, suffix string) (*entities.Resource, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(resourceFields).From(resourceTable).Where(where).Limit(1)
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build resource query: %w", err)
	}
	return scanResource(q.QueryRow(ctx, query, args...))
}

func (r *resourceRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Resource, error) {
	q := r.getQuerier(tx)
	res, err := r.findOne(ctx, q, sq.Eq{"id": id}, "")
	if err != nil {
		return nil, err
	}
	if res.MaintenanceHistory, err = r.loadMaintenance(ctx, q, id); err != nil {
		return nil, err
	}
	return res, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *resourceRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Resource, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"id": id}, "FOR UPDATE")
}

func (r *resourceRepository) FindActiveByNameAndDepartment(ctx context.Context, tx pgx.Tx, name, department string) (*entities.Resource, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"name": name, "department": department, "is_active": true}, "FOR UPDATE")
}

func (r *resourceRepository) loadMaintenance(ctx context.Context, q Querier, resourceID uint64) ([]entities.MaintenanceRecord, error) {
	rows, err := q.Query(ctx,
		`SELECT id, date, description, technician FROM resource_maintenance WHERE resource_id = $1 ORDER BY date, id`,
		resourceID)
	if err != nil {
		return nil, translatePgError(err, "load maintenance")
	}
	defer rows.Close()

	history := make([]entities.MaintenanceRecord, 0)
	for rows.Next() {
		var m entities.MaintenanceRecord
		if err := rows.Scan(&m.ID, &m.Date, &m.Description, &m.Technician); err != nil {
			return nil, translatePgError(err, "scan maintenance")
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

// GetAll lists active resources. A non-nil departments slice restricts the
// result to those departments plus shared resources without a department.
func (r *resourceRepository) GetAll(ctx context.Context, filter types.Filter, departments []string) ([]entities.Resource, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	apply := func(b sq.SelectBuilder) sq.SelectBuilder {
		b = b.Where(sq.Eq{"is_active": true})
		b = db.ApplyFilters(b, filter, allowedResourceFilters)
		b = db.ApplySearch(b, filter.Search, "name", "description", "building", "room")
		if departments != nil {
			b = b.Where(sq.Or{sq.Eq{"department": departments}, sq.Eq{"department": nil}})
		}
		return b
	}

	countQuery, countArgs, err := apply(psql.Select("COUNT(*)").From(resourceTable)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build resource count: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, translatePgError(err, "count resources")
	}
	if total == 0 {
		return []entities.Resource{}, 0, nil
	}

	builder := db.ApplyListParams(apply(psql.Select(resourceFields).From(resourceTable)), filter, allowedResourceSortFields, "name ASC")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build resource list: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translatePgError(err, "list resources")
	}
	defer rows.Close()

	list := make([]entities.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translatePgError(err, "iterate resources")
	}
	return list, total, nil
}

func (r *resourceRepository) Create(ctx context.Context, tx pgx.Tx, res *entities.Resource) (uint64, error) {
	if res.Specifications == nil {
		res.Specifications = map[string]interface{}{}
	}
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(resourceTable).
		Columns("name", "description", "type", "category", "building", "room", "status", "department",
			"quantity", "specifications", "is_active", "created_by").
		Values(res.Name, res.Description, res.Type, res.Category, res.Location.Building, res.Location.Room,
			res.Status, res.Department, res.Quantity, res.Specifications, true, res.CreatedBy).
		Suffix("RETURNING id, is_active, created_at, updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build resource insert: %w", err)
	}
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&res.ID, &res.IsActive, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return 0, translatePgError(err, "create resource")
	}
	if res.MaintenanceHistory == nil {
		res.MaintenanceHistory = []entities.MaintenanceRecord{}
	}
	return res.ID, nil
}

// Update writes catalog fields. Assignment changes go through Reserve and Release.
func (r *resourceRepository) Update(ctx context.Context, tx pgx.Tx, res *entities.Resource) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(resourceTable).
		Set("name", res.Name).
		Set("description", res.Description).
		Set("type", res.Type).
		Set("category", res.Category).
		Set("building", res.Location.Building).
		Set("room", res.Location.Room).
		Set("status", res.Status).
		Set("department", res.Department).
		Set("quantity", res.Quantity).
		Set("specifications", res.Specifications).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": res.ID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build resource update: %w", err)
	}
	return execAffectingOne(ctx, r.getQuerier(tx), query, args, "update resource")
}

func (r *resourceRepository) SoftDelete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return execAffectingOne(ctx, r.getQuerier(tx),
		`UPDATE resources SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`,
		[]interface{}{id}, "delete resource")
}

func (r *resourceRepository) AddMaintenance(ctx context.Context, tx pgx.Tx, id uint64, record entities.MaintenanceRecord, status string) error {
	q := r.getQuerier(tx)
	if _, err := q.Exec(ctx,
		`INSERT INTO resource_maintenance (resource_id, date, description, technician) VALUES ($1, $2, $3, $4)`,
		id, record.Date, record.Description, record.Technician); err != nil {
		return translatePgError(err, "insert maintenance")
	}
	return execAffectingOne(ctx, r.getQuerier(tx),
		`UPDATE resources SET status = $1, updated_at = NOW() WHERE id = $2 AND is_active`,
		[]interface{}{status, id}, "update maintenance status")
}

// Reserve sets the assignment and the reserved status in one statement.
func (r *resourceRepository) Reserve(ctx context.Context, tx pgx.Tx, id uint64, a entities.Assignment) error {
	return execAffectingOne(ctx, r.getQuerier(tx),
		`UPDATE resources
		    SET status = 'reserved', assigned_user_id = $1, assigned_start = $2, assigned_end = $3, updated_at = NOW()
		  WHERE id = $4`,
		[]interface{}{a.UserID, a.StartTime, a.EndTime, id}, "reserve resource")
}

// Release clears the assignment only while it still matches a, so a newer
// booking is never wiped by cancelling an older one.
func (r *resourceRepository) Release(ctx context.Context, tx pgx.Tx, id uint64, a entities.Assignment) (bool, error) {
	tag, err := r.getQuerier(tx).Exec(ctx,
		`UPDATE resources
		    SET status = 'available', assigned_user_id = NULL, assigned_start = NULL, assigned_end = NULL, updated_at = NOW()
		  WHERE id = $1 AND assigned_user_id = $2 AND assigned_start = $3 AND assigned_end = $4`,
		id, a.UserID, a.StartTime, a.EndTime)
	if err != nil {
		return false, translatePgError(err, "release resource")
	}
	return tag.RowsAffected() > 0, nil
}

// DecrementQuantity returns false when the resource holds less than quantity.
func (r *resourceRepository) DecrementQuantity(ctx context.Context, tx pgx.Tx, id uint64, quantity int) (bool, error) {
	tag, err := r.getQuerier(tx).Exec(ctx,
		`UPDATE resources SET quantity = quantity - $1, updated_at = NOW() WHERE id = $2 AND is_active AND quantity >= $1`,
		quantity, id)
	if err != nil {
		return false, translatePgError(err, "decrement quantity")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *resourceRepository) IncrementQuantity(ctx context.Context, tx pgx.Tx, id uint64, quantity int) error {
	return execAffectingOne(ctx, r.getQuerier(tx),
		`UPDATE resources SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2`,
		[]interface{}{quantity, id}, "increment quantity")
}

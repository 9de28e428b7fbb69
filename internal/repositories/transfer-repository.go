package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resource-system/internal/entities"
)

const (
	transferTable  = "resource_transfers"
	transferFields = "id, resource_id, target_resource_id, from_department, to_department, quantity, reason, requested_by, status, approved_by, approval_date, created_at"
)

type TransferRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, transfer *entities.ResourceTransfer) (uint64, error)
	// ListByDepartments returns transfers touching any of the departments.
	// A nil slice means every transfer.
	ListByDepartments(ctx context.Context, departments []string) ([]entities.ResourceTransfer, error)
}

type transferRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTransferRepository(storage *pgxpool.Pool, logger *zap.Logger) TransferRepositoryInterface {
	return &transferRepository{storage: storage, logger: logger}
}

func (r *transferRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *transferRepository) Create(ctx context.Context, tx pgx.Tx, t *entities.ResourceTransfer) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(transferTable).
		Columns("resource_id", "target_resource_id", "from_department", "to_department", "quantity", "reason", "requested_by", "status").
		Values(t.ResourceID, t.TargetResourceID, t.FromDepartment, t.ToDepartment, t.Quantity, t.Reason, t.RequestedBy, t.Status).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build transfer insert: %w", err)
	}
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&t.ID, &t.CreatedAt); err != nil {
		return 0, translatePgError(err, "create transfer")
	}
	return t.ID, nil
}

func (r *transferRepository) ListByDepartments(ctx context.Context, departments []string) ([]entities.ResourceTransfer, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(transferFields).From(transferTable).OrderBy("created_at DESC", "id DESC")
	if departments != nil {
		builder = builder.Where(sq.Or{
			sq.Eq{"from_department": departments},
			sq.Eq{"to_department": departments},
		})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transfer list: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err, "list transfers")
	}
	defer rows.Close()

	list := make([]entities.ResourceTransfer, 0)
	for rows.Next() {
		var t entities.ResourceTransfer
		if err := rows.Scan(&t.ID, &t.ResourceID, &t.TargetResourceID, &t.FromDepartment, &t.ToDepartment,
			&t.Quantity, &t.Reason, &t.RequestedBy, &t.Status, &t.ApprovedBy, &t.ApprovalDate, &t.CreatedAt); err != nil {
			return nil, translatePgError(err, "scan transfer")
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, "iterate transfers")
	}
	return list, nil
}

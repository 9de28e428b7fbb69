package repositories

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resource-system/internal/entities"
	db "resource-system/internal/infrastructure/bd"
	"resource-system/pkg/constants"
	"resource-system/pkg/types"
)

const (
	requestTable  = "requests"
	requestFields = "id, requestor_id, resource_id, start_time, end_time, purpose, status, department, priority, created_at, updated_at"
)

var allowedRequestSortFields = map[string]string{
	"id":         "id",
	"start_time": "start_time",
	"end_time":   "end_time",
	"status":     "status",
	"priority":   "priority",
	"created_at": "created_at",
}

type RequestRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, req *entities.Request) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error)
	HasOverlap(ctx context.Context, tx pgx.Tx, resourceID uint64, start, end time.Time) (bool, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	AppendApproval(ctx context.Context, tx pgx.Tx, id uint64, entry entities.ApprovalEntry) error
	GetAll(ctx context.Context, filter entities.RequestFilter, page types.Filter) ([]entities.Request, uint64, error)
}

type requestRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRequestRepository(storage *pgxpool.Pool, logger *zap.Logger) RequestRepositoryInterface {
	return &requestRepository{storage: storage, logger: logger}
}

func (r *requestRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanRequest(row pgx.Row) (*entities.Request, error) {
	var req entities.Request
	err := row.Scan(
		&req.ID, &req.RequestorID, &req.ResourceID, &req.StartTime, &req.EndTime,
		&req.Purpose, &req.Status, &req.Department, &req.Priority, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, translatePgError(err, "scan request")
	}
	return &req, nil
}

// Create inserts the request together with its initial pending chain entry.
func (r *requestRepository) Create(ctx context.Context, tx pgx.Tx, req *entities.Request) (uint64, error) {
	q := r.getQuerier(tx)
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(requestTable).
		Columns("requestor_id", "resource_id", "start_time", "end_time", "purpose", "status", "department", "priority").
		Values(req.RequestorID, req.ResourceID, req.StartTime, req.EndTime, req.Purpose, req.Status, req.Department, req.Priority).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build request insert: %w", err)
	}
	if err := q.QueryRow(ctx, query, args...).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return 0, translatePgError(err, "create request")
	}

	for _, entry := range req.ApprovalChain {
		if err := r.AppendApproval(ctx, tx, req.ID, entry); err != nil {
			return 0, err
		}
	}
	return req.ID, nil
}

func (r *requestRepository) find(ctx context.Context, tx pgx.Tx, id uint64, suffix string) (*entities.Request, error) {
	q := r.getQuerier(tx)
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(requestFields).From(requestTable).Where(sq.Eq{"id": id})
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build request query: %w", err)
	}
	req, err := scanRequest(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	chains, err := r.loadChains(ctx, q, []uint64{req.ID})
	if err != nil {
		return nil, err
	}
	req.ApprovalChain = chains[req.ID]
	return req, nil
}

func (r *requestRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error) {
	return r.find(ctx, tx, id, "")
}

// FindByIDForUpdate locks the request row for the rest of the transaction.
func (r *requestRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error) {
	return r.find(ctx, tx, id, "FOR UPDATE")
}

// overlapQuery selects whether a pending or approved booking of the resource
// intersects the half-open window [start, end). Touching windows do not.
func overlapQuery(resourceID uint64, start, end time.Time) (string, []interface{}, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	inner, args, err := psql.Select("1").From(requestTable).
		Where(sq.Eq{
			"resource_id": resourceID,
			"status":      []string{constants.RequestStatusPending, constants.RequestStatusApproved},
		}).
		Where(sq.Lt{"start_time": end}).
		Where(sq.Gt{"end_time": start}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", nil, err
	}
	return "SELECT EXISTS (" + inner + ")", args, nil
}

func (r *requestRepository) HasOverlap(ctx context.Context, tx pgx.Tx, resourceID uint64, start, end time.Time) (bool, error) {
	query, args, err := overlapQuery(resourceID, start, end)
	if err != nil {
		return false, fmt.Errorf("build overlap query: %w", err)
	}

	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, translatePgError(err, "check overlap")
	}
	return exists, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	return execAffectingOne(ctx, r.getQuerier(tx),
		`UPDATE requests SET status = $1, updated_at = NOW() WHERE id = $2`,
		[]interface{}{status, id}, "update request status")
}

func (r *requestRepository) AppendApproval(ctx context.Context, tx pgx.Tx, id uint64, entry entities.ApprovalEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := r.getQuerier(tx).Exec(ctx,
		`INSERT INTO request_approvals (request_id, approver_id, status, comment, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, entry.ApproverID, entry.Status, entry.Comment, ts)
	if err != nil {
		return translatePgError(err, "append approval")
	}
	return nil
}

func (r *requestRepository) loadChains(ctx context.Context, q Querier, ids []uint64) (map[uint64][]entities.ApprovalEntry, error) {
	result := make(map[uint64][]entities.ApprovalEntry, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	for _, id := range ids {
		result[id] = []entities.ApprovalEntry{}
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select("request_id", "approver_id", "status", "comment", "created_at").
		From("request_approvals").
		Where(sq.Eq{"request_id": ids}).
		OrderBy("request_id", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build approvals query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err, "load approvals")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			requestID uint64
			entry     entities.ApprovalEntry
		)
		if err := rows.Scan(&requestID, &entry.ApproverID, &entry.Status, &entry.Comment, &entry.Timestamp); err != nil {
			return nil, translatePgError(err, "scan approval")
		}
		result[requestID] = append(result[requestID], entry)
	}
	return result, rows.Err()
}

func applyRequestFilter(b sq.SelectBuilder, f entities.RequestFilter) sq.SelectBuilder {
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if f.Department != "" {
		b = b.Where(sq.Eq{"department": f.Department})
	}
	if f.Departments != nil {
		b = b.Where(sq.Eq{"department": f.Departments})
	}
	if f.RequestorID != 0 {
		b = b.Where(sq.Eq{"requestor_id": f.RequestorID})
	}
	if f.ResourceID != 0 {
		b = b.Where(sq.Eq{"resource_id": f.ResourceID})
	}
	if f.StartDate != nil {
		b = b.Where(sq.GtOrEq{"start_time": *f.StartDate})
	}
	if f.EndDate != nil {
		b = b.Where(sq.LtOrEq{"start_time": *f.EndDate})
	}
	return b
}

func (r *requestRepository) GetAll(ctx context.Context, filter entities.RequestFilter, page types.Filter) ([]entities.Request, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countQuery, countArgs, err := applyRequestFilter(psql.Select("COUNT(*)").From(requestTable), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build request count: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, translatePgError(err, "count requests")
	}
	if total == 0 {
		return []entities.Request{}, 0, nil
	}

	builder := applyRequestFilter(psql.Select(requestFields).From(requestTable), filter)
	builder = db.ApplyListParams(builder, page, allowedRequestSortFields, "created_at DESC")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build request list: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translatePgError(err, "list requests")
	}
	list := make([]entities.Request, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		list = append(list, *req)
		ids = append(ids, req.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, translatePgError(err, "iterate requests")
	}

	chains, err := r.loadChains(ctx, r.storage, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].ApprovalChain = chains[list[i].ID]
	}
	return list, total, nil
}

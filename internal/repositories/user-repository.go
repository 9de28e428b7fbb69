package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resource-system/internal/entities"
	db "resource-system/internal/infrastructure/bd"
	"resource-system/pkg/types"
)

const (
	userTable  = "users"
	userFields = "id, full_name, email, password, role, department, school, phone_number, profile_photo, status, is_active, last_login, created_at, updated_at"
)

var allowedUserFilters = map[string]string{
	"role":       "role",
	"status":     "status",
	"department": "department",
	"school":     "school",
	"is_active":  "is_active",
}

var allowedUserSortFields = map[string]string{
	"id":         "id",
	"full_name":  "full_name",
	"email":      "email",
	"created_at": "created_at",
	"last_login": "last_login",
}

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error)
	EmailExists(ctx context.Context, tx pgx.Tx, email string, excludeID uint64) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, user *entities.User) error
	UpdatePassword(ctx context.Context, tx pgx.Tx, id uint64, passwordHash string) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error
	UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error
	Deactivate(ctx context.Context, tx pgx.Tx, id uint64) error
	GetAll(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
}

type userRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &userRepository{storage: storage, logger: logger}
}

func (r *userRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.Password, &u.Role,
		&u.Department, &u.School, &u.PhoneNumber, &u.ProfilePhoto,
		&u.Status, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, translatePgError(err, "scan user")
	}
	return &u, nil
}

func (r *userRepository) findOne(ctx context.Context, q Querier, where sq.Sqlizer) (*entities.User, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(userFields).From(userTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}
	return scanUser(q.QueryRow(ctx, query, args...))
}

func (r *userRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"id": id})
}

// FindByEmail matches case-insensitively.
func (r *userRepository) FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Expr("LOWER(email) = LOWER(?)", strings.TrimSpace(email)))
}

func (r *userRepository) EmailExists(ctx context.Context, tx pgx.Tx, email string, excludeID uint64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`

	var exists bool
	if err := r.getQuerier(tx).QueryRow(ctx, query, strings.TrimSpace(email), excludeID).Scan(&exists); err != nil {
		return false, translatePgError(err, "check email")
	}
	return exists, nil
}

func (r *userRepository) Create(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(userTable).
		Columns("full_name", "email", "password", "role", "department", "school", "phone_number", "profile_photo", "status", "is_active").
		Values(user.FullName, strings.ToLower(strings.TrimSpace(user.Email)), user.Password, user.Role,
			user.Department, user.School, user.PhoneNumber, user.ProfilePhoto, user.Status, user.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build user insert: %w", err)
	}

	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return 0, translatePgError(err, "create user")
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return user.ID, nil
}

// Update writes profile and administrative fields. The password is never touched here.
func (r *userRepository) Update(ctx context.Context, tx pgx.Tx, user *entities.User) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(userTable).
		Set("full_name", user.FullName).
		Set("email", strings.ToLower(strings.TrimSpace(user.Email))).
		Set("role", user.Role).
		Set("department", user.Department).
		Set("school", user.School).
		Set("phone_number", user.PhoneNumber).
		Set("profile_photo", user.ProfilePhoto).
		Set("status", user.Status).
		Set("is_active", user.IsActive).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}
	return execAffectingOne(ctx, r.getQuerier(tx), query, args, "update user")
}

func (r *userRepository) UpdatePassword(ctx context.Context, tx pgx.Tx, id uint64, passwordHash string) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(userTable).
		Set("password", passwordHash).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build password update: %w", err)
	}
	return execAffectingOne(ctx, r.getQuerier(tx), query, args, "update password")
}

func (r *userRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(userTable).
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}
	return execAffectingOne(ctx, r.getQuerier(tx), query, args, "update user status")
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.storage.Exec(ctx, "UPDATE users SET last_login = $1 WHERE id = $2", at, id)
	if err != nil {
		return translatePgError(err, "update last login")
	}
	return nil
}

func (r *userRepository) Deactivate(ctx context.Context, tx pgx.Tx, id uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(userTable).
		Set("is_active", false).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deactivate: %w", err)
	}
	return execAffectingOne(ctx, r.getQuerier(tx), query, args, "deactivate user")
}

func (r *userRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(*)").From(userTable)
	countBuilder = db.ApplyFilters(countBuilder, filter, allowedUserFilters)
	countBuilder = db.ApplySearch(countBuilder, filter.Search, "full_name", "email")
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build user count: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, translatePgError(err, "count users")
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	builder := psql.Select(userFields).From(userTable)
	builder = db.ApplyFilters(builder, filter, allowedUserFilters)
	builder = db.ApplySearch(builder, filter.Search, "full_name", "email")
	builder = db.ApplyListParams(builder, filter, allowedUserSortFields, "created_at DESC")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build user list: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translatePgError(err, "list users")
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translatePgError(err, "iterate users")
	}
	return users, total, nil
}

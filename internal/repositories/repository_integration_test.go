package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resource-system/internal/entities"
	"resource-system/pkg/constants"
	"resource-system/pkg/database/postgresql"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/types"
)

var testPool *pgxpool.Pool

// TestMain connects to TEST_DATABASE_URL and applies the migrations. Without
// it the integration tests skip.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		if err := postgresql.UpMigrations(dsn); err != nil {
			fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
			os.Exit(1)
		}
		pool, err := postgresql.ConnectDB(context.Background(), dsn, 4, zap.NewNop())
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect test database: %v\n", err)
			os.Exit(1)
		}
		testPool = pool
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
}

func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE TABLE resource_transfers, request_approvals, requests, resource_maintenance, resources, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func seedUser(t *testing.T, repo UserRepositoryInterface, email, role, department string) *entities.User {
	t.Helper()
	u := &entities.User{
		FullName: "Test User",
		Email:    email,
		Password: "hash",
		Role:     role,
		Status:   constants.UserStatusApproved,
		IsActive: true,
	}
	if department != "" {
		u.Department = null.StringFrom(department)
	}
	_, err := repo.Create(context.Background(), nil, u)
	require.NoError(t, err)
	return u
}

func seedResource(t *testing.T, repo ResourceRepositoryInterface, name, department string, qty int) *entities.Resource {
	t.Helper()
	res := &entities.Resource{
		Name:       name,
		Type:       constants.ResourceTypeEquipment,
		Category:   constants.CategoryGeneral,
		Status:     constants.ResourceStatusAvailable,
		Department: null.StringFrom(department),
		Quantity:   qty,
	}
	_, err := repo.Create(context.Background(), nil, res)
	require.NoError(t, err)
	return res
}

func TestUserRepository_Integration_EmailIsCaseInsensitive(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := NewUserRepository(testPool, zap.NewNop())

	u := seedUser(t, repo, "Jane@Uni.edu", constants.RoleStaff, "CS")
	assert.Equal(t, "jane@uni.edu", u.Email)

	found, err := repo.FindByEmail(ctx, nil, "JANE@uni.EDU")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	exists, err := repo.EmailExists(ctx, nil, "jane@UNI.edu", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists(ctx, nil, "jane@uni.edu", u.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Create(ctx, nil, &entities.User{FullName: "Dup", Email: "JANE@uni.edu", Password: "x", Role: constants.RoleTechnicalTeam, Status: constants.UserStatusPending, IsActive: true})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	_, err = repo.FindByID(ctx, nil, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_Integration_ListFilters(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := NewUserRepository(testPool, zap.NewNop())

	seedUser(t, repo, "a@uni.edu", constants.RoleStaff, "CS")
	b := seedUser(t, repo, "b@uni.edu", constants.RoleStaff, "EE")
	require.NoError(t, repo.UpdateStatus(ctx, nil, b.ID, constants.UserStatusPending))

	list, total, err := repo.GetAll(ctx, types.Filter{Filter: map[string]string{"status": constants.UserStatusPending}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestResourceRepository_Integration_ReserveAndRelease(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	ctx := context.Background()
	users := NewUserRepository(testPool, zap.NewNop())
	repo := NewResourceRepository(testPool, zap.NewNop())

	u := seedUser(t, users, "staff@uni.edu", constants.RoleStaff, "CS")
	res := seedResource(t, repo, "Lab PC", "CS", 1)

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	first := entities.Assignment{UserID: u.ID, StartTime: start, EndTime: start.Add(time.Hour)}
	second := entities.Assignment{UserID: u.ID, StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour)}

	require.NoError(t, repo.Reserve(ctx, nil, res.ID, first))
	require.NoError(t, repo.Reserve(ctx, nil, res.ID, second))

	released, err := repo.Release(ctx, nil, res.ID, first)
	require.NoError(t, err)
	assert.False(t, released, "a stale assignment must not clear the newer one")

	released, err = repo.Release(ctx, nil, res.ID, second)
	require.NoError(t, err)
	assert.True(t, released)

	got, err := repo.FindByID(ctx, nil, res.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ResourceStatusAvailable, got.Status)
	assert.Nil(t, got.CurrentAssignment)
}

func TestResourceRepository_Integration_QuantityAndMaintenance(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := NewResourceRepository(testPool, zap.NewNop())
	res := seedResource(t, repo, "Chair", "CS", 3)

	ok, err := repo.DecrementQuantity(ctx, nil, res.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DecrementQuantity(ctx, nil, res.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.AddMaintenance(ctx, nil, res.ID, entities.MaintenanceRecord{
		Date: time.Now().UTC(), Description: "Fixed leg", Technician: null.StringFrom("Sam"),
	}, constants.ResourceStatusAvailable))

	got, err := repo.FindByID(ctx, nil, res.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Quantity)
	require.Len(t, got.MaintenanceHistory, 1)
	assert.Equal(t, "Fixed leg", got.MaintenanceHistory[0].Description)

	require.NoError(t, repo.SoftDelete(ctx, nil, res.ID))
	_, err = repo.FindActiveByNameAndDepartment(ctx, nil, "Chair", "CS")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRequestRepository_Integration_OverlapAndChain(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	ctx := context.Background()
	users := NewUserRepository(testPool, zap.NewNop())
	resources := NewResourceRepository(testPool, zap.NewNop())
	repo := NewRequestRepository(testPool, zap.NewNop())
	txm := NewTxManager(testPool)

	u := seedUser(t, users, "staff@uni.edu", constants.RoleStaff, "CS")
	res := seedResource(t, resources, "Room PC", "CS", 1)
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	req := &entities.Request{
		RequestorID:   u.ID,
		ResourceID:    res.ID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Purpose:       "Lab",
		Status:        constants.RequestStatusPending,
		Department:    null.StringFrom("CS"),
		Priority:      constants.PriorityMedium,
		ApprovalChain: []entities.ApprovalEntry{{Status: constants.RequestStatusPending}},
	}
	err := txm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		_, err := repo.Create(ctx, tx, req)
		return err
	})
	require.NoError(t, err)

	overlap, err := repo.HasOverlap(ctx, nil, res.ID, start.Add(30*time.Minute), start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, overlap)

	overlap, err = repo.HasOverlap(ctx, nil, res.ID, start.Add(time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, overlap)

	require.NoError(t, repo.AppendApproval(ctx, nil, req.ID, entities.ApprovalEntry{
		ApproverID: null.Uint64From(u.ID), Status: constants.RequestStatusRejected,
	}))
	require.NoError(t, repo.UpdateStatus(ctx, nil, req.ID, constants.RequestStatusRejected))

	got, err := repo.FindByID(ctx, nil, req.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusRejected, got.Status)
	assert.Len(t, got.ApprovalChain, 2)

	overlap, err = repo.HasOverlap(ctx, nil, res.ID, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, overlap, "rejected requests do not hold the slot")

	list, total, err := repo.GetAll(ctx, entities.RequestFilter{Departments: []string{"EE"}}, types.Filter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestTxManager_Integration_RollsBackOnError(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := NewResourceRepository(testPool, zap.NewNop())
	txm := NewTxManager(testPool)
	res := seedResource(t, repo, "Desk", "CS", 5)

	err := txm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := repo.DecrementQuantity(ctx, tx, res.ID, 2); err != nil {
			return err
		}
		return apperrors.NewBadRequestError("abort")
	})
	require.Error(t, err)

	got, err := repo.FindByID(ctx, nil, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
}

func TestTxManager_Integration_RetriesDeadlock(t *testing.T) {
	requireDB(t)
	cleanupTables(t)
	ctx := context.Background()
	repo := NewResourceRepository(testPool, zap.NewNop())
	txm := NewTxManager(testPool)
	res := seedResource(t, repo, "Chair", "CS", 5)

	attempts := 0
	err := txm.RunInTransaction(ctx, func(tx pgx.Tx) error {
		attempts++
		if _, err := repo.DecrementQuantity(ctx, tx, res.ID, 1); err != nil {
			return err
		}
		if attempts == 1 {
			return &pgconn.PgError{Code: pgDeadlockDetected}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	got, err := repo.FindByID(ctx, nil, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
}

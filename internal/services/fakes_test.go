package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"resource-system/internal/entities"
	"resource-system/pkg/constants"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/eventbus"
	"resource-system/pkg/types"
	"resource-system/pkg/utils"
)

func actorCtx(user *entities.User) context.Context {
	return utils.WithUser(context.Background(), user)
}

// fakeTx runs the callback without a real transaction.
type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, event eventbus.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Name())
	}
	return out
}

// users

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint64]entities.User{}}
}

func (r *fakeUserRepo) add(u entities.User) *entities.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	u.Email = strings.ToLower(u.Email)
	r.users[u.ID] = u
	return &u
}

func (r *fakeUserRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, _ pgx.Tx, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) EmailExists(_ context.Context, _ pgx.Tx, email string, excludeID uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Create(_ context.Context, _ pgx.Tx, user *entities.User) (uint64, error) {
	created := r.add(*user)
	user.ID = created.ID
	user.Email = created.Email
	return user.ID, nil
}

func (r *fakeUserRepo) Update(_ context.Context, _ pgx.Tx, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	updated := *user
	updated.Password = current.Password
	r.users[user.ID] = updated
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, _ pgx.Tx, id uint64, hash string) error {
	return r.mutate(id, func(u *entities.User) { u.Password = hash })
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, _ pgx.Tx, id uint64, status string) error {
	return r.mutate(id, func(u *entities.User) { u.Status = status })
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uint64, at time.Time) error {
	return r.mutate(id, func(u *entities.User) { u.LastLogin.SetValid(at) })
}

func (r *fakeUserRepo) Deactivate(_ context.Context, _ pgx.Tx, id uint64) error {
	return r.mutate(id, func(u *entities.User) { u.IsActive = false })
}

func (r *fakeUserRepo) mutate(id uint64, fn func(u *entities.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) GetAll(_ context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.User, 0)
	for _, u := range r.users {
		if v, ok := filter.Filter["status"]; ok && u.Status != v {
			continue
		}
		if v, ok := filter.Filter["department"]; ok && u.Department.String != v {
			continue
		}
		if v, ok := filter.Filter["is_active"]; ok && strconv.FormatBool(u.IsActive) != v {
			continue
		}
		out = append(out, u)
	}
	return out, uint64(len(out)), nil
}

// resources

type fakeResourceRepo struct {
	mu        sync.Mutex
	nextID    uint64
	resources map[uint64]entities.Resource
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: map[uint64]entities.Resource{}}
}

func (r *fakeResourceRepo) add(res entities.Resource) *entities.Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	res.ID = r.nextID
	res.IsActive = true
	if res.Status == "" {
		res.Status = constants.ResourceStatusAvailable
	}
	r.resources[res.ID] = res
	return &res
}

func (r *fakeResourceRepo) get(id uint64) entities.Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resources[id]
}

func (r *fakeResourceRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &res, nil
}

func (r *fakeResourceRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Resource, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeResourceRepo) FindActiveByNameAndDepartment(_ context.Context, _ pgx.Tx, name, department string) (*entities.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.resources {
		if res.IsActive && res.Name == name && res.Department.String == department {
			return &res, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeResourceRepo) GetAll(_ context.Context, filter types.Filter, departments []string) ([]entities.Resource, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Resource, 0)
	for _, res := range r.resources {
		if !res.IsActive {
			continue
		}
		if !matchesFilter(filter.Filter, "department", res.Department.String) ||
			!matchesFilter(filter.Filter, "type", res.Type) ||
			!matchesFilter(filter.Filter, "status", res.Status) ||
			!matchesFilter(filter.Filter, "category", res.Category) {
			continue
		}
		if departments != nil && res.Department.Valid && !contains(departments, res.Department.String) {
			continue
		}
		out = append(out, res)
	}
	return out, uint64(len(out)), nil
}

// matchesFilter treats a comma separated filter value as a set.
func matchesFilter(filter map[string]string, key, value string) bool {
	v, ok := filter[key]
	return !ok || contains(strings.Split(v, ","), value)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (r *fakeResourceRepo) Create(_ context.Context, _ pgx.Tx, res *entities.Resource) (uint64, error) {
	created := r.add(*res)
	res.ID = created.ID
	res.IsActive = true
	return res.ID, nil
}

func (r *fakeResourceRepo) Update(_ context.Context, _ pgx.Tx, res *entities.Resource) error {
	return r.mutate(res.ID, func(cur *entities.Resource) {
		assignment := cur.CurrentAssignment
		*cur = *res
		cur.CurrentAssignment = assignment
	})
}

func (r *fakeResourceRepo) SoftDelete(_ context.Context, _ pgx.Tx, id uint64) error {
	return r.mutate(id, func(cur *entities.Resource) { cur.IsActive = false })
}

func (r *fakeResourceRepo) AddMaintenance(_ context.Context, _ pgx.Tx, id uint64, record entities.MaintenanceRecord, status string) error {
	return r.mutate(id, func(cur *entities.Resource) {
		cur.MaintenanceHistory = append(cur.MaintenanceHistory, record)
		cur.Status = status
	})
}

func (r *fakeResourceRepo) Reserve(_ context.Context, _ pgx.Tx, id uint64, a entities.Assignment) error {
	return r.mutate(id, func(cur *entities.Resource) {
		cur.Status = constants.ResourceStatusReserved
		cur.CurrentAssignment = &a
	})
}

func (r *fakeResourceRepo) Release(_ context.Context, _ pgx.Tx, id uint64, a entities.Assignment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.resources[id]
	if !ok || cur.CurrentAssignment == nil || *cur.CurrentAssignment != a {
		return false, nil
	}
	cur.CurrentAssignment = nil
	cur.Status = constants.ResourceStatusAvailable
	r.resources[id] = cur
	return true, nil
}

func (r *fakeResourceRepo) DecrementQuantity(_ context.Context, _ pgx.Tx, id uint64, quantity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.resources[id]
	if !ok || !cur.IsActive || cur.Quantity < quantity {
		return false, nil
	}
	cur.Quantity -= quantity
	r.resources[id] = cur
	return true, nil
}

func (r *fakeResourceRepo) IncrementQuantity(_ context.Context, _ pgx.Tx, id uint64, quantity int) error {
	return r.mutate(id, func(cur *entities.Resource) { cur.Quantity += quantity })
}

func (r *fakeResourceRepo) mutate(id uint64, fn func(cur *entities.Resource)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.resources[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fn(&cur)
	r.resources[id] = cur
	return nil
}

// requests

type fakeRequestRepo struct {
	mu       sync.Mutex
	nextID   uint64
	requests map[uint64]entities.Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[uint64]entities.Request{}}
}

func (r *fakeRequestRepo) Create(_ context.Context, _ pgx.Tx, req *entities.Request) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = r.nextID
	stored := *req
	stored.ApprovalChain = append([]entities.ApprovalEntry(nil), req.ApprovalChain...)
	r.requests[req.ID] = stored
	return req.ID, nil
}

func (r *fakeRequestRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	req.ApprovalChain = append([]entities.ApprovalEntry(nil), req.ApprovalChain...)
	return &req, nil
}

func (r *fakeRequestRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Request, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeRequestRepo) HasOverlap(_ context.Context, _ pgx.Tx, resourceID uint64, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.ResourceID != resourceID {
			continue
		}
		if req.Status != constants.RequestStatusPending && req.Status != constants.RequestStatusApproved {
			continue
		}
		if entities.Overlaps(req.StartTime, req.EndTime, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRequestRepo) UpdateStatus(_ context.Context, _ pgx.Tx, id uint64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	req.Status = status
	r.requests[id] = req
	return nil
}

func (r *fakeRequestRepo) AppendApproval(_ context.Context, _ pgx.Tx, id uint64, entry entities.ApprovalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	req.ApprovalChain = append(req.ApprovalChain, entry)
	r.requests[id] = req
	return nil
}

func (r *fakeRequestRepo) GetAll(_ context.Context, filter entities.RequestFilter, _ types.Filter) ([]entities.Request, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.Request, 0)
	for _, req := range r.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.Department != "" && req.Department.String != filter.Department {
			continue
		}
		if filter.Departments != nil && !contains(filter.Departments, req.Department.String) {
			continue
		}
		if filter.RequestorID != 0 && req.RequestorID != filter.RequestorID {
			continue
		}
		out = append(out, req)
	}
	return out, uint64(len(out)), nil
}

// transfers

type fakeTransferRepo struct {
	mu        sync.Mutex
	transfers []entities.ResourceTransfer
}

func (r *fakeTransferRepo) Create(_ context.Context, _ pgx.Tx, t *entities.ResourceTransfer) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uint64(len(r.transfers) + 1)
	t.CreatedAt = time.Now().UTC()
	r.transfers = append(r.transfers, *t)
	return t.ID, nil
}

func (r *fakeTransferRepo) ListByDepartments(_ context.Context, departments []string) ([]entities.ResourceTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.ResourceTransfer, 0)
	for i := len(r.transfers) - 1; i >= 0; i-- {
		t := r.transfers[i]
		if departments == nil || contains(departments, t.FromDepartment) || contains(departments, t.ToDepartment) {
			out = append(out, t)
		}
	}
	return out, nil
}

// cache

type fakeCache struct {
	mu     sync.Mutex
	values map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]int64{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return strconv.FormatInt(v, 10), nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(strings.TrimSpace(toString(value)), 10, 64)
	c.values[key] = n
	return nil
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key]++
	return c.values[key], nil
}

func (c *fakeCache) Expire(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

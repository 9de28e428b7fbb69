package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"resource-system/internal/authz"
	"resource-system/pkg/config"
	"resource-system/pkg/constants"
	"resource-system/pkg/database/postgresql"
	"resource-system/pkg/eventbus"
	"resource-system/pkg/service"
	"resource-system/pkg/utils"
	"resource-system/pkg/validation"
	appwebsocket "resource-system/pkg/websocket"
)

// ResourceFlowTestSuite drives the HTTP API against a real database.
// It runs only when TEST_DATABASE_URL is set; TEST_REDIS_ADDR defaults to
// localhost:6379.
type ResourceFlowTestSuite struct {
	suite.Suite
	Echo  *echo.Echo
	DB    *pgxpool.Pool
	Redis *redis.Client

	AdminToken string
}

func TestResourceFlowTestSuite(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, new(ResourceFlowTestSuite))
}

func (s *ResourceFlowTestSuite) SetupSuite() {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DATABASE_URL")
	redisAddr := os.Getenv("TEST_REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	s.Require().NoError(postgresql.UpMigrations(dsn))
	pool, err := postgresql.ConnectDB(ctx, dsn, 4, zap.NewNop())
	s.Require().NoError(err)
	s.DB = pool

	s.Redis = redis.NewClient(&redis.Options{Addr: redisAddr, DB: 1})
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		s.T().Skipf("redis unavailable at %s: %v", redisAddr, err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeoutSeconds: 5},
		Auth:   config.AuthConfig{MaxLoginAttempts: 5, LockoutDuration: time.Minute},
	}
	logger := zap.NewNop()

	e := echo.New()
	e.Validator = validation.New()
	e.HTTPErrorHandler = utils.HTTPErrorHandler(logger)

	InitRouter(e, Dependencies{
		DB:     pool,
		Redis:  s.Redis,
		JWT:    service.NewJWTService("integration-secret", time.Hour),
		Hub:    appwebsocket.NewHub(logger),
		Bus:    eventbus.New(logger),
		Scope:  authz.NewScope(nil),
		Config: cfg,
		Logger: logger,
	})
	s.Echo = e
}

func (s *ResourceFlowTestSuite) TearDownSuite() {
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

func (s *ResourceFlowTestSuite) SetupTest() {
	ctx := context.Background()
	_, err := s.DB.Exec(ctx,
		`TRUNCATE TABLE resource_transfers, request_approvals, requests, resource_maintenance, resources, users RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
	s.Require().NoError(s.Redis.FlushDB(ctx).Err())

	res := s.call(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"fullName": "Admin", "email": "admin@uni.edu", "password": "secret123", "role": constants.RoleSystemAdmin,
	})
	s.Require().Equal(http.StatusCreated, res.Code)
	s.AdminToken = s.body(res)["token"].(string)
}

func (s *ResourceFlowTestSuite) call(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *ResourceFlowTestSuite) body(rec *httptest.ResponseRecorder) map[string]interface{} {
	var envelope struct {
		Status bool                   `json:"status"`
		Body   map[string]interface{} `json:"body"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Body
}

func (s *ResourceFlowTestSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var envelope struct {
		Code string `json:"code"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Code
}

// approvedUser registers a user, approves it as admin and returns its token.
func (s *ResourceFlowTestSuite) approvedUser(email, role, department string) string {
	res := s.call(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"fullName": "User", "email": email, "password": "secret123", "role": role, "department": department,
	})
	s.Require().Equal(http.StatusCreated, res.Code, res.Body.String())
	user := s.body(res)["user"].(map[string]interface{})

	login := s.call(http.MethodPost, "/api/auth/login", "", map[string]interface{}{"email": email, "password": "secret123"})
	s.Require().Equal(http.StatusForbidden, login.Code)

	approve := s.call(http.MethodPut, fmt.Sprintf("/api/admin/users/%v/status", user["id"]), s.AdminToken,
		map[string]interface{}{"status": constants.UserStatusApproved})
	s.Require().Equal(http.StatusOK, approve.Code, approve.Body.String())

	login = s.call(http.MethodPost, "/api/auth/login", "", map[string]interface{}{"email": email, "password": "secret123"})
	s.Require().Equal(http.StatusOK, login.Code, login.Body.String())
	return s.body(login)["token"].(string)
}

func (s *ResourceFlowTestSuite) TestHealth() {
	res := s.call(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, res.Code, res.Body.String())
}

func (s *ResourceFlowTestSuite) TestProtectedRoutesRequireToken() {
	res := s.call(http.MethodGet, "/api/resources", "", nil)
	s.Equal(http.StatusUnauthorized, res.Code)

	res = s.call(http.MethodGet, "/api/resources", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, res.Code)
}

func (s *ResourceFlowTestSuite) TestBookingLifecycle() {
	staffToken := s.approvedUser("staff@uni.edu", constants.RoleStaff, "CS")
	headToken := s.approvedUser("head@uni.edu", constants.RoleDepartmentHead, "CS")

	created := s.call(http.MethodPost, "/api/resources", s.AdminToken, map[string]interface{}{
		"name": "Lab 1", "type": constants.ResourceTypeClassroom, "category": constants.CategoryClassroom,
		"location": map[string]string{"building": "B1", "room": "101"},
	})
	s.Require().Equal(http.StatusCreated, created.Code, created.Body.String())
	resourceID := s.body(created)["id"]

	forbidden := s.call(http.MethodPost, "/api/resources", staffToken, map[string]interface{}{
		"name": "Lab 2", "type": constants.ResourceTypeClassroom, "category": constants.CategoryClassroom,
		"location": map[string]string{"building": "B1"},
	})
	s.Equal(http.StatusForbidden, forbidden.Code)

	start := time.Date(2027, 1, 11, 9, 0, 0, 0, time.UTC)
	booking := map[string]interface{}{
		"resource": resourceID, "startTime": start, "endTime": start.Add(time.Hour), "purpose": "Lecture",
	}
	req := s.call(http.MethodPost, "/api/requests", staffToken, booking)
	s.Require().Equal(http.StatusCreated, req.Code, req.Body.String())
	requestID := s.body(req)["id"]

	overlap := s.call(http.MethodPost, "/api/requests", staffToken, map[string]interface{}{
		"resource": resourceID, "startTime": start.Add(30 * time.Minute), "endTime": start.Add(2 * time.Hour), "purpose": "Seminar",
	})
	s.Equal(http.StatusBadRequest, overlap.Code)

	denied := s.call(http.MethodPut, fmt.Sprintf("/api/requests/%v/status", requestID), staffToken,
		map[string]interface{}{"status": constants.RequestStatusApproved})
	s.Equal(http.StatusForbidden, denied.Code)

	approved := s.call(http.MethodPut, fmt.Sprintf("/api/requests/%v/status", requestID), headToken,
		map[string]interface{}{"status": constants.RequestStatusApproved, "comment": "ok"})
	s.Require().Equal(http.StatusOK, approved.Code, approved.Body.String())
	s.Len(s.body(approved)["approvalChain"], 2)

	again := s.call(http.MethodPut, fmt.Sprintf("/api/requests/%v/status", requestID), headToken,
		map[string]interface{}{"status": constants.RequestStatusRejected})
	s.Equal(http.StatusConflict, again.Code)
	s.Equal(constants.RequestStatusApproved, s.requestStatus(staffToken, requestID))

	res := s.call(http.MethodGet, fmt.Sprintf("/api/resources/%v", resourceID), staffToken, nil)
	s.Require().Equal(http.StatusOK, res.Code)
	s.Equal(constants.ResourceStatusReserved, s.body(res)["status"])

	cancelled := s.call(http.MethodPut, fmt.Sprintf("/api/requests/%v/cancel", requestID), staffToken, nil)
	s.Require().Equal(http.StatusOK, cancelled.Code, cancelled.Body.String())

	res = s.call(http.MethodGet, fmt.Sprintf("/api/resources/%v", resourceID), staffToken, nil)
	s.Equal(constants.ResourceStatusAvailable, s.body(res)["status"])
	s.Nil(s.body(res)["currentAssignment"])
}

func (s *ResourceFlowTestSuite) requestStatus(token string, id interface{}) string {
	res := s.call(http.MethodGet, fmt.Sprintf("/api/requests/%v", id), token, nil)
	s.Require().Equal(http.StatusOK, res.Code, res.Body.String())
	return s.body(res)["status"].(string)
}

func (s *ResourceFlowTestSuite) TestTransferBetweenDepartments() {
	created := s.call(http.MethodPost, "/api/resources", s.AdminToken, map[string]interface{}{
		"name": "Projector", "type": constants.ResourceTypeEquipment, "category": constants.CategoryGeneral,
		"department": "CS", "quantity": 5, "location": map[string]string{"building": "B1"},
	})
	s.Require().Equal(http.StatusCreated, created.Code, created.Body.String())
	resourceID := s.body(created)["id"]

	transfer := s.call(http.MethodPost, "/api/resources/transfer", s.AdminToken, map[string]interface{}{
		"resourceId": resourceID, "fromDepartment": "CS", "toDepartment": "EE", "quantity": 2, "reason": "Lab move",
	})
	s.Require().Equal(http.StatusOK, transfer.Code, transfer.Body.String())

	var envelope struct {
		Message string `json:"message"`
	}
	s.Require().NoError(json.Unmarshal(transfer.Body.Bytes(), &envelope))
	s.Equal("Transfer initiated successfully", envelope.Message)

	tooMany := s.call(http.MethodPost, "/api/resources/transfer", s.AdminToken, map[string]interface{}{
		"resourceId": resourceID, "fromDepartment": "CS", "toDepartment": "EE", "quantity": 10, "reason": "Again",
	})
	s.Equal(http.StatusBadRequest, tooMany.Code)
	s.Equal("INVALID_REQUEST", s.errorCode(tooMany))

	res := s.call(http.MethodGet, fmt.Sprintf("/api/resources/%v", resourceID), s.AdminToken, nil)
	s.Equal(float64(3), s.body(res)["quantity"])
}

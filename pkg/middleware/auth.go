package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/entities"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/service"
	"resource-system/pkg/utils"
)

const TokenHeader = "x-auth-token"

// UserLookup is the slice of the user repository the gate needs.
type UserLookup interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	users      UserLookup
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, users UserLookup, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		users:      users,
		logger:     logger,
	}
}

// ExtractToken reads x-auth-token first and falls back to a Bearer
// Authorization header.
func ExtractToken(req interface{ Get(string) string }) (string, error) {
	if token := strings.TrimSpace(req.Get(TokenHeader)); token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(req.Get(echo.HeaderAuthorization))
	if authHeader == "" {
		return "", apperrors.ErrEmptyAuthHeader
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.ErrInvalidAuthHeader
	}
	return parts[1], nil
}

func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := ExtractToken(c.Request().Header)
		if err != nil {
			if errors.Is(err, apperrors.ErrEmptyAuthHeader) {
				return utils.ErrorResponse(c, apperrors.New(apperrors.KindUnauthenticated, "No token, authorization denied", err), m.logger)
			}
			return utils.ErrorResponse(c, apperrors.New(apperrors.KindInvalidCredential, "Invalid token", err), m.logger)
		}

		user, err := m.Authenticate(c.Request().Context(), token)
		if err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}

		c.SetRequest(c.Request().WithContext(utils.WithUser(c.Request().Context(), user)))
		return next(c)
	}
}

// Authenticate resolves a raw token to a live, active and approved account.
func (m *AuthMiddleware) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	claims, err := m.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.KindInvalidCredential, "Token expired", err)
		}
		m.logger.Debug("token rejected", zap.Error(err))
		return nil, apperrors.New(apperrors.KindInvalidCredential, "Invalid token", err)
	}

	user, err := m.users.FindByID(ctx, nil, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindUnauthenticated, "User not found", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.KindUnauthenticated, "Account is deactivated", apperrors.ErrAccountInactive)
	}
	if !user.IsApproved() {
		return nil, apperrors.New(apperrors.KindForbidden, "Your account is awaiting approval", apperrors.ErrAwaitingApproval)
	}
	return user, nil
}

package utils

import (
	"context"

	"resource-system/internal/entities"
	"resource-system/pkg/contextkeys"
	apperrors "resource-system/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUserNotFoundInContext
	}
	return userID, nil
}

// GetUserFromCtx returns the account the auth middleware loaded for this request.
func GetUserFromCtx(ctx context.Context) (*entities.User, error) {
	user, ok := ctx.Value(contextkeys.UserKey).(*entities.User)
	if !ok || user == nil {
		return nil, apperrors.New(apperrors.KindUnauthenticated, "Authentication required", apperrors.ErrUserNotFoundInContext)
	}
	return user, nil
}

func WithUser(ctx context.Context, user *entities.User) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, user.ID)
	return context.WithValue(ctx, contextkeys.UserKey, user)
}

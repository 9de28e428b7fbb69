package controllers

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"resource-system/internal/entities"
	apperrors "resource-system/pkg/errors"
	"resource-system/pkg/utils"
	appwebsocket "resource-system/pkg/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TokenAuthenticator resolves a raw token the same way the HTTP gate does.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*entities.User, error)
}

type WebSocketController struct {
	hub    *appwebsocket.Hub
	auth   TokenAuthenticator
	logger *zap.Logger
}

func NewWebSocketController(hub *appwebsocket.Hub, auth TokenAuthenticator, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		hub:    hub,
		auth:   auth,
		logger: logger,
	}
}

// ServeWs upgrades GET /ws?token=... Browsers cannot set headers on the
// websocket handshake so the token travels in the query string.
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	token := ctx.QueryParam("token")
	if token == "" {
		return utils.ErrorResponse(ctx, apperrors.New(apperrors.KindUnauthenticated, "No token, authorization denied", apperrors.ErrEmptyAuthHeader), c.logger)
	}

	user, err := c.auth.Authenticate(ctx.Request().Context(), token)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}

	client := appwebsocket.NewClient(c.hub, conn, user.ID)
	if err := c.hub.RegisterClient(client); err != nil {
		c.logger.Debug("websocket client rejected", zap.Uint64("userID", user.ID), zap.Error(err))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump()

	c.logger.Debug("websocket client connected", zap.Uint64("userID", user.ID))
	return nil
}

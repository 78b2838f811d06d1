/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
upgrading the HTTP connection to WebSocket, and initiating the connection lifecycle. All
authentication happens after the upgrade, over the protocol itself.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"splitchat/internal/app/chat"
	"splitchat/internal/pkg/errs"
	"splitchat/internal/pkg/limiter"
	"splitchat/internal/pkg/logx"
	"splitchat/internal/pkg/randx"
	"splitchat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connID := randx.NewID()
		client := chat.NewClient(deps.Coordinator, conn, connID)
		deps.Coordinator.Register(client)

		go client.WritePump()

		logx.Info("WebSocket connection established", "conn_id", connID)

		client.ReadPump()
	}
}

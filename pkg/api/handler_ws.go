package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"
)

const wsWriteTimeout = 5 * time.Second

// wsHandler upgrades the connection and streams every bus envelope published
// from this point forward until the client disconnects. The bus is an
// in-process, non-durable broadcast, so there is no catch-up or replay on
// reconnect: a client that misses a window of events should re-fetch current
// state over the REST surface before resubscribing.
func (s *Server) wsHandler(c *echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	sub := s.bus.Subscribe()
	defer sub.Unsubscribe()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return conn.Close(websocket.StatusNormalClosure, "context done")
		case env, ok := <-sub.Receive():
			if !ok {
				return conn.Close(websocket.StatusNormalClosure, "subscription closed")
			}
			data, err := json.Marshal(env)
			if err != nil {
				slog.Warn("failed to marshal event envelope", "error", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Warn("websocket write failed, closing connection", "error", err)
				return nil
			}
		}
	}
}

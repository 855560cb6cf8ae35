package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mlukic/agora/internal/apperr"
	"github.com/mlukic/agora/internal/domain"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// GroupAuthorizer is the pipeline's membership check, run before a
// connection may join a server's fan-out group.
type GroupAuthorizer interface {
	AuthorizeGroup(ctx context.Context, serverID, userID uuid.UUID) error
}

// Client represents a single WebSocket connection. One user may hold many.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	auth   GroupAuthorizer
	sugar  *zap.SugaredLogger
	connID uuid.UUID
	userID uuid.UUID

	send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, auth GroupAuthorizer, sugar *zap.SugaredLogger, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		auth:   auth,
		sugar:  sugar,
		connID: uuid.New(),
		userID: userID,
		send:   make(chan []byte, sendBufSize),
	}
}

// ReadPump reads client events until the connection dies, then unregisters.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.sugar.Debugf("ws: client %s disconnected", c.connID)
			} else {
				c.sugar.Debugf("ws: read error from %s: %v", c.connID, err)
			}
			return
		}

		c.handleEvent(ctx, &event)
	}
}

// WritePump drains the send channel into the socket and keeps the
// connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.sugar.Debugf("ws: write error to %s: %v", c.connID, err)
				return
			}

		case <-ticker.C:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(wctx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypeJoinServer:
		var p ServerGroupPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid server.join payload")
			return
		}
		if err := c.auth.AuthorizeGroup(ctx, p.ServerID, c.userID); err != nil {
			var appErr *apperr.Error
			if errors.As(err, &appErr) {
				c.sendError(appErr.Code, appErr.Message)
			} else {
				c.sugar.Errorf("ws: group authorization for %s: %v", c.connID, err)
				c.sendError("INTERNAL", "could not join server group")
			}
			return
		}
		c.hub.registry.JoinGroup(c.connID, domain.ServerGroup(p.ServerID))
		c.sugar.Debugf("ws: %s joined group for server %s", c.connID, p.ServerID)

	case EventTypeLeaveServer:
		var p ServerGroupPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid server.leave payload")
			return
		}
		c.hub.registry.LeaveGroup(c.connID, domain.ServerGroup(p.ServerID))

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong, Timestamp: time.Now().Unix()})
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

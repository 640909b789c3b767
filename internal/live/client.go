package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 16 * 1024
)

// Client is one websocket connection in a puzzle room. Ordered traffic
// (joins, leaves, game events) goes through send; cursor frames go through
// a latest-wins slot so a slow reader sees a stale cursor, never a
// growing backlog.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	presence chan []byte

	UserID      string
	DisplayName string
	PuzzleID    string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, puzzleID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 64),
		presence:    make(chan []byte, 1),
		UserID:      userID,
		DisplayName: displayName,
		PuzzleID:    puzzleID,
		ClientID:    clientID,
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "user", c.UserID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			continue
		}

		// Identity comes from the connection, never from the wire.
		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.PuzzleID = c.PuzzleID

		switch msg.Type {
		case TypePresenceUpdate, TypeGameEvent:
			c.hub.handleMessage(c, &msg)
		default:
			c.sendError("unsupported message type: " + msg.Type)
		}
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
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
			if !c.write(ctx, message) {
				return
			}

		case message := <-c.presence:
			if !c.write(ctx, message) {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, message []byte) bool {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	err := c.conn.Write(writeCtx, websocket.MessageText, message)
	cancel()
	if err != nil {
		slog.Debug("write error", "error", err, "user", c.UserID)
		return false
	}
	return true
}

func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	if msg.Type == TypePresenceUpdate {
		// Replace whatever stale frame is still queued.
		select {
		case c.presence <- data:
		default:
			select {
			case <-c.presence:
			default:
			}
			select {
			case c.presence <- data:
			default:
			}
		}
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID, "type", msg.Type)
	}
}

func (c *Client) sendError(detail string) {
	payload, err := json.Marshal(ErrorPayload{Error: detail})
	if err != nil {
		return
	}
	c.Send(&Message{Type: TypeError, Payload: payload})
}

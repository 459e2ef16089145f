package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/laibhnoor/ChatApp/pkg/auth"
	"github.com/laibhnoor/ChatApp/pkg/wire"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Client is one authenticated websocket session.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound events.
	send chan []byte

	// Closed by the hub on disconnect; stops the write pump.
	done chan struct{}

	SessionID string
	UserID    string
	Username  string
}

// readPump decodes inbound events and hands them to the hub. It runs per
// session, so registry access from here is inherently concurrent.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		ev, err := wire.Decode(data)
		if err != nil {
			c.hub.sendError(c, "validation", err.Error())
			continue
		}

		ctx := context.Background()
		switch ev.Type {
		case wire.EvJoinConversation:
			c.hub.handleJoin(ctx, c, ev.ConversationID)
		case wire.EvLeaveConversation:
			c.hub.handleLeave(c, ev.ConversationID)
		case wire.EvSendMessage:
			c.hub.handleSend(ctx, c, ev.ConversationID, ev.Content)
		case wire.EvTyping:
			c.hub.handleTyping(c, ev.ConversationID, ev.IsTyping)
		case wire.EvMarkAsRead:
			c.hub.handleMarkRead(ctx, c, ev.ConversationID, ev.MessageIDs)
		}
	}
}

// writePump pumps events from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveWs authenticates the connection and starts the session. A failed
// token check rejects the upgrade before any registry state is touched.
func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		// Query param fallback, standard for browser WS clients.
		tokenString = r.URL.Query().Get("token")
	}

	if tokenString == "" {
		log.Println("Unauthorized: No token provided")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
		tokenString = tokenString[7:]
	}

	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		log.Printf("Unauthorized: Invalid token: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		done:      make(chan struct{}),
		SessionID: uuid.NewString(),
		UserID:    claims.UserID,
		Username:  claims.Username,
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

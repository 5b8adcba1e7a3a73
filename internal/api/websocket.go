package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"maitred/internal/dialogue"
	"maitred/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameSize   = 64 * 1024
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are already enforced by the CORS layer for browser clients
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatConn is one WebSocket chat connection bound to a session
type chatConn struct {
	conn    *websocket.Conn
	send    chan []byte
	session *session.Session
	engine  *dialogue.Engine
	log     logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	turns  sync.WaitGroup
}

func (s *Server) handleChatSocket(c *gin.Context) {
	sess := currentSession(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("failed to upgrade connection")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cc := &chatConn{
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		session: sess,
		engine:  s.engine,
		log:     s.log.WithField("session_id", sess.ID),
		ctx:     ctx,
		cancel:  cancel,
	}

	go cc.writePump()
	go cc.readPump()
}

// readPump turns each text frame into a dialogue turn
func (c *chatConn) readPump() {
	defer func() {
		c.cancel()
		c.turns.Wait()
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket closed unexpectedly")
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *chatConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *chatConn) handleMessage(message []byte) {
	var req chatRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.sendError("Invalid message")
		return
	}

	// turns run off the read loop; a frame sent mid-turn gets an in-flight error frame
	c.turns.Add(1)
	go func() {
		defer c.turns.Done()
		res, err := c.engine.HandleTurn(c.ctx, c.session.Conversation, req.Message)
		switch {
		case errors.Is(err, dialogue.ErrEmptyMessage):
			return
		case err != nil:
			c.sendError(err.Error())
			return
		}
		c.sendJSON(res)
	}()
}

func (c *chatConn) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Error("failed to marshal frame")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("websocket buffer full, dropping frame")
	}
}

func (c *chatConn) sendError(message string) {
	c.sendJSON(map[string]string{"error": message})
}

func (c *chatConn) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/table"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

type frame struct {
	kind int
	data []byte
}

// Connection is one websocket client. It plays at a single table at a time.
type Connection struct {
	conn      *websocket.Conn
	send      chan frame
	server    *Server
	tableID   string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewConnection wraps an upgraded websocket.
func NewConnection(conn *websocket.Conn, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan frame, 256),
		server: server,
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection. Frames queued after Close are dropped.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SetTable moves the connection to a table.
func (c *Connection) SetTable(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableID = tableID
}

// GetTable returns the table the connection plays at.
func (c *Connection) GetTable() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID
}

// SendMessage queues a JSON message.
func (c *Connection) SendMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.enqueue(frame{kind: websocket.TextMessage, data: data})
}

func (c *Connection) sendBinary(data []byte) error {
	return c.enqueue(frame{kind: websocket.BinaryMessage, data: data})
}

func (c *Connection) enqueue(f frame) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- f:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		switch kind {
		case websocket.BinaryMessage:
			c.handleAuditRequest(data)
		case websocket.TextMessage:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				c.sendError(CodeBadRequest, "malformed message")
				continue
			}
			c.handleMessage(&msg)
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				c.logger.Error("Failed to write frame", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "table", c.GetTable())

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(CodeBadRequest, "failed to parse join data")
			return
		}
		c.handleJoin(data)

	case MessageTypeTables:
		c.handleListTables()

	case MessageTypeGetState:
		if t := c.table(); t != nil {
			c.sendState(t.State())
		}

	case MessageTypeDeal:
		var data DealData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(CodeBadRequest, "failed to parse deal data")
			return
		}
		if t := c.table(); t != nil {
			c.reply(t.Deal(data.Wager))
		}

	case MessageTypeHit, MessageTypeStand, MessageTypeDouble, MessageTypeSplit:
		if t := c.table(); t != nil {
			c.reply(t.Do(actionTypes[msg.Type]))
		}

	case MessageTypeSettings:
		var data SettingsData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError(CodeBadRequest, "failed to parse settings data")
				return
			}
		}
		c.handleSettings(data)

	default:
		c.sendError(CodeBadRequest, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (c *Connection) handleJoin(data JoinData) {
	t, ok := c.server.Table(data.TableID)
	if !ok {
		c.sendError(CodeUnknownTable, fmt.Sprintf("table %q not found", data.TableID))
		return
	}
	c.SetTable(t.ID())
	c.logger.Info("Joined table", "table", t.ID())
	c.sendData(MessageTypeJoined, t.State())
}

func (c *Connection) handleListTables() {
	var list TableListData
	for _, t := range c.server.Tables() {
		v := t.State()
		list.Tables = append(list.Tables, TableInfo{
			ID:     t.ID(),
			Phase:  v.Phase,
			Rules:  v.Rules,
			Rounds: v.Rounds,
		})
	}
	c.sendData(MessageTypeTableList, list)
}

func (c *Connection) handleSettings(data SettingsData) {
	t := c.table()
	if t == nil {
		return
	}
	if data.Rules == nil {
		rules := t.Rules()
		c.sendData(MessageTypeSettings, SettingsData{Rules: &rules})
		return
	}
	if err := t.UpdateRules(*data.Rules); err != nil {
		c.reply(err)
		return
	}
	rules := t.Rules()
	c.sendData(MessageTypeSettings, SettingsData{Rules: &rules})
}

// handleAuditRequest answers a binary page request with a binary page.
func (c *Connection) handleAuditRequest(data []byte) {
	req, err := audit.DecodePageRequest(data)
	if err != nil {
		c.logger.Warn("Corrupt audit request", "error", err)
		c.sendError(CodeBadRequest, "corrupt audit request: "+err.Error())
		return
	}
	if req.PositionID == "" {
		req.PositionID = c.GetTable()
	}
	t, ok := c.server.Table(req.PositionID)
	if !ok {
		c.sendError(CodeUnknownTable, fmt.Sprintf("table %q not found", req.PositionID))
		return
	}

	resp := t.AuditLog().Page(req.Page, req.PageSize)
	resp.PositionID = t.ID()
	c.logger.Debug("Audit page", "table", t.ID(), "page", resp.Page, "size", resp.PageSize, "total", resp.Total)
	if err := c.sendBinary(audit.AppendPageResponse(nil, resp)); err != nil {
		c.logger.Debug("Failed to send audit page", "error", err)
	}
}

func (c *Connection) table() *table.Table {
	t, ok := c.server.Table(c.GetTable())
	if !ok {
		c.sendError(CodeNotJoined, "join a table first")
		return nil
	}
	return t
}

// reply reports err to the client. Success is visible through the state
// broadcast that follows every table change.
func (c *Connection) reply(err error) {
	if err == nil {
		return
	}
	c.sendError(errorCode(err), err.Error())
}

func (c *Connection) sendState(v table.View) {
	c.sendData(MessageTypeGetState, v)
}

func (c *Connection) sendData(t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to encode message", "type", t, "error", err)
		return
	}
	if err := c.SendMessage(msg); err != nil {
		c.logger.Debug("Failed to send message", "type", t, "error", err)
	}
}

func (c *Connection) sendError(code, message string) {
	c.sendData(MessageTypeError, ErrorData{Code: code, Message: message})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidHand):
		return CodeInvalidHand
	case errors.Is(err, game.ErrIllegalAction):
		return CodeIllegalAction
	case errors.Is(err, table.ErrBusy):
		return CodeBusy
	case errors.Is(err, game.ErrWager):
		return CodeInvalidWager
	default:
		return CodeBadRequest
	}
}

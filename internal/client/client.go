// Package client is a websocket client for the blackjack server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/server"
	"github.com/lox/blackjack/internal/table"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 54 * time.Second
)

// ErrClosed is returned once the connection has gone away.
var ErrClosed = errors.New("connection closed")

// RemoteError is an error message sent by the server.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

type frame struct {
	kind int
	data []byte
}

// Client holds one websocket connection to the server.
type Client struct {
	conn   *websocket.Conn
	logger *log.Logger

	send     chan frame
	messages chan *server.Message
	pages    chan audit.PageResponse
	cache    *audit.PageCache

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Dial connects to the server. http and https URLs are mapped onto ws and
// wss, and a missing path becomes /ws.
func Dial(ctx context.Context, serverURL string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	logger = logger.WithPrefix("client")
	logger.Debug("Connecting to server", "url", u.String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:     conn,
		logger:   logger,
		send:     make(chan frame, 64),
		messages: make(chan *server.Message, 256),
		pages:    make(chan audit.PageResponse, 4),
		cache:    audit.NewPageCache(),
		ctx:      cctx,
		cancel:   cancel,
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Client) readPump() {
	defer func() { _ = c.Close() }()

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Read failed", "error", err)
			}
			return
		}

		switch kind {
		case websocket.BinaryMessage:
			resp, err := audit.DecodePageResponse(data)
			if err != nil {
				c.logger.Warn("Corrupt audit page", "error", err)
				continue
			}
			select {
			case c.pages <- resp:
			case <-c.ctx.Done():
				return
			}
		case websocket.TextMessage:
			var msg server.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				c.logger.Warn("Malformed message", "error", err)
				continue
			}
			c.logger.Debug("Received message", "type", msg.Type)
			select {
			case c.messages <- &msg:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				c.logger.Debug("Write failed", "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) enqueue(f frame) error {
	select {
	case <-c.ctx.Done():
		return ErrClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	case <-c.ctx.Done():
		return ErrClosed
	}
}

// Send queues a JSON message.
func (c *Client) Send(msgType server.MessageType, data any) error {
	msg, err := server.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.enqueue(frame{kind: websocket.TextMessage, data: raw})
}

// Join moves the connection to a table.
func (c *Client) Join(tableID string) error {
	return c.Send(server.MessageTypeJoin, server.JoinData{TableID: tableID})
}

// Deal starts a round.
func (c *Client) Deal(wager int) error {
	return c.Send(server.MessageTypeDeal, server.DealData{Wager: wager})
}

// Act sends a player action.
func (c *Client) Act(action game.Action) error {
	switch action {
	case game.Hit:
		return c.Send(server.MessageTypeHit, struct{}{})
	case game.Stand:
		return c.Send(server.MessageTypeStand, struct{}{})
	case game.DoubleDown:
		return c.Send(server.MessageTypeDouble, struct{}{})
	case game.Split:
		return c.Send(server.MessageTypeSplit, struct{}{})
	default:
		return fmt.Errorf("%s is not a player action", action)
	}
}

// RequestState asks for the joined table's state.
func (c *Client) RequestState() error {
	return c.Send(server.MessageTypeGetState, struct{}{})
}

// Next returns the next JSON message.
func (c *Client) Next(ctx context.Context) (*server.Message, error) {
	select {
	case msg := <-c.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, ErrClosed
	}
}

// WaitFor skips messages until one of the given types arrives. An error
// message from the server is returned as a *RemoteError.
func (c *Client) WaitFor(ctx context.Context, types ...server.MessageType) (*server.Message, error) {
	for {
		msg, err := c.Next(ctx)
		if err != nil {
			return nil, err
		}
		if msg.Type == server.MessageTypeError {
			return nil, decodeError(msg)
		}
		for _, t := range types {
			if msg.Type == t {
				return msg, nil
			}
		}
	}
}

// JoinTable joins a table and returns its state.
func (c *Client) JoinTable(ctx context.Context, tableID string) (table.View, error) {
	if err := c.Join(tableID); err != nil {
		return table.View{}, err
	}
	msg, err := c.WaitFor(ctx, server.MessageTypeJoined)
	if err != nil {
		return table.View{}, err
	}
	return DecodeState(msg)
}

// Tables lists the server's tables.
func (c *Client) Tables(ctx context.Context) ([]server.TableInfo, error) {
	if err := c.Send(server.MessageTypeTables, struct{}{}); err != nil {
		return nil, err
	}
	msg, err := c.WaitFor(ctx, server.MessageTypeTableList)
	if err != nil {
		return nil, err
	}
	var list server.TableListData
	if err := json.Unmarshal(msg.Data, &list); err != nil {
		return nil, fmt.Errorf("decode table list: %w", err)
	}
	return list.Tables, nil
}

// AuditPage fetches one page of a table's audit log over the binary
// channel. An empty tableID means the joined table.
func (c *Client) AuditPage(ctx context.Context, tableID string, page, size int) (audit.PageResponse, error) {
	req := audit.AppendPageRequest(nil, audit.PageRequest{PositionID: tableID, Page: page, PageSize: size})
	if err := c.enqueue(frame{kind: websocket.BinaryMessage, data: req}); err != nil {
		return audit.PageResponse{}, err
	}
	for {
		select {
		case resp := <-c.pages:
			c.cache.Put(resp)
			return resp, nil
		case msg := <-c.messages:
			if msg.Type == server.MessageTypeError {
				return audit.PageResponse{}, decodeError(msg)
			}
		case <-ctx.Done():
			return audit.PageResponse{}, ctx.Err()
		case <-c.ctx.Done():
			return audit.PageResponse{}, ErrClosed
		}
	}
}

// CachedPage returns the last audit page fetched for a table.
func (c *Client) CachedPage(tableID string) (audit.PageResponse, bool) {
	return c.cache.Get(tableID)
}

// DecodeState unpacks a state or joined message.
func DecodeState(msg *server.Message) (table.View, error) {
	var v table.View
	if err := json.Unmarshal(msg.Data, &v); err != nil {
		return table.View{}, fmt.Errorf("decode state: %w", err)
	}
	return v, nil
}

func decodeError(msg *server.Message) error {
	var data server.ErrorData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return fmt.Errorf("decode error message: %w", err)
	}
	return &RemoteError{Code: data.Code, Message: data.Message}
}

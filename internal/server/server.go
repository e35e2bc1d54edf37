// Package server exposes blackjack tables over websockets.
//
// Text frames carry JSON messages ({type, data}) for table actions and state.
// Binary frames carry audit page requests and responses in the audit binary
// format.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/table"
)

// Server is the websocket front end of a set of tables.
type Server struct {
	upgrader    websocket.Upgrader
	tables      map[string]*table.Table
	order       []string
	logger      *log.Logger
	mu          sync.RWMutex
	connections map[*Connection]bool
	unsubscribe []func()
}

// NewServer creates a server for tables. The first table is where new
// connections sit until they join another.
func NewServer(logger *log.Logger, tables ...*table.Table) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		tables:      make(map[string]*table.Table, len(tables)),
		logger:      logger.WithPrefix("server"),
		connections: make(map[*Connection]bool),
	}
	for _, t := range tables {
		s.tables[t.ID()] = t
		s.order = append(s.order, t.ID())
		s.unsubscribe = append(s.unsubscribe, t.Subscribe(s.broadcastState))
	}
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", addr, "tables", s.order)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close disconnects every client and detaches from the tables.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	for _, conn := range conns {
		_ = conn.Close()
	}
}

// Table looks up a table by id.
func (s *Server) Table(id string) (*table.Table, bool) {
	t, ok := s.tables[id]
	return t, ok
}

// Tables returns the tables in configuration order.
func (s *Server) Tables() []*table.Table {
	out := make([]*table.Table, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tables[id])
	}
	return out
}

func (s *Server) defaultTable() string {
	if len(s.order) == 0 {
		return ""
	}
	return s.order[0]
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s, s.logger)
	client.SetTable(s.defaultTable())

	s.mu.Lock()
	s.connections[client] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total, "remote", r.RemoteAddr)

	client.Start()
	go func() {
		<-client.ctx.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "total", total)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// broadcastState sends a table view to every connection at that table.
func (s *Server) broadcastState(v table.View) {
	msg, err := NewMessage(MessageTypeGetState, v)
	if err != nil {
		s.logger.Error("Failed to encode state", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.GetTable() != v.TableID {
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Debug("Failed to send state", "error", err)
			continue
		}
		count++
	}
	s.logger.Debug("Broadcasted state", "table", v.TableID, "phase", v.Phase, "recipients", count)
}

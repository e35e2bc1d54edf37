package server

import (
	"encoding/json"
	"time"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/table"
)

// MessageType names a JSON message on the websocket.
type MessageType string

// Client to server.
const (
	MessageTypeJoin     MessageType = "join"
	MessageTypeDeal     MessageType = "deal"
	MessageTypeHit      MessageType = "hit"
	MessageTypeStand    MessageType = "stand"
	MessageTypeDouble   MessageType = "double"
	MessageTypeSplit    MessageType = "split"
	MessageTypeGetState MessageType = "state"
	MessageTypeSettings MessageType = "settings"
	MessageTypeTables   MessageType = "tables"
)

// Server to client. State replies reuse MessageTypeGetState.
const (
	MessageTypeJoined    MessageType = "joined"
	MessageTypeError     MessageType = "error"
	MessageTypeTableList MessageType = "table_list"
)

// Error codes sent in ErrorData.
const (
	CodeIllegalAction = "illegal_action"
	CodeInvalidHand   = "invalid_hand"
	CodeBusy          = "busy"
	CodeInvalidWager  = "invalid_wager"
	CodeUnknownTable  = "unknown_table"
	CodeBadRequest    = "bad_request"
	CodeNotJoined     = "not_joined"
)

// Message is the envelope of every JSON frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage marshals data into a message stamped with the current time.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{Type: messageType, Data: raw, Timestamp: time.Now()}, nil
}

// JoinData selects the table a connection plays at.
type JoinData struct {
	TableID string `json:"tableId"`
}

// DealData starts a round.
type DealData struct {
	Wager int `json:"wager"`
}

// SettingsData replaces the table rules between rounds. An empty message
// only asks for the current rules.
type SettingsData struct {
	Rules *game.Rules `json:"rules,omitempty"`
}

// ErrorData reports a rejected request.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TableInfo describes a table in a table list.
type TableInfo struct {
	ID     string     `json:"id"`
	Phase  string     `json:"phase"`
	Rules  game.Rules `json:"rules"`
	Rounds int        `json:"rounds"`
}

// TableListData answers MessageTypeTables.
type TableListData struct {
	Tables []TableInfo `json:"tables"`
}

// StateData carries a table view.
type StateData = table.View

// actionTypes maps player action messages onto game actions.
var actionTypes = map[MessageType]game.Action{
	MessageTypeHit:    game.Hit,
	MessageTypeStand:  game.Stand,
	MessageTypeDouble: game.DoubleDown,
	MessageTypeSplit:  game.Split,
}

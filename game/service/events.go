package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wricardo/connect-in-the-dark/game/engine"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event code")
	ErrMissingField   = errors.New("missing required field")
)

// ClientEventCode identifies an inbound command
type ClientEventCode int

const (
	JoinSession ClientEventCode = iota + 1
	CreateSession
	LeaveSession
	SessionRequest
	StartGame
	PlayColumn
)

func (c ClientEventCode) String() string {
	switch c {
	case JoinSession:
		return "join_session"
	case CreateSession:
		return "create_session"
	case LeaveSession:
		return "leave_session"
	case SessionRequest:
		return "session_request"
	case StartGame:
		return "start_game"
	case PlayColumn:
		return "play_column"
	default:
		return "unknown"
	}
}

// ServerEventCode identifies an outbound event
type ServerEventCode int

const (
	ClientJoined ServerEventCode = iota + 1
	ClientLeft
	GameStarted
	SessionResponse
	TurnStart
	LogicError
	GameEnded
)

func (c ServerEventCode) String() string {
	switch c {
	case ClientJoined:
		return "client_joined"
	case ClientLeft:
		return "client_left"
	case GameStarted:
		return "game_started"
	case SessionResponse:
		return "session_response"
	case TurnStart:
		return "turn_start"
	case LogicError:
		return "logic_error"
	case GameEnded:
		return "game_ended"
	default:
		return "unknown"
	}
}

// ClientEvent is one inbound frame
type ClientEvent struct {
	EventCode ClientEventCode  `json:"event_code"`
	Data      *ClientEventData `json:"data,omitempty"`
}

// ClientEventData carries command arguments; which fields are set depends
// on the event code
type ClientEventData struct {
	TargetIDs []string `json:"target_ids,omitempty"`
	SessionID *string  `json:"session_id,omitempty"`
	Column    *int     `json:"column,omitempty"`
}

// ServerEvent is one outbound frame. Message is only set on LogicError.
type ServerEvent struct {
	EventCode ServerEventCode  `json:"event_code"`
	Message   string           `json:"message,omitempty"`
	Data      *ServerEventData `json:"data,omitempty"`
}

// ServerEventData is the payload shared by every outbound event
type ServerEventData struct {
	SessionID        string           `json:"session_id,omitempty"`
	ClientID         string           `json:"client_id,omitempty"`
	SessionClientIDs []string         `json:"session_client_ids,omitempty"`
	GameData         *engine.GameView `json:"game_data,omitempty"`
}

// DecodeClientEvent parses and validates an inbound frame
func DecodeClientEvent(frame []byte) (*ClientEvent, error) {
	var event ClientEvent
	if err := json.Unmarshal(bytes.TrimSpace(frame), &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch event.EventCode {
	case JoinSession:
		if event.Data == nil || event.Data.SessionID == nil {
			return nil, fmt.Errorf("%w: data.session_id", ErrMissingField)
		}
	case PlayColumn:
		if event.Data == nil || event.Data.Column == nil {
			return nil, fmt.Errorf("%w: data.column", ErrMissingField)
		}
	case CreateSession, LeaveSession, SessionRequest, StartGame:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEvent, event.EventCode)
	}

	return &event, nil
}

// Encode renders the event as a JSON frame
func (e ServerEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// NewClientJoined announces that clientID joined sessionID
func NewClientJoined(sessionID, clientID string, members []string) ServerEvent {
	return ServerEvent{
		EventCode: ClientJoined,
		Data: &ServerEventData{
			SessionID:        sessionID,
			ClientID:         clientID,
			SessionClientIDs: members,
		},
	}
}

// NewClientLeft announces that clientID left; members are those remaining
func NewClientLeft(sessionID, clientID string, members []string) ServerEvent {
	return ServerEvent{
		EventCode: ClientLeft,
		Data: &ServerEventData{
			SessionID:        sessionID,
			ClientID:         clientID,
			SessionClientIDs: members,
		},
	}
}

// NewGameStarted carries the recipient's view of a fresh game
func NewGameStarted(sessionID string, view engine.GameView) ServerEvent {
	return ServerEvent{
		EventCode: GameStarted,
		Data: &ServerEventData{
			SessionID: sessionID,
			GameData:  &view,
		},
	}
}

// NewTurnStart names the player to move next
func NewTurnStart(sessionID, currentPlayer string, view engine.GameView) ServerEvent {
	return ServerEvent{
		EventCode: TurnStart,
		Data: &ServerEventData{
			SessionID: sessionID,
			ClientID:  currentPlayer,
			GameData:  &view,
		},
	}
}

// NewSessionResponse answers a status request. view is nil without a game.
func NewSessionResponse(sessionID string, members []string, view *engine.GameView) ServerEvent {
	return ServerEvent{
		EventCode: SessionResponse,
		Data: &ServerEventData{
			SessionID:        sessionID,
			SessionClientIDs: members,
			GameData:         view,
		},
	}
}

// NewGameEnded reveals the full board. winner is empty on a draw.
func NewGameEnded(sessionID, winner string, view engine.GameView) ServerEvent {
	return ServerEvent{
		EventCode: GameEnded,
		Data: &ServerEventData{
			SessionID: sessionID,
			ClientID:  winner,
			GameData:  &view,
		},
	}
}

// NewLogicError reports a rejected command to its sender
func NewLogicError(message string) ServerEvent {
	return ServerEvent{
		EventCode: LogicError,
		Message:   message,
	}
}

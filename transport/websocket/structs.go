package websocket

import "encoding/json"

// Message is the action-keyed envelope exchanged over the socket.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type watchPayload struct {
	SessionID string `json:"session_id"`
}

type turnPayload struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Position      string `json:"position"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type sessionPayload struct {
	SessionID     string `json:"session_id"`
	PlayerX       string `json:"player_x,omitempty"`
	PlayerO       string `json:"player_o,omitempty"`
	CurrentPlayer string `json:"current_player,omitempty"`
	Phase         string `json:"phase"`
	Moves         int    `json:"moves"`
	Board         string `json:"board"`
}

package ws

import "encoding/json"

// Msg is the wire envelope for every server push. Data is whatever the
// message type calls for.
type Msg struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// clientMsg is the inbound envelope; payloads decode lazily per type.
type clientMsg struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type strikeReq struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Cell      int    `json:"cell"`
}

type reconnectReq struct {
	SessionID string `json:"session_id"`
}

func errMsg(text string) Msg {
	return Msg{Type: "error", Data: map[string]string{"message": text}}
}

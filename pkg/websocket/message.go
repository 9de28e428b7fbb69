package websocket

import "time"

// Envelope is the frame every websocket message is sent in.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

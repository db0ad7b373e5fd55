package realtime

import (
	"encoding/json"
	"time"
)

// Message is the envelope of every websocket frame
// ⭐ SSOT: 웹소켓 메시지 구조
type Message struct {
	Type string          `json:"type"` // evaluation, status
	Data json.RawMessage `json:"data"`
	At   time.Time       `json:"at"`
}

// encode builds the frame bytes of a message
func encode(topic string, payload interface{}, at time.Time) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: topic, Data: data, At: at})
}

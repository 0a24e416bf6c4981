package ws

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Parse parses a WebSocket message payload.
// The WebSocket returns messages either as JSON arrays or single objects.
func Parse(data []byte) ([]Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing websocket message: invalid json (data: %s)", truncate(data, 100))
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		msg, err := decode(root.Raw)
		if err != nil {
			return nil, err
		}
		return []Message{msg}, nil
	}

	messages := make([]Message, 0, len(root.Array()))
	var err error
	root.ForEach(func(_, value gjson.Result) bool {
		var msg Message
		msg, err = decode(value.Raw)
		if err != nil {
			return false
		}
		messages = append(messages, msg)
		return true
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func decode(raw string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return Message{}, fmt.Errorf("parsing websocket message: %w (data: %s)", err, truncate([]byte(raw), 100))
	}
	msg.Raw = json.RawMessage(raw)
	return msg, nil
}

// truncate truncates a byte slice to a maximum length for error messages.
func truncate(data []byte, maxLen int) string {
	if len(data) <= maxLen {
		return string(data)
	}
	return string(data[:maxLen]) + "..."
}

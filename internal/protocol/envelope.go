package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcoot/wordduel/internal/model"
)

// Envelope is the JSON frame exchanged over the websocket in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds an outbound frame for an event
func Encode(event model.EventType, payload any) ([]byte, error) {
	frame := Envelope{Event: string(event)}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", event, err)
		}
		frame.Data = data
	}
	return json.Marshal(frame)
}

// Parse splits a frame into its event name and raw data
func Parse(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", model.ErrMalformedIntent, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", model.ErrMalformedIntent)
	}
	return env, nil
}

func hasData(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// decodeData unmarshals data into v. Absent or null data leaves v untouched.
func decodeData(data json.RawMessage, v any) error {
	if !hasData(data) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedIntent, err)
	}
	return nil
}

package cast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Event kinds as they appear on the wire.
const (
	Output = "o"
	Input  = "i"
)

// Event is one timed chunk of terminal IO, serialised as a three element
// JSON array: [elapsed seconds, kind, data].
type Event struct {
	// Time is the offset from recording start, in seconds.
	Time float64

	// Kind is Output or Input.
	Kind string

	// Data holds the chunk bytes, UTF-8 with escapes per JSON rules.
	Data string
}

func (e Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode([]interface{}{e.Time, e.Kind, e.Data}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("cast: event has %v elements, expected 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Time); err != nil {
		return fmt.Errorf("cast: invalid event time: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Kind); err != nil {
		return fmt.Errorf("cast: invalid event kind: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.Data); err != nil {
		return fmt.Errorf("cast: invalid event data: %w", err)
	}
	return nil
}

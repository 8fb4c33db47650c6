package cast

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Decode reads an asciicast v2 stream: the header line followed by zero or
// more event lines. Blank lines are ignored.
func Decode(r io.Reader) (*Header, []Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var header *Header
	var events []Event
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		if header == nil {
			header = &Header{}
			if err := json.Unmarshal(data, header); err != nil {
				return nil, nil, fmt.Errorf("cast: invalid header: %w", err)
			}
			if header.Version != 2 {
				return nil, nil, fmt.Errorf("cast: unsupported version %v", header.Version)
			}
			continue
		}
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, nil, fmt.Errorf("cast: invalid event at line %v: %w", line, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if header == nil {
		return nil, nil, fmt.Errorf("cast: empty stream")
	}
	return header, events, nil
}

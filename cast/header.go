package cast

import (
	"github.com/termscript/termscript/internal/clock"
)

// Header is the asciicast v2 header, serialised as the first line of a cast
// file.
type Header struct {
	Version   int               `json:"version"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Command   string            `json:"command,omitempty"`
	Title     string            `json:"title,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// NewHeader returns a version 2 header for the given terminal geometry,
// stamped with the current unix time.
func NewHeader(width, height int) *Header {
	return &Header{
		Version:   2,
		Width:     width,
		Height:    height,
		Timestamp: clock.NowFunc().Unix(),
	}
}

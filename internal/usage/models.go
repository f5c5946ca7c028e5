package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Mode string

const (
	ModeProvider Mode = "provider"
	ModeDemo     Mode = "demo"
)

// Event is one answered relay request. Message text is never recorded, only
// its length.
type Event struct {
	ID        string    `gorm:"primaryKey;type:char(26)" json:"id"`
	Mode      Mode      `gorm:"type:varchar(16);not null;index" json:"mode"`
	Provider  string    `gorm:"type:varchar(32)" json:"provider,omitempty"`
	LatencyMS int64     `gorm:"not null" json:"latency_ms"`
	Chars     int       `gorm:"not null" json:"chars"`
	At        time.Time `gorm:"not null;index" json:"at"`
}

func (Event) TableName() string { return "relay_events" }

var ErrInvalidEvent = errors.New("usage: invalid event")

func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	switch e.Mode {
	case ModeProvider, ModeDemo:
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidEvent, e.Mode)
	}
	if e.At.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	return nil
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a queue body and rejects events that could never be stored.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

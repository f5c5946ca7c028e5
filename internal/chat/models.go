package chat

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/suPer8Hu/pocket-chat/internal/common"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// MaxMessageLength is the longest outgoing user text, in characters.
const MaxMessageLength = 1000

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Message is immutable once created. A transcript is ordered by insertion,
// never re-sorted.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp string `json:"timestamp"`
}

func NewMessage(sender Sender, text string, at time.Time) (Message, error) {
	id, err := common.NewULIDAt(at)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:        id,
		Text:      text,
		Sender:    sender,
		Timestamp: at.UTC().Format(TimestampLayout),
	}, nil
}

// senderAI is how transcripts written by the mobile app label replies.
const senderAI Sender = "ai"

// UnmarshalJSON also reads transcripts written by the mobile app, whose ids
// are epoch-millisecond numbers and whose replies are sent by "ai".
func (m *Message) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Text      string          `json:"text"`
		Sender    Sender          `json:"sender"`
		Timestamp string          `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	if raw.Sender == senderAI {
		raw.Sender = SenderAssistant
	}
	*m = Message{ID: id, Text: raw.Text, Sender: raw.Sender, Timestamp: raw.Timestamp}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("message id %s: %w", raw, err)
	}
	return n.String(), nil
}

// Time parses Timestamp. The zero time is returned for a malformed value.
func (m Message) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

var localSeq atomic.Uint64

// localID is the fallback id: millisecond time plus a process-wide sequence,
// so it still sorts by creation time.
func localID(at time.Time) string {
	return fmt.Sprintf("%013d-%06d", at.UnixMilli(), localSeq.Add(1))
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

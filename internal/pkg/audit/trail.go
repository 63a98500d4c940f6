// Package audit encodes the append-only action log stored alongside a record.
//
// The encoded form is a JSON array, oldest entry first:
//
//	[{"user":"admin","action":"resolve","at":"2025-10-17T12:00:00Z","note":"..."},
//	 {"user":"admin","action":"archive","at":"2025-10-17T12:05:00Z"}]
//
// Other tooling reads this column, so the field names are fixed.
package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionResolve Action = "resolve"
	ActionArchive Action = "archive"
)

// Event is a single entry of the trail.
type Event struct {
	User   string    `json:"user"`
	Action Action    `json:"action"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

// NewEvent builds an entry. A blank note is dropped.
func NewEvent(user string, action Action, note string, at time.Time) Event {
	e := Event{User: user, Action: action, At: at.UTC()}
	if strings.TrimSpace(note) != "" {
		e.Note = note
	}
	return e
}

// Decode parses an encoded trail. An empty or blank input is an empty trail.
// Entries written by older tooling with loosely typed fields are read on a
// best effort basis; only a trail that is not an array of objects is an error.
func Decode(encoded string) ([]Event, error) {
	raw, err := entries(encoded)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		events = append(events, decodeEvent(r))
	}
	return events, nil
}

// Trail is the encoded form as stored. It marshals to the JSON array of
// entries as written; an unreadable trail marshals as an empty array.
type Trail string

func (t Trail) Events() ([]Event, error) {
	return Decode(string(t))
}

func (t Trail) MarshalJSON() ([]byte, error) {
	raw, err := entries(string(t))
	if err != nil {
		raw = nil
	}
	return []byte(join(raw)), nil
}

func (t *Trail) UnmarshalJSON(data []byte) error {
	raw, err := entries(string(data))
	if err != nil {
		return err
	}
	*t = Trail(join(raw))
	return nil
}

// Append adds one entry to the existing trail. Prior entries are carried over
// exactly as stored, including keys this package does not know about.
//
// If the existing trail cannot be decoded it is discarded and the result holds
// only the new entry; recovered reports that this happened. A transition is
// never blocked by an unreadable trail.
func Append(encoded, user string, action Action, note string, at time.Time) (result string, recovered bool) {
	raw, err := entries(encoded)
	if err != nil {
		raw = nil
		recovered = true
	}

	// A single event of strings and a time always marshals.
	b, _ := json.Marshal(NewEvent(user, action, note, at))
	raw = append(raw, b)
	return join(raw), recovered
}

// entries splits an encoded trail into its raw entries. Each entry must be a
// JSON object; anything else makes the trail malformed.
func entries(encoded string) ([]json.RawMessage, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return nil, fmt.Errorf("malformed audit log: %w", err)
	}
	for i, r := range raw {
		if len(r) == 0 || r[0] != '{' {
			return nil, fmt.Errorf("malformed audit log: entry %d is not an object", i)
		}
	}
	return raw, nil
}

func join(raw []json.RawMessage) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, r := range raw {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.Write(r)
	}
	sb.WriteByte(']')
	return sb.String()
}

var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func decodeEvent(raw json.RawMessage) Event {
	var e Event
	if err := json.Unmarshal(raw, &e); err == nil {
		return e
	}

	var loose map[string]any
	_ = json.Unmarshal(raw, &loose)

	e = Event{
		User:   looseString(loose["user"]),
		Action: Action(looseString(loose["action"])),
		Note:   looseString(loose["note"]),
	}
	if at, ok := loose["at"].(string); ok {
		for _, layout := range legacyTimeLayouts {
			if t, err := time.Parse(layout, at); err == nil {
				e.At = t.UTC()
				break
			}
		}
	}
	return e
}

func looseString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

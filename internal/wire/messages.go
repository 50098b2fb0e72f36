// Package wire defines the WebSocket protocol for picker sessions.
package wire

import (
	"encoding/json"

	"github.com/sinharash/entitypick/internal/filter"
	"github.com/sinharash/entitypick/internal/picker"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "configure", "filter", "select", "input", "clear", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// ConfigureData is the payload for "configure" messages. It mirrors the
// picker field configuration; the server attaches a controller to the
// session and starts the initial fetch.
type ConfigureData struct {
	Template             string        `json:"template"`
	Filter               []filter.Spec `json:"filter,omitempty"`
	AllowedKinds         []string      `json:"allowedKinds,omitempty"`
	AllowArbitraryValues *bool         `json:"allowArbitraryValues,omitempty"`
	Value                string        `json:"value,omitempty"`
	Required             bool          `json:"required,omitempty"`
	Disabled             bool          `json:"disabled,omitempty"`
	IdentityFragment     string        `json:"identityFragment,omitempty"` // "full" or "name"
	Separator            string        `json:"separator,omitempty"`
	OnAmbiguous          string        `json:"onAmbiguous,omitempty"` // "pick-first" or "fail"
}

// FilterData is the payload for "filter" messages.
type FilterData struct {
	Filter []filter.Spec `json:"filter"`
}

// SelectData is the payload for "select" messages.
type SelectData struct {
	Ref string `json:"ref"`
}

// InputData is the payload for "input" messages (free text).
type InputData struct {
	Text string `json:"text"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "state", "options", "value", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information, sent on connect.
type SessionData struct {
	SessionID string `json:"session_id"`
}

// StateData is sent on every lifecycle transition.
type StateData struct {
	State string `json:"state"` // "idle", "loading", "ready", "failed"
	Error string `json:"error,omitempty"`
}

// OptionsData carries the selectable records after a successful fetch.
type OptionsData struct {
	Options []picker.Option `json:"options"`
	Label   string          `json:"label,omitempty"` // re-resolved display text for the current value
}

// ValueData carries the field's emitted value after select/input/clear.
type ValueData struct {
	Value *string `json:"value"` // null clears the field
	Ref   *string `json:"ref,omitempty"`
	Label string  `json:"label,omitempty"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/picker"
	"github.com/sinharash/entitypick/internal/refcodec"
	"github.com/sinharash/entitypick/internal/session"
)

// Handler manages WebSocket connections for picker sessions.
type Handler struct {
	sessions *session.Manager
	store    catalog.Store
}

// NewHandler creates a WebSocket handler backed by the given catalog.
func NewHandler(sessions *session.Manager, store catalog.Store) *Handler {
	return &Handler{sessions: sessions, store: store}
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("wire: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create()
	defer h.sessions.Remove(sess.ID)
	ctx := r.Context()

	h.send(ctx, conn, ServerMessage{
		Type: "session",
		Data: SessionData{SessionID: sess.ID},
	})

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("wire: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}
		sess.Touch()

		switch msg.Type {
		case "configure":
			h.handleConfigure(ctx, conn, sess, msg)
		case "filter":
			h.handleFilter(ctx, conn, sess, msg)
		case "select":
			h.handleSelect(ctx, conn, sess, msg)
		case "input":
			h.handleInput(ctx, conn, sess, msg)
		case "clear":
			h.handleClear(ctx, conn, sess, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}

func (h *Handler) handleConfigure(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data ConfigureData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid configure data")
		return
	}
	if data.Template == "" {
		h.sendError(ctx, conn, msg.ID, "invalid_config", "template is required")
		return
	}

	ctrl, err := picker.New(h.store, picker.Config{
		Template:             data.Template,
		Filter:               data.Filter,
		AllowedKinds:         data.AllowedKinds,
		AllowArbitraryValues: data.AllowArbitraryValues,
		Value:                data.Value,
		Required:             data.Required,
		Disabled:             data.Disabled,
		Codec: refcodec.Options{
			Fragment:    refcodec.Fragment(data.IdentityFragment),
			Separator:   data.Separator,
			OnAmbiguous: refcodec.AmbiguousPolicy(data.OnAmbiguous),
		},
	})
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_config", err.Error())
		return
	}
	sess.SetController(ctrl)

	h.startFetch(ctx, conn, msg.ID, ctrl, ctrl.Refresh(ctx))
}

func (h *Handler) handleFilter(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	ctrl := sess.Controller()
	if ctrl == nil {
		h.sendError(ctx, conn, msg.ID, "not_configured", "configure the picker first")
		return
	}
	var data FilterData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid filter data")
		return
	}
	done, err := ctrl.SetFilter(ctx, data.Filter)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_filter", err.Error())
		return
	}
	h.startFetch(ctx, conn, msg.ID, ctrl, done)
}

// startFetch reports the loading state, then relays the fetch outcome
// once the given fetch completes. coder/websocket serialises concurrent
// writers, so the relay goroutine may send alongside the read loop.
func (h *Handler) startFetch(ctx context.Context, conn *websocket.Conn, requestID string, ctrl *picker.Controller, done <-chan struct{}) {
	h.send(ctx, conn, ServerMessage{
		Type:      "state",
		RequestID: requestID,
		Data:      StateData{State: string(picker.StateLoading)},
	})
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
		state := StateData{State: string(ctrl.State())}
		if err := ctrl.Err(); err != nil {
			state.Error = err.Error()
		}
		h.send(ctx, conn, ServerMessage{Type: "state", RequestID: requestID, Data: state})
		if ctrl.State() == picker.StateReady {
			h.send(ctx, conn, ServerMessage{
				Type:      "options",
				RequestID: requestID,
				Data:      OptionsData{Options: ctrl.Options(), Label: ctrl.Label()},
			})
		}
	}()
}

func (h *Handler) handleSelect(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	ctrl := sess.Controller()
	if ctrl == nil {
		h.sendError(ctx, conn, msg.ID, "not_configured", "configure the picker first")
		return
	}
	var data SelectData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid select data")
		return
	}
	if err := ctrl.Select(data.Ref); err != nil {
		code := "select_error"
		if refcodec.IsNotFound(err) {
			code = "not_found"
		}
		h.sendError(ctx, conn, msg.ID, code, err.Error())
		return
	}
	h.sendValue(ctx, conn, msg.ID, ctrl)
}

func (h *Handler) handleInput(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	ctrl := sess.Controller()
	if ctrl == nil {
		h.sendError(ctx, conn, msg.ID, "not_configured", "configure the picker first")
		return
	}
	var data InputData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid input data")
		return
	}
	if err := ctrl.Input(data.Text); err != nil {
		code := "input_error"
		var rejected *picker.ErrInputRejected
		switch {
		case errors.As(err, &rejected):
			code = "input_rejected"
		case refcodec.IsAmbiguous(err):
			code = "ambiguous"
		}
		h.sendError(ctx, conn, msg.ID, code, err.Error())
		return
	}
	h.sendValue(ctx, conn, msg.ID, ctrl)
}

func (h *Handler) handleClear(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	ctrl := sess.Controller()
	if ctrl == nil {
		h.sendError(ctx, conn, msg.ID, "not_configured", "configure the picker first")
		return
	}
	ctrl.Clear()
	h.send(ctx, conn, ServerMessage{
		Type:      "value",
		RequestID: msg.ID,
		Data:      ValueData{Value: nil},
	})
}

func (h *Handler) sendValue(ctx context.Context, conn *websocket.Conn, requestID string, ctrl *picker.Controller) {
	h.send(ctx, conn, ServerMessage{
		Type:      "value",
		RequestID: requestID,
		Data:      ValueData{Value: ctrl.Value(), Label: ctrl.Label()},
	})
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("wire: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}

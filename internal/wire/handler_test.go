package wire

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/session"
)

type rawServerMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func dialTestHandler(t *testing.T) (*websocket.Conn, context.Context) {
	t.Helper()

	store := catalog.NewMemoryStore()
	err := store.UpsertRecords(context.Background(), []catalog.Record{
		{"kind": "user", "metadata": map[string]any{"name": "jdoe"}, "displayName": "Jane Doe", "email": "jane@x.com"},
		{"kind": "user", "metadata": map[string]any{"name": "jsmith"}, "displayName": "John Smith", "email": "john@x.com"},
	})
	require.NoError(t, err)

	h := NewHandler(session.NewManager(time.Hour, time.Hour), store)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn, ctx
}

// readUntil reads server messages until one of the wanted type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string) rawServerMessage {
	t.Helper()
	for {
		var msg rawServerMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if msg.Type == msgType {
			return msg
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error message waiting for %s: %s", msgType, msg.Data)
		}
	}
}

func sendClient(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType, id string, data any) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		raw = b
	}
	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: msgType, ID: id, Data: raw}))
}

func TestPickerSessionFlow(t *testing.T) {
	conn, ctx := dialTestHandler(t)

	sess := readUntil(t, ctx, conn, "session")
	var sd SessionData
	require.NoError(t, json.Unmarshal(sess.Data, &sd))
	assert.NotEmpty(t, sd.SessionID)

	sendClient(t, ctx, conn, "configure", "1", ConfigureData{
		Template:     "{{ displayName }} ({{ email }})",
		AllowedKinds: []string{"user"},
	})

	opts := readUntil(t, ctx, conn, "options")
	var od OptionsData
	require.NoError(t, json.Unmarshal(opts.Data, &od))
	require.Len(t, od.Options, 2)

	sendClient(t, ctx, conn, "select", "2", SelectData{Ref: "user:default/jdoe"})
	val := readUntil(t, ctx, conn, "value")
	var vd ValueData
	require.NoError(t, json.Unmarshal(val.Data, &vd))
	require.NotNil(t, vd.Value)
	assert.Equal(t, "Jane Doe (jane@x.com)|||user:default/jdoe", *vd.Value)

	sendClient(t, ctx, conn, "clear", "3", nil)
	val = readUntil(t, ctx, conn, "value")
	require.NoError(t, json.Unmarshal(val.Data, &vd))
	assert.Nil(t, vd.Value)

	sendClient(t, ctx, conn, "ping", "4", nil)
	pong := readUntil(t, ctx, conn, "pong")
	assert.Equal(t, "4", pong.RequestID)
}

func TestSelectBeforeConfigureRejected(t *testing.T) {
	conn, ctx := dialTestHandler(t)
	readUntil(t, ctx, conn, "session")

	sendClient(t, ctx, conn, "select", "1", SelectData{Ref: "user:default/jdoe"})
	var msg rawServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, "error", msg.Type)
	var ed ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &ed))
	assert.Equal(t, "not_configured", ed.Code)
}

func TestFreeTextRejectedOverWire(t *testing.T) {
	conn, ctx := dialTestHandler(t)
	readUntil(t, ctx, conn, "session")

	allow := false
	sendClient(t, ctx, conn, "configure", "1", ConfigureData{
		Template:             "{{ displayName }}",
		AllowedKinds:         []string{"user"},
		AllowArbitraryValues: &allow,
	})
	readUntil(t, ctx, conn, "options")

	sendClient(t, ctx, conn, "input", "2", InputData{Text: "nobody"})
	var msg rawServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, "error", msg.Type)
	var ed ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &ed))
	assert.Equal(t, "input_rejected", ed.Code)
}

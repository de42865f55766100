package socket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecollab/engine"
	"codecollab/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// frame mirrors OutboundMessage with a raw payload for assertions.
type frame struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	Payload   json.RawMessage `json:"payload"`
}

// readFrame reads one outbound frame with a deadline so tests never hang.
func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read frame from WebSocket")
	require.NoError(t, json.Unmarshal(p, &f))
	return f
}

func sendCommand(t *testing.T, conn *websocket.Conn, command, sessionID string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	msg := InboundMessage{Command: command, SessionID: sessionID, Payload: raw}
	b, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func TestHubIntegration(t *testing.T) {
	eng := engine.New()
	eng.Start()
	defer eng.Stop()

	hub := NewHub(eng, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// In production the auth middleware builds the descriptor from JWT
		// claims; tests pass it in the query string.
		user := engine.User{
			ID:          r.URL.Query().Get("user_id"),
			Name:        r.URL.Query().Get("name"),
			Permissions: engine.Permissions{CanEdit: true, CanComment: true},
		}
		ServeWs(hub, w, r, user)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	session := eng.CreateSession("proj-1", "code review")

	// Client 1 joins an empty session and initializes a file.
	conn1, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=user1&name=Ana", nil)
	require.NoError(t, err, "Client 1 failed to connect")
	defer conn1.Close()

	sendCommand(t, conn1, CommandJoin, session.ID, nil)
	sendCommand(t, conn1, CommandInitializeFile, session.ID, InitializeFilePayload{
		FileID:  "main.go",
		Content: "package main\n",
	})

	initFrame := readFrame(t, conn1)
	assert.Equal(t, engine.EventFileInitialized, initFrame.Event)
	var sync engine.FileSyncPayload
	require.NoError(t, json.Unmarshal(initFrame.Payload, &sync))
	assert.Equal(t, "main.go", sync.FileID)
	assert.Equal(t, 1, sync.Version)

	// Client 2 joins: it must receive the current file state before
	// anything else, and client 1 must learn about the join.
	conn2, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=user2&name=Ben", nil)
	require.NoError(t, err, "Client 2 failed to connect")
	defer conn2.Close()

	sendCommand(t, conn2, CommandJoin, session.ID, nil)

	syncFrame := readFrame(t, conn2)
	assert.Equal(t, engine.EventFileStateSync, syncFrame.Event)
	require.NoError(t, json.Unmarshal(syncFrame.Payload, &sync))
	assert.Equal(t, "package main\n", sync.Content)
	assert.Equal(t, 1, sync.Version)

	joinFrame := readFrame(t, conn1)
	assert.Equal(t, engine.EventUserJoined, joinFrame.Event)
	assert.Equal(t, "user2", joinFrame.UserID)

	// Client 2 edits; the author gets an ack and everyone gets the
	// flushed batch.
	sendCommand(t, conn2, CommandApplyOperation, session.ID, engine.Operation{
		ID:        "op-1",
		Kind:      engine.OpInsert,
		FileID:    "main.go",
		Timestamp: 1,
		Position:  0,
		Content:   "// hi\n",
		Clock:     engine.VectorClock{},
	})

	ackFrame := readFrame(t, conn2)
	assert.Equal(t, engine.EventOperationApplied, ackFrame.Event)
	var ack engine.OperationAppliedPayload
	require.NoError(t, json.Unmarshal(ackFrame.Payload, &ack))
	assert.Equal(t, "// hi\npackage main\n", ack.Content)
	assert.Equal(t, 2, ack.Version)
	assert.Equal(t, "user2", ack.Operation.AuthorID, "author id must be server-authoritative")

	batchFrame := readFrame(t, conn1)
	assert.Equal(t, engine.EventOperationsBatch, batchFrame.Event)
	var batch engine.OperationsBatchPayload
	require.NoError(t, json.Unmarshal(batchFrame.Payload, &batch))
	require.Len(t, batch.Operations, 1)
	assert.Equal(t, "op-1", batch.Operations[0].ID)

	// Cursor moves reach the other participant only.
	sendCommand(t, conn2, CommandUpdateCursor, session.ID, engine.CursorPosition{
		FileID: "main.go", Line: 1, Column: 3, Visible: true,
	})
	// conn2 first drains its own copy of the batch.
	drain := readFrame(t, conn2)
	assert.Equal(t, engine.EventOperationsBatch, drain.Event)

	cursorFrame := readFrame(t, conn1)
	assert.Equal(t, engine.EventCursorUpdated, cursorFrame.Event)
	var cur engine.CursorUpdatedPayload
	require.NoError(t, json.Unmarshal(cursorFrame.Payload, &cur))
	assert.Equal(t, "user2", cur.UserID)
	assert.Equal(t, 3, cur.Cursor.Column)
}

func TestJoinUnknownSessionGetsErrorFrame(t *testing.T) {
	eng := engine.New()
	defer eng.Stop()

	hub := NewHub(eng, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, engine.User{ID: "user1", Name: "Ana"})
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	sendCommand(t, conn, CommandJoin, "no-such-session", nil)

	f := readFrame(t, conn)
	assert.Equal(t, EventError, f.Event)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &errPayload))
	assert.Equal(t, CommandJoin, errPayload.Command)
}

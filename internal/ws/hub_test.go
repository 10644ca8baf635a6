package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/fleetduel/fleetduel/internal/session"
	"github.com/fleetduel/fleetduel/internal/store"
)

type testConn struct {
	t    *testing.T
	conn *websocket.Conn
}

func (tc *testConn) send(typ string, data any) {
	tc.t.Helper()
	require.NoError(tc.t, tc.conn.WriteJSON(map[string]any{"type": typ, "data": data}))
}

// expect reads the next message and fails unless it has the wanted type.
func (tc *testConn) expect(typ string) map[string]any {
	tc.t.Helper()
	require.NoError(tc.t, tc.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var m struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(tc.t, tc.conn.ReadJSON(&m))
	if m.Type != typ {
		tc.t.Fatalf("expected %q message, got %q (%s)", typ, m.Type, m.Data)
	}
	var data map[string]any
	if len(m.Data) > 0 {
		require.NoError(tc.t, json.Unmarshal(m.Data, &data))
	}
	return data
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(Config{
		TurnLimit:  time.Minute,
		GraceLimit: time.Minute,
	}, session.NewManager(), store.NewMemory(), nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, player, name string) *testConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?player=" + player + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testConn{t: t, conn: conn}
}

func TestHubRejectsMissingPlayerID(t *testing.T) {
	_, srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubPairsTwoPlayersAndRelaysStrikes(t *testing.T) {
	_, srv := newTestServer(t)

	c1 := dial(t, srv, "p1", "Alice")
	c1.send("join_queue", nil)
	queued := c1.expect("queued")
	require.EqualValues(t, 1, queued["position"])
	require.EqualValues(t, 1000, queued["rating"])

	c2 := dial(t, srv, "p2", "Bob")
	c2.send("join_queue", nil)

	// The second join pairs immediately: both sides get match_found, the
	// second player never sees a queued message.
	found1 := c1.expect("match_found")
	found2 := c2.expect("match_found")
	require.Equal(t, found1["session_id"], found2["session_id"])
	require.NotEqual(t, found1["you_move_first"], found2["you_move_first"])

	// Each player only sees its own fleet.
	require.Contains(t, found1, "your_fleet")
	opp1 := found1["opponent"].(map[string]any)
	require.Equal(t, "p2", opp1["id"])

	mover, waiter := c1, c2
	if found2["you_move_first"] == true {
		mover, waiter = c2, c1
	}

	mover.send("strike", map[string]any{"cell": 0})
	r1 := mover.expect("strike_result")
	r2 := waiter.expect("strike_result")
	require.Equal(t, r1["outcome"], r2["outcome"])

	// A hit keeps the mover's turn, a miss hands it over; either way the
	// off-turn player's strike is rejected to the sender only.
	outcome := r1["outcome"].(map[string]any)
	offTurn := mover
	if outcome["next_turn"] != outcome["player_index"] {
		offTurn = waiter
	}
	offTurn.send("strike", map[string]any{"cell": 1})
	require.Contains(t, offTurn.expect("error")["message"], "turn")
}

func TestHubLeaveQueue(t *testing.T) {
	hub, srv := newTestServer(t)

	c := dial(t, srv, "p1", "Alice")
	c.send("join_queue", nil)
	c.expect("queued")
	c.send("leave_queue", nil)
	left := c.expect("queue_left")
	require.Equal(t, "requested", left["reason"])
	require.Equal(t, 0, hub.Queue().Len())
}

func TestHubUnknownMessageType(t *testing.T) {
	_, srv := newTestServer(t)
	c := dial(t, srv, "p1", "Alice")
	c.send("bogus", nil)
	require.Contains(t, c.expect("error")["message"], "unknown message type")
}

func TestHubStrikeWithoutSession(t *testing.T) {
	_, srv := newTestServer(t)
	c := dial(t, srv, "p1", "Alice")
	c.send("strike", map[string]any{"cell": 3})
	require.Contains(t, c.expect("error")["message"], "no active session")
}

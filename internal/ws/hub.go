package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fleetduel/fleetduel/internal/board"
	"github.com/fleetduel/fleetduel/internal/leaderboard"
	"github.com/fleetduel/fleetduel/internal/models"
	"github.com/fleetduel/fleetduel/internal/queue"
	"github.com/fleetduel/fleetduel/internal/session"
	"github.com/fleetduel/fleetduel/internal/store"
	"github.com/fleetduel/fleetduel/internal/strike"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Config is the hub's slice of the server configuration.
type Config struct {
	QueueTTL      time.Duration
	TurnLimit     time.Duration
	GraceLimit    time.Duration
	DefaultRating int
}

// Hub owns the connected clients and wires the queue, the session manager,
// and the leaderboard together. It is the session.Events sink: every server
// push originates here.
type Hub struct {
	cfg      Config
	queue    *queue.Queue
	sessions *session.Manager
	store    store.Store
	lb       *leaderboard.Client // nil disables leaderboard updates

	mu      sync.Mutex
	clients map[string]*Client // principal id -> live connection
}

// NewHub builds the hub and its matchmaking queue, installing itself as the
// queue's pair callback.
func NewHub(cfg Config, sm *session.Manager, st store.Store, lb *leaderboard.Client) *Hub {
	if cfg.DefaultRating <= 0 {
		cfg.DefaultRating = 1000
	}
	h := &Hub{
		cfg:      cfg,
		sessions: sm,
		store:    st,
		lb:       lb,
		clients:  make(map[string]*Client),
	}
	h.queue = queue.New(cfg.QueueTTL, h.onPair)
	return h
}

// Queue exposes the matchmaking queue for the periodic sweeper.
func (h *Hub) Queue() *queue.Queue {
	return h.queue
}

// HandleWS upgrades the connection and runs the read loop until the socket
// closes. The principal identifies itself through query parameters; a
// returning player reuses its id to reach its live session.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("player")
	name := r.URL.Query().Get("name")
	if id == "" {
		http.Error(w, "missing player id", http.StatusBadRequest)
		return
	}
	if name == "" {
		name = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	c := newClient(models.Principal{ID: id, DisplayName: name, Rating: h.cfg.DefaultRating}, conn)
	log.Printf("ws: connect id=%s name=%q from=%s", id, name, r.RemoteAddr)

	h.mu.Lock()
	if old, ok := h.clients[id]; ok {
		old.close()
	}
	h.clients[id] = c
	h.mu.Unlock()

	h.readLoop(c)
}

func (h *Hub) readLoop(c *Client) {
	defer func() {
		c.close()
		h.mu.Lock()
		replaced := h.clients[c.Principal.ID] != c
		if !replaced {
			delete(h.clients, c.Principal.ID)
		}
		h.mu.Unlock()
		log.Printf("ws: closed id=%s name=%q", c.Principal.ID, c.Principal.DisplayName)
		if replaced {
			// A newer connection took over this principal; the live session
			// must not see a disconnect.
			return
		}
		h.queue.Leave(c.Principal.ID)
		if s, ok := h.sessions.ForPrincipal(c.Principal.ID); ok {
			s.MarkDisconnected(c.Principal.ID)
		}
	}()

	for {
		var in clientMsg
		if err := c.conn.ReadJSON(&in); err != nil {
			log.Printf("ws: read error id=%s: %v", c.Principal.ID, err)
			return
		}
		log.Printf("ws: recv id=%s type=%s", c.Principal.ID, in.Type)

		switch in.Type {
		case "join_queue":
			h.handleJoinQueue(c)
		case "leave_queue":
			h.handleLeaveQueue(c)
		case "strike":
			h.handleStrike(c, in.Data)
		case "reconnect":
			h.handleReconnect(c, in.Data)
		default:
			c.Send(errMsg("unknown message type: " + in.Type))
		}
	}
}

func (h *Hub) handleJoinQueue(c *Client) {
	if _, ok := h.sessions.ForPrincipal(c.Principal.ID); ok {
		c.Send(errMsg("already in a match"))
		return
	}

	p := c.Principal
	p.Rating = h.loadRating(p.ID)
	c.Principal.Rating = p.Rating

	pos := h.queue.Join(p, c)
	if pos > 0 {
		c.Send(Msg{Type: "queued", Data: map[string]any{"position": pos, "rating": p.Rating}})
	}
}

func (h *Hub) handleLeaveQueue(c *Client) {
	if h.queue.Leave(c.Principal.ID) {
		c.Send(Msg{Type: "queue_left", Data: map[string]string{"reason": "requested"}})
	}
}

func (h *Hub) handleStrike(c *Client, raw json.RawMessage) {
	var req strikeReq
	if err := json.Unmarshal(raw, &req); err != nil {
		c.Send(errMsg("malformed strike request"))
		return
	}
	s, ok := h.sessions.ForPrincipal(c.Principal.ID)
	if !ok || (req.SessionID != "" && req.SessionID != s.ID) {
		c.Send(errMsg("no active session"))
		return
	}
	kind, err := strike.ParseKind(req.Kind)
	if err != nil {
		c.Send(errMsg(err.Error()))
		return
	}

	out, err := s.SubmitStrike(c.Principal.ID, kind, req.Cell)
	if err != nil {
		c.Send(errMsg(err.Error()))
		return
	}

	h.broadcast(s, Msg{Type: "strike_result", Data: map[string]any{
		"session_id": s.ID,
		"striker":    c.Principal.ID,
		"kind":       req.Kind,
		"outcome":    out,
	}})
}

func (h *Hub) handleReconnect(c *Client, raw json.RawMessage) {
	var req reconnectReq
	_ = json.Unmarshal(raw, &req)

	s, ok := h.sessions.ForPrincipal(c.Principal.ID)
	if !ok || (req.SessionID != "" && req.SessionID != s.ID) {
		c.Send(errMsg("no session to reconnect to"))
		return
	}
	snap, err := s.Reconnect(c.Principal.ID)
	if err != nil {
		c.Send(errMsg(err.Error()))
		return
	}
	c.Send(Msg{Type: "reconnected", Data: snap})
}

// onPair runs when the queue confirms two live players. Fleet generation
// failures are rare enough to just requeue both sides.
func (h *Hub) onPair(a, b queue.Entry) {
	f1, err1 := board.Generate()
	f2, err2 := board.Generate()
	if err1 != nil || err2 != nil {
		log.Printf("hub: fleet generation failed: %v %v", err1, err2)
		h.sendToPrincipal(a.Principal.ID, errMsg("match setup failed, rejoin the queue"))
		h.sendToPrincipal(b.Principal.ID, errMsg("match setup failed, rejoin the queue"))
		return
	}

	s := h.sessions.Create(
		[2]models.Principal{a.Principal, b.Principal},
		[2]board.Layout{f1, f2},
		session.Config{TurnLimit: h.cfg.TurnLimit, GraceLimit: h.cfg.GraceLimit},
		h, h.store,
	)
	log.Printf("hub: matched %s vs %s session=%s", a.Principal.ID, b.Principal.ID, s.ID)

	fleets := [2]board.Layout{f1, f2}
	for i, p := range [2]models.Principal{a.Principal, b.Principal} {
		h.sendToPrincipal(p.ID, Msg{Type: "match_found", Data: map[string]any{
			"session_id":     s.ID,
			"opponent":       s.Player(1 - i).Summary(),
			"your_fleet":     fleets[i],
			"you_move_first": s.CurrentTurn() == i,
			"turn_limit_ms":  h.cfg.TurnLimit.Milliseconds(),
		}})
	}
}

// ---- session.Events ----

func (h *Hub) TurnTimedOut(s *session.Session, timedOutIndex int) {
	h.broadcast(s, Msg{Type: "turn_timeout", Data: map[string]any{
		"session_id": s.ID,
		"timed_out":  s.Player(timedOutIndex).ID,
		"next_turn":  s.Player(s.CurrentTurn()).ID,
	}})
}

func (h *Hub) OpponentDisconnected(s *session.Session, disconnectedIndex int) {
	h.sendToPrincipal(s.Player(1-disconnectedIndex).ID, Msg{Type: "opponent_disconnected", Data: map[string]any{
		"session_id":   s.ID,
		"grace_ms":     h.cfg.GraceLimit.Milliseconds(),
		"disconnected": s.Player(disconnectedIndex).ID,
	}})
}

func (h *Hub) OpponentReconnected(s *session.Session, reconnectedIndex int) {
	h.sendToPrincipal(s.Player(1-reconnectedIndex).ID, Msg{Type: "opponent_reconnected", Data: map[string]any{
		"session_id":  s.ID,
		"reconnected": s.Player(reconnectedIndex).ID,
	}})
}

func (h *Hub) MatchCompleted(s *session.Session, res session.Result) {
	h.broadcast(s, Msg{Type: "match_completed", Data: map[string]any{
		"session_id": s.ID,
		"result":     res,
	}})
	if h.lb != nil {
		go h.updateLeaderboard(s, res)
	}
	h.sessions.Remove(s.ID)
}

func (h *Hub) updateLeaderboard(s *session.Session, res session.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 2; i++ {
		p := s.Player(i)
		if err := h.lb.UpdateRating(ctx, p.ID, p.DisplayName, p.Rating+res.Deltas[p.ID]); err != nil {
			log.Printf("hub: leaderboard update failed for %s: %v", p.ID, err)
		}
	}
}

func (h *Hub) broadcast(s *session.Session, m Msg) {
	h.sendToPrincipal(s.Player(0).ID, m)
	h.sendToPrincipal(s.Player(1).ID, m)
}

func (h *Hub) sendToPrincipal(id string, m Msg) {
	h.mu.Lock()
	c := h.clients[id]
	h.mu.Unlock()
	if c != nil {
		c.Send(m)
	}
}

func (h *Hub) loadRating(principalID string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pr, err := h.store.GetPlayerRating(ctx, principalID)
	if errors.Is(err, store.ErrNotFound) {
		return h.cfg.DefaultRating
	}
	if err != nil {
		log.Printf("hub: rating lookup failed for %s: %v", principalID, err)
		return h.cfg.DefaultRating
	}
	return pr.Rating
}

package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gorilla/mux"

	"github.com/fleetduel/fleetduel/internal/config"
	"github.com/fleetduel/fleetduel/internal/leaderboard"
	"github.com/fleetduel/fleetduel/internal/session"
	"github.com/fleetduel/fleetduel/internal/store"
	"github.com/fleetduel/fleetduel/internal/ws"
)

// Set at build time via -ldflags "-X main.buildVersion=... -X main.buildTime=..."
var (
	buildVersion = "dev"
	buildTime    = ""
)

func main() {
	cfg := config.Load()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("server: open postgres: %v", err)
		}
		st = pg
		log.Printf("server: using postgres store")
	} else {
		st = store.NewMemory()
		log.Printf("server: no DATABASE_URL, using in-memory store")
	}

	var lb *leaderboard.Client
	if cfg.RedisAddr != "" {
		var err error
		lb, err = leaderboard.New(leaderboard.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("server: %v", err)
		}
	} else {
		log.Printf("server: no REDIS_ADDR, leaderboard disabled")
	}

	sessions := session.NewManager()
	hub := ws.NewHub(ws.Config{
		QueueTTL:      cfg.QueueTTL,
		TurnLimit:     cfg.TurnLimit,
		GraceLimit:    cfg.GraceLimit,
		DefaultRating: cfg.DefaultRating,
	}, sessions, st, lb)

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("server: scheduler: %v", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.QueueSweep),
		gocron.NewTask(func() { hub.Queue().Sweep() }),
	)
	if err != nil {
		log.Fatalf("server: sweep job: %v", err)
	}
	sched.Start()
	defer func() { _ = sched.Shutdown() }()

	r := mux.NewRouter()
	r.HandleFunc("/ws", hub.HandleWS)
	r.HandleFunc("/api/healthz", handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard", handleLeaderboard(lb)).Methods(http.MethodGet)
	r.HandleFunc("/api/matches/{id}", handleMatch(st)).Methods(http.MethodGet)
	r.HandleFunc("/api/debug/rooms", handleDebugRooms(sessions)).Methods(http.MethodGet)
	r.HandleFunc("/version", handleVersion).Methods(http.MethodGet)

	log.Printf("fleetduel server %s listening on %s", buildVersion, cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildVersion,
		"time":    buildTime,
	})
}

func handleLeaderboard(lb *leaderboard.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lb == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "leaderboard disabled"})
			return
		}
		limit := int64(10)
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || n < 1 || n > 100 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-100"})
				return
			}
			limit = n
		}
		entries, err := lb.Top(r.Context(), limit)
		if err != nil {
			log.Printf("server: leaderboard query: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "leaderboard unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleMatch(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		rec, err := st.GetMatchRecord(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "match not found"})
			return
		}
		if err != nil {
			log.Printf("server: match lookup %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleDebugRooms(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type room struct {
			ID      string         `json:"id"`
			Status  session.Status `json:"status"`
			Players [2]string      `json:"players"`
			Turn    int            `json:"turn"`
		}
		out := []room{}
		sessions.Each(func(s *session.Session) {
			out = append(out, room{
				ID:      s.ID,
				Status:  s.Status(),
				Players: [2]string{s.Player(0).ID, s.Player(1).ID},
				Turn:    s.CurrentTurn(),
			})
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"count": len(out),
			"rooms": out,
			"time":  time.Now().Unix(),
		})
	}
}

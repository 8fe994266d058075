package status

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"TradeWarden/internal/engine"
	"TradeWarden/internal/recorder"
)

// Server exposes the read-only status API plus the manual halt/resume
// override. It reads through the orchestrator's snapshot path only and
// never touches the ledger directly.
type Server struct {
	engine *engine.Engine
	rec    recorder.Recorder
	http   *http.Server
}

// NewServer creates a status server bound to the given address.
func NewServer(addr string, eng *engine.Engine, rec recorder.Recorder) *Server {
	s := &Server{engine: eng, rec: rec}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/equity", s.handleEquity)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/halt", s.handleHalt)
	mux.HandleFunc("/api/resume", s.handleResume)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves in a background goroutine until Shutdown.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] status server listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[ERROR] status server: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.http.Close()
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot().Positions)
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	limit := queryLimit(r, 500)
	points, err := s.rec.EquityHistory(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if points == nil {
		// Fall back to the in-memory curve when no journal is configured.
		points = s.engine.Snapshot().Equities
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	trades, err := s.rec.TradeHistory(queryLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if trades == nil {
		trades = []recorder.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleHalt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Reason == "" {
		body.Reason = "manual halt via API"
	}
	s.engine.ManualHalt(body.Reason)
	writeJSON(w, http.StatusOK, map[string]string{"state": string(s.engine.CurrentState())})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if err := s.engine.Resume(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(s.engine.CurrentState())})
}

func queryLimit(r *http.Request, def int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return def
}

package server

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minetwin/internal/canvas"
	"minetwin/internal/config"
	"minetwin/internal/drag"
	"minetwin/internal/equipment"
	"minetwin/internal/notify"
	"minetwin/internal/results"
	"minetwin/internal/simulator"
	"minetwin/internal/types"
	"minetwin/internal/xjson"
)

type Server struct {
	Router   http.Handler
	hub      *Hub
	registry *equipment.Registry
	engine   *simulator.Engine
	drag     *drag.Controller
	feed     *notify.Feed
	rng      *rand.Rand
	log      hclog.Logger
}

func NewServer(cfg config.Config, log hclog.Logger) *Server {
	mux := http.NewServeMux()
	hub := NewHub(log.Named("hub"))
	go hub.run()

	registry := equipment.NewRegistry()
	registry.Seed()

	feed := notify.NewFeed(func(n types.Notification) {
		hub.broadcastJSON(types.WSEvent{Type: "notification", Payload: n, Timestamp: nowISO()})
	})

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s := &Server{
		hub:      hub,
		registry: registry,
		drag:     drag.NewController(registry),
		feed:     feed,
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
		log:      log,
	}
	s.engine = simulator.NewEngine(
		simulator.Config{Steps: cfg.Steps, StepDelay: cfg.StepDelay},
		hub.broadcastJSON,
		simulator.WithNoise(simulator.NewUniformNoise(cfg.Seed)),
		simulator.WithResultWriter(registry),
		simulator.WithNotifier(feed),
		simulator.WithLogger(log.Named("simulator")),
	)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/equipment", s.handleListEquipment)
	mux.HandleFunc("POST /api/equipment", s.handleAddEquipment)
	mux.HandleFunc("GET /api/equipment/{id}", s.handleGetEquipment)
	mux.HandleFunc("PATCH /api/equipment/{id}/parameters", s.handleUpdateParameters)
	mux.HandleFunc("PUT /api/equipment/{id}/type", s.handleChangeType)
	mux.HandleFunc("PUT /api/equipment/{id}/status", s.handleSetStatus)
	mux.HandleFunc("POST /api/equipment/{id}/connections", s.handleConnect)
	mux.HandleFunc("DELETE /api/equipment/{id}/connections/{target}", s.handleDisconnect)

	mux.HandleFunc("POST /api/layout/auto", s.handleAutoLayout)
	mux.HandleFunc("GET /api/scene", s.handleScene)
	mux.HandleFunc("POST /api/drag/grab", s.handleGrab)
	mux.HandleFunc("POST /api/drag/move", s.handleMove)
	mux.HandleFunc("POST /api/drag/release", s.handleRelease)

	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("GET /api/run", s.handleRunStatus)
	mux.HandleFunc("GET /api/results", s.handleResults)

	mux.HandleFunc("GET /api/global", s.handleGetGlobal)
	mux.HandleFunc("PATCH /api/global", s.handleUpdateGlobal)
	mux.HandleFunc("GET /api/notifications", s.handleNotifications)

	// CORS for local dev: wrap mux
	s.Router = withCORS(mux)
	return s
}

// Close cancels any simulation in flight.
func (s *Server) Close() {
	s.engine.Close()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	serveWS(s.hub, w, r)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Metrics())
}

func (s *Server) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleAddEquipment(w http.ResponseWriter, r *http.Request) {
	var req types.AddEquipmentRequest
	if !decode(w, r, &req) {
		return
	}
	node, err := s.registry.Add(equipment.DraftFromRequest(req))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("equipment added", "id", node.ID, "type", node.Type)
	s.feed.Push("success", "Added new equipment: "+node.Name)
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleGetEquipment(w http.ResponseWriter, r *http.Request) {
	node, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleUpdateParameters(w http.ResponseWriter, r *http.Request) {
	var partial map[string]float64
	if !decode(w, r, &partial) {
		return
	}
	node, err := s.registry.UpdateParameters(r.PathValue("id"), partial)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.feed.Push("info", "Equipment parameters updated")
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleChangeType(w http.ResponseWriter, r *http.Request) {
	var req types.ChangeTypeRequest
	if !decode(w, r, &req) {
		return
	}
	node, err := s.registry.ChangeType(r.PathValue("id"), req.Type)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req types.StatusRequest
	if !decode(w, r, &req) {
		return
	}
	node, err := s.registry.SetStatus(r.PathValue("id"), req.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req types.ConnectRequest
	if !decode(w, r, &req) {
		return
	}
	node, err := s.registry.Connect(r.PathValue("id"), req.Target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	node, err := s.registry.Disconnect(r.PathValue("id"), r.PathValue("target"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleAutoLayout(w http.ResponseWriter, r *http.Request) {
	s.registry.AutoLayout(s.rng)
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, canvas.Build(s.registry.List(), s.engine.Running(), time.Now()))
}

func (s *Server) handleGrab(w http.ResponseWriter, r *http.Request) {
	var req types.GrabRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		id, ok := canvas.NodeAt(s.registry.List(), req.Pointer)
		if !ok {
			s.writeError(w, equipment.ErrNotFound)
			return
		}
		req.ID = id
	}
	if err := s.drag.Grab(req.ID, req.Pointer); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"grabbed": req.ID})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req types.PointerRequest
	if !decode(w, r, &req) {
		return
	}
	pos, err := s.drag.Move(req.Pointer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": s.drag.Grabbed(), "position": pos})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.drag.Release()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID, err := s.engine.Start(s.registry.Snapshot())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "runId": runID})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, results.Build(s.engine.Results(), s.registry.List()))
}

func (s *Server) handleGetGlobal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Global())
}

func (s *Server) handleUpdateGlobal(w http.ResponseWriter, r *http.Request) {
	var req types.GlobalParameters
	if !decode(w, r, &req) {
		return
	}
	g, err := s.registry.UpdateGlobal(req.Mode, req.Parameters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.List())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := xjson.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = xjson.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, equipment.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, equipment.ErrNameRequired),
		errors.Is(err, equipment.ErrUnknownType),
		errors.Is(err, equipment.ErrUnknownStatus),
		errors.Is(err, equipment.ErrSelfConnection),
		errors.Is(err, simulator.ErrEmptySnapshot):
		status = http.StatusBadRequest
	case errors.Is(err, simulator.ErrRunInProgress),
		errors.Is(err, drag.ErrNothingGrabbed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Utility for timestamps in events
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

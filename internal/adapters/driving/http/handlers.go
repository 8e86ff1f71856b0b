package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports whether readers can be served
// @Description Readiness status
type ReadyResponse struct {
	Status string           `json:"status" example:"ready"`
	Phase  domain.SyncPhase `json:"phase" example:"synced"`
	Store  string           `json:"store" example:"ok"`
	Remote string           `json:"remote,omitempty" example:"ok"`
}

// StateResponse summarises the application state
// @Description Application state summary
type StateResponse struct {
	Status    domain.AppStatus          `json:"status" example:"ready"`
	Source    domain.DataSource         `json:"source" example:"remote"`
	Phase     domain.SyncPhase          `json:"phase" example:"synced"`
	Version   uint64                    `json:"version" example:"12"`
	UpdatedAt time.Time                 `json:"updated_at"`
	Kinds     []domain.EntityKind       `json:"kinds"`
	Counts    map[domain.EntityKind]int `json:"counts"`
}

// EntityListResponse lists the entities of one kind
// @Description Entities of one kind
type EntityListResponse struct {
	Kind     domain.EntityKind `json:"kind" example:"service"`
	Source   domain.DataSource `json:"source" example:"cache"`
	Count    int               `json:"count" example:"2"`
	Entities []*domain.Entity  `json:"entities" swaggertype:"array,object"`
}

// SyncStatesResponse lists the per-kind sync states
// @Description Per-kind sync states
type SyncStatesResponse struct {
	States []*domain.SyncState `json:"states"`
}

// TriggerResponse acknowledges a background sync
// @Description Accepted sync trigger
type TriggerResponse struct {
	Status string            `json:"status" example:"accepted"`
	Kind   domain.EntityKind `json:"kind,omitempty" example:"service"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the liveness of the process
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  503 until the cache or the first sync has produced a ready state. A broken local store is reported but does not block readiness.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	snap := s.syncService.Snapshot()
	resp := ReadyResponse{
		Status: string(snap.Status),
		Phase:  s.syncService.Phase(),
		Store:  pingStatus(r, s.store),
	}
	if s.remote != nil {
		resp.Remote = pingStatus(r, s.remote)
	}

	status := http.StatusOK
	if snap.Status != domain.AppStatusReady {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func pingStatus(r *http.Request, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(r.Context()); err != nil {
		return "unavailable"
	}
	return "ok"
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current build version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// State endpoints

// handleGetState godoc
// @Summary      Application state
// @Description  Status, data source, sync phase and per-kind counts
// @Tags         State
// @Produce      json
// @Success      200  {object}  StateResponse
// @Router       /state [get]
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := s.syncService.Snapshot()
	kinds := s.syncService.Kinds()

	counts := make(map[domain.EntityKind]int, len(kinds))
	for _, kind := range kinds {
		counts[kind] = len(snap.Active(kind))
	}

	writeJSON(w, http.StatusOK, StateResponse{
		Status:    snap.Status,
		Source:    snap.Source,
		Phase:     s.syncService.Phase(),
		Version:   snap.Version,
		UpdatedAt: snap.UpdatedAt,
		Kinds:     kinds,
		Counts:    counts,
	})
}

// handleListEntities godoc
// @Summary      List entities
// @Description  Entities of one kind, ordered by id. Archived records are hidden unless include_archived is set.
// @Tags         Entities
// @Produce      json
// @Param        kind              path      string  true   "Entity kind (singular or plural)"
// @Param        include_archived  query     bool    false  "Include archived records"
// @Success      200  {object}  EntityListResponse
// @Failure      400  {object}  ErrorResponse  "Invalid query"
// @Failure      404  {object}  ErrorResponse  "Unknown kind"
// @Router       /entities/{kind} [get]
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.pathKind(w, r)
	if !ok {
		return
	}
	includeArchived, ok := queryBool(w, r, "include_archived")
	if !ok {
		return
	}

	snap := s.syncService.Snapshot()
	entities := snap.Entities[kind]
	if !includeArchived {
		entities = snap.Active(kind)
	}
	if entities == nil {
		entities = []*domain.Entity{}
	}

	writeJSON(w, http.StatusOK, EntityListResponse{
		Kind:     kind,
		Source:   snap.Source,
		Count:    len(entities),
		Entities: entities,
	})
}

// handleGetEntity godoc
// @Summary      Get entity
// @Description  One entity as delivered by the content API
// @Tags         Entities
// @Produce      json
// @Param        kind              path      string  true   "Entity kind"
// @Param        id                path      int     true   "Entity id"
// @Param        include_archived  query     bool    false  "Return archived records too"
// @Success      200  {object}  object
// @Failure      400  {object}  ErrorResponse  "Invalid id"
// @Failure      404  {object}  ErrorResponse  "Unknown kind or entity"
// @Router       /entities/{kind}/{id} [get]
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.pathKind(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}
	includeArchived, ok := queryBool(w, r, "include_archived")
	if !ok {
		return
	}

	entity, found := s.syncService.Snapshot().Find(kind, id)
	if !found || (entity.Archived() && !includeArchived) {
		writeError(w, http.StatusNotFound, "entity not found")
		return
	}

	writeJSON(w, http.StatusOK, entity)
}

// handleGetSite godoc
// @Summary      Site document
// @Description  The cached site (country) configuration
// @Tags         State
// @Produce      json
// @Success      200  {object}  object
// @Failure      404  {object}  ErrorResponse  "No site document cached yet"
// @Router       /site [get]
func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site := s.syncService.Snapshot().Site
	if len(site) == 0 {
		writeError(w, http.StatusNotFound, "site not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(site)
}

// Sync endpoints

// handleListSyncStates godoc
// @Summary      List sync states
// @Description  Persisted sync state (cursor, status, stats) for every configured kind
// @Tags         Sync
// @Produce      json
// @Success      200  {object}  SyncStatesResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /sync [get]
func (s *Server) handleListSyncStates(w http.ResponseWriter, r *http.Request) {
	states, err := s.syncService.ListSyncStates(r.Context())
	if err != nil {
		s.logger.Error("failed to list sync states", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sync states")
		return
	}
	if states == nil {
		states = []*domain.SyncState{}
	}
	writeJSON(w, http.StatusOK, SyncStatesResponse{States: states})
}

// handleTriggerSync godoc
// @Summary      Trigger sync
// @Description  Starts a background sync for one kind, or for every kind when none is given
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path      string  false  "Entity kind"
// @Success      202   {object}  TriggerResponse
// @Failure      401   {object}  ErrorResponse  "Missing or invalid token"
// @Failure      403   {object}  ErrorResponse  "Admin access required"
// @Failure      404   {object}  ErrorResponse  "Unknown kind"
// @Failure      503   {object}  ErrorResponse  "Shutting down"
// @Router       /sync/{kind} [post]
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	var kind domain.EntityKind
	if r.PathValue("kind") != "" {
		var ok bool
		if kind, ok = s.pathKind(w, r); !ok {
			return
		}
	}

	if err := s.syncService.Trigger(kind); err != nil {
		if errors.Is(err, domain.ErrUnknownKind) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, "sync unavailable")
		return
	}

	writeJSON(w, http.StatusAccepted, TriggerResponse{Status: "accepted", Kind: kind})
}

// Auth endpoints

// handleToken godoc
// @Summary      Admin token
// @Description  Exchange the admin password for a JWT
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Admin password"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /auth/token [post]
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "password is required")
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "admin login disabled")
		default:
			s.logger.Error("authentication failed", "error", err)
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSwaggerDoc serves the registered OpenAPI document.
func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api document not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// pathKind resolves the {kind} path value against the configured kinds.
func (s *Server) pathKind(w http.ResponseWriter, r *http.Request) (domain.EntityKind, bool) {
	kind, err := domain.ParseEntityKind(r.PathValue("kind"))
	if err == nil {
		for _, k := range s.syncService.Kinds() {
			if k == kind {
				return kind, true
			}
		}
	}
	writeError(w, http.StatusNotFound, "unknown entity kind")
	return "", false
}

func queryBool(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return false, false
	}
	return v, true
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

package plant

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"sproutling/internal/telemetry"
)

const (
	defaultHistoryLimit = 20
	maxUpdateAttempts   = 3
)

// Notifier receives state-change events for push delivery. Nil disables
// pushing.
type Notifier interface {
	Publish(userID, event string, payload any)
}

const (
	EventPlantCreated = "plant_created"
	EventPlantState   = "plant_state"
)

type Handler struct {
	sim      Simulator
	repo     Repo
	ilog     InteractionLog
	notifier Notifier
	logger   *log.Logger
}

func NewHandler(sim Simulator, repo Repo, ilog InteractionLog, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{sim: sim, repo: repo, ilog: ilog, logger: logger}
}

func (h *Handler) SetNotifier(n Notifier) {
	h.notifier = n
}

func (h *Handler) publish(userID, event string, payload any) {
	if h.notifier == nil {
		return
	}
	h.notifier.Publish(userID, event, payload)
}

type createRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"plant_name"`
}

// Create handles POST /api/plants. The creation path never applies decay.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.Name = strings.TrimSpace(req.Name)
	if req.UserID == "" || req.Name == "" {
		writeErr(w, http.StatusBadRequest, "user_id and plant_name are required")
		return
	}

	s := h.sim.NewPlant(req.UserID, req.Name, h.sim.Now())
	s, err := h.repo.Create(r.Context(), s)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	snap := h.sim.Snapshot(s)
	h.publish(s.UserID, EventPlantCreated, snap)
	writeJSON(w, http.StatusCreated, snap)
}

// ListByUser handles GET /api/users/{id}/plants. Each plant is decayed to
// the current instant and the decayed state is persisted before the
// response is built, so reads are also reconciliation points.
func (h *Handler) ListByUser(userID string, w http.ResponseWriter, r *http.Request) {
	now := h.sim.Now()

	states, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	snaps := make([]Snapshot, 0, len(states))
	for _, s := range states {
		decayed := h.sim.ApplyDecay(s, now)
		if !decayed.LastUpdated.Equal(s.LastUpdated) {
			persisted, err := h.repo.UpdateState(r.Context(), decayed)
			switch {
			case err == nil:
				decayed = persisted
				h.publish(decayed.UserID, EventPlantState, h.sim.Snapshot(decayed))
			case errors.Is(err, ErrVersionConflict):
				// Someone else reconciled this plant mid-request; their
				// write already covers the decay we computed.
			default:
				writeErr(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		snaps = append(snaps, h.sim.Snapshot(decayed))
	}
	writeJSON(w, http.StatusOK, snaps)
}

type actionRequest struct {
	ActionType string `json:"action_type"`
}

type actionResponse struct {
	Message    string   `json:"message"`
	PlantState Snapshot `json:"plant_state"`
}

// Action handles POST /api/plants/{id}/action: decay first, then the
// action on the decayed snapshot, then persist. The logged effect_value is
// the action's realized health delta, decay excluded. A stale write is
// retried from the fresh read up to maxUpdateAttempts times.
func (h *Handler) Action(plantID string, w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	action, ok := ParseAction(strings.TrimSpace(req.ActionType))
	if !ok {
		writeErr(w, http.StatusBadRequest, "unknown action_type: "+req.ActionType)
		return
	}

	now := h.sim.Now()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		s, err := h.repo.Get(r.Context(), plantID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeErr(w, http.StatusNotFound, "plant not found")
				return
			}
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		decayed := h.sim.ApplyDecay(s, now)
		after, res := h.sim.ApplyAction(decayed, action, now)

		persisted, err := h.repo.UpdateState(r.Context(), after)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		effect := after.Health - decayed.Health
		if err := h.ilog.Log(r.Context(), Interaction{
			PlantID:     plantID,
			ActionType:  string(action),
			EffectValue: effect,
			CreatedAt:   now,
		}); err != nil {
			h.logger.Printf("plant: log interaction %s/%s: %v", plantID, action, err)
		}

		snap := h.sim.Snapshot(persisted)
		h.publish(persisted.UserID, EventPlantState, snap)
		writeJSON(w, http.StatusOK, actionResponse{Message: res.Message, PlantState: snap})
		return
	}

	writeErr(w, http.StatusConflict, "plant state is changing too quickly, try again")
}

// History handles GET /api/plants/{id}/history.
func (h *Handler) History(plantID string, w http.ResponseWriter, r *http.Request) {
	if _, err := h.repo.Get(r.Context(), plantID); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, "plant not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	items, err := h.ilog.History(r.Context(), plantID, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []Interaction{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Stats handles GET /api/plants/{id}/stats, aggregating the full
// interaction log.
func (h *Handler) Stats(plantID string, w http.ResponseWriter, r *http.Request) {
	if _, err := h.repo.Get(r.Context(), plantID); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, "plant not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	items, err := h.ilog.History(r.Context(), plantID, 0)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	records := make([]telemetry.Record, 0, len(items))
	for _, it := range items {
		records = append(records, telemetry.Record{
			Action: it.ActionType,
			Effect: it.EffectValue,
			At:     it.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, telemetry.CalculateStats(records, h.sim.Now()))
}

// ServeItem dispatches /api/plants/{id}[/sub] by path segment.
func (h *Handler) ServeItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/plants/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	if parts[0] == "" {
		writeErr(w, http.StatusNotFound, "plant id is required")
		return
	}
	plantID := parts[0]

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch {
	case sub == "action" && r.Method == http.MethodPost:
		h.Action(plantID, w, r)
	case sub == "history" && r.Method == http.MethodGet:
		h.History(plantID, w, r)
	case sub == "stats" && r.Method == http.MethodGet:
		h.Stats(plantID, w, r)
	case sub == "" && r.Method == http.MethodGet:
		h.GetOne(plantID, w, r)
	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

// GetOne handles GET /api/plants/{id}. Like the list path it reconciles
// decay before responding.
func (h *Handler) GetOne(plantID string, w http.ResponseWriter, r *http.Request) {
	now := h.sim.Now()

	s, err := h.repo.Get(r.Context(), plantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, "plant not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	decayed := h.sim.ApplyDecay(s, now)
	if !decayed.LastUpdated.Equal(s.LastUpdated) {
		persisted, err := h.repo.UpdateState(r.Context(), decayed)
		if err == nil {
			decayed = persisted
			h.publish(decayed.UserID, EventPlantState, h.sim.Snapshot(decayed))
		} else if !errors.Is(err, ErrVersionConflict) {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, h.sim.Snapshot(decayed))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(out)
}

package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
)

type Handler struct {
	repo Repo
	now  func() time.Time
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

// SetNowFunc overrides the clock, for tests.
func (h *Handler) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerResponse struct {
	User    User   `json:"user"`
	Message string `json:"message"`
}

// Register handles POST /api/users/register. Registering an existing
// username is not an error; the stored user comes back with a welcome.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		writeErr(w, http.StatusBadRequest, "username is required")
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid email")
			return
		}
	}

	existing, err := h.repo.GetByUsername(r.Context(), req.Username)
	if err == nil {
		writeJSON(w, http.StatusOK, registerResponse{
			User:    existing,
			Message: fmt.Sprintf("Welcome back, %s!", existing.Username),
		})
		return
	}
	if !errors.Is(err, ErrNotFound) {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := h.repo.Create(r.Context(), New(req.Username, req.Email, h.now()))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		User:    created,
		Message: fmt.Sprintf("User %q registered successfully!", created.Username),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

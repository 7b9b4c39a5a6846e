// Package serverapp assembles the HTTP handler: storage, engine, domain
// handlers, the live feed and the middleware chain.
package serverapp

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"sproutling/internal/config"
	"sproutling/internal/game"
	"sproutling/internal/httpmw"
	"sproutling/internal/live"
	"sproutling/internal/plant"
	"sproutling/internal/storage"
	"sproutling/internal/user"
)

type Options struct {
	Config  config.Config
	Balance config.Balance
	DB      *sql.DB
	Logger  *log.Logger

	// Clock overrides the engine clock; nil means wall time.
	Clock game.Clock
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.DB == nil {
		return nil, errors.New("db is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	store, err := storage.New(opts.DB, opts.Balance)
	if err != nil {
		return nil, err
	}
	plants := store.Plants()

	engine := game.NewEngine(opts.Balance, opts.Clock)
	hub := live.NewHub(opts.Logger)

	plantHandler := plant.NewHandler(engine, plants, plants, opts.Logger)
	plantHandler.SetNotifier(hub)
	userHandler := user.NewHandler(store.Users())

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "sproutling",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/users/register", userHandler.Register)

	// /api/users/{id}/plants
	mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) == 2 && parts[1] == "plants" && r.Method == http.MethodGet && parts[0] != "" {
			plantHandler.ListByUser(parts[0], w, r)
			return
		}
		writeErrJSON(w, http.StatusNotFound, "not found")
	})

	mux.HandleFunc("/api/plants", plantHandler.Create)
	mux.HandleFunc("/api/plants/", plantHandler.ServeItem)

	// /ws/users/{id}
	mux.HandleFunc("/ws/users/", func(w http.ResponseWriter, r *http.Request) {
		userID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws/users/"), "/")
		if userID == "" || strings.Contains(userID, "/") {
			writeErrJSON(w, http.StatusNotFound, "not found")
			return
		}
		hub.ServeWS(userID, w, r)
	})

	return httpmw.Chain(mux,
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
		httpmw.WithAccessLog(opts.Logger),
	), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrJSON(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// Package api provides REST API endpoints for decoding ASTERIX data blocks
// and querying tracked targets.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/registry"
	"asterix_decoder/internal/storage"
)

// maxBodySize bounds a decode request.
const maxBodySize = 1 << 20

// TargetStore is the target state the server reads. *storage.PostgresDB
// implements it.
type TargetStore interface {
	GetTarget(ctx context.Context, category, sac, sic int, key string) (*storage.Target, error)
	ListTargets(ctx context.Context, q storage.TargetQuery) ([]storage.Target, error)
}

// Server provides REST API access to the decoder and target state.
type Server struct {
	reg         *registry.Registry
	targets     TargetStore
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// Config holds configuration for the API server.
type Config struct {
	Port        int      `yaml:"port"`
	AuthEnabled bool     `yaml:"auth_enabled"`
	APIKeys     []string `yaml:"api_keys"` // List of valid API keys.
}

// NewServer creates an API server decoding with reg. targets may be nil, in
// which case the target endpoints answer 503.
func NewServer(reg *registry.Registry, targets TargetStore, cfg Config) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &Server{
		reg:         reg,
		targets:     targets,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Run starts the HTTP server and stops it when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Mount("/api/v1", s.Router())

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("ASTERIX API starting at http://localhost%s", srv.Addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router returns the API routes without the server middleware, for tests and
// for mounting under another router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// CORS for browser access.
	r.Use(corsMiddleware)

	// Health check (no auth required).
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.authEnabled {
			r.Use(s.authMiddleware)
		}

		r.Get("/categories", s.handleCategories)
		r.Post("/decode", s.handleDecode)
		r.Get("/targets", s.handleListTargets)
		r.Get("/targets/{category}/{sac}/{sic}/{key}", s.handleGetTarget)
	})

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// CategoryResponse describes one registered category.
type CategoryResponse struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.reg.Categories()
	resp := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		resp = append(resp, CategoryResponse{ID: c.ID, Name: c.Name, Items: c.Items()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// DecodeResponse is the JSON response for one decoded data block.
type DecodeResponse struct {
	Category int               `json:"category"`
	Length   int               `json:"length"`
	Records  []*asterix.Record `json:"records"`
}

// DecodeErrorResponse reports where a data block failed to decode.
type DecodeErrorResponse struct {
	Error  string `json:"error"`
	Record *int   `json:"record,omitempty"`
	Item   string `json:"item,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

// handleDecode decodes the hex data block in the request body, either as
// plain text or as {"hex": "..."}.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "Body too large")
		return
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		var req struct {
			Hex string `json:"hex"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		text = req.Hex
	}
	if text == "" {
		writeError(w, http.StatusBadRequest, "hex data block is required")
		return
	}

	msg, recs, err := s.reg.DecodeHex(text)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, decodeErrorResponse(err))
		return
	}

	writeJSON(w, http.StatusOK, DecodeResponse{
		Category: msg.Category,
		Length:   msg.Length,
		Records:  recs,
	})
}

func decodeErrorResponse(err error) DecodeErrorResponse {
	resp := DecodeErrorResponse{Error: err.Error()}
	var de *asterix.DecodeError
	if errors.As(err, &de) {
		resp.Record = &de.Record
		resp.Item = de.Item
		resp.Offset = &de.Offset
	}
	return resp
}

// TargetResponse is the JSON response for target queries.
type TargetResponse struct {
	Category    int      `json:"category"`
	SAC         int      `json:"sac"`
	SIC         int      `json:"sic"`
	Key         string   `json:"key"`
	Address     string   `json:"address,omitempty"`
	Callsign    string   `json:"callsign,omitempty"`
	Mode3A      string   `json:"mode3a,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	FlightLevel *float64 `json:"flight_level,omitempty"`
	LastSeen    string   `json:"last_seen"`
	Updates     int      `json:"updates"`
}

func targetToResponse(t *storage.Target) TargetResponse {
	return TargetResponse{
		Category:    t.Category,
		SAC:         t.SAC,
		SIC:         t.SIC,
		Key:         t.Key,
		Address:     t.Address,
		Callsign:    t.Callsign,
		Mode3A:      t.Mode3A,
		Latitude:    t.Latitude,
		Longitude:   t.Longitude,
		FlightLevel: t.FlightLevel,
		LastSeen:    t.LastSeen.UTC().Format(time.RFC3339),
		Updates:     t.Updates,
	}
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	if s.targets == nil {
		writeError(w, http.StatusServiceUnavailable, "Target store not configured")
		return
	}

	var q storage.TargetQuery
	query := r.URL.Query()
	if v := query.Get("category"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 255 {
			writeError(w, http.StatusBadRequest, "Invalid category")
			return
		}
		q.Category = n
	}
	if v := query.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid since duration")
			return
		}
		q.Since = time.Now().Add(-d)
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "Invalid limit (1-1000)")
			return
		}
		q.Limit = n
	}

	targets, err := s.targets.ListTargets(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]TargetResponse, 0, len(targets))
	for i := range targets {
		resp = append(resp, targetToResponse(&targets[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	if s.targets == nil {
		writeError(w, http.StatusServiceUnavailable, "Target store not configured")
		return
	}

	var ids [3]int
	for i, name := range []string{"category", "sac", "sic"} {
		n, err := strconv.Atoi(chi.URLParam(r, name))
		if err != nil || n < 0 || n > 255 {
			writeError(w, http.StatusBadRequest, "Invalid "+name)
			return
		}
		ids[i] = n
	}
	key := strings.ToUpper(chi.URLParam(r, "key"))

	t, err := s.targets.GetTarget(r.Context(), ids[0], ids[1], ids[2], key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "Target not found")
		return
	}

	writeJSON(w, http.StatusOK, targetToResponse(t))
}

// Helper functions.

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

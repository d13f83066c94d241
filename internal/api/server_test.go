package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/categories/cat021"
	"asterix_decoder/internal/categories/cat062"
	"asterix_decoder/internal/registry"
	"asterix_decoder/internal/storage"
)

// mockTargetStore implements TargetStore for testing.
type mockTargetStore struct {
	targets []storage.Target
	err     error
	lastQ   storage.TargetQuery
}

func (m *mockTargetStore) GetTarget(_ context.Context, category, sac, sic int, key string) (*storage.Target, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.targets {
		t := &m.targets[i]
		if t.Category == category && t.SAC == sac && t.SIC == sic && t.Key == key {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTargetStore) ListTargets(_ context.Context, q storage.TargetQuery) ([]storage.Target, error) {
	m.lastQ = q
	if m.err != nil {
		return nil, m.err
	}
	return m.targets, nil
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, cat := range []*asterix.Category{cat021.Category(), cat062.Category()} {
		if err := r.Register(cat); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server := NewServer(testRegistry(t), nil, Config{Port: 8080})
	rec := do(server.Router(), http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	server := NewServer(testRegistry(t), nil, Config{
		Port:        8080,
		AuthEnabled: true,
		APIKeys:     []string{"test-key-123", "another-key"},
	})
	router := server.Router()

	tests := []struct {
		name       string
		target     string
		header     string
		value      string
		wantStatus int
	}{
		{"no key", "/categories", "", "", http.StatusUnauthorized},
		{"invalid key", "/categories", "X-API-Key", "wrong-key", http.StatusForbidden},
		{"valid key via X-API-Key", "/categories", "X-API-Key", "test-key-123", http.StatusOK},
		{"valid key via Bearer", "/categories", "Authorization", "Bearer another-key", http.StatusOK},
		{"valid key via query", "/categories?api_key=test-key-123", "", "", http.StatusOK},
		{"health is open", "/health", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	server := NewServer(testRegistry(t), nil, Config{AuthEnabled: true, APIKeys: []string{"k"}})
	rec := do(server.Router(), http.MethodOptions, "/decode", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	server := NewServer(testRegistry(t), nil, Config{})
	rec := do(server.Router(), http.MethodGet, "/categories", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp []CategoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != 21 || resp[1].ID != 62 {
		t.Fatalf("unexpected categories: %+v", resp)
	}
	if len(resp[0].Items) == 0 || resp[0].Name == "" {
		t.Errorf("category 021 missing name or items: %+v", resp[0])
	}
}

func TestDecodeEndpoint(t *testing.T) {
	server := NewServer(testRegistry(t), nil, Config{})
	router := server.Router()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantItem   string
	}{
		{"plain hex", "150006800101", http.StatusOK, ""},
		{"spaced hex", "15 00 06 80 01 01\n", http.StatusOK, ""},
		{"json body", `{"hex": "3e0006800102"}`, http.StatusOK, ""},
		{"empty body", "", http.StatusBadRequest, ""},
		{"bad json", `{"hex": `, http.StatusBadRequest, ""},
		{"not hex", "zz", http.StatusUnprocessableEntity, ""},
		{"unknown category", "300006800101", http.StatusUnprocessableEntity, ""},
		{"truncated item", "1500058001", http.StatusUnprocessableEntity, "010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/decode", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			switch rec.Code {
			case http.StatusOK:
				var resp struct {
					Category int              `json:"category"`
					Records  []map[string]any `json:"records"`
				}
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if len(resp.Records) != 1 {
					t.Fatalf("expected 1 record, got %d", len(resp.Records))
				}
				label := "021_010_SAC"
				if resp.Category == 62 {
					label = "062_010_SAC"
				}
				if resp.Records[0][label] != float64(1) {
					t.Errorf("%s = %v, want 1", label, resp.Records[0][label])
				}
			case http.StatusUnprocessableEntity:
				var resp DecodeErrorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Error == "" {
					t.Error("expected an error message")
				}
				if resp.Item != tt.wantItem {
					t.Errorf("item = %q, want %q", resp.Item, tt.wantItem)
				}
			}
		})
	}
}

func TestTargetEndpointsWithoutStore(t *testing.T) {
	server := NewServer(testRegistry(t), nil, Config{})
	router := server.Router()

	for _, target := range []string{"/targets", "/targets/62/1/2/TN12"} {
		if rec := do(router, http.MethodGet, target, ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected status 503, got %d", target, rec.Code)
		}
	}
}

func TestGetTarget(t *testing.T) {
	lat, lon := 43.5, 1.25
	store := &mockTargetStore{targets: []storage.Target{{
		Category:  62,
		SAC:       1,
		SIC:       2,
		Key:       "TN12",
		Callsign:  "AFR123",
		Latitude:  &lat,
		Longitude: &lon,
		LastSeen:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Updates:   4,
	}}}
	router := NewServer(testRegistry(t), store, Config{}).Router()

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"found", "/targets/62/1/2/TN12", http.StatusOK},
		{"key case folded", "/targets/62/1/2/tn12", http.StatusOK},
		{"unknown", "/targets/62/1/2/TN13", http.StatusNotFound},
		{"bad category", "/targets/x/1/2/TN12", http.StatusBadRequest},
		{"sac out of range", "/targets/62/256/2/TN12", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if rec.Code != http.StatusOK {
				return
			}
			var resp TargetResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Callsign != "AFR123" || resp.Updates != 4 || resp.LastSeen != "2026-03-01T12:00:00Z" {
				t.Errorf("unexpected target: %+v", resp)
			}
			if resp.Latitude == nil || *resp.Latitude != lat {
				t.Errorf("latitude = %v, want %v", resp.Latitude, lat)
			}
		})
	}
}

func TestListTargets(t *testing.T) {
	store := &mockTargetStore{targets: []storage.Target{
		{Category: 21, SAC: 1, SIC: 1, Key: "TA3C6586"},
		{Category: 62, SAC: 1, SIC: 2, Key: "TN12"},
	}}
	router := NewServer(testRegistry(t), store, Config{}).Router()

	rec := do(router, http.MethodGet, "/targets?category=62&limit=5&since=10m", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp []TargetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("expected 2 targets, got %d", len(resp))
	}
	if store.lastQ.Category != 62 || store.lastQ.Limit != 5 || store.lastQ.Since.IsZero() {
		t.Errorf("unexpected query: %+v", store.lastQ)
	}

	for _, target := range []string{"/targets?limit=0", "/targets?limit=5000", "/targets?category=300", "/targets?since=-1h"} {
		if rec := do(router, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, rec.Code)
		}
	}

	store.err = errors.New("connection refused")
	if rec := do(router, http.MethodGet, "/targets", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

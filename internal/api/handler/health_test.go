package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Readiness(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		deps   map[string]Pinger
		code   int
		status string
	}{
		{"all up", map[string]Pinger{"mongo": ok, "redis": ok}, http.StatusOK, "ok"},
		{"one down", map[string]Pinger{"mongo": ok, "redis": down}, http.StatusServiceUnavailable, "degraded"},
		{"no deps", nil, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(http.MethodGet, "/health/ready", "")
			if err := NewHealthHandler(tt.deps).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tt.status {
				t.Fatalf("expected status %q, got %q", tt.status, resp.Status)
			}
		})
	}
}

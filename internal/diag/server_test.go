package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/azckamp/lanetimer/internal/core"
)

type staticSource struct {
	snap core.Snapshot
}

func (s staticSource) Snapshot() core.Snapshot { return s.snap }

func TestStatusEndpoint(t *testing.T) {
	src := staticSource{snap: core.Snapshot{
		Connected:    true,
		Synchronized: true,
		OffsetMs:     1234,
		State:        "running",
		Elapsed:      "00:12:3",
		LapCount:     2,
		Role:         "lane",
		Lane:         4,
	}}
	srv := NewServer(":0", src)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got core.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got != src.snap {
		t.Errorf("snapshot = %+v, want %+v", got, src.snap)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	srv := NewServer(":0", staticSource{})

	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := NewServer(":0", staticSource{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

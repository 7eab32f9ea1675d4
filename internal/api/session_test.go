package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coachly/coachly/internal/session"
	"github.com/coachly/coachly/internal/testutil"
)

func TestSessionCRUD(t *testing.T) {
	store := session.NewStore()
	srv := newTestServer(t, testutil.NewScriptedTransport(), nil, store)
	handler := srv.Handler()

	var created session.Session
	t.Run("create", func(t *testing.T) {
		body := strings.NewReader(`{"userId": "u1", "title": "Cutting phase"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body)
		}
		if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.Title != "Cutting phase" || created.UserID != "u1" {
			t.Errorf("created = %+v", created)
		}
	})

	t.Run("create applies default title", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		var sess session.Session
		if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if sess.Title != "New Session" {
			t.Errorf("title = %q, want New Session", sess.Title)
		}
	})

	t.Run("create rejects oversized title", func(t *testing.T) {
		body := strings.NewReader(`{"title": "` + strings.Repeat("x", MaxTitleLength+1) + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Sessions []session.Session `json:"sessions"`
			Total    int               `json:"total"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+created.ID.String(), nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/00000000-0000-0000-0000-000000000001", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("get malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+created.ID.String(), nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+created.ID.String(), nil)
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status after delete = %d, want 404", rec.Code)
		}
	})
}

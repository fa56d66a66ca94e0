package user

import (
	"context"
	"encoding/json"
	"errors"
	"invitetrack/entity"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type mockCore struct {
	entries map[string]*entity.LedgerEntry
	err     error
}

func (m *mockCore) UserStats(_ context.Context, userId string) (*entity.LedgerEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[userId], nil
}

func serve(core Core, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/user/{userId}", Get(slog.New(slog.NewTextHandler(io.Discard, nil)), core))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGet_Found(t *testing.T) {
	core := &mockCore{entries: map[string]*entity.LedgerEntry{
		"42": {UserId: "42", Invites: 5, Bonus: 1, TotalEarnings: 0},
	}}
	rec := serve(core, "/user/42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Stats{UserId: "42", Invites: 5, Bonus: 1, TotalEarnings: 3.5}
	if got != want {
		t.Errorf("body = %+v, want %+v", got, want)
	}
}

func TestGet_NotFound(t *testing.T) {
	rec := serve(&mockCore{entries: map[string]*entity.LedgerEntry{}}, "/user/7")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGet_StoreError(t *testing.T) {
	rec := serve(&mockCore{err: errors.New("down")}, "/user/7")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGet_NoCore(t *testing.T) {
	rec := serve(nil, "/user/7")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

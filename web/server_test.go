package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sadewadee/google-place-resolver/place"
)

type stubResolver struct {
	place *place.Place
	err   error
	calls int
}

func (s *stubResolver) Resolve(_ context.Context, _ place.Query) (*place.Place, error) {
	s.calls++

	return s.place, s.err
}

func doResolve(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/place-from-url", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(w, req)

	return w
}

func TestServer_MissingURLIs400WithoutResolving(t *testing.T) {
	stub := &stubResolver{}
	srv := New(stub, nil, nil, ":0")

	w := doResolve(t, srv, `{"url":""}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	if stub.calls != 0 {
		t.Fatalf("resolver must not run for empty url")
	}
}

func TestServer_ResolveSuccess(t *testing.T) {
	stub := &stubResolver{place: &place.Place{
		Name:     "Gwangjang Market",
		Rating:   4.5,
		Category: "시장",
		Status:   place.StatusOperational,
		Source:   "html",
	}}
	srv := New(stub, nil, nil, ":0")

	w := doResolve(t, srv, `{"url":"https://maps.app.goo.gl/xyz"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Place   struct {
			Name  string   `json:"name"`
			Types []string `json:"types"`
		} `json:"place"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !resp.Success || resp.Place.Name != "Gwangjang Market" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}

	if len(resp.Place.Types) != 1 || resp.Place.Types[0] != "시장" {
		t.Fatalf("expected category in types: %s", w.Body.String())
	}
}

func TestServer_NotFoundCarriesDebugURL(t *testing.T) {
	stub := &stubResolver{err: place.ErrNotFound}
	srv := New(stub, nil, nil, ":0")

	w := doResolve(t, srv, `{"url":"https://www.google.com/maps/place/nowhere"}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var resp struct {
		Error string `json:"error"`
		Debug struct {
			URL string `json:"url"`
		} `json:"debug"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Debug.URL != "https://www.google.com/maps/place/nowhere" {
		t.Fatalf("expected debug url, got %s", w.Body.String())
	}
}

func TestServer_InvalidURLIs400(t *testing.T) {
	stub := &stubResolver{err: place.ErrInvalidURL}
	srv := New(stub, nil, nil, ":0")

	w := doResolve(t, srv, `{"url":"not-a-url"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestServer_UnexpectedErrorIs500WithDetails(t *testing.T) {
	stub := &stubResolver{err: errors.New("boom")}
	srv := New(stub, nil, nil, ":0")

	w := doResolve(t, srv, `{"url":"https://www.google.com/maps/place/x"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var resp struct {
		Details string `json:"details"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Details != "boom" {
		t.Fatalf("expected error details, got %s", w.Body.String())
	}
}

func TestServer_Health(t *testing.T) {
	srv := New(&stubResolver{}, nil, nil, ":0")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestServer_PlaceByIDWithoutKeyIs404(t *testing.T) {
	srv := New(&stubResolver{}, nil, nil, ":0")

	req := httptest.NewRequest(http.MethodGet, "/api/place/ChIJabc123def456", nil)
	w := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without api key, got %d", w.Code)
	}
}

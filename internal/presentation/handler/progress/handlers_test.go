package progress

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/persistence/repository"
)

func newTestServer() (*httptest.Server, domain.ProgressRepository) {
	repo := repository.NewMemoryProgressRepository()
	h := NewHandler(repo)

	r := chi.NewRouter()
	r.Post("/progress/save", h.SaveProgressHandler)
	r.Get("/progress/{roomId}/{userName}", h.GetProgressHandler)

	return httptest.NewServer(r), repo
}

func TestGetProgressSynthesizesDefault(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/progress/room-1/alice")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var record domain.Progress
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatal(err)
	}
	if record.Code != domain.DefaultCode {
		t.Fatalf("got code %q, want default", record.Code)
	}
	if record.RoomID != "room-1" || record.UserName != "alice" {
		t.Fatalf("got key %s/%s, want room-1/alice", record.RoomID, record.UserName)
	}
}

func TestSaveProgressRoundTrip(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	body := `{
		"roomId": "room-1",
		"userName": "alice",
		"code": "package main",
		"whiteboardContent": "<svg/>",
		"cursorPosition": {"x": 5, "y": 7}
	}`

	resp, err := http.Post(srv.URL+"/progress/save", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var saved saveProgressResponse
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatal(err)
	}
	if saved.Progress.Code != "package main" {
		t.Fatalf("got code %q, want the saved value", saved.Progress.Code)
	}
	if saved.Progress.CursorPosition.X != 5 || saved.Progress.CursorPosition.Y != 7 {
		t.Fatalf("got cursor %+v, want (5, 7)", saved.Progress.CursorPosition)
	}

	// The read side must return the saved record.
	getResp, err := http.Get(srv.URL + "/progress/room-1/alice")
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()

	var record domain.Progress
	if err := json.NewDecoder(getResp.Body).Decode(&record); err != nil {
		t.Fatal(err)
	}
	if record.Code != "package main" {
		t.Fatalf("got code %q, want the saved value", record.Code)
	}
}

func TestSaveProgressCoalescesMissingFields(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	body := `{"roomId": "room-1", "userName": "alice"}`

	resp, err := http.Post(srv.URL+"/progress/save", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var saved saveProgressResponse
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		t.Fatal(err)
	}
	if saved.Progress.Code != domain.DefaultCode {
		t.Fatalf("got code %q, want default", saved.Progress.Code)
	}
	if saved.Progress.DrawingData == nil || len(saved.Progress.DrawingData) != 0 {
		t.Fatalf("got drawing data %v, want empty", saved.Progress.DrawingData)
	}
}

func TestSaveProgressRequiresKey(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/progress/save", "application/json", strings.NewReader(`{"roomId": "room-1"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", resp.StatusCode)
	}
}

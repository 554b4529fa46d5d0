package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"example.com/mergington/internal/domain"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>Mergington High School</h1>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	registry := domain.NewRegistry(domain.DefaultActivities())
	handler := NewHandler(registry, staticDir, zaptest.NewLogger(t))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, srv http.Handler, method, activity, suffix, email string) *httptest.ResponseRecorder {
	t.Helper()
	target := "/activities/" + url.PathEscape(activity) + suffix
	if email != "" {
		target += "?email=" + url.QueryEscape(email)
	}
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func signup(t *testing.T, srv http.Handler, activity, email string) *httptest.ResponseRecorder {
	return do(t, srv, http.MethodPost, activity, "/signup", email)
}

func remove(t *testing.T, srv http.Handler, activity, email string) *httptest.ResponseRecorder {
	return do(t, srv, http.MethodDelete, activity, "/participants", email)
}

func getActivities(t *testing.T, srv http.Handler) map[string]domain.Activity {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var out map[string]domain.Activity
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode activities: %v", err)
	}
	return out
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp MessageResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	return resp.Message
}

func decodeDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	return resp.Detail
}

func TestRootRedirectsToIndex(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307 got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != IndexPath {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestStaticIndexServed(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{IndexPath, "/static/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Mergington High School") {
			t.Fatalf("%s: unexpected body %q", path, rr.Body.String())
		}
	}
}

func TestGetActivities(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	var raw map[string]map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	for name, activity := range raw {
		for _, key := range []string{"description", "schedule", "max_participants", "participants"} {
			if _, ok := activity[key]; !ok {
				t.Fatalf("activity %s missing %s", name, key)
			}
		}
		if _, ok := activity["participants"].([]any); !ok {
			t.Fatalf("activity %s participants is not a list", name)
		}
	}

	data := getActivities(t, srv)
	chess, ok := data["Chess Club"]
	if !ok {
		t.Fatalf("expected Chess Club in %v", data)
	}
	if _, ok := data["Basketball"]; !ok {
		t.Fatalf("expected Basketball in %v", data)
	}
	if chess.Description != "Learn strategies and compete in chess tournaments" {
		t.Fatalf("unexpected description %q", chess.Description)
	}
	if len(chess.Participants) != 2 {
		t.Fatalf("expected 2 participants got %d", len(chess.Participants))
	}
}

func TestSignupSuccess(t *testing.T) {
	srv := newTestServer(t)

	rr := signup(t, srv, "Chess Club", "newstudent@mergington.edu")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if msg := decodeMessage(t, rr); msg != "Signed up newstudent@mergington.edu for Chess Club" {
		t.Fatalf("unexpected message %q", msg)
	}
	if got := getActivities(t, srv)["Chess Club"].Participants; !slices.Contains(got, "newstudent@mergington.edu") {
		t.Fatalf("participant not added: %v", got)
	}
}

func TestSignupActivityNotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := signup(t, srv, "Nonexistent Activity", "student@mergington.edu")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Activity not found" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSignupDuplicateParticipant(t *testing.T) {
	srv := newTestServer(t)

	rr := signup(t, srv, "Chess Club", "michael@mergington.edu")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Student already signed up for this activity" {
		t.Fatalf("unexpected detail %q", detail)
	}
	if got := getActivities(t, srv)["Chess Club"].Participants; len(got) != 2 {
		t.Fatalf("expected 2 participants got %v", got)
	}
}

func TestSignupRequiresEmail(t *testing.T) {
	srv := newTestServer(t)

	rr := signup(t, srv, "Chess Club", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rr.Code)
	}
}

func TestSignupKeepsEmailAsSent(t *testing.T) {
	srv := newTestServer(t)

	if rr := signup(t, srv, "Basketball", " padded@mergington.edu"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := signup(t, srv, "Basketball", "padded@mergington.edu"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	got := getActivities(t, srv)["Basketball"].Participants
	if !slices.Equal(got, []string{"alex@mergington.edu", " padded@mergington.edu", "padded@mergington.edu"}) {
		t.Fatalf("unexpected participants %q", got)
	}

	if rr := signup(t, srv, "Basketball", "   "); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rr.Code)
	}
}

func TestRemoveParticipantSuccess(t *testing.T) {
	srv := newTestServer(t)

	rr := remove(t, srv, "Chess Club", "michael@mergington.edu")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if msg := decodeMessage(t, rr); msg != "Removed michael@mergington.edu from Chess Club" {
		t.Fatalf("unexpected message %q", msg)
	}
	if got := getActivities(t, srv)["Chess Club"].Participants; slices.Contains(got, "michael@mergington.edu") {
		t.Fatalf("participant not removed: %v", got)
	}
}

func TestRemoveParticipantActivityNotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := remove(t, srv, "Nonexistent Activity", "student@mergington.edu")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Activity not found" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestRemoveParticipantNotRegistered(t *testing.T) {
	srv := newTestServer(t)

	rr := remove(t, srv, "Chess Club", "notregistered@mergington.edu")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if detail := decodeDetail(t, rr); detail != "Student not registered for this activity" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSignupAndRemoveWorkflow(t *testing.T) {
	srv := newTestServer(t)
	const email = "workflow@mergington.edu"

	if rr := signup(t, srv, "Basketball", email); rr.Code != http.StatusOK {
		t.Fatalf("signup expected 200 got %d", rr.Code)
	}
	if got := getActivities(t, srv)["Basketball"].Participants; !slices.Contains(got, email) {
		t.Fatalf("expected %s in %v", email, got)
	}

	if rr := remove(t, srv, "Basketball", email); rr.Code != http.StatusOK {
		t.Fatalf("remove expected 200 got %d", rr.Code)
	}
	if got := getActivities(t, srv)["Basketball"].Participants; slices.Contains(got, email) {
		t.Fatalf("expected %s removed from %v", email, got)
	}
}

func TestUnsupportedMethodRejected(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "Chess Club", "/signup", "x@y.edu")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response %d %q", rr.Code, rr.Body.String())
	}
}

package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	return NewHTTPServer(svc, "*").Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func signUpToken(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doRequest(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":       "maps@example.com",
		"password":    "supersecret",
		"displayName": "Mapper",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup status = %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeResponse(t, rec)
	token, _ := payload["accessToken"].(string)
	if token == "" {
		t.Fatal("signup returned no access token")
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload := decodeResponse(t, rec); payload["ok"] != true {
		t.Errorf("payload = %v", payload)
	}
}

func TestProjectRoutesRequireAuth(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodGet, "/api/project", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSignUpConflict(t *testing.T) {
	handler := newTestHandler(t)
	signUpToken(t, handler)

	rec := doRequest(t, handler, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "maps@example.com",
		"password": "supersecret",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rec.Code)
	}
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpToken(t, handler)

	// First load creates the default project.
	rec := doRequest(t, handler, http.MethodGet, "/api/project", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get project status = %d: %s", rec.Code, rec.Body.String())
	}

	// Invalid coordinates are rejected.
	rec = doRequest(t, handler, http.MethodPost, "/api/project/locations", token, map[string]string{
		"name": "Warehouse A", "latitude": "not-a-number", "longitude": "5.1",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad coords status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/project/locations", token, map[string]string{
		"name": "Warehouse A", "latitude": "52.1", "longitude": "5.1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add location status = %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeResponse(t, rec)
	proj := payload["project"].(map[string]any)
	locations := proj["locations"].([]any)
	if len(locations) != 1 {
		t.Fatalf("got %d locations, want 1", len(locations))
	}
	locationID := locations[0].(map[string]any)["id"].(string)

	// Deleting an unknown location is a 404.
	rec = doRequest(t, handler, http.MethodDelete, "/api/project/locations/ghost", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete unknown status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodDelete, "/api/project/locations/"+locationID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	payload = decodeResponse(t, rec)
	proj = payload["project"].(map[string]any)
	if len(proj["locations"].([]any)) != 0 {
		t.Error("location not removed")
	}
}

func TestThemeValidationOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpToken(t, handler)

	rec := doRequest(t, handler, http.MethodPut, "/api/project/theme", token, map[string]string{"theme": "midnight"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown theme status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPut, "/api/project/theme", token, map[string]string{"theme": "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set theme status = %d: %s", rec.Code, rec.Body.String())
	}
	proj := decodeResponse(t, rec)["project"].(map[string]any)
	if proj["mapTheme"] != "dark" {
		t.Errorf("mapTheme = %v", proj["mapTheme"])
	}
}

func TestMapEventsOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpToken(t, handler)

	rec := doRequest(t, handler, http.MethodPost, "/api/map/events", token, map[string]any{
		"type": "moveend", "lat": 51.9, "lng": 4.4, "zoom": 11,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("moveend status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeResponse(t, rec)["map"].(map[string]any)
	if state["zoom"].(float64) != 11 {
		t.Errorf("zoom = %v", state["zoom"])
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/map/events", token, map[string]any{"type": "wiggle"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown event status = %d, want 422", rec.Code)
	}
}

func TestSearchLocationsOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpToken(t, handler)

	rec := doRequest(t, handler, http.MethodPost, "/api/project/locations", token, map[string]string{
		"name": "Warehouse A", "latitude": "52.1", "longitude": "5.1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add location status = %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/search/locations?q=warehouse", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeResponse(t, rec)
	results := payload["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %s", len(results), rec.Body.String())
	}
	if payload["source"] != "memory" {
		t.Errorf("source = %v", payload["source"])
	}
}

func TestExportHTMLOverHTTP(t *testing.T) {
	handler := newTestHandler(t)
	token := signUpToken(t, handler)

	rec := doRequest(t, handler, http.MethodPost, "/api/export/html", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != fmt.Sprintf("attachment; filename=%q", "interactive_map.html") {
		t.Errorf("content disposition = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "leaflet@1.9.4") {
		t.Error("export body is not the leaflet page")
	}
}

func TestSessionEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/session", "", nil)
	if payload := decodeResponse(t, rec); payload["authenticated"] != false {
		t.Errorf("anonymous session payload = %v", payload)
	}

	token := signUpToken(t, handler)
	rec = doRequest(t, handler, http.MethodGet, "/api/session", token, nil)
	payload := decodeResponse(t, rec)
	if payload["authenticated"] != true || payload["userName"] != "Mapper" {
		t.Errorf("session payload = %v", payload)
	}
}

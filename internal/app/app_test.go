package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"educorp_backend/internal/config"
	"educorp_backend/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server:   config.ServerConfig{Port: "0", Mode: "test"},
		Store:    config.StoreConfig{Type: "memory"},
		Identity: config.IdentityConfig{JWTSecret: "test-secret", SessionTTL: time.Hour, SessionStore: "memory", AccountStore: "memory"},
		Storage: config.StorageConfig{
			Type:          "local",
			LocalPath:     filepath.Join(dir, "uploads"),
			PublicBaseURL: "http://localhost:8080",
		},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
		Log:       config.LogConfig{File: filepath.Join(dir, "app.log"), MaxSizeMB: 1},
		Roles:     config.RolesConfig{DefaultRole: "student"},
	}
}

func do(t *testing.T, a *App, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRoutesEndToEnd(t *testing.T) {
	a := NewApp(testConfig(t), t.TempDir())

	if w, _ := do(t, a, http.MethodGet, "/api/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	if w, _ := do(t, a, http.MethodGet, "/api/courses", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("courses without token: %d", w.Code)
	}

	w, resp := do(t, a, http.MethodPost, "/api/register", "", map[string]string{
		"email": "learner@example.com", "password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	data, _ := resp["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("register returned no token: %s", w.Body.String())
	}

	if w, _ := do(t, a, http.MethodGet, "/api/profile", token, nil); w.Code != http.StatusOK {
		t.Fatalf("profile: %d %s", w.Code, w.Body.String())
	}
	if w, _ := do(t, a, http.MethodGet, "/api/me/statistics", token, nil); w.Code != http.StatusOK {
		t.Fatalf("statistics: %d %s", w.Code, w.Body.String())
	}
	if w, _ := do(t, a, http.MethodGet, "/api/admin/users", token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("student on admin route: %d", w.Code)
	}

	if w, _ := do(t, a, http.MethodPost, "/api/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}
	if w, _ := do(t, a, http.MethodGet, "/api/profile", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("profile after logout: %d", w.Code)
	}
}

func TestConfigReloadSwitchesUnenrollRetention(t *testing.T) {
	a := NewApp(testConfig(t), t.TempDir())
	ctx := context.Background()

	title := "Go"
	course, err := a.services.course.CreateCourse(ctx, &service.CourseInput{Title: &title})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	reloaded := testConfig(t)
	reloaded.Enrollment.DeleteProgressOnUnenroll = true
	for _, cb := range a.configCallbacks {
		cb(reloaded)
	}

	if _, err := a.services.enrollment.Enroll(ctx, "u1", course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if err := a.services.enrollment.Unenroll(ctx, "u1", course.ID); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}
	if p, _ := a.services.enrollment.GetProgress(ctx, "u1", course.ID); p != nil {
		t.Fatalf("reloaded config should remove progress on unenroll")
	}
}

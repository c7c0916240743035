package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewRouter_RoutesExist(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := newTestRouter(&fakeCommands{}, &fakeQueries{})

	expectedRoutes := map[string]string{
		"GET /health":                        "health",
		"POST /users":                        "create",
		"GET /users/:id":                     "get",
		"GET /users":                         "list",
		"GET /permissions/:permission/users": "group",
	}

	found := make(map[string]bool)
	for _, r := range router.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := expectedRoutes[key]; ok {
			found[key] = true
		}
	}

	for key, desc := range expectedRoutes {
		if !found[key] {
			t.Errorf("missing route %s (%s)", key, desc)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := newTestRouter(&fakeCommands{}, &fakeQueries{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestSwaggerRouteRegistered(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := newTestRouter(&fakeCommands{}, &fakeQueries{})

	found := false
	for _, r := range router.Routes() {
		if r.Method == "GET" && r.Path == "/swagger/*any" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected /swagger/*any route to be registered")
	}
}

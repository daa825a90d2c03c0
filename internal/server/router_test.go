package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mprlab/places/internal/app"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T) (http.Handler, *app.Container) {
	t.Helper()
	dir := t.TempDir()
	container, err := app.New(app.Config{
		DatabasePath: filepath.Join(dir, "places.db"),
		SessionPath:  filepath.Join(dir, "session.json"),
	})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	t.Cleanup(func() { container.Close() })

	handler, err := NewHTTPHandler(Dependencies{Container: container})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler, container
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestRegisterLoginAndCurrentUser(t *testing.T) {
	handler, _ := newTestHandler(t)

	response := doJSON(t, handler, http.MethodPost, "/session/register",
		`{"email":"ava@example.com","password":"secret","display_name":"Ava K"}`)
	if response.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", response.Code, response.Body.String())
	}
	var registered struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(response.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if registered.ID == "" || registered.DisplayName != "Ava K" {
		t.Fatalf("unexpected payload %#v", registered)
	}

	response = doJSON(t, handler, http.MethodGet, "/session/me", "")
	if response.Code != http.StatusOK {
		t.Fatalf("me status %d: %s", response.Code, response.Body.String())
	}

	response = doJSON(t, handler, http.MethodPost, "/session/logout", "")
	if response.Code != http.StatusNoContent {
		t.Fatalf("logout status %d", response.Code)
	}
	response = doJSON(t, handler, http.MethodGet, "/session/me", "")
	if response.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", response.Code)
	}

	response = doJSON(t, handler, http.MethodPost, "/session/login",
		`{"email":"ava@example.com","password":"anything"}`)
	if response.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", response.Code, response.Body.String())
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	handler, _ := newTestHandler(t)

	first := doJSON(t, handler, http.MethodPost, "/session/register",
		`{"email":"ava@example.com","password":"secret","display_name":"Ava K"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("register status %d", first.Code)
	}
	second := doJSON(t, handler, http.MethodPost, "/session/register",
		`{"email":"ava@example.com","password":"other","display_name":"Other"}`)
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", second.Code)
	}
}

func TestRegisterMalformedInputRejected(t *testing.T) {
	handler, _ := newTestHandler(t)

	response := doJSON(t, handler, http.MethodPost, "/session/register",
		`{"email":"not-an-email","password":"secret","display_name":"Ava K"}`)
	if response.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d: %s", response.Code, response.Body.String())
	}
}

func TestLoginUnknownEmailUnauthorized(t *testing.T) {
	handler, _ := newTestHandler(t)

	response := doJSON(t, handler, http.MethodPost, "/session/login",
		`{"email":"nobody@example.com","password":"x"}`)
	if response.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown email, got %d", response.Code)
	}
}

func TestFeedListAndToggles(t *testing.T) {
	handler, container := newTestHandler(t)

	if err := container.SeedSampleData(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	response := doJSON(t, handler, http.MethodGet, "/feed", "")
	if response.Code != http.StatusOK {
		t.Fatalf("feed status %d", response.Code)
	}
	var feed struct {
		Posts []struct {
			ID        string `json:"ID"`
			LikeCount int    `json:"LikeCount"`
		} `json:"posts"`
	}
	if err := json.Unmarshal(response.Body.Bytes(), &feed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(feed.Posts) != 4 {
		t.Fatalf("expected 4 seeded posts, got %d", len(feed.Posts))
	}

	response = doJSON(t, handler, http.MethodPost, "/feed/post_1/like", "")
	if response.Code != http.StatusOK {
		t.Fatalf("like status %d: %s", response.Code, response.Body.String())
	}
	post, err := container.FeedPosts.ByID(context.Background(), "post_1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if post.LikeCount != 46 || !post.IsLiked {
		t.Fatalf("unexpected state after like: count %d, liked %v", post.LikeCount, post.IsLiked)
	}

	response = doJSON(t, handler, http.MethodPost, "/feed/post_1/bookmark", "")
	if response.Code != http.StatusOK {
		t.Fatalf("bookmark status %d", response.Code)
	}
	post, err = container.FeedPosts.ByID(context.Background(), "post_1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !post.IsBookmarked {
		t.Fatalf("expected bookmark flag set")
	}

	response = doJSON(t, handler, http.MethodPost, "/feed/absent/like", "")
	if response.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing post, got %d", response.Code)
	}
}

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnshRaj112/travelstory-backend/internal/database"
	"github.com/AnshRaj112/travelstory-backend/internal/handlers"
	"github.com/AnshRaj112/travelstory-backend/internal/middleware"
	"github.com/AnshRaj112/travelstory-backend/internal/services"
	"github.com/AnshRaj112/travelstory-backend/internal/store/sqlstore"
)

const placeholder = "http://localhost:8000/assets/placeholder.png"

var dbSeq atomic.Int64

type testServer struct {
	router    http.Handler
	uploadDir string
}

func newTestServer(t *testing.T, debug bool) *testServer {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), dbSeq.Add(1)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	st, err := sqlstore.New(db, sqlstore.SQLite)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	uploadDir := t.TempDir()
	local, err := services.NewLocalStorage(uploadDir, "http://localhost:8000/uploads")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	media := services.NewMediaService(local)
	auth := services.NewAuthService(st, services.NewTokenService("test-secret", 72*time.Hour))

	h := handlers.New(handlers.Options{
		Auth:           auth,
		Stories:        services.NewStoryService(st, media, placeholder),
		Search:         services.NewSearchService(st),
		Media:          media,
		MaxUploadBytes: 1 << 20,
	})
	router := NewRouter(Options{
		Handler:           h,
		Verifier:          auth,
		AuthLimiter:       middleware.NewMemoryLimiter(100, time.Minute),
		UploadDir:         uploadDir,
		AllowedOrigins:    []string{"http://localhost:5173"},
		EnableDebugRoutes: debug,
	})
	return &testServer{router: router, uploadDir: uploadDir}
}

type envelope struct {
	Error       bool              `json:"error"`
	Message     string            `json:"message"`
	AccessToken string            `json:"accessToken"`
	ImageURL    string            `json:"imageUrl"`
	User        map[string]any    `json:"user"`
	Story       storyJSON         `json:"story"`
	Stories     []storyJSON       `json:"stories"`
	Users       []json.RawMessage `json:"users"`
}

type storyJSON struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	VisitedLocation []string  `json:"visitedLocation"`
	IsFavourite     bool      `json:"isFavourite"`
	ImageURL        string    `json:"imageUrl"`
	VisitedDate     time.Time `json:"visitedDate"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", req.Method, req.URL.Path, rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/create-account", "", map[string]string{
		"fullName": "Test User", "email": email, "password": "pw123456",
	})
	if code != http.StatusCreated || env.AccessToken == "" {
		t.Fatalf("register %s: %d %+v", email, code, env)
	}
	return env.AccessToken
}

func TestStoryScenario(t *testing.T) {
	s := newTestServer(t, false)

	code, env := s.do(t, http.MethodPost, "/create-account", "", map[string]string{
		"fullName": "Ada", "email": "a@x.com", "password": "pw123456",
	})
	if code != http.StatusCreated || env.Error || env.AccessToken == "" {
		t.Fatalf("create account: %d %+v", code, env)
	}
	if env.User["email"] != "a@x.com" || env.User["fullName"] != "Ada" {
		t.Fatalf("unexpected user: %+v", env.User)
	}
	if _, leaked := env.User["password"]; leaked {
		t.Fatalf("password must never be returned")
	}

	code, env = s.do(t, http.MethodPost, "/create-account", "", map[string]string{
		"fullName": "Ada", "email": "a@x.com", "password": "pw123456",
	})
	if code != http.StatusBadRequest || !env.Error {
		t.Fatalf("duplicate registration: %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "pw123456"})
	if code != http.StatusOK || env.AccessToken == "" {
		t.Fatalf("login: %d %+v", code, env)
	}
	token := env.AccessToken

	code, env = s.do(t, http.MethodGet, "/get-user", token, nil)
	if code != http.StatusOK || env.User["email"] != "a@x.com" {
		t.Fatalf("get user: %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodPost, "/add-story", token, map[string]any{
		"title":           "Trip",
		"story":           "Fun",
		"visitedLocation": []string{"Paris"},
		"imageUrl":        "http://x/img.png",
		"visitedDate":     "1700000000000",
	})
	if code != http.StatusCreated || env.Story.ID == "" {
		t.Fatalf("add story: %d %+v", code, env)
	}
	id := env.Story.ID

	code, env = s.do(t, http.MethodGet, "/get-all-stories", token, nil)
	if code != http.StatusOK || len(env.Stories) != 1 {
		t.Fatalf("list: %d %+v", code, env)
	}
	if !env.Stories[0].VisitedDate.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("unexpected visited date: %s", env.Stories[0].VisitedDate)
	}

	code, env = s.do(t, http.MethodPut, "/update-isFavourite/"+id, token, map[string]bool{"isFavourite": true})
	if code != http.StatusOK || !env.Story.IsFavourite {
		t.Fatalf("favourite: %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodGet, "/get-all-stories", token, nil)
	if code != http.StatusOK || len(env.Stories) != 1 || !env.Stories[0].IsFavourite {
		t.Fatalf("list after favourite: %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodDelete, "/delete-story/"+id, token, nil)
	if code != http.StatusOK || env.Error {
		t.Fatalf("delete: %d %+v", code, env)
	}

	code, env = s.do(t, http.MethodGet, "/get-all-stories", token, nil)
	if code != http.StatusOK || env.Stories == nil || len(env.Stories) != 0 {
		t.Fatalf("list after delete should be an empty array: %d %+v", code, env)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, false)

	for _, route := range [][2]string{
		{http.MethodGet, "/get-user"},
		{http.MethodPost, "/image-upload"},
		{http.MethodDelete, "/delete-image?imageUrl=x"},
		{http.MethodPost, "/add-story"},
		{http.MethodGet, "/get-all-stories"},
		{http.MethodPut, "/edit-story/1"},
		{http.MethodDelete, "/delete-story/1"},
		{http.MethodPut, "/update-isFavourite/1"},
		{http.MethodGet, "/search?query=x"},
		{http.MethodGet, "/travel-stories/filter?startDate=0&endDate=1"},
	} {
		if code, _ := s.do(t, route[0], route[1], "", nil); code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", route[0], route[1], code)
		}
		if code, _ := s.do(t, route[0], route[1], "garbage", nil); code != http.StatusUnauthorized {
			t.Fatalf("%s %s with bad token: expected 401, got %d", route[0], route[1], code)
		}
	}
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t, false)
	s.register(t, "a@x.com")

	if code, env := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "nope"}); code != http.StatusUnauthorized || env.Message != "Invalid Credentials" {
		t.Fatalf("wrong password: %d %+v", code, env)
	}
	if code, _ := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "b@x.com", "password": "pw123456"}); code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "a@x.com"}); code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "pw123456", "admin": "true"}); code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected 400, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/login", "", "{not json"); code != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", code)
	}
}

func TestStoryValidationAndOwnership(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.register(t, "alice@x.com")
	bob := s.register(t, "bob@x.com")

	story := map[string]any{
		"title":           "Oslo",
		"story":           "Cold",
		"visitedLocation": []string{"Oslo"},
		"imageUrl":        "http://x/img.png",
		"visitedDate":     1700000000000,
	}
	code, env := s.do(t, http.MethodPost, "/add-story", alice, story)
	if code != http.StatusCreated {
		t.Fatalf("add story with numeric date: %d %+v", code, env)
	}
	id := env.Story.ID

	for _, field := range []string{"title", "story", "visitedLocation", "imageUrl", "visitedDate"} {
		partial := map[string]any{}
		for k, v := range story {
			if k != field {
				partial[k] = v
			}
		}
		if code, _ := s.do(t, http.MethodPost, "/add-story", alice, partial); code != http.StatusBadRequest {
			t.Fatalf("missing %s: expected 400, got %d", field, code)
		}
	}
	if code, _ := s.do(t, http.MethodPost, "/add-story", alice, map[string]any{
		"title": "x", "story": "y", "visitedLocation": []string{"z"}, "imageUrl": "u", "visitedDate": "soon",
	}); code != http.StatusBadRequest {
		t.Fatalf("non-numeric date: expected 400, got %d", code)
	}

	if code, _ := s.do(t, http.MethodPut, "/edit-story/"+id, bob, story); code != http.StatusNotFound {
		t.Fatalf("bob edit: expected 404, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPut, "/update-isFavourite/"+id, bob, map[string]bool{"isFavourite": true}); code != http.StatusNotFound {
		t.Fatalf("bob favourite: expected 404, got %d", code)
	}
	if code, _ := s.do(t, http.MethodDelete, "/delete-story/"+id, bob, nil); code != http.StatusNotFound {
		t.Fatalf("bob delete: expected 404, got %d", code)
	}
	if _, env := s.do(t, http.MethodGet, "/search?query=oslo", bob, nil); len(env.Stories) != 0 {
		t.Fatalf("bob search should be empty: %+v", env.Stories)
	}
	if _, env := s.do(t, http.MethodGet, "/get-all-stories", bob, nil); len(env.Stories) != 0 {
		t.Fatalf("bob list should be empty: %+v", env.Stories)
	}

	if code, _ := s.do(t, http.MethodPut, "/update-isFavourite/"+id, alice, map[string]any{}); code != http.StatusBadRequest {
		t.Fatalf("missing isFavourite: expected 400, got %d", code)
	}

	edit := map[string]any{
		"title":           "Oslo again",
		"story":           "Still cold",
		"visitedLocation": []string{"Oslo", "Bergen"},
		"imageUrl":        "",
		"visitedDate":     "1710000000000",
	}
	code, env = s.do(t, http.MethodPut, "/edit-story/"+id, alice, edit)
	if code != http.StatusOK || env.Story.ImageURL != placeholder || len(env.Story.VisitedLocation) != 2 {
		t.Fatalf("edit: %d %+v", code, env)
	}
	if !env.Story.VisitedDate.Equal(time.UnixMilli(1710000000000)) {
		t.Fatalf("edit should update visitedDate, got %s", env.Story.VisitedDate)
	}
}

func TestSearchAndFilter(t *testing.T) {
	s := newTestServer(t, false)
	token := s.register(t, "a@x.com")

	for _, st := range []struct {
		title string
		date  int64
	}{
		{"Road to ABC", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC).UnixMilli()},
		{"Beach", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC).UnixMilli()},
	} {
		code, _ := s.do(t, http.MethodPost, "/add-story", token, map[string]any{
			"title": st.title, "story": "text", "visitedLocation": []string{"Somewhere"},
			"imageUrl": "http://x/img.png", "visitedDate": st.date,
		})
		if code != http.StatusCreated {
			t.Fatalf("add %s: %d", st.title, code)
		}
	}

	_, env := s.do(t, http.MethodGet, "/search?query=abc", token, nil)
	if len(env.Stories) != 1 || env.Stories[0].Title != "Road to ABC" {
		t.Fatalf("search: %+v", env.Stories)
	}
	if code, _ := s.do(t, http.MethodGet, "/search", token, nil); code != http.StatusBadRequest {
		t.Fatalf("empty query: expected 400, got %d", code)
	}

	_, env = s.do(t, http.MethodGet, "/travel-stories/filter?startDate=2024-03-01&endDate=2024-03-31", token, nil)
	if len(env.Stories) != 1 || env.Stories[0].Title != "Road to ABC" {
		t.Fatalf("filter: %+v", env.Stories)
	}
	if code, _ := s.do(t, http.MethodGet, "/travel-stories/filter?startDate=2024-03-01", token, nil); code != http.StatusBadRequest {
		t.Fatalf("missing endDate: expected 400, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/travel-stories/filter?startDate=2024-04-01&endDate=2024-03-01", token, nil); code != http.StatusBadRequest {
		t.Fatalf("inverted range: expected 400, got %d", code)
	}
}

func uploadRequest(t *testing.T, token, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/image-upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestImageUploadAndDelete(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.register(t, "alice@x.com")
	bob := s.register(t, "bob@x.com")

	code, env := s.serve(t, uploadRequest(t, alice, "photo.png", []byte("png-bytes")))
	if code != http.StatusCreated || env.ImageURL == "" {
		t.Fatalf("upload: %d %+v", code, env)
	}
	imageURL := env.ImageURL
	name := imageURL[strings.LastIndex(imageURL, "/")+1:]

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
		t.Fatalf("static serving: %d %q", rec.Code, rec.Body.String())
	}

	code, env = s.do(t, http.MethodDelete, "/delete-image?imageUrl="+imageURL, bob, nil)
	if code != http.StatusOK || env.Message != "Image not found" {
		t.Fatalf("bob delete-image should be a soft miss: %d %+v", code, env)
	}
	if _, err := os.Stat(filepath.Join(s.uploadDir, name)); err != nil {
		t.Fatalf("file must survive a foreign delete: %v", err)
	}

	code, env = s.do(t, http.MethodDelete, "/delete-image?imageUrl="+imageURL, alice, nil)
	if code != http.StatusOK || env.Error {
		t.Fatalf("delete-image: %d %+v", code, env)
	}
	if _, err := os.Stat(filepath.Join(s.uploadDir, name)); !os.IsNotExist(err) {
		t.Fatalf("file should be gone, stat err: %v", err)
	}

	if code, _ := s.do(t, http.MethodDelete, "/delete-image", alice, nil); code != http.StatusBadRequest {
		t.Fatalf("missing imageUrl: expected 400, got %d", code)
	}

	req := httptest.NewRequest(http.MethodPost, "/image-upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+alice)
	if code, _ := s.serve(t, req); code != http.StatusBadRequest {
		t.Fatalf("upload without file: expected 400, got %d", code)
	}

	if code, _ := s.serve(t, uploadRequest(t, alice, "notes.txt", []byte("hi"))); code != http.StatusBadRequest {
		t.Fatalf("non-image upload: expected 400, got %d", code)
	}

	if code, _ := s.serve(t, uploadRequest(t, alice, "huge.png", bytes.Repeat([]byte("x"), 3<<20))); code != http.StatusBadRequest {
		t.Fatalf("oversized upload: expected 400, got %d", code)
	}
}

func TestDebugAndHealthRoutes(t *testing.T) {
	s := newTestServer(t, false)
	if code, _ := s.do(t, http.MethodGet, "/get-all-users", "", nil); code != http.StatusNotFound {
		t.Fatalf("debug route should be hidden, got %d", code)
	}
	if code, env := s.do(t, http.MethodGet, "/hello", "", nil); code != http.StatusOK || env.Message != "hello" {
		t.Fatalf("hello: %d %+v", code, env)
	}

	debug := newTestServer(t, true)
	debug.register(t, "a@x.com")
	code, env := debug.do(t, http.MethodGet, "/get-all-users", "", nil)
	if code != http.StatusOK || len(env.Users) != 1 {
		t.Fatalf("get-all-users: %d %+v", code, env)
	}
	if strings.Contains(string(env.Users[0]), "password") {
		t.Fatalf("debug listing must not expose password hashes: %s", env.Users[0])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ENABLE_DEBUG_ROUTES") {
		t.Fatalf("swagger doc should explain the debug route switch: %d", rec.Code)
	}
}

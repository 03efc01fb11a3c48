package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AnshRaj112/travelstory-backend/internal/database"
	"github.com/AnshRaj112/travelstory-backend/internal/store/sqlstore"
)

const testPlaceholder = "http://localhost:8000/assets/placeholder.png"

type testEnv struct {
	store   *sqlstore.Store
	auth    *AuthService
	stories *StoryService
	search  *SearchService
	media   *MediaService
	local   *LocalStorage
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	st, err := sqlstore.New(db, sqlstore.SQLite)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	dir := t.TempDir()
	local, err := NewLocalStorage(dir, "http://localhost:8000/uploads")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	media := NewMediaService(local)

	return &testEnv{
		store:   st,
		auth:    NewAuthService(st, NewTokenService("test-secret", 72*time.Hour)),
		stories: NewStoryService(st, media, testPlaceholder),
		search:  NewSearchService(st),
		media:   media,
		local:   local,
		dir:     dir,
	}
}

// register creates an account and returns the new user's id.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	res, err := e.auth.CreateAccount(context.Background(), "Test User", email, "pw123456")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	id, err := e.auth.Authenticate(res.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return id
}

func millis(ms int64) *int64 {
	return &ms
}

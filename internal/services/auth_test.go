package services

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.auth.CreateAccount(ctx, "Ada Lovelace", "a@x.com", "pw123456")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if res.User.FullName != "Ada Lovelace" || res.User.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	id, err := env.auth.Authenticate(res.AccessToken)
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	stored, err := env.store.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("token should resolve to the new user: %v", err)
	}
	if stored.Password == "pw123456" || stored.Password == "" {
		t.Fatalf("password must be stored hashed, got %q", stored.Password)
	}

	other, err := env.auth.CreateAccount(ctx, "Bob", "b@x.com", "pw123456")
	if err != nil {
		t.Fatalf("create second account: %v", err)
	}
	otherID, _ := env.auth.Authenticate(other.AccessToken)
	if otherID == id {
		t.Fatalf("distinct accounts must get distinct ids")
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")

	_, err := env.auth.CreateAccount(context.Background(), "Again", "a@x.com", "other-pw")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct{ name, fullName, email, password string }{
		{"missing name", "", "a@x.com", "pw"},
		{"blank name", "   ", "a@x.com", "pw"},
		{"missing email", "Ada", "", "pw"},
		{"missing password", "Ada", "a@x.com", ""},
		{"malformed email", "Ada", "not-an-email", "pw"},
	}
	for _, tc := range cases {
		_, err := env.auth.CreateAccount(context.Background(), tc.fullName, tc.email, tc.password)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "a@x.com")

	res, err := env.auth.Login(ctx, "a@x.com", "pw123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	got, err := env.auth.Authenticate(res.AccessToken)
	if err != nil || got != id {
		t.Fatalf("login token should resolve to %s, got %s (%v)", id, got, err)
	}

	_, err = env.auth.Login(ctx, "a@x.com", "wrong-password")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if err.Error() != "Invalid Credentials" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	if _, err := env.auth.Login(ctx, "nobody@x.com", "pw123456"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.auth.Login(ctx, "A@x.com", "pw123456"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("emails are case-sensitive; expected ErrNotFound, got %v", err)
	}
	if _, err := env.auth.Login(ctx, "", "pw123456"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := env.auth.Login(ctx, "a@x.com", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "a@x.com")

	user, err := env.auth.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.ID != id || user.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := env.auth.GetUser(ctx, "deleted-user"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")
	env.register(t, "b@x.com")

	users, err := env.auth.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %+v", users)
	}
	emails := map[string]bool{users[0].Email: true, users[1].Email: true}
	if !emails["a@x.com"] || !emails["b@x.com"] {
		t.Fatalf("unexpected users: %+v", users)
	}
}

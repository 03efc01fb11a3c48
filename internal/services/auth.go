package services

import (
	"context"
	"errors"
	"strings"

	"github.com/AnshRaj112/travelstory-backend/internal/models"
	"github.com/AnshRaj112/travelstory-backend/internal/store"
	"github.com/AnshRaj112/travelstory-backend/pkg/utils"
)

// AuthResult is returned by account creation and login.
type AuthResult struct {
	User        models.PublicUser
	AccessToken string
}

type AuthService struct {
	users  store.UserStore
	tokens *TokenService
}

func NewAuthService(users store.UserStore, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// CreateAccount registers a user and signs them in.
func (s *AuthService) CreateAccount(ctx context.Context, fullName, email, password string) (AuthResult, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{}, invalid("All fields are required")
	}
	if err := utils.ValidateEmail(email); err != nil {
		return AuthResult{}, invalid("%s", err.Error())
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		FullName: strings.TrimSpace(fullName),
		Email:    email,
		Password: hash,
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return AuthResult{}, newError(ErrConflict, "User already exists")
		}
		return AuthResult{}, err
	}

	return s.signIn(user)
}

// Login checks credentials and issues a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{}, invalid("Email and Password are required")
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, newError(ErrNotFound, "User not found")
		}
		return AuthResult{}, err
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil && !errors.Is(err, utils.ErrInvalidHash) {
		return AuthResult{}, err
	}
	if !ok {
		return AuthResult{}, newError(ErrAuth, "Invalid Credentials")
	}

	return s.signIn(user)
}

// Authenticate resolves a bearer token to the user id it was issued for.
// It does not check that the user still exists.
func (s *AuthService) Authenticate(token string) (string, error) {
	return s.tokens.Verify(token)
}

// GetUser returns the caller's own record.
func (s *AuthService) GetUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, newError(ErrUnauthorized, "Unauthorized")
		}
		return models.User{}, err
	}
	return user, nil
}

// ListUsers backs the debug listing; only public fields leave this method.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *AuthService) signIn(user models.User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user.Public(), AccessToken: token}, nil
}

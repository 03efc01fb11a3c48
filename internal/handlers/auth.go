package handlers

import (
	"net/http"

	"github.com/AnshRaj112/travelstory-backend/internal/middleware"
	"github.com/AnshRaj112/travelstory-backend/internal/models"
)

// Create Account Request
type CreateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login Request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Auth Response
type AuthResponse struct {
	Error       bool              `json:"error"`
	Message     string            `json:"message"`
	User        models.PublicUser `json:"user"`
	AccessToken string            `json:"accessToken"`
}

type UserResponse struct {
	Error   bool        `json:"error"`
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type UsersResponse struct {
	Error   bool                `json:"error"`
	Message string              `json:"message"`
	Users   []models.PublicUser `json:"users"`
}

// CreateAccount godoc
// @Summary Register a user
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body CreateAccountRequest true "Account details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} MessageResponse
// @Router /create-account [post]
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.auth.CreateAccount(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Error:       false,
		Message:     "Registration Successful",
		User:        res.User,
		AccessToken: res.AccessToken,
	})
}

// Login godoc
// @Summary Sign in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} MessageResponse
// @Failure 401 {object} MessageResponse
// @Failure 404 {object} MessageResponse
// @Router /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Error:       false,
		Message:     "Login Successful",
		User:        res.User,
		AccessToken: res.AccessToken,
	})
}

// GetUser godoc
// @Summary Current user's profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} MessageResponse
// @Router /get-user [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// GetAllUsers lists every account. Only mounted when debug routes are enabled.
//
// @Summary Debug: list all users
// @Description Mounted only when ENABLE_DEBUG_ROUTES=true; otherwise the route answers 404.
// @Tags Debug
// @Produce json
// @Success 200 {object} UsersResponse
// @Failure 404 "Debug routes disabled"
// @Router /get-all-users [get]
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

// Hello godoc
// @Summary Connectivity check
// @Tags Health
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /hello [get]
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, false, "hello")
}

// Health godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, false, "ok")
}

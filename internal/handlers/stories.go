package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/travelstory-backend/internal/middleware"
	"github.com/AnshRaj112/travelstory-backend/internal/models"
	"github.com/AnshRaj112/travelstory-backend/internal/services"
)

// StoryRequest is the body of add-story and edit-story.
type StoryRequest struct {
	Title           string      `json:"title"`
	Story           string      `json:"story"`
	VisitedLocation []string    `json:"visitedLocation"`
	ImageURL        string      `json:"imageUrl"`
	VisitedDate     EpochMillis `json:"visitedDate" swaggertype:"integer" example:"1700000000000"`
}

func (req StoryRequest) input() services.StoryInput {
	return services.StoryInput{
		Title:           req.Title,
		Story:           req.Story,
		VisitedLocation: req.VisitedLocation,
		ImageURL:        req.ImageURL,
		VisitedDate:     req.VisitedDate.ptr(),
	}
}

type FavouriteRequest struct {
	IsFavourite *bool `json:"isFavourite"`
}

type StoryResponse struct {
	Error   bool               `json:"error"`
	Message string             `json:"message"`
	Story   models.TravelStory `json:"story"`
}

type StoriesResponse struct {
	Error   bool                 `json:"error"`
	Message string               `json:"message"`
	Stories []models.TravelStory `json:"stories"`
}

// AddStory godoc
// @Summary Create a travel story
// @Tags Stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StoryRequest true "Story"
// @Success 201 {object} StoryResponse
// @Failure 400 {object} MessageResponse
// @Failure 401 {object} MessageResponse
// @Router /add-story [post]
func (h *Handler) AddStory(w http.ResponseWriter, r *http.Request) {
	var req StoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	story, err := h.stories.Create(r.Context(), userID, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, StoryResponse{
		Message: "Story added successfully",
		Story:   story,
	})
}

// GetAllStories godoc
// @Summary List the caller's stories, favourites first
// @Tags Stories
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StoriesResponse
// @Failure 401 {object} MessageResponse
// @Router /get-all-stories [get]
func (h *Handler) GetAllStories(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	stories, err := h.stories.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StoriesResponse{Stories: stories})
}

// EditStory godoc
// @Summary Update a story
// @Description A blank imageUrl is replaced by the placeholder image.
// @Tags Stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Story ID"
// @Param body body StoryRequest true "Story"
// @Success 200 {object} StoryResponse
// @Failure 400 {object} MessageResponse
// @Failure 404 {object} MessageResponse
// @Router /edit-story/{id} [put]
func (h *Handler) EditStory(w http.ResponseWriter, r *http.Request) {
	var req StoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	story, err := h.stories.Edit(r.Context(), userID, chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StoryResponse{
		Message: "Update successful",
		Story:   story,
	})
}

// DeleteStory godoc
// @Summary Delete a story and its uploaded image
// @Tags Stories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Story ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} MessageResponse
// @Router /delete-story/{id} [delete]
func (h *Handler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.stories.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, false, "Story deleted successfully")
}

// UpdateIsFavourite godoc
// @Summary Set the favourite flag
// @Tags Stories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Story ID"
// @Param body body FavouriteRequest true "Flag"
// @Success 200 {object} StoryResponse
// @Failure 400 {object} MessageResponse
// @Failure 404 {object} MessageResponse
// @Router /update-isFavourite/{id} [put]
func (h *Handler) UpdateIsFavourite(w http.ResponseWriter, r *http.Request) {
	var req FavouriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsFavourite == nil {
		writeMessage(w, http.StatusBadRequest, true, "isFavourite is required")
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	story, err := h.stories.SetFavourite(r.Context(), userID, chi.URLParam(r, "id"), *req.IsFavourite)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StoryResponse{
		Message: "Update successful",
		Story:   story,
	})
}

// Search godoc
// @Summary Case-insensitive substring search over title, story and locations
// @Tags Stories
// @Produce json
// @Security BearerAuth
// @Param query query string true "Text to look for"
// @Success 200 {object} StoriesResponse
// @Failure 400 {object} MessageResponse
// @Router /search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	stories, err := h.search.Search(r.Context(), userID, r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StoriesResponse{Stories: stories})
}

// FilterByDate godoc
// @Summary Stories visited within a date range
// @Description Bounds are inclusive: epoch milliseconds, RFC 3339 or YYYY-MM-DD.
// @Tags Stories
// @Produce json
// @Security BearerAuth
// @Param startDate query string true "Start bound"
// @Param endDate query string true "End bound"
// @Success 200 {object} StoriesResponse
// @Failure 400 {object} MessageResponse
// @Router /travel-stories/filter [get]
func (h *Handler) FilterByDate(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	q := r.URL.Query()
	stories, err := h.search.FilterByDateRange(r.Context(), userID, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, StoriesResponse{Stories: stories})
}

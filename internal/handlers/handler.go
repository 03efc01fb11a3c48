package handlers

import (
	"github.com/AnshRaj112/travelstory-backend/internal/services"
)

// Handler serves the travel story API.
type Handler struct {
	auth           *services.AuthService
	stories        *services.StoryService
	search         *services.SearchService
	media          *services.MediaService
	maxUploadBytes int64
}

type Options struct {
	Auth           *services.AuthService
	Stories        *services.StoryService
	Search         *services.SearchService
	Media          *services.MediaService
	MaxUploadBytes int64
}

func New(opts Options) *Handler {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		auth:           opts.Auth,
		stories:        opts.Stories,
		search:         opts.Search,
		media:          opts.Media,
		maxUploadBytes: maxUpload,
	}
}

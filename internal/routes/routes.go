package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/AnshRaj112/travelstory-backend/docs"
	"github.com/AnshRaj112/travelstory-backend/internal/handlers"
	"github.com/AnshRaj112/travelstory-backend/internal/middleware"
)

type Options struct {
	Handler     *handlers.Handler
	Verifier    middleware.TokenVerifier
	AuthLimiter middleware.Limiter

	UploadDir string
	AssetsDir string

	AllowedOrigins    []string
	Production        bool
	AllowedHost       string
	EnableDebugRoutes bool
}

// NewRouter builds the full middleware stack and endpoint table.
func NewRouter(opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))

	if opts.Production {
		for _, mw := range middleware.ProductionSecurity(opts.AllowedHost) {
			r.Use(mw)
		}
	}

	SetupRoutes(r, opts)
	return r
}

func SetupRoutes(r chi.Router, opts Options) {
	h := opts.Handler

	r.Get("/hello", h.Hello)
	r.Get("/health", h.Health)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Static files
	if opts.UploadDir != "" {
		mountStatic(r, "/uploads", opts.UploadDir)
	}
	if opts.AssetsDir != "" {
		mountStatic(r, "/assets", opts.AssetsDir)
	}

	// Auth routes
	r.Group(func(r chi.Router) {
		if opts.AuthLimiter != nil {
			r.Use(middleware.RateLimit(opts.AuthLimiter, "auth"))
		}
		r.Post("/create-account", h.CreateAccount)
		r.Post("/login", h.Login)
	})

	// Bearer token required from here on
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(opts.Verifier))

		r.Get("/get-user", h.GetUser)

		r.Post("/image-upload", h.ImageUpload)
		r.Delete("/delete-image", h.DeleteImage)

		r.Post("/add-story", h.AddStory)
		r.Get("/get-all-stories", h.GetAllStories)
		r.Put("/edit-story/{id}", h.EditStory)
		r.Delete("/delete-story/{id}", h.DeleteStory)
		r.Put("/update-isFavourite/{id}", h.UpdateIsFavourite)

		r.Get("/search", h.Search)
		r.Get("/travel-stories/filter", h.FilterByDate)
	})

	if opts.EnableDebugRoutes {
		r.Get("/get-all-users", h.GetAllUsers)
	}
}

// mountStatic serves files from dir under prefix without directory listings.
func mountStatic(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(w, req)
			return
		}
		fs.ServeHTTP(w, req)
	})
}

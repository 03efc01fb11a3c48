// @title Travel Story API
// @version 1.0
// @description Travel journal backend: accounts, owner-scoped stories, image uploads, search and date filtering.
// @host localhost:8000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/travelstory-backend/internal/config"
	"github.com/AnshRaj112/travelstory-backend/internal/database"
	"github.com/AnshRaj112/travelstory-backend/internal/handlers"
	"github.com/AnshRaj112/travelstory-backend/internal/middleware"
	"github.com/AnshRaj112/travelstory-backend/internal/routes"
	"github.com/AnshRaj112/travelstory-backend/internal/services"
	"github.com/AnshRaj112/travelstory-backend/internal/store"
	"github.com/AnshRaj112/travelstory-backend/internal/store/mongostore"
	"github.com/AnshRaj112/travelstory-backend/internal/store/sqlstore"
)

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if cfg.TokenSecret == config.DefaultTokenSecret {
		log.Println("⚠️  WARNING: ACCESS_TOKEN_SECRET not set, using the development default")
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			log.Printf("⚠️  Failed to close store: %v", err)
		}
	}()

	// Redis is optional; without it the auth limiter is per-process.
	if cfg.RedisURI != "" {
		log.Printf("Connecting to Redis...")
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.Printf("⚠️  WARNING: Redis unavailable, using in-process rate limiting: %v", err)
		} else {
			defer database.DisconnectRedis()
		}
	}

	storage, err := openStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media storage: ", err)
	}

	tokens := services.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)
	auth := services.NewAuthService(st, tokens)
	media := services.NewMediaService(storage)
	h := handlers.New(handlers.Options{
		Auth:           auth,
		Stories:        services.NewStoryService(st, media, cfg.PlaceholderImageURL),
		Search:         services.NewSearchService(st),
		Media:          media,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	r := routes.NewRouter(routes.Options{
		Handler:           h,
		Verifier:          auth,
		AuthLimiter:       middleware.NewLimiter(database.RedisClient, cfg.AuthRateLimit, cfg.AuthRateWindow),
		UploadDir:         cfg.UploadDir,
		AssetsDir:         cfg.AssetsDir,
		AllowedOrigins:    cfg.AllowedOrigins,
		Production:        cfg.IsProduction(),
		AllowedHost:       cfg.AllowedHost,
		EnableDebugRoutes: cfg.EnableDebugRoutes,
	})
	if cfg.IsProduction() {
		log.Println("✅ Production security enabled (security headers, host check, per-IP rate limiting)")
	}
	if cfg.EnableDebugRoutes {
		log.Println("⚠️  Debug routes enabled: GET /get-all-users")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 Travel Story backend running on :%s (store=%s, media=%s)", cfg.Port, cfg.StoreDriver, cfg.MediaBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("❌ Server error: %v", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "mongo":
		log.Printf("Connecting to MongoDB...")
		log.Printf("MongoDB URI: %s", maskURI(cfg.MongoURI))
		if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		st := mongostore.New(database.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.EnsureIndexes(ctx); err != nil {
			log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
		} else {
			log.Println("✅ MongoDB indexes ensured")
		}
		return st, nil

	case "postgres":
		log.Printf("Connecting to PostgreSQL...")
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		return sqlstore.New(database.PostgresDB, sqlstore.Postgres)

	case "sqlite":
		if err := database.ConnectSQLite(cfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("open SQLite: %w", err)
		}
		return sqlstore.New(database.SQLiteDB, sqlstore.SQLite)
	}
	return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
}

func openStorage(cfg *config.Config) (services.Storage, error) {
	switch cfg.MediaBackend {
	case "cloudinary":
		s, err := services.NewCloudinaryStorage(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			return nil, err
		}
		log.Println("✅ Cloudinary media storage initialized")
		return s, nil

	case "s3":
		s := services.NewS3Storage(services.S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		})
		log.Printf("✅ S3 media storage initialized (bucket %s)", cfg.S3.Bucket)
		return s, nil
	}

	s, err := services.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Local media storage at %s", cfg.UploadDir)
	return s, nil
}

// maskURI hides the password of a mongodb:// style URI for logging.
func maskURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return uri
	}
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return uri
	}
	return scheme + "://" + user + ":***@" + host
}

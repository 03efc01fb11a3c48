package store

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/travelstory-backend/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// DateRange bounds are both inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

type Store interface {
	UserStore
	StoryStore
	Close(ctx context.Context) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// StoryStore methods that take an owner must match on both id and owner;
// a story owned by someone else is reported as ErrNotFound.
// List results are ordered favourites first.
type StoryStore interface {
	CreateStory(ctx context.Context, story *models.TravelStory) error
	ListStories(ctx context.Context, owner string) ([]models.TravelStory, error)
	UpdateStory(ctx context.Context, owner, id string, fields models.StoryFields) (models.TravelStory, error)
	SetFavourite(ctx context.Context, owner, id string, favourite bool) (models.TravelStory, error)
	DeleteStory(ctx context.Context, owner, id string) (models.TravelStory, error)
	SearchStories(ctx context.Context, owner, query string) ([]models.TravelStory, error)
	FilterStoriesByDate(ctx context.Context, owner string, r DateRange) ([]models.TravelStory, error)
}

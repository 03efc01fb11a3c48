package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/AnshRaj112/travelstory-backend/internal/models"
	"github.com/AnshRaj112/travelstory-backend/internal/store"
)

// StoryInput is the caller-supplied content of a story. VisitedDate is epoch
// milliseconds; nil means it was not sent.
type StoryInput struct {
	Title           string
	Story           string
	VisitedLocation []string
	ImageURL        string
	VisitedDate     *int64
}

type StoryService struct {
	stories        store.StoryStore
	media          *MediaService
	placeholderURL string
}

func NewStoryService(stories store.StoryStore, media *MediaService, placeholderURL string) *StoryService {
	return &StoryService{stories: stories, media: media, placeholderURL: placeholderURL}
}

// Create stores a new story owned by owner. Every field is required.
func (s *StoryService) Create(ctx context.Context, owner string, in StoryInput) (models.TravelStory, error) {
	if strings.TrimSpace(in.ImageURL) == "" {
		return models.TravelStory{}, invalid("All fields are required")
	}
	fields, err := in.fields()
	if err != nil {
		return models.TravelStory{}, err
	}

	story := models.TravelStory{
		Title:           fields.Title,
		Story:           fields.Story,
		VisitedLocation: fields.VisitedLocation,
		UserID:          owner,
		ImageURL:        fields.ImageURL,
		VisitedDate:     fields.VisitedDate,
	}
	if err := s.stories.CreateStory(ctx, &story); err != nil {
		return models.TravelStory{}, err
	}
	return story, nil
}

// List returns the owner's stories, favourites first.
func (s *StoryService) List(ctx context.Context, owner string) ([]models.TravelStory, error) {
	return s.stories.ListStories(ctx, owner)
}

// Edit replaces the editable fields of an owned story. A blank image URL is
// replaced with the placeholder image.
func (s *StoryService) Edit(ctx context.Context, owner, id string, in StoryInput) (models.TravelStory, error) {
	fields, err := in.fields()
	if err != nil {
		return models.TravelStory{}, err
	}
	if fields.ImageURL == "" {
		fields.ImageURL = s.placeholderURL
	}

	story, err := s.stories.UpdateStory(ctx, owner, id, fields)
	if err != nil {
		return models.TravelStory{}, storyNotFound(err)
	}
	return story, nil
}

// Delete removes an owned story and then its uploaded image. Image cleanup
// failures are logged and never returned.
func (s *StoryService) Delete(ctx context.Context, owner, id string) error {
	story, err := s.stories.DeleteStory(ctx, owner, id)
	if err != nil {
		return storyNotFound(err)
	}

	if s.media == nil || story.ImageURL == "" || story.ImageURL == s.placeholderURL {
		return nil
	}
	removed, err := s.media.Delete(ctx, owner, story.ImageURL)
	if err != nil {
		log.Printf("⚠️  Failed to delete image for story %s: %v", id, err)
	} else if !removed {
		log.Printf("ℹ️  No uploaded image removed for story %s (%s)", id, story.ImageURL)
	}
	return nil
}

// SetFavourite updates the favourite flag of an owned story.
func (s *StoryService) SetFavourite(ctx context.Context, owner, id string, favourite bool) (models.TravelStory, error) {
	story, err := s.stories.SetFavourite(ctx, owner, id, favourite)
	if err != nil {
		return models.TravelStory{}, storyNotFound(err)
	}
	return story, nil
}

func (in StoryInput) fields() (models.StoryFields, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Story)
	if title == "" || body == "" || in.VisitedDate == nil {
		return models.StoryFields{}, invalid("All fields are required")
	}

	locations := make([]string, 0, len(in.VisitedLocation))
	for _, loc := range in.VisitedLocation {
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, loc)
		}
	}
	if len(locations) == 0 {
		return models.StoryFields{}, invalid("All fields are required")
	}

	return models.StoryFields{
		Title:           title,
		Story:           in.Story,
		VisitedLocation: locations,
		ImageURL:        strings.TrimSpace(in.ImageURL),
		VisitedDate:     time.UnixMilli(*in.VisitedDate).UTC(),
	}, nil
}

func storyNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return newError(ErrNotFound, "Travel story not found")
	}
	return err
}

package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/travelstory-backend/internal/models"
	"github.com/AnshRaj112/travelstory-backend/internal/store"
)

const dateOnly = "2006-01-02"

type SearchService struct {
	stories store.StoryStore
}

func NewSearchService(stories store.StoryStore) *SearchService {
	return &SearchService{stories: stories}
}

// Search matches query as a literal, case-insensitive substring of the
// title, the story text or any visited location.
func (s *SearchService) Search(ctx context.Context, owner, query string) ([]models.TravelStory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, invalid("query is required")
	}
	return s.stories.SearchStories(ctx, owner, query)
}

// FilterByDateRange returns stories visited between startDate and endDate,
// both inclusive. See ParseDateRange for the accepted formats.
func (s *SearchService) FilterByDateRange(ctx context.Context, owner, startDate, endDate string) ([]models.TravelStory, error) {
	r, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.stories.FilterStoriesByDate(ctx, owner, r)
}

// ParseDateRange accepts epoch milliseconds, RFC 3339 or YYYY-MM-DD for each
// bound. A date-only end bound covers the whole UTC day.
func ParseDateRange(startDate, endDate string) (store.DateRange, error) {
	startDate, endDate = strings.TrimSpace(startDate), strings.TrimSpace(endDate)
	if startDate == "" || endDate == "" {
		return store.DateRange{}, invalid("startDate and endDate are required")
	}
	start, err := parseBound(startDate, false)
	if err != nil {
		return store.DateRange{}, invalid("startDate must be epoch milliseconds, RFC 3339 or YYYY-MM-DD")
	}
	end, err := parseBound(endDate, true)
	if err != nil {
		return store.DateRange{}, invalid("endDate must be epoch milliseconds, RFC 3339 or YYYY-MM-DD")
	}
	if start.After(end) {
		return store.DateRange{}, invalid("startDate must not be after endDate")
	}
	return store.DateRange{Start: start, End: end}, nil
}

func parseBound(raw string, end bool) (time.Time, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

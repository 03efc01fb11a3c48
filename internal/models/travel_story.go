package models

import "time"

// TravelStory is one journal entry owned by exactly one user.
type TravelStory struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Story           string    `json:"story"`
	VisitedLocation []string  `json:"visitedLocation"`
	IsFavourite     bool      `json:"isFavourite"`
	UserID          string    `json:"userId"`
	CreatedOn       time.Time `json:"createdOn"`
	ImageURL        string    `json:"imageUrl"`
	VisitedDate     time.Time `json:"visitedDate"`
}

// StoryFields are the caller-editable attributes shared by create and edit.
type StoryFields struct {
	Title           string
	Story           string
	VisitedLocation []string
	ImageURL        string
	VisitedDate     time.Time
}

package types

import (
	"fmt"
	"time"
)

// PhotoCategories groups a photo for the album views.
type PhotoCategories struct {
	TimeKey    string   `json:"timeKey,omitempty"`
	SceneKey   string   `json:"sceneKey,omitempty"`
	PeopleKey  string   `json:"peopleKey,omitempty"`
	CustomKeys []string `json:"customKeys,omitempty"`
}

// PhotoHints holds editing suggestions shown next to a photo.
type PhotoHints struct {
	Suggestions []string `json:"suggestions,omitempty"`
}

// Photo is an album entry. Src holds the compressed image as a data URL.
type Photo struct {
	ID         string           `json:"id"`
	Src        string           `json:"src"`
	Date       string           `json:"date,omitempty"`      // YYYY-MM-DD, indexed
	CreatedAt  string           `json:"createdAt,omitempty"` // RFC 3339
	Location   string           `json:"location,omitempty"`
	Relations  string           `json:"relations,omitempty"`
	Scene      string           `json:"scene,omitempty"`
	Tags       []string         `json:"tags,omitempty"`
	Categories *PhotoCategories `json:"categories,omitempty"`
	Note       string           `json:"note,omitempty"`
	Style      string           `json:"style,omitempty"`
	AIHints    *PhotoHints      `json:"aiHints,omitempty"`
}

func (p *Photo) RecordID() string   { return p.ID }
func (p *Photo) Collection() string { return CollectionPhotos }

// Validate requires an identifier and an image, and checks both dates.
func (p *Photo) Validate() error {
	if err := requireField("id", p.ID); err != nil {
		return err
	}
	if err := requireField("src", p.Src); err != nil {
		return err
	}
	if p.CreatedAt != "" {
		if _, err := time.Parse(time.RFC3339, p.CreatedAt); err != nil {
			return fmt.Errorf("%w: createdAt=%q", ErrInvalidDate, p.CreatedAt)
		}
	}
	return validDate("date", p.Date, true)
}

// Normalize derives Date from CreatedAt when it is empty, so that the photo
// shows up in date lookups.
func (p *Photo) Normalize() {
	if p.Date == "" {
		p.Date = p.Day()
	}
}

// Day returns the calendar date of the photo: Date when set, otherwise the
// date part of CreatedAt. Photos saved by the browser app carry only
// CreatedAt.
func (p *Photo) Day() string {
	if p.Date != "" {
		return p.Date
	}
	created, err := time.Parse(time.RFC3339, p.CreatedAt)
	if err != nil {
		return ""
	}
	return created.Format(DateLayout)
}

package types

import "github.com/google/uuid"

// NewID returns a fresh record identifier (UUID v7, time ordered).
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

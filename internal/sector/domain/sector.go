package domain

import (
	"errors"
	"time"
)

// Sector is a long-lived top-level business domain scoping points, services, and owners.
type Sector struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Validate validates the sector for persistence.
func (s *Sector) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

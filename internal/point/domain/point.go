package domain

import (
	"errors"
	"time"
)

// GtcPoint is a field partner entity attached to a sector. Points are created
// directly by an admin or materialized when an onboarding is approved.
type GtcPoint struct {
	ID        string
	Name      string
	Email     string
	SectorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the point for persistence.
func (p *GtcPoint) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Email == "" {
		return errors.New("email is required")
	}
	if p.SectorID == "" {
		return errors.New("sector is required")
	}
	return nil
}

// Service is an offered capability scoped to one sector.
type Service struct {
	ID        string
	Code      string
	Name      string
	SectorID  string
	CreatedAt time.Time
}

// LinkStatus is the status of a point's link to a service.
type LinkStatus string

const (
	LinkEnabled        LinkStatus = "ENABLED"
	LinkDisabled       LinkStatus = "DISABLED"
	LinkPendingRequest LinkStatus = "PENDING_REQUEST"
)

// ServiceLink ties a point to a service. Composite-unique on (point, service).
type ServiceLink struct {
	GtcPointID string
	ServiceID  string
	Status     LinkStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

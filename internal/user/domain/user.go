package domain

import (
	"errors"
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
)

// User is the core user entity. Role is immutable after creation.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         rbac.Role
	SectorID     string // set for SECTOR_OWNER users
	GtcPointID   string // set for GTC_POINT users
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !u.Role.Valid() {
		return errors.New("role is required")
	}
	if u.Role == rbac.RoleGtcPoint && u.GtcPointID == "" {
		return errors.New("gtc point users must reference a point")
	}
	return nil
}
